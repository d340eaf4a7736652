package cli

import (
	"context"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"storefront/invoice"
	"storefront/jwt"
	"storefront/payment"
	"storefront/routers"
	"storefront/services"
	"storefront/storage"
	"storefront/worker"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the pending-order cleanup worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(*configPath, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := a.rdb.Ping(ctx).Err(); err != nil {
		a.log.Warnf("無法連接到Redis，商品列表將直接讀取資料庫: %v", err)
	}
	if err := seed(ctx, a); err != nil {
		return errors.Wrap(err, "初始化資料失敗")
	}

	tokens, err := jwt.NewManagerFromFiles(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath, cfg.JWT.TokenTTL, a.db)
	if err != nil {
		return errors.Wrap(err, "無法讀取JWT金鑰")
	}

	gateway, err := payment.NewGateway(cfg.Payment, a.log)
	if err != nil {
		return err
	}

	invoices, err := invoice.NewRenderer(cfg.Server.InvoiceFont)
	if err != nil {
		return err
	}

	catalog := services.NewCatalogService(a.db, a.rdb, a.log)
	carts := services.NewCartService(a.db)
	orders := services.NewOrderService(a.db, catalog, carts, gateway, cfg.Server.PendingOrderTimeout, a.log)

	router, err := routers.SetupRouters(routers.Dependencies{
		Config:   cfg.Server,
		Log:      a.log,
		Tokens:   tokens,
		Tenants:  services.NewTenantService(a.db),
		Users:    services.NewUserService(a.db, tokens),
		Catalog:  catalog,
		Carts:    carts,
		Orders:   orders,
		Wishlist: services.NewWishlistService(a.db),
		Address:  services.NewAddressService(a.db),
		Wallet:   services.NewWalletService(a.db, cfg.Wallet.BaseCurrency),
		Blog:     services.NewBlogService(a.db),
		Images:   storage.NewLocalStore(cfg.Server.UploadsDir, cfg.Server.PublicBaseURL),
		Gateway:  gateway,
		Invoices: invoices,
	})
	if err != nil {
		return errors.Wrap(err, "無法建立路由")
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	cleanup := worker.NewCleanupWorker(orders, tokens, cfg.Server.PendingOrderTimeout, cfg.Server.CleanupInterval, a.log)
	wg.Add(1)
	go cleanup.Start(workerCtx, wg)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("伺服器啟動於%s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.log.Info("正在關閉伺服器")
	case err = <-errCh:
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		a.log.Errorf("關閉伺服器失敗: %v", shutdownErr)
	}

	// Notify workers to stop
	cancel()
	wg.Wait()
	return err
}
