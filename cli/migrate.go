package cli

import (
	"context"

	"github.com/spf13/cobra"

	"storefront/config"
	"storefront/services"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed exchange rates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(*configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := config.Migrate(a.db); err != nil {
				return err
			}
			if err := seed(cmd.Context(), a); err != nil {
				return err
			}

			a.log.Info("資料庫遷移完成")
			return nil
		},
	}
}

// 建立預設商店並寫入設定檔中的匯率
func seed(ctx context.Context, a *app) error {
	tenants := services.NewTenantService(a.db)
	if _, err := tenants.Create(ctx, a.cfg.Server.DefaultTenant, a.cfg.Server.DefaultTenant, a.cfg.Payment.Currency); err != nil {
		return err
	}
	wallet := services.NewWalletService(a.db, a.cfg.Wallet.BaseCurrency)
	return wallet.SeedRates(ctx, a.cfg.Wallet.Rates)
}
