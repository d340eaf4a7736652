package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	LogTypeConsole = "console"
	LogTypeFile    = "file"

	PaymentProviderStripe = "stripe"
	PaymentProviderFake   = "fake"
)

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	TrustedProxies []string `yaml:"trustedProxies"`
	CorsOrigins    []string `yaml:"corsOrigins"`
	UploadsDir     string   `yaml:"uploadsDir"`
	PublicBaseURL  string   `yaml:"publicBaseURL"`
	DefaultTenant  string   `yaml:"defaultTenant"`
	// 未付款訂單超過此時間自動取消
	PendingOrderTimeout time.Duration `yaml:"pendingOrderTimeout"`
	CleanupInterval     time.Duration `yaml:"cleanupInterval"`
	// 發票使用的TrueType字型，空白時只能顯示西歐字元
	InvoiceFont string `yaml:"invoiceFont"`
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver" validate:"required,oneof=mysql postgres sqlite"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	Database    string `yaml:"database"`
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"autoMigrate"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" validate:"required"`
	Password string `yaml:"password"`
	Database int    `yaml:"database" validate:"gte=0"`
}

type JWTConfig struct {
	PrivateKeyPath string        `yaml:"privateKeyPath" validate:"required"`
	PublicKeyPath  string        `yaml:"publicKeyPath" validate:"required"`
	TokenTTL       time.Duration `yaml:"tokenTTL"`
}

type LogConfig struct {
	Level      string `yaml:"level" validate:"required,oneof=debug info warning error"`
	Type       string `yaml:"type" validate:"required,oneof=console file"`
	FilePath   string `yaml:"filePath"`
	MaxSize    int    `yaml:"maxSize"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAge     int    `yaml:"maxAge"`
}

type PaymentConfig struct {
	Provider      string `yaml:"provider" validate:"required,oneof=stripe fake"`
	SecretKey     string `yaml:"secretKey"`
	WebhookSecret string `yaml:"webhookSecret"`
	SuccessURL    string `yaml:"successURL" validate:"required"`
	CancelURL     string `yaml:"cancelURL" validate:"required"`
	Currency      string `yaml:"currency" validate:"required,len=3"`
}

// Rates 為每1單位基準貨幣可兌換的各幣別數量，例如 twd: 31.5
type WalletConfig struct {
	BaseCurrency string             `yaml:"baseCurrency" validate:"required,len=3"`
	Rates        map[string]float64 `yaml:"rates"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Payment  PaymentConfig  `yaml:"payment"`
	Wallet   WalletConfig   `yaml:"wallet"`
}

func LoadConfig(filename string) (Config, error) {
	var config Config
	file, err := os.Open(filename)
	if err != nil {
		return config, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, err
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.UploadsDir == "" {
		c.Server.UploadsDir = "./uploads"
	}
	if c.Server.DefaultTenant == "" {
		c.Server.DefaultTenant = "default"
	}
	if c.Server.PendingOrderTimeout == 0 {
		c.Server.PendingOrderTimeout = 30 * time.Minute
	}
	if c.Server.CleanupInterval == 0 {
		c.Server.CleanupInterval = time.Minute
	}
	if c.JWT.TokenTTL == 0 {
		c.JWT.TokenTTL = 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Type == "" {
		c.Log.Type = LogTypeConsole
	}
	if c.Payment.Provider == "" {
		c.Payment.Provider = PaymentProviderFake
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "usd"
	}
	if c.Wallet.BaseCurrency == "" {
		c.Wallet.BaseCurrency = c.Payment.Currency
	}
}

// 檢查設定是否合法
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("設定檔驗證失敗: %w", err)
	}

	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.DSN == "" && (c.Database.Username == "" || c.Database.Host == "" || c.Database.Database == "") {
			return fmt.Errorf("mysql需要dsn或username/host/database")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("postgres需要dsn")
		}
	}

	if c.Log.Type == LogTypeFile {
		if c.Log.FilePath == "" {
			return fmt.Errorf("檔案日誌需要filePath")
		}
		if c.Log.MaxSize < 1 || c.Log.MaxSize > 500 {
			return fmt.Errorf("maxSize必須介於1到500MB")
		}
	}

	if c.Payment.Provider == PaymentProviderStripe && (c.Payment.SecretKey == "" || c.Payment.WebhookSecret == "") {
		return fmt.Errorf("stripe需要secretKey與webhookSecret")
	}

	for currency, rate := range c.Wallet.Rates {
		if len(currency) != 3 || rate <= 0 {
			return fmt.Errorf("不合法的匯率設定: %s=%v", currency, rate)
		}
	}

	return nil
}

// MySQL連線字串
func (d DatabaseConfig) MySQLDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}
