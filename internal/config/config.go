package config

import (
	"github.com/spf13/viper"
)

// Trust policy values for TRUST_POLICY.
const (
	PolicyMultiDevice  = "multi"  // approval appends to the trusted set
	PolicySingleDevice = "single" // approval replaces the trusted set
)

// Remote backend values for REMOTE_BACKEND.
const (
	RemoteHTTP  = "http"
	RemoteRedis = "redis"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field maps 1:1 to an env var.
type Config struct {
	// Server
	Port int    `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"` // development | production

	// Local store
	DataPath string `mapstructure:"DATA_PATH"` // sqlite file holding document + local state

	// Bootstrap admin seeded into an empty store
	BootstrapAdminPhone string `mapstructure:"BOOTSTRAP_ADMIN_PHONE"`
	BootstrapAdminPIN   string `mapstructure:"BOOTSTRAP_ADMIN_PIN"`
	PINBcryptCost       int    `mapstructure:"PIN_BCRYPT_COST"`

	// Device trust
	TrustPolicy      string `mapstructure:"TRUST_POLICY"` // multi | single
	AdminAutoApprove bool   `mapstructure:"TRUST_ADMIN_AUTO_APPROVE"`

	// Remote document
	RemoteBackend string `mapstructure:"REMOTE_BACKEND"` // http | redis
	RemoteDocName string `mapstructure:"REMOTE_DOC_NAME"`
	RemoteBaseURL string `mapstructure:"REMOTE_BASE_URL"`
	TokenURL      string `mapstructure:"REMOTE_TOKEN_URL"`
	ClientID      string `mapstructure:"REMOTE_CLIENT_ID"`
	ClientSecret  string `mapstructure:"REMOTE_CLIENT_SECRET"`

	// Sync
	SyncIntervalSeconds int `mapstructure:"SYNC_INTERVAL_SECONDS"` // 0 disables the cron
	SyncTimeoutSeconds  int `mapstructure:"SYNC_TIMEOUT_SECONDS"`

	// Redis (remote backend and job queue)
	RedisURL string `mapstructure:"REDIS_URL"`

	// Worker pool
	WorkerPoolSize int `mapstructure:"WORKER_POOL_SIZE"`

	// SMTP — approval code relay to the admin inbox
	SMTPHost         string `mapstructure:"SMTP_HOST"`
	SMTPPort         int    `mapstructure:"SMTP_PORT"`
	SMTPUser         string `mapstructure:"SMTP_USER"`
	SMTPPassword     string `mapstructure:"SMTP_PASSWORD"`
	ApprovalInboxTo  string `mapstructure:"APPROVAL_INBOX_TO"` // empty disables notifications
	ApprovalMailFrom string `mapstructure:"APPROVAL_MAIL_FROM"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Sensible defaults for development
	viper.SetDefault("PORT", 8900)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DATA_PATH", "stshop.db")
	viper.SetDefault("BOOTSTRAP_ADMIN_PHONE", "Admin")
	viper.SetDefault("BOOTSTRAP_ADMIN_PIN", "1234")
	viper.SetDefault("PIN_BCRYPT_COST", 12)
	viper.SetDefault("TRUST_POLICY", PolicyMultiDevice)
	viper.SetDefault("TRUST_ADMIN_AUTO_APPROVE", false)
	viper.SetDefault("REMOTE_BACKEND", RemoteRedis)
	viper.SetDefault("REMOTE_DOC_NAME", "stshop-pos.json")
	viper.SetDefault("SYNC_INTERVAL_SECONDS", 300)
	viper.SetDefault("SYNC_TIMEOUT_SECONDS", 30)
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("WORKER_POOL_SIZE", 2)
	viper.SetDefault("SMTP_PORT", 587)

	// Optional .env file for local development — does not fail if missing
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
