package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env:"APP_ENV" env-default:"development"`
	Port     string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	LogLevel string `yaml:"logLevel" env:"LOG_LEVEL" env-default:"info"`
	BaseURL  string `yaml:"baseURL" env:"BASE_URL" env-default:"http://localhost:8080"`

	// StoreDriver selects the user/token store: "postgres" or "memory".
	StoreDriver string `yaml:"storeDriver" env:"STORE_DRIVER" env-default:"postgres"`

	DBHost     string `yaml:"dbHost" env:"AUTH_DB_HOST" env-default:"localhost"`
	DBPort     string `yaml:"dbPort" env:"AUTH_DB_PORT" env-default:"5432"`
	DBUser     string `yaml:"dbUser" env:"AUTH_DB_USER" env-default:"auth-service"`
	DBPassword string `yaml:"dbPassword" env:"AUTH_DB_PASSWORD" env-default:"auth-service"`
	DBName     string `yaml:"dbName" env:"AUTH_DB_NAME" env-default:"auth-service"`
	DBMaxConns int    `yaml:"dbMaxConns" env:"AUTH_DB_MAX_CONNS" env-default:"10"`
	DBUrl      string `yaml:"dbUrl" env:"AUTH_DB_URL"`

	RedisHost string `yaml:"redisHost" env:"REDIS_HOST" env-default:"localhost"`
	RedisPort string `yaml:"redisPort" env:"REDIS_PORT" env-default:"6379"`
	RedisDB   int    `yaml:"redisDB" env:"REDIS_DB" env-default:"0"`

	JWTSecret         string        `yaml:"jwtSecret" env:"JWT_SECRET" env-default:"auth-service-secret-word"`
	JWTAccessDuration time.Duration `yaml:"jwtAccessDuration" env:"JWT_ACCESS_DURATION" env-default:"1h"`
	BcryptCost        int           `yaml:"bcryptCost" env:"BCRYPT_COST" env-default:"10"`

	SMTPHost    string `yaml:"smtpHost" env:"SMTP_HOST"`
	SMTPPort    string `yaml:"smtpPort" env:"SMTP_PORT" env-default:"587"`
	SMTPUser    string `yaml:"smtpUser" env:"SMTP_USERNAME"`
	SMTPPass    string `yaml:"smtpPass" env:"SMTP_PASSWORD"`
	SMTPFrom    string `yaml:"smtpFrom" env:"SMTP_FROM" env-default:"no-reply@apex.local"`
	MailTimeout time.Duration `yaml:"mailTimeout" env:"MAIL_TIMEOUT" env-default:"15s"`

	MinioEnabled bool   `yaml:"minioEnabled" env:"MINIO_ENABLED" env-default:"false"`
	MinioHost    string `yaml:"minioHost" env:"MINIO_HOST" env-default:"localhost"`
	MinioPort    string `yaml:"minioPort" env:"MINIO_PORT" env-default:"9000"`
	MinioUser    string `yaml:"minioUser" env:"MINIO_ROOT_USER"`
	MinioPass    string `yaml:"minioPass" env:"MINIO_ROOT_PASSWORD"`
	MinioUseSSL  bool   `yaml:"minioUseSSL" env:"MINIO_USE_SSL" env-default:"false"`
	MinioBucket  string `yaml:"minioBucket" env:"MINIO_MAIL_BUCKET" env-default:"verification-mail"`

	Verification VerificationConfig `yaml:"verification"`
	RateLimit    RateLimitConfig    `yaml:"rateLimit"`

	AllowedOrigins []string `yaml:"allowedOrigins" env:"ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

type VerificationConfig struct {
	// TokenTTL is how long a verification link stays valid after it is issued.
	TokenTTL time.Duration `yaml:"tokenTTL" env:"VERIFICATION_TOKEN_TTL" env-default:"10m"`
	// ResendCooldown is the minimum gap between two verification mails to one user.
	ResendCooldown time.Duration `yaml:"resendCooldown" env:"VERIFICATION_RESEND_COOLDOWN" env-default:"5m"`
	RetainFor      time.Duration `yaml:"retainFor" env:"VERIFICATION_RETAIN_FOR" env-default:"24h"`
	PurgeInterval  time.Duration `yaml:"purgeInterval" env:"VERIFICATION_PURGE_INTERVAL" env-default:"1h"`
}

type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	GlobalPerSecond   float64       `yaml:"globalPerSecond" env:"RATE_LIMIT_GLOBAL_RPS" env-default:"100"`
	GlobalBurst       int           `yaml:"globalBurst" env:"RATE_LIMIT_GLOBAL_BURST" env-default:"200"`
	PerClientRequests int64         `yaml:"perClientRequests" env:"RATE_LIMIT_CLIENT_REQUESTS" env-default:"20"`
	PerClientWindow   time.Duration `yaml:"perClientWindow" env:"RATE_LIMIT_CLIENT_WINDOW" env-default:"1m"`
}

// LoadConfig reads the optional YAML file named by CONFIG_PATH and then the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.DBUrl == "" {
		cfg.DBUrl = cfg.getDBUrl()
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (cfg *Config) IsProduction() bool {
	return cfg.Env == "production"
}

func (cfg *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)
}

func (cfg *Config) MinioEndpoint() string {
	return fmt.Sprintf("%s:%s", cfg.MinioHost, cfg.MinioPort)
}

func (cfg *Config) getDBUrl() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}
