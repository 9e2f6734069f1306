package config

import "time"

const (
	StorageMemory = "memory"
	StorageSqlite = "sqlite"
	StorageMongo  = "mongo"
)

// Settings is the raw environment, parsed once at startup.
type Settings struct {
	Port        string `env:"PORT" envDefault:"8080"`
	AppName     string `env:"APP_NAME" envDefault:"WalletWise Auth"`
	Env         string `env:"ENV" envDefault:"DEV"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	Issuer      string `env:"ISSUER" envDefault:"walletwise"`

	AccessTokenSecret  string        `env:"JWT_ACCESS_SECRET"`
	RefreshTokenSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"24h"`

	OTPExpiry         time.Duration `env:"OTP_EXPIRY" envDefault:"10m"`
	OTPResendCooldown time.Duration `env:"OTP_RESEND_COOLDOWN" envDefault:"30s"`
	OTPMaxAttempts    int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`

	LoginMaxFailures   int           `env:"LOGIN_MAX_FAILURES" envDefault:"5"`
	LoginLockout       time.Duration `env:"LOGIN_LOCKOUT" envDefault:"15m"`
	RateLimitPerSecond float64       `env:"RATE_LIMIT_PER_SECOND" envDefault:"5"`
	MaxBodyBytes       int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SqlitePath    string `env:"SQLITE_PATH" envDefault:"./data/walletwise.db"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"walletwise"`

	SmtpHost     string `env:"SMTP_HOST"`
	SmtpPort     string `env:"SMTP_PORT" envDefault:"587"`
	SmtpAccount  string `env:"SMTP_ACCOUNT"`
	SmtpPassword string `env:"SMTP_PASSWORD"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"no-reply@walletwise.local"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8080/oauth/callback"`
	GoogleIssuer       string `env:"GOOGLE_ISSUER" envDefault:"https://accounts.google.com"`
}
