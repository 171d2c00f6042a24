package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Checkout      CheckoutConfig
	Campus        CampusConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LYNQED_APP_ENV" required:"true"`
	Port         string `envconfig:"LYNQED_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LYNQED_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LYNQED_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LYNQED_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LYNQED_DB_DSN"`
	Driver string `envconfig:"LYNQED_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LYNQED_DB_HOST"`
	LegacyPort     int    `envconfig:"LYNQED_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LYNQED_DB_USER"`
	LegacyPassword string `envconfig:"LYNQED_DB_PASSWORD"`
	LegacyName     string `envconfig:"LYNQED_DB_NAME"`
	LegacySSLMode  string `envconfig:"LYNQED_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LYNQED_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LYNQED_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LYNQED_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LYNQED_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LYNQED_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LYNQED_REDIS_ADDR"`
	Password     string        `envconfig:"LYNQED_REDIS_PASSWORD"`
	DB           int           `envconfig:"LYNQED_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LYNQED_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LYNQED_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LYNQED_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LYNQED_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LYNQED_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LYNQED_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LYNQED_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LYNQED_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LYNQED_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
	GuestSessionMinutes    int    `envconfig:"LYNQED_GUEST_SESSION_MINUTES" default:"30"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LYNQED_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LYNQED_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LYNQED_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LYNQED_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LYNQED_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"LYNQED_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"LYNQED_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"LYNQED_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"LYNQED_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"LYNQED_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"LYNQED_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LYNQED_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LYNQED_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig carries the marketplace pricing knobs. The delivery fee is
// charged in full on every per-vendor order produced by a split checkout.
type CheckoutConfig struct {
	DeliveryFeePesewas int    `envconfig:"LYNQED_CHECKOUT_DELIVERY_FEE_PESEWAS" default:"1500"`
	Currency           string `envconfig:"LYNQED_CHECKOUT_CURRENCY" default:"GHS"`
}

// CampusConfig anchors feed distance sorting when the caller sends no location.
type CampusConfig struct {
	CenterLat float64 `envconfig:"LYNQED_CAMPUS_CENTER_LAT" default:"6.6745"`
	CenterLng float64 `envconfig:"LYNQED_CAMPUS_CENTER_LNG" default:"-1.5716"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LYNQED_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"LYNQED_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LYNQED_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"LYNQED_GCS_BUCKET_NAME" required:"true"`
}

type PubSubConfig struct {
	ChangeFeedTopic           string `envconfig:"LYNQED_PUBSUB_CHANGE_FEED_TOPIC" default:"lq-change-feed"`
	SnapshotSubscription      string `envconfig:"LYNQED_PUBSUB_SNAPSHOT_SUBSCRIPTION" required:"true"`
	NotificationsSubscription string `envconfig:"LYNQED_PUBSUB_NOTIFICATIONS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LYNQED_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LYNQED_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LYNQED_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
