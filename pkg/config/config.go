package config

import (
	"time"
)

type DB struct {
	Driver          string        `envconfig:"DRIVER" default:"postgres"` // postgres | sqlite | memory
	Url             string        `envconfig:"URL"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"30m"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"true"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET" required:"true"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
	Issuer string        `envconfig:"ISSUER" default:"paddock"`
}

type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
	// BootstrapAdminID is promoted to ADMIN at startup when no admin exists.
	BootstrapAdminID   string `envconfig:"BOOTSTRAP_ADMIN_ID"`
	BootstrapAdminName string `envconfig:"BOOTSTRAP_ADMIN_NAME" default:"admin"`
}

type Redis struct {
	URL          string        `envconfig:"URL"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"paddock:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type EventBus struct {
	Driver      string   `envconfig:"DRIVER" default:"memory"` // memory | kafka
	Brokers     []string `envconfig:"BROKERS" default:"localhost:9092"`
	TopicPrefix string   `envconfig:"TOPIC_PREFIX" default:"paddock"`
	GroupID     string   `envconfig:"GROUP_ID" default:"paddock-ledger"`
	DLQSuffix   string   `envconfig:"DLQ_SUFFIX" default:".dlq"`
	// SASL/PLAIN credentials; both empty disables SASL.
	SASLUsername string `envconfig:"SASL_USERNAME"`
	SASLPassword string `envconfig:"SASL_PASSWORD"`
}

type Ledger struct {
	MaxRetries           uint64        `envconfig:"MAX_RETRIES" default:"3"`
	RetryInitialInterval time.Duration `envconfig:"RETRY_INITIAL_INTERVAL" default:"20ms"`
	RetryMaxElapsed      time.Duration `envconfig:"RETRY_MAX_ELAPSED" default:"2s"`
}

type Stats struct {
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"30s"`
	// Rounds lists default round starts (RFC 3339) for leagues without a
	// schedule of their own. Empty means ISO week buckets.
	Rounds []string `envconfig:"ROUNDS"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[paddock]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Auth      *Auth      `envconfig:"AUTH"`
	Redis     *Redis     `envconfig:"REDIS"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	EventBus  *EventBus  `envconfig:"EVENT_BUS"`
	Ledger    *Ledger    `envconfig:"LEDGER"`
	Stats     *Stats     `envconfig:"STATS"`
}
