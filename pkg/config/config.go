package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
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
	Env          string `envconfig:"TALLER_APP_ENV" required:"true"`
	Port         string `envconfig:"TALLER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TALLER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TALLER_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"TALLER_AUTO_MIGRATE" default:"false"`
	TaxRate      string `envconfig:"TALLER_TAX_RATE" default:"0.16"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"TALLER_DB_DSN"`

	LegacyHost     string `envconfig:"TALLER_DB_HOST"`
	LegacyPort     int    `envconfig:"TALLER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TALLER_DB_USER"`
	LegacyPassword string `envconfig:"TALLER_DB_PASSWORD"`
	LegacyName     string `envconfig:"TALLER_DB_NAME"`
	LegacySSLMode  string `envconfig:"TALLER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TALLER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TALLER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TALLER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TALLER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TALLER_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"TALLER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TALLER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TALLER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TALLER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TALLER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TALLER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TALLER_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TALLER_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"TALLER_SESSION_TTL_MINUTES" default:"480"`
}

// SessionTTL returns how long an issued session stays valid in the store.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TALLER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TALLER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TALLER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TALLER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TALLER_ARGON_KEY_LEN" default:"32"`
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
