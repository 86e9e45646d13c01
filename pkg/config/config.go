package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Local        LocalConfig
	State        StateConfig
	Remote       RemoteConfig
	Redis        RedisConfig
	Sync         SyncConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Remote.validateEndpoint(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHIPBRIDGE_APP_ENV" default:"dev"`
	Port         string `envconfig:"SHIPBRIDGE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHIPBRIDGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHIPBRIDGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// LocalConfig points at the embedded store used in offline mode.
type LocalConfig struct {
	Path string `envconfig:"SHIPBRIDGE_LOCAL_PATH" default:"shipbridge.db"`
}

// StateConfig points at the settings database holding the sync high-water
// mark, the selected mode and the persisted remote credentials.
type StateConfig struct {
	Path string `envconfig:"SHIPBRIDGE_STATE_PATH" default:"shipbridge-state.db"`
}

type RemoteConfig struct {
	URL    string `envconfig:"SHIPBRIDGE_REMOTE_URL"`
	APIKey string `envconfig:"SHIPBRIDGE_REMOTE_API_KEY"`
	User   string `envconfig:"SHIPBRIDGE_REMOTE_USER" default:"postgres"`

	RequestTimeout  time.Duration `envconfig:"SHIPBRIDGE_REMOTE_REQUEST_TIMEOUT" default:"30s"`
	MaxOpenConns    int           `envconfig:"SHIPBRIDGE_REMOTE_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"SHIPBRIDGE_REMOTE_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"SHIPBRIDGE_REMOTE_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHIPBRIDGE_REMOTE_CONN_MAX_IDLE_TIME" default:"10m"`
}

// Configured reports whether both the endpoint and the API key are present.
func (r RemoteConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" && strings.TrimSpace(r.APIKey) != ""
}

// WithCredentials returns a copy carrying the provided endpoint and key.
func (r RemoteConfig) WithCredentials(endpoint, apiKey string) RemoteConfig {
	r.URL = strings.TrimSpace(endpoint)
	r.APIKey = strings.TrimSpace(apiKey)
	return r
}

// DSN builds the postgres connection string, using the API key as the
// password of the endpoint URL.
func (r RemoteConfig) DSN() (string, error) {
	if !r.Configured() {
		return "", fmt.Errorf("remote endpoint and api key are required")
	}
	u, err := url.Parse(strings.TrimSpace(r.URL))
	if err != nil {
		return "", fmt.Errorf("parsing remote url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("remote url scheme %q is not supported", u.Scheme)
	}
	user := r.User
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, strings.TrimSpace(r.APIKey))
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (r RemoteConfig) validateEndpoint() error {
	if strings.TrimSpace(r.URL) == "" {
		return nil
	}
	if _, err := url.Parse(r.URL); err != nil {
		return fmt.Errorf("%s is not a valid url: %w", EnvRemoteURL, err)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SHIPBRIDGE_REDIS_URL"`
	Address      string        `envconfig:"SHIPBRIDGE_REDIS_ADDR"`
	Password     string        `envconfig:"SHIPBRIDGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHIPBRIDGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHIPBRIDGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHIPBRIDGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHIPBRIDGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHIPBRIDGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHIPBRIDGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type SyncConfig struct {
	DeletionPolicy  string        `envconfig:"SHIPBRIDGE_DELETION_POLICY" default:"soft"`
	LockTTL         time.Duration `envconfig:"SHIPBRIDGE_SYNC_LOCK_TTL" default:"5m"`
	ChangeTransport string        `envconfig:"SHIPBRIDGE_CHANGE_TRANSPORT" default:"postgres"`
	ChangeChannel   string        `envconfig:"SHIPBRIDGE_CHANGE_CHANNEL" default:"shipbridge_changes"`
	DebounceWindow  time.Duration `envconfig:"SHIPBRIDGE_CHANGE_DEBOUNCE" default:"500ms"`
	AutoInterval    time.Duration `envconfig:"SHIPBRIDGE_SYNC_INTERVAL" default:"0s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHIPBRIDGE_AUTO_MIGRATE" default:"false"`
}
