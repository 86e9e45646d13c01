package mode

import (
	"context"
	"sync"

	"github.com/angelmondragon/shipbridge/pkg/config"
	"github.com/angelmondragon/shipbridge/pkg/db"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/logger"
	"gorm.io/gorm"
)

// CredentialSource returns the locally persisted endpoint and API key.
type CredentialSource interface {
	RemoteCredentials(ctx context.Context) (endpoint string, apiKey string, err error)
}

// OpenFunc opens a connection for fully resolved remote settings.
type OpenFunc func(ctx context.Context, cfg config.RemoteConfig) (*gorm.DB, error)

// DefaultOpener dials Postgres through db.OpenRemote.
func DefaultOpener(logg *logger.Logger) OpenFunc {
	return func(ctx context.Context, cfg config.RemoteConfig) (*gorm.DB, error) {
		client, err := db.OpenRemote(ctx, cfg, logg)
		if err != nil {
			return nil, err
		}
		return client.DB(), nil
	}
}

// RemoteProvider hands out the remote connection. Credentials are resolved
// on every call, so a cleared key fails the very next operation with
// NOT_CONFIGURED; the connection itself is opened lazily and cached until
// the credentials change or Reconfigure is called.
type RemoteProvider struct {
	mu    sync.Mutex
	base  config.RemoteConfig
	creds CredentialSource
	open  OpenFunc

	conn        *gorm.DB
	fingerprint string
}

// NewRemoteProvider builds a provider. Persisted credentials take precedence
// over the ones in base.
func NewRemoteProvider(base config.RemoteConfig, creds CredentialSource, open OpenFunc) *RemoteProvider {
	return &RemoteProvider{base: base, creds: creds, open: open}
}

// Config resolves the effective remote settings.
func (p *RemoteProvider) Config(ctx context.Context) (config.RemoteConfig, error) {
	cfg := p.base
	if p.creds != nil {
		endpoint, apiKey, err := p.creds.RemoteCredentials(ctx)
		if err != nil {
			return config.RemoteConfig{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read remote credentials")
		}
		if endpoint != "" || apiKey != "" {
			cfg = cfg.WithCredentials(endpoint, apiKey)
		}
	}
	if !cfg.Configured() {
		return config.RemoteConfig{}, pkgerrors.New(pkgerrors.CodeNotConfigured, "remote endpoint and api key are not configured")
	}
	return cfg, nil
}

// Conn returns the cached connection, opening it when needed.
func (p *RemoteProvider) Conn(ctx context.Context) (*gorm.DB, error) {
	cfg, err := p.Config(ctx)
	if err != nil {
		return nil, err
	}
	fingerprint := cfg.URL + "\x00" + cfg.APIKey

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && p.fingerprint == fingerprint {
		return p.conn, nil
	}
	if p.conn != nil {
		closeConn(p.conn)
		p.conn = nil
	}
	conn, err := p.open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	p.fingerprint = fingerprint
	return conn, nil
}

// Remote returns the remote repositories bound to the current connection.
func (p *RemoteProvider) Remote(ctx context.Context) (*RemoteStore, error) {
	conn, err := p.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return NewRemoteStore(conn), nil
}

// Store satisfies RemoteSource.
func (p *RemoteProvider) Store(ctx context.Context) (Store, error) {
	remote, err := p.Remote(ctx)
	if err != nil {
		return nil, err
	}
	return remote, nil
}

// Ping checks the remote connection; it reports NOT_CONFIGURED without
// credentials.
func (p *RemoteProvider) Ping(ctx context.Context) error {
	conn, err := p.Conn(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return db.ClassifyRemote(err, "remote handle")
	}
	return db.ClassifyRemote(sqlDB.PingContext(ctx), "ping remote store")
}

// Reconfigure drops the cached connection so the next call re-reads the
// credentials and dials again.
func (p *RemoteProvider) Reconfigure() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		closeConn(p.conn)
	}
	p.conn = nil
	p.fingerprint = ""
}

func (p *RemoteProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := closeConn(p.conn)
	p.conn = nil
	return err
}

func closeConn(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
