package mysql

import (
	"context"
	"net"
	"sync"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// Config captures the connection parameters for a MySQL instance.
type Config struct {
	User            string
	Password        string
	Host            string
	Port            string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN builds the driver connection string. ClientFoundRows makes UPDATE report matched rather
// than changed rows, which the conditional writes in this package rely on.
func (c Config) DSN() string {
	cfg := mysqldriver.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = true
	cfg.ClientFoundRows = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

const connectTimeout = 30 * time.Second

type openFunc func(ctx context.Context, dsn string) (*sqlx.DB, error)

// Connector owns the process-wide connection pool. The pool is opened on first use and
// concurrent first callers share a single connection attempt.
type Connector struct {
	cfg   Config
	open  openFunc
	group singleflight.Group

	mu sync.RWMutex
	db *sqlx.DB
}

func NewConnector(cfg Config) *Connector {
	return &Connector{
		cfg: cfg,
		open: func(ctx context.Context, dsn string) (*sqlx.DB, error) {
			return sqlx.ConnectContext(ctx, "mysql", dsn)
		},
	}
}

func (c *Connector) DB(ctx context.Context) (*sqlx.DB, error) {
	if db := c.current(); db != nil {
		return db, nil
	}

	ch := c.group.DoChan("connect", func() (interface{}, error) {
		if db := c.current(); db != nil {
			return db, nil
		}
		// The attempt is shared, so it must outlive the caller that happened to start it.
		openCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), connectTimeout)
		defer cancel()
		db, err := c.open(openCtx, c.cfg.DSN())
		if err != nil {
			return nil, errors.Wrap(err, "connect to mysql")
		}
		if c.cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(c.cfg.MaxOpenConns)
		}
		if c.cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(c.cfg.MaxIdleConns)
		}
		if c.cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(c.cfg.ConnMaxLifetime)
		}

		c.mu.Lock()
		c.db = db
		c.mu.Unlock()
		return db, nil
	})

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "connect to mysql")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*sqlx.DB), nil
	}
}

func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *Connector) current() *sqlx.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}
