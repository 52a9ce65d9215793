package db

import (
	"context"
	"sync"

	"portfolio/config"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Client owns the record store connection. The connection is opened on the
// first call to Conn and reused afterwards; a failed attempt is not cached.
type Client struct {
	dialector gorm.Dialector
	log       zerolog.Logger
	mu        sync.Mutex
	conn      *gorm.DB
}

func New(cfg *config.Config, log zerolog.Logger) *Client {
	log = log.With().Str("component", "db").Logger()
	var dialector gorm.Dialector
	if cfg.IsMySQL() {
		if parsed, err := mysqldriver.ParseDSN(cfg.MySQLDSN); err == nil {
			log = log.With().Str("addr", parsed.Addr).Str("database", parsed.DBName).Logger()
		}
		dialector = mysql.Open(cfg.MySQLDSN)
	} else {
		log = log.With().Str("sqlite", cfg.SQLiteFile).Logger()
		dialector = sqlite.Open(cfg.SQLiteFile)
	}
	return NewWithDialector(dialector, log)
}

func NewWithDialector(dialector gorm.Dialector, log zerolog.Logger) *Client {
	return &Client{
		dialector: dialector,
		log:       log,
	}
}

// Conn returns the shared connection, connecting first if needed.
// It is safe to call before every data access.
func (c *Client) Conn(ctx context.Context) (*gorm.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn.WithContext(ctx), nil
	}
	c.log.Info().Msg("creating new database connection")
	conn, err := gorm.Open(c.dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		c.log.Error().Err(err).Msg("database connection failed")
		return nil, err
	}
	c.conn = conn
	c.log.Info().Msg("database connected")
	return conn.WithContext(ctx), nil
}

// Close releases the underlying connection pool, if one was opened.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	c.conn = nil
	return sqlDB.Close()
}
