package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverSQLite is the default embedded database
	DriverSQLite = "sqlite3"
	// DriverPostgres selects PostgreSQL through pgx's database/sql adapter
	DriverPostgres = "pgx"
)

// Config selects and tunes the database backend
type Config struct {
	Driver          string
	DataDir         string // sqlite only
	DSN             string // required for pgx, optional override for sqlite
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a sqlite configuration rooted at dataDir
func DefaultConfig(dataDir string) Config {
	return Config{
		Driver:          DriverSQLite,
		DataDir:         dataDir,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	driver   string
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool applies pool limits to db
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}
}

// NewDB opens the configured database, runs migrations and prepares the
// statements used by the repository.
func NewDB(cfg Config) (*DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)

	database := &DB{
		DB:       db,
		driver:   cfg.Driver,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := database.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.initPreparedStatements(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Database initialized with connection pooling",
		"driver", cfg.Driver,
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns,
		"max_lifetime", pool.maxLifetime)

	return database, nil
}

func dataSourceName(cfg Config) (string, error) {
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.DSN != "" {
			return cfg.DSN, nil
		}
		if cfg.DataDir == "" {
			cfg.DataDir = "data"
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create data directory: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, "pontos_doacao.db")
		return dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", nil
	case DriverPostgres:
		if cfg.DSN == "" {
			return "", fmt.Errorf("database DSN is required for driver %q", cfg.Driver)
		}
		return cfg.DSN, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Driver returns the database/sql driver name in use
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites ? placeholders into the driver's bind syntax
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	var queries []string

	switch db.driver {
	case DriverPostgres:
		queries = []string{
			`CREATE TABLE IF NOT EXISTS pontos_doacao (
				id BIGSERIAL PRIMARY KEY,
				nome TEXT NOT NULL,
				endereco TEXT NOT NULL DEFAULT '',
				cidade TEXT NOT NULL,
				tipos_doacao TEXT NOT NULL DEFAULT '[]', -- JSON array
				itens_urgentes TEXT NOT NULL DEFAULT '[]', -- JSON array
				horario_funcionamento TEXT NOT NULL DEFAULT '',
				contato TEXT NOT NULL DEFAULT '',
				latitude DOUBLE PRECISION,
				longitude DOUBLE PRECISION,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`,
		}
	default:
		queries = []string{
			`CREATE TABLE IF NOT EXISTS pontos_doacao (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				nome TEXT NOT NULL,
				endereco TEXT NOT NULL DEFAULT '',
				cidade TEXT NOT NULL,
				tipos_doacao TEXT NOT NULL DEFAULT '[]', -- JSON array
				itens_urgentes TEXT NOT NULL DEFAULT '[]', -- JSON array
				horario_funcionamento TEXT NOT NULL DEFAULT '',
				contato TEXT NOT NULL DEFAULT '',
				latitude REAL,
				longitude REAL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
		}
	}

	// Indexes for performance
	queries = append(queries,
		`CREATE INDEX IF NOT EXISTS idx_pontos_doacao_cidade ON pontos_doacao(LOWER(cidade))`,
		`CREATE INDEX IF NOT EXISTS idx_pontos_doacao_missing_coords ON pontos_doacao(id) WHERE latitude IS NULL OR longitude IS NULL`,
	)

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// initPreparedStatements initializes frequently used prepared statements
func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		stmtListPoints: `SELECT ` + pointColumns + ` FROM pontos_doacao ORDER BY id`,

		stmtListPointsByCity: `SELECT ` + pointColumns + ` FROM pontos_doacao
			WHERE LOWER(cidade) = LOWER(?) ORDER BY id`,

		stmtGetPoint: `SELECT ` + pointColumns + ` FROM pontos_doacao WHERE id = ?`,

		stmtInsertPoint: `INSERT INTO pontos_doacao (
			nome, endereco, cidade, tipos_doacao, itens_urgentes,
			horario_funcionamento, contato, latitude, longitude,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,

		stmtUpdatePoint: `UPDATE pontos_doacao SET
			nome = ?, endereco = ?, cidade = ?, tipos_doacao = ?, itens_urgentes = ?,
			horario_funcionamento = ?, contato = ?, latitude = ?, longitude = ?,
			updated_at = ?
			WHERE id = ?`,

		stmtDeletePoint: `DELETE FROM pontos_doacao WHERE id = ?`,

		stmtListMissingCoordinates: `SELECT ` + pointColumns + ` FROM pontos_doacao
			WHERE latitude IS NULL OR longitude IS NULL ORDER BY id LIMIT ?`,

		stmtUpdateCoordinates: `UPDATE pontos_doacao SET latitude = ?, longitude = ?, updated_at = ? WHERE id = ?`,

		stmtCountPoints: `SELECT COUNT(*) FROM pontos_doacao`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(db.Rebind(query))
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt

		slog.Debug("Prepared statement initialized", "name", name)
	}

	return nil
}

// GetPreparedStatement retrieves a prepared statement
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}

	return stmt, nil
}

// Ping verifies the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	stats := db.pool.GetStats()
	stats["driver"] = db.driver
	return stats
}

// Close closes the database connection and prepared statements
func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, stmt := range db.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}

	db.prepared = make(map[string]*sql.Stmt)

	return db.DB.Close()
}
