package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/sijms/go-ora/v2"

	"sfproperty/internal/config"
	"sfproperty/internal/types"
)

const counterName = "saved_properties"

// dialect covers the differences between the supported databases.
type dialect struct {
	driver string
	schema []string
	// numbered placeholders (:1, :2) instead of ?
	numbered bool
	// alreadyExists reports a CREATE TABLE error for an existing table, for
	// databases without IF NOT EXISTS.
	alreadyExists func(error) bool
}

var dialects = map[string]dialect{
	"sqlite3": {
		driver: "sqlite3",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS saved_properties (
				id         INTEGER PRIMARY KEY,
				saved_date TEXT NOT NULL,
				data       TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS store_counter (
				name    TEXT PRIMARY KEY,
				next_id INTEGER NOT NULL
			)`,
		},
	},
	"mysql": {
		driver: "mysql",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS saved_properties (
				id         BIGINT PRIMARY KEY,
				saved_date VARCHAR(40) NOT NULL,
				data       LONGTEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS store_counter (
				name    VARCHAR(64) PRIMARY KEY,
				next_id BIGINT NOT NULL
			)`,
		},
	},
	"oracle": {
		driver:   "oracle",
		numbered: true,
		schema: []string{
			`CREATE TABLE saved_properties (
				id         NUMBER(19) PRIMARY KEY,
				saved_date VARCHAR2(40) NOT NULL,
				data       CLOB NOT NULL
			)`,
			`CREATE TABLE store_counter (
				name    VARCHAR2(64) PRIMARY KEY,
				next_id NUMBER(19) NOT NULL
			)`,
		},
		alreadyExists: func(err error) bool { return strings.Contains(err.Error(), "ORA-00955") },
	},
}

// SQLStore keeps saved properties in a database/sql database. The counter
// row and the property rows change in one transaction.
type SQLStore struct {
	db  *sql.DB
	d   dialect
	now func() time.Time

	mu sync.Mutex
}

// OpenSQL connects to the database cfg describes and creates the tables.
func OpenSQL(ctx context.Context, cfg config.StoreConfig) (*SQLStore, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
	connStr, err := connString(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if d.driver == "sqlite3" {
		// one writer; avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{db: db, d: d, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func connString(cfg config.StoreConfig) (string, error) {
	switch cfg.Driver {
	case "sqlite3":
		if cfg.Path == "" {
			return "", errors.New("sqlite3 store needs a path")
		}
		return cfg.Path, nil
	case "mysql":
		mc, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", fmt.Errorf("mysql dsn: %w", err)
		}
		return mc.FormatDSN(), nil
	case "oracle":
		if cfg.DSN != "" {
			return cfg.DSN, nil
		}
		return oracleDSN(cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Service, cfg.WalletLocation), nil
	}
	return "", fmt.Errorf("unsupported store driver %q", cfg.Driver)
}

// oracleDSN builds an encoded connection string for Oracle Autonomous
// Database.
func oracleDSN(username, password, host, port, service, walletLocation string) string {
	u := &url.URL{
		Scheme:   "oracle",
		User:     url.UserPassword(username, password),
		Host:     host + ":" + port,
		Path:     "/" + service,
		RawQuery: "ssl=true", // ADB requires TCPS on 1522
	}
	if walletLocation != "" {
		// wallet-based mTLS
		u.RawQuery += "&wallet=" + url.QueryEscape(walletLocation)
	}
	return u.String()
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range s.d.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			if s.d.alreadyExists != nil && s.d.alreadyExists(err) {
				continue
			}
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// bind rewrites ? placeholders for databases that number them.
func (s *SQLStore) bind(q string) string {
	if !s.d.numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString(":" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) List(ctx context.Context) ([]types.SavedProperty, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, saved_date, data FROM saved_properties ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved properties: %w", err)
	}
	defer rows.Close()

	out := []types.SavedProperty{}
	for rows.Next() {
		var (
			p          types.SavedProperty
			date, data string
		)
		if err := rows.Scan(&p.ID, &date, &data); err != nil {
			return nil, fmt.Errorf("failed to scan saved property: %w", err)
		}
		if p.SavedDate, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("saved property %d: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(data), &p.Data); err != nil {
			return nil, fmt.Errorf("saved property %d: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) Append(ctx context.Context, data map[string]any) (types.SavedProperty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.SavedProperty{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var next int64
	err = tx.QueryRowContext(ctx, s.bind(`SELECT next_id FROM store_counter WHERE name = ?`), counterName).Scan(&next)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		next = 1
		if _, err := tx.ExecContext(ctx, s.bind(`INSERT INTO store_counter (name, next_id) VALUES (?, ?)`), counterName, next); err != nil {
			return types.SavedProperty{}, fmt.Errorf("init counter: %w", err)
		}
	case err != nil:
		return types.SavedProperty{}, fmt.Errorf("read counter: %w", err)
	}

	rec := newRecord(next, s.now(), data)
	doc, err := json.Marshal(rec.Data)
	if err != nil {
		return types.SavedProperty{}, fmt.Errorf("encode saved property: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.bind(`INSERT INTO saved_properties (id, saved_date, data) VALUES (?, ?, ?)`),
		rec.ID, rec.SavedDate.Format(time.RFC3339Nano), string(doc)); err != nil {
		return types.SavedProperty{}, fmt.Errorf("insert saved property: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.bind(`UPDATE store_counter SET next_id = ? WHERE name = ?`), next+1, counterName); err != nil {
		return types.SavedProperty{}, fmt.Errorf("advance counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return types.SavedProperty{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM saved_properties WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete saved property: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete saved property: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
