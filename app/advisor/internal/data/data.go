package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/conf"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/repo"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Data struct {
	db     *sql.DB
	driver string
}

func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	if c == nil || c.Database == nil {
		return nil, nil, errors.New("data.database is required")
	}
	driver := c.Database.Driver
	switch driver {
	case DriverPostgres, DriverSQLite:
	case "":
		driver = DriverSQLite
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(driver, c.Database.Source)
	if err != nil {
		return nil, nil, err
	}
	if driver == DriverSQLite {
		// sqlite 同一时刻只允许一个写连接，:memory: 库也只存在于单个连接中
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}

	d := &Data{db: db, driver: driver}
	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}

	cleanup := func() {
		log.NewHelper(logger).Info("closing the data resources")
		db.Close()
	}
	return d, cleanup, nil
}

func (d *Data) migrate(ctx context.Context) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if d.driver == DriverPostgres {
		pk = "BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id ` + pk + `,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			profile TEXT,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			id ` + pk + `,
			user_id BIGINT NOT NULL,
			run_id TEXT NOT NULL,
			query TEXT NOT NULL,
			profile TEXT NOT NULL,
			recommendation TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			cited_facts TEXT NOT NULL,
			degraded TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_user ON analyses (user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id ` + pk + `,
			user_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			content_type TEXT NOT NULL,
			text TEXT NOT NULL,
			fields TEXT NOT NULL,
			pages INTEGER NOT NULL,
			embedding TEXT,
			created_at BIGINT NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

// rebind 把 ? 占位符改写为 postgres 的 $n
func (d *Data) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isUniqueViolation 识别两种驱动的唯一约束错误
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}

// 时间统一按 UTC 毫秒存储，两种驱动行为一致
func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
