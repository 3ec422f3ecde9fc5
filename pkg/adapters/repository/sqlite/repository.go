package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/ports"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens dbURL and applies the schema. libsql:// and wss://
// URLs go to Turso, anything else is a local modernc SQLite DSN.
func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	if driverName == "sqlite" {
		// One writer at a time; concurrent writers would otherwise see SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
		_, _ = db.Exec("PRAGMA journal_mode = WAL;")
		_, _ = db.Exec("PRAGMA foreign_keys = ON;")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Timestamps are stored as fixed-width UTC text, which keeps nanoseconds and
// sorts lexically in Dump's ORDER BY.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS links (
		code TEXT PRIMARY KEY,
		original_url TEXT NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clicks (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		link_code TEXT NOT NULL,
		clicked_at TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		latitude TEXT NOT NULL DEFAULT '',
		longitude TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		FOREIGN KEY(link_code) REFERENCES links(code)
	);
	CREATE INDEX IF NOT EXISTS idx_clicks_link_code ON clicks(link_code, seq);
	`
	_, err := db.Exec(query)
	return err
}

// TryCreate relies on the primary key on code; a losing insert affects no rows.
func (r *SQLiteRepository) TryCreate(ctx context.Context, link *domain.Link) (domain.CreateOutcome, error) {
	query := `INSERT INTO links (code, original_url, created_at, expires_at)
			  VALUES (?, ?, ?, ?) ON CONFLICT(code) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, link.Code, link.OriginalURL, formatTime(link.CreatedAt), formatTime(link.ExpiresAt))
	if err != nil {
		return domain.Conflict, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.Conflict, err
	}
	if n == 0 {
		return domain.Conflict, nil
	}
	return domain.Created, nil
}

func (r *SQLiteRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	query := `SELECT code, original_url, created_at, expires_at FROM links WHERE code = ?`

	var link domain.Link
	var createdAt, expiresAt string
	err := r.db.QueryRowContext(ctx, query, code).Scan(&link.Code, &link.OriginalURL, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}

	if link.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if link.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	return &link, nil
}

// AppendClick inserts the click only while the link row exists, in one statement.
func (r *SQLiteRepository) AppendClick(ctx context.Context, code string, click *domain.Click) error {
	if click.ID == "" {
		click.ID = uuid.NewString()
	}
	click.LinkCode = code

	query := `INSERT INTO clicks (id, link_code, clicked_at, source, latitude, longitude, city, country)
			  SELECT ?, ?, ?, ?, ?, ?, ?, ?
			  WHERE EXISTS (SELECT 1 FROM links WHERE code = ?)`

	res, err := r.db.ExecContext(ctx, query,
		click.ID, code, formatTime(click.Timestamp), click.Source,
		click.Geo.Latitude, click.Geo.Longitude, click.Geo.City, click.Geo.Country,
		code,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListClicks(ctx context.Context, code string) ([]domain.Click, error) {
	if _, err := r.FindByCode(ctx, code); err != nil {
		return nil, err
	}

	query := `SELECT id, link_code, clicked_at, source, latitude, longitude, city, country
			  FROM clicks WHERE link_code = ? ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clicks := []domain.Click{}
	for rows.Next() {
		var c domain.Click
		var clickedAt string
		if err := rows.Scan(&c.ID, &c.LinkCode, &clickedAt, &c.Source,
			&c.Geo.Latitude, &c.Geo.Longitude, &c.Geo.City, &c.Geo.Country); err != nil {
			return nil, err
		}
		if c.Timestamp, err = parseTime(clickedAt); err != nil {
			return nil, err
		}
		clicks = append(clicks, c)
	}
	return clicks, rows.Err()
}

// Dump returns every link, expired ones included, oldest first.
func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.Link, error) {
	query := `SELECT code, original_url, created_at, expires_at FROM links ORDER BY created_at ASC, code ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.Link
	for rows.Next() {
		var l domain.Link
		var createdAt, expiresAt string
		if err := rows.Scan(&l.Code, &l.OriginalURL, &createdAt, &expiresAt); err != nil {
			return nil, err
		}
		if l.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if l.ExpiresAt, err = parseTime(expiresAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t, nil
}

// Ensure interface compliance
var _ ports.LinkArchive = (*SQLiteRepository)(nil)
