// Package journal records dispatched API exchanges in a SQLite database so a
// failing functional test can be inspected after the run.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/apitest/packages/apirequest"
	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id               TEXT PRIMARY KEY,
	method           TEXT NOT NULL,
	url              TEXT NOT NULL,
	request_headers  TEXT NOT NULL,
	status           INTEGER NOT NULL,
	response_headers TEXT NOT NULL,
	response_body    BLOB,
	duration_ms      INTEGER NOT NULL,
	recorded_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchanges_recorded_at ON exchanges(recorded_at);
`

// Entry is one stored exchange.
type Entry struct {
	ID              string
	Method          string
	URL             string
	RequestHeaders  map[string]string
	Status          int
	ResponseHeaders http.Header
	ResponseBody    []byte
	Duration        time.Duration
	RecordedAt      time.Time
}

type Journal struct {
	db           *sql.DB
	maxBodyBytes int
	now          func() time.Time
}

// DefaultMaxBodyBytes caps how much of a response body is stored.
const DefaultMaxBodyBytes = 64 * 1024

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	return &Journal{db: db, maxBodyBytes: DefaultMaxBodyBytes, now: time.Now}, nil
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Redacted replaces the value of credential headers in stored exchanges.
const Redacted = "[redacted]"

var sensitiveHeaders = []string{"Authorization", "Proxy-Authorization", "Cookie", "Set-Cookie"}

func sensitive(name string) bool {
	for _, s := range sensitiveHeaders {
		if strings.EqualFold(name, s) {
			return true
		}
	}
	return false
}

func redactHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if sensitive(k) {
			v = Redacted
		}
		out[k] = v
	}
	return out
}

func redactResponseHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		if sensitive(k) {
			v = []string{Redacted}
		}
		out[k] = v
	}
	return out
}

// Record stores ex with credential headers redacted. It implements
// apirequest.Recorder.
func (j *Journal) Record(ctx context.Context, ex *apirequest.Exchange) error {
	if ex == nil || ex.Response == nil {
		return nil
	}

	reqHeaders, err := json.Marshal(redactHeaders(ex.Options.Headers()))
	if err != nil {
		return fmt.Errorf("encoding request headers: %w", err)
	}
	respHeaders, err := json.Marshal(redactResponseHeaders(ex.Response.Headers))
	if err != nil {
		return fmt.Errorf("encoding response headers: %w", err)
	}

	body := ex.Response.Body
	if len(body) > j.maxBodyBytes {
		body = body[:j.maxBodyBytes]
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, method, url, request_headers, status, response_headers, response_body, duration_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), ex.Method, ex.URL, string(reqHeaders), ex.Response.StatusCode,
		string(respHeaders), body, ex.Duration.Milliseconds(), j.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. A limit of zero or less
// returns everything.
func (j *Journal) List(ctx context.Context, limit int) ([]*Entry, error) {
	query := `SELECT id, method, url, request_headers, status, response_headers, response_body, duration_ms, recorded_at
		FROM exchanges ORDER BY recorded_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			e           Entry
			reqHeaders  string
			respHeaders string
			durationMs  int64
		)
		if err := rows.Scan(&e.ID, &e.Method, &e.URL, &reqHeaders, &e.Status, &respHeaders, &e.ResponseBody, &durationMs, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(reqHeaders), &e.RequestHeaders); err != nil {
			return nil, fmt.Errorf("decoding request headers of %s: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(respHeaders), &e.ResponseHeaders); err != nil {
			return nil, fmt.Errorf("decoding response headers of %s: %w", e.ID, err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}
