package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const notifyChannel = "document_changes"

// PostgresStore keeps documents in a single jsonb table. Every write issues
// a NOTIFY with the document path; watches are driven by a pq.Listener on
// the same channel.
type PostgresStore struct {
	db      *sql.DB
	connStr string
}

// ConnectPostgres opens and pings a PostgreSQL connection
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func NewPostgresStore(db *sql.DB, connStr string) *PostgresStore {
	return &PostgresStore{db: db, connStr: connStr}
}

// InitSchema creates the documents table if it does not exist
func (ps *PostgresStore) InitSchema(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			path       TEXT PRIMARY KEY,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (ps *PostgresStore) Get(ctx context.Context, path string) (Snapshot, error) {
	var raw json.RawMessage
	err := ps.db.QueryRowContext(ctx,
		"SELECT doc FROM documents WHERE path = $1", path,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return NewSnapshot(path, nil), nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(path, raw), nil
}

func (ps *PostgresStore) Set(ctx context.Context, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	_, err = ps.db.ExecContext(ctx,
		`INSERT INTO documents (path, doc, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (path) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		path, []byte(raw),
	)
	if err != nil {
		return err
	}
	return ps.notify(ctx, path)
}

func (ps *PostgresStore) Delete(ctx context.Context, path string) error {
	_, err := ps.db.ExecContext(ctx, "DELETE FROM documents WHERE path = $1", path)
	if err != nil {
		return err
	}
	return ps.notify(ctx, path)
}

func (ps *PostgresStore) Push(ctx context.Context, path string, value any) (string, error) {
	key := uuid.New().String()
	if err := ps.Set(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (ps *PostgresStore) List(ctx context.Context, path string) (map[string]Snapshot, error) {
	prefix := path + "/"
	rows, err := ps.db.QueryContext(ctx,
		"SELECT path, doc FROM documents WHERE path LIKE $1", prefix+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	children := make(map[string]Snapshot)
	for rows.Next() {
		var p string
		var raw json.RawMessage
		if err := rows.Scan(&p, &raw); err != nil {
			return nil, err
		}
		key := strings.TrimPrefix(p, prefix)
		if strings.Contains(key, "/") {
			continue
		}
		children[key] = NewSnapshot(p, raw)
	}
	return children, rows.Err()
}

func (ps *PostgresStore) Watch(ctx context.Context, path string) (<-chan Snapshot, func(), error) {
	listener := pq.NewListener(ps.connStr, 10*time.Second, time.Minute, nil)
	if err := listener.Listen(notifyChannel); err != nil {
		listener.Close()
		return nil, nil, err
	}

	ch := make(chan Snapshot, 1)
	done := make(chan struct{})

	// Initial state, then one re-read per notification for this path.
	snap, err := ps.Get(ctx, path)
	if err != nil {
		listener.Close()
		return nil, nil, err
	}
	ch <- snap

	go func() {
		defer close(ch)
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				if n == nil || n.Extra != path {
					continue // reconnect event or another document
				}
				snap, err := ps.Get(ctx, path)
				if err != nil {
					log.Printf("[DocStore] Watch re-read failed for %s: %v", path, err)
					continue
				}
				select {
				case ch <- snap:
				default:
					select {
					case <-ch:
					default:
					}
					ch <- snap
				}
			}
		}
	}()

	var once sync.Once
	detach := func() {
		once.Do(func() {
			close(done)
			listener.Close()
		})
	}
	return ch, detach, nil
}

func (ps *PostgresStore) notify(ctx context.Context, path string) error {
	_, err := ps.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", notifyChannel, path)
	return err
}
