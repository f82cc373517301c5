package session

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ilasdev/ilas/internal/shared"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_entries (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS session_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	revision INTEGER NOT NULL,
	writer_id TEXT NOT NULL
);

INSERT OR IGNORE INTO session_meta (id, revision, writer_id) VALUES (1, 0, '');
`

// DefaultPollInterval is the watcher cadence used when none is configured.
const DefaultPollInterval = 250 * time.Millisecond

// SQLiteStore implements [Store] on a SQLite database shared across
// processes. Writes bump a revision row tagged with this handle's writer ID;
// a background watcher polls the revision and fires subscribers only for
// revisions written by someone else.
type SQLiteStore struct {
	db       *sql.DB
	writerID string
	logger   *log.Logger

	mu       sync.Mutex
	current  Session
	revision int64
	subs     map[int]func(Session)
	next     int
	closed   bool

	done chan struct{}
	wg   sync.WaitGroup
}

// SQLiteOptions configures a [SQLiteStore].
type SQLiteOptions struct {
	PollInterval time.Duration // defaults to [DefaultPollInterval]
	Logger       *log.Logger   // defaults to a stderr logger
}

// NewSQLiteStore creates the schema if needed, loads the persisted session,
// and starts the change watcher. The caller retains ownership of db; Close
// stops the watcher but leaves the connection open.
func NewSQLiteStore(db *sql.DB, opts SQLiteOptions) (*SQLiteStore, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create session schema: %w", err)
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	store := &SQLiteStore{
		db:       db,
		writerID: shared.GenerateID(),
		logger:   shared.WithLogger(opts.Logger, "component", "session.sqlite"),
		subs:     make(map[int]func(Session)),
		done:     make(chan struct{}),
	}

	current, revision, err := store.load()
	if err != nil {
		return nil, err
	}
	store.current = current
	store.revision = revision

	store.wg.Add(1)
	go store.watch(opts.PollInterval)

	return store, nil
}

// Close stops the change watcher. The store must not be used afterwards.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()
	return nil
}

// Get returns the cached session. The cache tracks both local writes and
// remote revisions observed by the watcher.
func (s *SQLiteStore) Get() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set persists the session in one transaction. Partial sessions are rejected.
func (s *SQLiteStore) Set(sess Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	return s.write(sess)
}

// Clear removes the persisted session in one transaction.
func (s *SQLiteStore) Clear() error {
	return s.write(Session{})
}

// Subscribe registers fn for sessions written by other processes.
func (s *SQLiteStore) Subscribe(fn func(Session)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *SQLiteStore) write(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return shared.ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin session write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM session_entries`); err != nil {
		return fmt.Errorf("failed to clear session entries: %w", err)
	}

	if !sess.Empty() {
		userJSON, err := encodeUser(sess.User)
		if err != nil {
			return err
		}
		for key, value := range map[string]string{
			KeyAccess:  sess.AccessToken,
			KeyRefresh: sess.RefreshToken,
			KeyUser:    userJSON,
		} {
			if _, err := tx.Exec(`INSERT INTO session_entries (key, value) VALUES (?, ?)`, key, value); err != nil {
				return fmt.Errorf("failed to write session entry %s: %w", key, err)
			}
		}
	}

	if _, err := tx.Exec(`UPDATE session_meta SET revision = revision + 1, writer_id = ? WHERE id = 1`, s.writerID); err != nil {
		return fmt.Errorf("failed to bump session revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session write: %w", err)
	}

	s.current = sess
	s.revision++
	return nil
}

// load reads the persisted session and revision outside the cache.
func (s *SQLiteStore) load() (Session, int64, error) {
	var sess Session

	rows, err := s.db.Query(`SELECT key, value FROM session_entries`)
	if err != nil {
		return sess, 0, fmt.Errorf("failed to query session entries: %w", err)
	}
	defer rows.Close()

	var userRaw string
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return sess, 0, fmt.Errorf("failed to scan session entry: %w", err)
		}
		switch key {
		case KeyAccess:
			sess.AccessToken = value
		case KeyRefresh:
			sess.RefreshToken = value
		case KeyUser:
			userRaw = value
		}
	}
	if err := rows.Err(); err != nil {
		return sess, 0, fmt.Errorf("failed to read session entries: %w", err)
	}

	user, err := decodeUser(userRaw)
	if err != nil {
		return sess, 0, err
	}
	sess.User = user

	var revision int64
	var writerID string
	err = s.db.QueryRow(`SELECT revision, writer_id FROM session_meta WHERE id = 1`).Scan(&revision, &writerID)
	if err != nil {
		return sess, 0, fmt.Errorf("failed to read session revision: %w", err)
	}

	return sess, revision, nil
}

// watch polls the revision row and fires subscribers for foreign writes.
func (s *SQLiteStore) watch(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.poll()
		}
	}
}

func (s *SQLiteStore) poll() {
	var revision int64
	var writerID string
	err := s.db.QueryRow(`SELECT revision, writer_id FROM session_meta WHERE id = 1`).Scan(&revision, &writerID)
	if err != nil {
		s.logger.Warnf("session watcher poll failed: %v", err)
		return
	}

	s.mu.Lock()
	if revision == s.revision {
		s.mu.Unlock()
		return
	}
	if writerID == s.writerID {
		// Our own write observed late; nothing to notify.
		s.revision = revision
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	sess, revision, err := s.load()
	if err != nil {
		s.logger.Warnf("session watcher reload failed: %v", err)
		return
	}

	s.mu.Lock()
	s.current = sess
	s.revision = revision
	fns := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(sess)
	}
}
