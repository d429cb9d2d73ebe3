package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/ruteri/lawsign-backend/interfaces"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS clients (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	email      TEXT UNIQUE NOT NULL,
	full_name  TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	client_id        INTEGER NOT NULL REFERENCES clients (id),
	file_path        TEXT NOT NULL,
	original_name    TEXT NOT NULL DEFAULT '',
	document_hash    TEXT NOT NULL,
	lawyer_signed    INTEGER NOT NULL DEFAULT 0,
	client_signed    INTEGER NOT NULL DEFAULT 0,
	lawyer_name      TEXT NOT NULL DEFAULT '',
	lawyer_signed_at INTEGER NOT NULL DEFAULT 0,
	client_signed_at INTEGER NOT NULL DEFAULT 0,
	created_at       INTEGER NOT NULL,
	CHECK (client_signed = 0 OR lawyer_signed = 1)
);

CREATE INDEX IF NOT EXISTS documents_pending
	ON documents (client_id, lawyer_signed, client_signed, created_at);

CREATE TABLE IF NOT EXISTS signature_codes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id INTEGER NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
	role        TEXT NOT NULL CHECK (role IN ('lawyer', 'client')),
	code        TEXT NOT NULL,
	attempts    INTEGER NOT NULL DEFAULT 0 CHECK (attempts <= 3),
	created_at  INTEGER NOT NULL,
	expires_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS signature_codes_latest
	ON signature_codes (document_id, role, created_at);
`

const documentColumns = `id, client_id, file_path, original_name, document_hash,
	lawyer_signed, client_signed, lawyer_name, lawyer_signed_at, client_signed_at, created_at`

const codeColumns = `id, document_id, role, code, attempts, created_at, expires_at`

// SQLiteConfig holds the parameters for opening a SQLiteStore.
type SQLiteConfig struct {
	// Path is the database file. The parent directory must exist.
	Path string

	// PoolSize defaults to max(runtime.NumCPU(), 4).
	PoolSize int

	Logger *slog.Logger
}

var _ interfaces.Store = (*SQLiteStore)(nil)

// SQLiteStore implements interfaces.Store with an embedded SQLite database.
type SQLiteStore struct {
	pool *sqlitex.Pool
	log  *slog.Logger
	path string
	now  func() time.Time
}

// OpenSQLite opens (and if needed creates) the database and its schema.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: Path is required")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = max(runtime.NumCPU(), 4)
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareSQLiteConn,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", cfg.Path, err)
	}

	s := &SQLiteStore{pool: pool, log: log, path: cfg.Path, now: time.Now}

	conn, err := pool.Take(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: take: %w", err)
	}
	err = sqlitex.ExecuteScript(conn, sqliteSchema, nil)
	pool.Put(conn)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: creating schema: %w", err)
	}

	log.Info("SQLite store opened", "path", cfg.Path, "poolSize", poolSize)
	return s, nil
}

func prepareSQLiteConn(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		// signature_codes cascade on document deletion
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes all pooled connections.
func (s *SQLiteStore) Close() error {
	if err := s.pool.Close(); err != nil {
		s.log.Error("SQLite store close failed", "path", s.path, "err", err)
		return fmt.Errorf("sqlite: closing %s: %w", s.path, err)
	}
	return nil
}

func (s *SQLiteStore) withConn(ctx context.Context, op string, fn func(conn *sqlite.Conn) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return storageErr(op, err)
	}
	defer s.pool.Put(conn)
	return fn(conn)
}

// UpsertClient creates a client or refreshes the name of an existing one.
func (s *SQLiteStore) UpsertClient(ctx context.Context, email, fullName string) (interfaces.Client, error) {
	var client interfaces.Client
	found := false
	err := s.withConn(ctx, "upsert client", func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, `
INSERT INTO clients (email, full_name, created_at) VALUES (?, ?, ?)
ON CONFLICT (email) DO UPDATE SET full_name = excluded.full_name
RETURNING id, email, full_name, created_at`,
			&sqlitex.ExecOptions{
				Args: []any{normalizeEmail(email), fullName, s.now().UnixNano()},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					client = scanClient(stmt)
					found = true
					return nil
				},
			})
		if err != nil {
			return storageErr("upsert client", err)
		}
		return nil
	})
	if err != nil {
		return interfaces.Client{}, err
	}
	if !found {
		return interfaces.Client{}, storageErr("upsert client", errors.New("no row returned"))
	}
	return client, nil
}

// ClientByEmail looks a client up by email, case-insensitively.
func (s *SQLiteStore) ClientByEmail(ctx context.Context, email string) (interfaces.Client, error) {
	return s.queryClient(ctx, "SELECT id, email, full_name, created_at FROM clients WHERE email = ?", normalizeEmail(email))
}

// Client returns a client by id.
func (s *SQLiteStore) Client(ctx context.Context, id int64) (interfaces.Client, error) {
	return s.queryClient(ctx, "SELECT id, email, full_name, created_at FROM clients WHERE id = ?", id)
}

func (s *SQLiteStore) queryClient(ctx context.Context, query string, arg any) (interfaces.Client, error) {
	var client interfaces.Client
	found := false
	err := s.withConn(ctx, "query client", func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: []any{arg},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				client = scanClient(stmt)
				found = true
				return nil
			},
		})
		if err != nil {
			return storageErr("query client", err)
		}
		return nil
	})
	if err != nil {
		return interfaces.Client{}, err
	}
	if !found {
		return interfaces.Client{}, notFound("client", arg)
	}
	return client, nil
}

// CreateDocument inserts a new unsigned document.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc interfaces.Document) (interfaces.Document, error) {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now().UTC()
	}
	doc.LawyerSigned = false
	doc.ClientSigned = false

	err := s.withConn(ctx, "create document", func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, `
INSERT INTO documents (client_id, file_path, original_name, document_hash, created_at)
VALUES (?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{
				Args: []any{doc.ClientID, doc.FilePath, doc.OriginalName, doc.DocumentHash, doc.CreatedAt.UnixNano()},
			})
		if err != nil {
			return storageErr("create document", err)
		}
		doc.ID = conn.LastInsertRowID()
		return nil
	})
	if err != nil {
		return interfaces.Document{}, err
	}

	s.log.Debug("Document created", "documentID", doc.ID, "clientID", doc.ClientID)
	return doc, nil
}

// Document returns a document by id.
func (s *SQLiteStore) Document(ctx context.Context, id int64) (interfaces.Document, error) {
	var doc interfaces.Document
	err := s.withConn(ctx, "query document", func(conn *sqlite.Conn) error {
		var err error
		doc, err = s.documentOn(conn, id)
		return err
	})
	return doc, err
}

func (s *SQLiteStore) documentOn(conn *sqlite.Conn, id int64) (interfaces.Document, error) {
	var doc interfaces.Document
	found := false
	err := sqlitex.Execute(conn, "SELECT "+documentColumns+" FROM documents WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			doc = scanDocument(stmt)
			found = true
			return nil
		},
	})
	if err != nil {
		return interfaces.Document{}, storageErr("query document", err)
	}
	if !found {
		return interfaces.Document{}, notFound("document", id)
	}
	return doc, nil
}

// PendingDocuments lists documents awaiting the client's signature, newest first.
func (s *SQLiteStore) PendingDocuments(ctx context.Context, clientID int64) ([]interfaces.Document, error) {
	var docs []interfaces.Document
	err := s.withConn(ctx, "pending documents", func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, "SELECT "+documentColumns+` FROM documents
WHERE client_id = ? AND lawyer_signed = 1 AND client_signed = 0
ORDER BY created_at DESC, id DESC`,
			&sqlitex.ExecOptions{
				Args: []any{clientID},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					docs = append(docs, scanDocument(stmt))
					return nil
				},
			})
		if err != nil {
			return storageErr("pending documents", err)
		}
		return nil
	})
	return docs, err
}

// DeleteDocument removes a document and its codes.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id int64) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return storageErr("delete document", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return storageErr("delete document: begin", err)
	}
	defer endTransaction(&err)

	if err = sqlitex.Execute(conn, "DELETE FROM signature_codes WHERE document_id = ?", &sqlitex.ExecOptions{Args: []any{id}}); err != nil {
		return storageErr("delete codes", err)
	}
	if err = sqlitex.Execute(conn, "DELETE FROM documents WHERE id = ?", &sqlitex.ExecOptions{Args: []any{id}}); err != nil {
		return storageErr("delete document", err)
	}
	if conn.Changes() == 0 {
		err = notFound("document", id)
		return err
	}
	return nil
}

// InsertCode persists a freshly issued code.
func (s *SQLiteStore) InsertCode(ctx context.Context, code interfaces.SignatureCode) (interfaces.SignatureCode, error) {
	if code.CreatedAt.IsZero() {
		code.CreatedAt = s.now().UTC()
	}
	err := s.withConn(ctx, "insert code", func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, `
INSERT INTO signature_codes (document_id, role, code, attempts, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{
				Args: []any{code.DocumentID, string(code.Role), code.Code, int64(code.Attempts), code.CreatedAt.UnixNano(), code.ExpiresAt.UnixNano()},
			})
		if err != nil {
			return storageErr("insert code", err)
		}
		code.ID = conn.LastInsertRowID()
		return nil
	})
	if err != nil {
		return interfaces.SignatureCode{}, err
	}
	return code, nil
}

// LatestCode returns the most recently created code for a (document, role) pair.
func (s *SQLiteStore) LatestCode(ctx context.Context, documentID int64, role interfaces.Role) (interfaces.SignatureCode, error) {
	var code interfaces.SignatureCode
	found := false
	var scanErr error
	err := s.withConn(ctx, "latest code", func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, "SELECT "+codeColumns+` FROM signature_codes
WHERE document_id = ? AND role = ?
ORDER BY created_at DESC, id DESC
LIMIT 1`,
			&sqlitex.ExecOptions{
				Args: []any{documentID, string(role)},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					code, scanErr = scanCode(stmt)
					found = true
					return nil
				},
			})
		if err != nil {
			return storageErr("latest code", err)
		}
		return nil
	})
	if err != nil {
		return interfaces.SignatureCode{}, err
	}
	if !found {
		return interfaces.SignatureCode{}, notFound("signature code for document", documentID)
	}
	if scanErr != nil {
		return interfaces.SignatureCode{}, storageErr("latest code", scanErr)
	}
	return code, nil
}

// IncrementAttempts records a wrong guess, capped at MaxCodeAttempts.
func (s *SQLiteStore) IncrementAttempts(ctx context.Context, codeID int64) (attempts int, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, storageErr("increment attempts", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, storageErr("increment attempts: begin", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn, "UPDATE signature_codes SET attempts = attempts + 1 WHERE id = ? AND attempts < ?", &sqlitex.ExecOptions{
		Args: []any{codeID, int64(interfaces.MaxCodeAttempts)},
	})
	if err != nil {
		return 0, storageErr("increment attempts", err)
	}

	found := false
	err = sqlitex.Execute(conn, "SELECT attempts FROM signature_codes WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{codeID},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			attempts = stmt.ColumnInt(0)
			found = true
			return nil
		},
	})
	if err != nil {
		return 0, storageErr("increment attempts", err)
	}
	if !found {
		err = notFound("signature code", codeID)
		return 0, err
	}
	return attempts, nil
}

// CommitSignature applies a successful signature in one IMMEDIATE transaction.
func (s *SQLiteStore) CommitSignature(ctx context.Context, commit interfaces.SignatureCommit) (doc interfaces.Document, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return interfaces.Document{}, storageErr("commit signature", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return interfaces.Document{}, storageErr("commit signature: begin", err)
	}
	defer endTransaction(&err)

	var query string
	var args []any
	switch commit.Role {
	case interfaces.RoleLawyer:
		query = `UPDATE documents
SET lawyer_signed = 1, lawyer_name = ?, lawyer_signed_at = ?, file_path = ?
WHERE id = ? AND lawyer_signed = 0 AND file_path = ?`
		args = []any{commit.SignerName, unixNanos(commit.SignedAt), commit.NewFilePath, commit.DocumentID, commit.PrevFilePath}
	case interfaces.RoleClient:
		query = `UPDATE documents
SET client_signed = 1, client_signed_at = ?, file_path = ?
WHERE id = ? AND lawyer_signed = 1 AND client_signed = 0 AND file_path = ?`
		args = []any{unixNanos(commit.SignedAt), commit.NewFilePath, commit.DocumentID, commit.PrevFilePath}
	default:
		err = fmt.Errorf("commit signature: unknown role %q", commit.Role)
		return interfaces.Document{}, err
	}

	if err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
		err = storageErr("commit signature", err)
		return interfaces.Document{}, err
	}
	changed := conn.Changes()

	doc, err = s.documentOn(conn, commit.DocumentID)
	if err != nil {
		return interfaces.Document{}, err
	}
	if changed == 0 {
		err = fmt.Errorf("%w: document %d is %s", interfaces.ErrConflict, commit.DocumentID, doc.State())
		return interfaces.Document{}, err
	}
	return doc, nil
}

func scanClient(stmt *sqlite.Stmt) interfaces.Client {
	return interfaces.Client{
		ID:        stmt.ColumnInt64(0),
		Email:     stmt.ColumnText(1),
		FullName:  stmt.ColumnText(2),
		CreatedAt: fromUnixNanos(stmt.ColumnInt64(3)),
	}
}

func scanDocument(stmt *sqlite.Stmt) interfaces.Document {
	return interfaces.Document{
		ID:             stmt.ColumnInt64(0),
		ClientID:       stmt.ColumnInt64(1),
		FilePath:       stmt.ColumnText(2),
		OriginalName:   stmt.ColumnText(3),
		DocumentHash:   stmt.ColumnText(4),
		LawyerSigned:   stmt.ColumnInt(5) != 0,
		ClientSigned:   stmt.ColumnInt(6) != 0,
		LawyerName:     stmt.ColumnText(7),
		LawyerSignedAt: fromUnixNanos(stmt.ColumnInt64(8)),
		ClientSignedAt: fromUnixNanos(stmt.ColumnInt64(9)),
		CreatedAt:      fromUnixNanos(stmt.ColumnInt64(10)),
	}
}

func scanCode(stmt *sqlite.Stmt) (interfaces.SignatureCode, error) {
	role, err := interfaces.ParseRole(stmt.ColumnText(2))
	if err != nil {
		return interfaces.SignatureCode{}, err
	}
	return interfaces.SignatureCode{
		ID:         stmt.ColumnInt64(0),
		DocumentID: stmt.ColumnInt64(1),
		Role:       role,
		Code:       stmt.ColumnText(3),
		Attempts:   stmt.ColumnInt(4),
		CreatedAt:  fromUnixNanos(stmt.ColumnInt64(5)),
		ExpiresAt:  fromUnixNanos(stmt.ColumnInt64(6)),
	}, nil
}
