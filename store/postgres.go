package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ruteri/lawsign-backend/interfaces"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS clients (
	id         BIGSERIAL PRIMARY KEY,
	email      TEXT UNIQUE NOT NULL,
	full_name  TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	id               BIGSERIAL PRIMARY KEY,
	client_id        BIGINT NOT NULL REFERENCES clients (id),
	file_path        TEXT NOT NULL,
	original_name    TEXT NOT NULL DEFAULT '',
	document_hash    TEXT NOT NULL,
	lawyer_signed    BOOLEAN NOT NULL DEFAULT false,
	client_signed    BOOLEAN NOT NULL DEFAULT false,
	lawyer_name      TEXT NOT NULL DEFAULT '',
	lawyer_signed_at TIMESTAMPTZ,
	client_signed_at TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (NOT client_signed OR lawyer_signed)
);

CREATE INDEX IF NOT EXISTS documents_pending
	ON documents (client_id, lawyer_signed, client_signed, created_at);

CREATE TABLE IF NOT EXISTS signature_codes (
	id          BIGSERIAL PRIMARY KEY,
	document_id BIGINT NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
	role        TEXT NOT NULL CHECK (role IN ('lawyer', 'client')),
	code        TEXT NOT NULL,
	attempts    INTEGER NOT NULL DEFAULT 0 CHECK (attempts <= 3),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS signature_codes_latest
	ON signature_codes (document_id, role, created_at);
`

var _ interfaces.Store = (*PostgresStore)(nil)

// PostgresStore implements interfaces.Store with a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// OpenPostgres connects to PostgreSQL and creates the schema if missing.
func OpenPostgres(ctx context.Context, dsn string, log *slog.Logger) (*PostgresStore, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing DSN: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: creating schema: %w", err)
	}

	log.Info("Postgres store opened", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return &PostgresStore{pool: pool, log: log}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// UpsertClient creates a client or refreshes the name of an existing one.
func (s *PostgresStore) UpsertClient(ctx context.Context, email, fullName string) (interfaces.Client, error) {
	var c interfaces.Client
	err := s.pool.QueryRow(ctx, `
INSERT INTO clients (email, full_name) VALUES ($1, $2)
ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
RETURNING id, email, full_name, created_at`,
		normalizeEmail(email), fullName,
	).Scan(&c.ID, &c.Email, &c.FullName, &c.CreatedAt)
	if err != nil {
		return interfaces.Client{}, storageErr("upsert client", err)
	}
	return c, nil
}

// ClientByEmail looks a client up by email, case-insensitively.
func (s *PostgresStore) ClientByEmail(ctx context.Context, email string) (interfaces.Client, error) {
	return s.queryClient(ctx, "SELECT id, email, full_name, created_at FROM clients WHERE email = $1", normalizeEmail(email))
}

// Client returns a client by id.
func (s *PostgresStore) Client(ctx context.Context, id int64) (interfaces.Client, error) {
	return s.queryClient(ctx, "SELECT id, email, full_name, created_at FROM clients WHERE id = $1", id)
}

func (s *PostgresStore) queryClient(ctx context.Context, query string, arg any) (interfaces.Client, error) {
	var c interfaces.Client
	err := s.pool.QueryRow(ctx, query, arg).Scan(&c.ID, &c.Email, &c.FullName, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return interfaces.Client{}, notFound("client", arg)
	}
	if err != nil {
		return interfaces.Client{}, storageErr("query client", err)
	}
	return c, nil
}

// CreateDocument inserts a new unsigned document.
func (s *PostgresStore) CreateDocument(ctx context.Context, doc interfaces.Document) (interfaces.Document, error) {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.LawyerSigned = false
	doc.ClientSigned = false

	err := s.pool.QueryRow(ctx, `
INSERT INTO documents (client_id, file_path, original_name, document_hash, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
		doc.ClientID, doc.FilePath, doc.OriginalName, doc.DocumentHash, doc.CreatedAt,
	).Scan(&doc.ID)
	if err != nil {
		return interfaces.Document{}, storageErr("create document", err)
	}
	return doc, nil
}

// Document returns a document by id.
func (s *PostgresStore) Document(ctx context.Context, id int64) (interfaces.Document, error) {
	return documentFrom(s.pool.QueryRow(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = $1", id), id)
}

// PendingDocuments lists documents awaiting the client's signature, newest first.
func (s *PostgresStore) PendingDocuments(ctx context.Context, clientID int64) ([]interfaces.Document, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+documentColumns+` FROM documents
WHERE client_id = $1 AND lawyer_signed AND NOT client_signed
ORDER BY created_at DESC, id DESC`, clientID)
	if err != nil {
		return nil, storageErr("pending documents", err)
	}
	defer rows.Close()

	var docs []interfaces.Document
	for rows.Next() {
		doc, err := scanPgDocument(rows)
		if err != nil {
			return nil, storageErr("pending documents", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("pending documents", err)
	}
	return docs, nil
}

// DeleteDocument removes a document and its codes.
func (s *PostgresStore) DeleteDocument(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageErr("delete document: begin", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "DELETE FROM signature_codes WHERE document_id = $1", id); err != nil {
		return storageErr("delete codes", err)
	}
	tag, err := tx.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return storageErr("delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("document", id)
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr("delete document: commit", err)
	}
	return nil
}

// InsertCode persists a freshly issued code.
func (s *PostgresStore) InsertCode(ctx context.Context, code interfaces.SignatureCode) (interfaces.SignatureCode, error) {
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx, `
INSERT INTO signature_codes (document_id, role, code, attempts, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
		code.DocumentID, string(code.Role), code.Code, code.Attempts, code.CreatedAt, code.ExpiresAt,
	).Scan(&code.ID)
	if err != nil {
		return interfaces.SignatureCode{}, storageErr("insert code", err)
	}
	return code, nil
}

// LatestCode returns the most recently created code for a (document, role) pair.
func (s *PostgresStore) LatestCode(ctx context.Context, documentID int64, role interfaces.Role) (interfaces.SignatureCode, error) {
	var c interfaces.SignatureCode
	var roleText string
	err := s.pool.QueryRow(ctx, "SELECT "+codeColumns+` FROM signature_codes
WHERE document_id = $1 AND role = $2
ORDER BY created_at DESC, id DESC
LIMIT 1`, documentID, string(role),
	).Scan(&c.ID, &c.DocumentID, &roleText, &c.Code, &c.Attempts, &c.CreatedAt, &c.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return interfaces.SignatureCode{}, notFound("signature code for document", documentID)
	}
	if err != nil {
		return interfaces.SignatureCode{}, storageErr("latest code", err)
	}
	if c.Role, err = interfaces.ParseRole(roleText); err != nil {
		return interfaces.SignatureCode{}, storageErr("latest code", err)
	}
	return c, nil
}

// IncrementAttempts records a wrong guess, capped at MaxCodeAttempts.
func (s *PostgresStore) IncrementAttempts(ctx context.Context, codeID int64) (int, error) {
	var attempts int
	err := s.pool.QueryRow(ctx, `
UPDATE signature_codes
SET attempts = LEAST(attempts + 1, $2)
WHERE id = $1
RETURNING attempts`, codeID, interfaces.MaxCodeAttempts).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, notFound("signature code", codeID)
	}
	if err != nil {
		return 0, storageErr("increment attempts", err)
	}
	return attempts, nil
}

// CommitSignature applies a successful signature in one transaction.
func (s *PostgresStore) CommitSignature(ctx context.Context, commit interfaces.SignatureCommit) (interfaces.Document, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return interfaces.Document{}, storageErr("commit signature: begin", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var tag pgconn.CommandTag
	switch commit.Role {
	case interfaces.RoleLawyer:
		tag, err = tx.Exec(ctx, `UPDATE documents
SET lawyer_signed = true, lawyer_name = $1, lawyer_signed_at = $2, file_path = $3
WHERE id = $4 AND NOT lawyer_signed AND file_path = $5`,
			commit.SignerName, commit.SignedAt, commit.NewFilePath, commit.DocumentID, commit.PrevFilePath)
	case interfaces.RoleClient:
		tag, err = tx.Exec(ctx, `UPDATE documents
SET client_signed = true, client_signed_at = $1, file_path = $2
WHERE id = $3 AND lawyer_signed AND NOT client_signed AND file_path = $4`,
			commit.SignedAt, commit.NewFilePath, commit.DocumentID, commit.PrevFilePath)
	default:
		return interfaces.Document{}, fmt.Errorf("commit signature: unknown role %q", commit.Role)
	}
	if err != nil {
		return interfaces.Document{}, storageErr("commit signature", err)
	}

	doc, err := documentFrom(tx.QueryRow(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = $1", commit.DocumentID), commit.DocumentID)
	if err != nil {
		return interfaces.Document{}, err
	}
	if tag.RowsAffected() == 0 {
		return interfaces.Document{}, fmt.Errorf("%w: document %d is %s", interfaces.ErrConflict, commit.DocumentID, doc.State())
	}
	if err := tx.Commit(ctx); err != nil {
		return interfaces.Document{}, storageErr("commit signature: commit", err)
	}
	return doc, nil
}

func documentFrom(row pgx.Row, id int64) (interfaces.Document, error) {
	doc, err := scanPgDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return interfaces.Document{}, notFound("document", id)
	}
	if err != nil {
		return interfaces.Document{}, storageErr("query document", err)
	}
	return doc, nil
}

func scanPgDocument(row pgx.Row) (interfaces.Document, error) {
	var doc interfaces.Document
	var lawyerSignedAt, clientSignedAt *time.Time
	err := row.Scan(
		&doc.ID, &doc.ClientID, &doc.FilePath, &doc.OriginalName, &doc.DocumentHash,
		&doc.LawyerSigned, &doc.ClientSigned, &doc.LawyerName, &lawyerSignedAt, &clientSignedAt, &doc.CreatedAt,
	)
	if err != nil {
		return interfaces.Document{}, err
	}
	if lawyerSignedAt != nil {
		doc.LawyerSignedAt = lawyerSignedAt.UTC()
	}
	if clientSignedAt != nil {
		doc.ClientSignedAt = clientSignedAt.UTC()
	}
	return doc, nil
}
