package interfaces

import "context"

// Store persists clients, documents and signature codes.
// Implementations must return errors wrapping ErrNotFound for missing rows
// and ErrStorage for backend failures.
type Store interface {
	// UpsertClient creates a client or refreshes the name of an existing one.
	// Email matching is case-insensitive.
	UpsertClient(ctx context.Context, email, fullName string) (Client, error)

	// ClientByEmail looks a client up by email, case-insensitively.
	ClientByEmail(ctx context.Context, email string) (Client, error)

	// Client returns a client by id.
	Client(ctx context.Context, id int64) (Client, error)

	// CreateDocument inserts a new unsigned document and returns it with its id.
	CreateDocument(ctx context.Context, doc Document) (Document, error)

	// Document returns a document by id.
	Document(ctx context.Context, id int64) (Document, error)

	// PendingDocuments lists documents signed by the lawyer and awaiting the
	// client, newest first.
	PendingDocuments(ctx context.Context, clientID int64) ([]Document, error)

	// DeleteDocument removes a document together with its signature codes.
	DeleteDocument(ctx context.Context, id int64) error

	// InsertCode persists a freshly issued code.
	InsertCode(ctx context.Context, code SignatureCode) (SignatureCode, error)

	// LatestCode returns the authoritative code for a (document, role) pair.
	LatestCode(ctx context.Context, documentID int64, role Role) (SignatureCode, error)

	// IncrementAttempts records a wrong guess and returns the new attempt count.
	// The count never exceeds MaxCodeAttempts.
	IncrementAttempts(ctx context.Context, codeID int64) (int, error)

	// CommitSignature flips the role's flag, records the signer facts and
	// points the document at the new revision in one transaction. It returns
	// ErrConflict if the document no longer matches the expected prior state.
	CommitSignature(ctx context.Context, commit SignatureCommit) (Document, error)

	// Close releases the underlying connections.
	Close() error
}
