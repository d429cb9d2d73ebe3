// Package interfaces defines the core interfaces and types for the lawyer/client
// e-signature backend, separating interface definitions from implementations.
//
// The package provides the contracts between the components of the system:
//
// # Domain Types
//
//   - Client: a signer on the client side, identified by a unique email
//   - Document: a PDF under signature, with its current revision and signing flags
//   - SignatureCode: a one-time code bound to a (document, role) pair
//   - Role: one of RoleLawyer or RoleClient
//
// # Store Interface
//
// Store is the relational persistence layer for clients, documents and signature
// codes. Implementations live in the store package (SQLite and PostgreSQL).
//
// # Revision Storage Interfaces
//
//   - RevisionBackend: keyed storage for PDF revisions (file, S3, IPFS)
//   - RevisionBackendFactory: creates backends from location URIs
//
// # Delivery Interface
//
// Mailer delivers one-time codes by email. Delivery is best effort and callers
// must branch on the returned error.
//
// # Error Taxonomy
//
// Verification results that are part of the normal flow (mismatch, expiry,
// exhaustion) are returned as VerifyOutcome values. Infrastructure and
// precondition failures are returned as errors wrapping one of the sentinel
// errors declared in errors.go and are matched with errors.Is.
package interfaces
