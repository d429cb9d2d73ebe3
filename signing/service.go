package signing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/lawsign-backend/codes"
	"github.com/ruteri/lawsign-backend/cryptoutils"
	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/ruteri/lawsign-backend/stamp"
)

// Signer is the authenticated identity signing a document.
type Signer struct {
	Name  string
	Email string
}

// SignResult reports the outcome of a signing attempt.
type SignResult struct {
	Outcome interfaces.VerifyOutcome

	// Document is the committed document on success, otherwise the
	// document as it was read under the lock.
	Document interfaces.Document

	// RevisionKey names the newly stamped revision on success.
	RevisionKey string
}

// Signed reports whether this attempt committed a signature.
func (r SignResult) Signed() bool {
	return r.Outcome.Kind == interfaces.OutcomeSuccess && r.RevisionKey != ""
}

// IntakeRequest carries a new document uploaded by the lawyer.
type IntakeRequest struct {
	ClientEmail    string
	ClientFullName string
	Filename       string
	Data           []byte
}

// Service coordinates code issuance, verification, stamping and commits.
type Service struct {
	store      interfaces.Store
	revisions  interfaces.RevisionBackend
	issuer     *codes.Issuer
	compositor *stamp.Compositor
	locks      *DocumentLocks
	log        *slog.Logger
}

// NewService wires the state machine to its collaborators.
func NewService(store interfaces.Store, revisions interfaces.RevisionBackend, issuer *codes.Issuer, compositor *stamp.Compositor, log *slog.Logger) *Service {
	return &Service{
		store:      store,
		revisions:  revisions,
		issuer:     issuer,
		compositor: compositor,
		locks:      NewDocumentLocks(),
		log:        log,
	}
}

// Intake registers (or refreshes) the client, stores the original revision
// and creates an unsigned document.
func (s *Service) Intake(ctx context.Context, req IntakeRequest) (interfaces.Document, interfaces.Client, error) {
	client, err := s.store.UpsertClient(ctx, req.ClientEmail, req.ClientFullName)
	if err != nil {
		return interfaces.Document{}, interfaces.Client{}, err
	}

	key := stamp.OriginalKey(client.ID, req.Filename)
	if err := s.revisions.Store(ctx, key, req.Data); err != nil {
		s.log.Error("Failed to store original revision", "clientID", client.ID, "key", key, "err", err)
		return interfaces.Document{}, client, fmt.Errorf("%w: storing original revision: %v", interfaces.ErrStorage, err)
	}

	now := s.issuer.Clock().Now().UTC()
	doc, err := s.store.CreateDocument(ctx, interfaces.Document{
		ClientID:     client.ID,
		FilePath:     key,
		OriginalName: req.Filename,
		DocumentHash: cryptoutils.GenerateDocumentHash(client.ID, req.Filename, now),
		CreatedAt:    now,
	})
	if err != nil {
		if delErr := s.revisions.Delete(ctx, key); delErr != nil {
			s.log.Warn("Failed to remove orphaned original", "key", key, "err", delErr)
		}
		return interfaces.Document{}, client, err
	}

	s.log.Info("Document registered", "documentID", doc.ID, "clientID", client.ID, "hash", doc.DocumentHash)
	return doc, client, nil
}

// CheckEligible returns the document if role may request a code for it.
//
// Returns:
//   - interfaces.ErrNotFound if the document does not exist
//   - interfaces.ErrNotEligible if the client asks before the lawyer signed
//   - interfaces.ErrAlreadySigned if role has signed already
func (s *Service) CheckEligible(ctx context.Context, documentID int64, role interfaces.Role) (interfaces.Document, error) {
	doc, err := s.store.Document(ctx, documentID)
	if err != nil {
		return interfaces.Document{}, err
	}
	return doc, eligible(doc, role)
}

func eligible(doc interfaces.Document, role interfaces.Role) error {
	if _, err := interfaces.ParseRole(string(role)); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrNotEligible, err)
	}
	if doc.SignedBy(role) {
		return fmt.Errorf("%w: %s on document %d", interfaces.ErrAlreadySigned, role, doc.ID)
	}
	if role == interfaces.RoleClient && !doc.LawyerSigned {
		return fmt.Errorf("%w: document %d awaits the lawyer's signature", interfaces.ErrNotEligible, doc.ID)
	}
	return nil
}

// RequestCode checks eligibility and sends a fresh code to the signer.
// It does not take the document lock.
func (s *Service) RequestCode(ctx context.Context, documentID int64, role interfaces.Role, signer Signer) (interfaces.SignatureCode, error) {
	doc, err := s.CheckEligible(ctx, documentID, role)
	if err != nil {
		s.log.Info("Code request rejected", "documentID", documentID, "role", role, "err", err)
		return interfaces.SignatureCode{}, err
	}

	client, err := s.store.Client(ctx, doc.ClientID)
	if err != nil {
		return interfaces.SignatureCode{}, err
	}

	return s.issuer.Issue(ctx, codes.IssueRequest{
		DocumentID:    doc.ID,
		Role:          role,
		Recipient:     signer.Email,
		RecipientName: signer.Name,
		ClientName:    client.FullName,
	})
}

// Sign verifies candidate and, on success, stamps and commits the signature.
//
// Rejected codes are reported through SignResult.Outcome with a nil error.
// Errors wrap interfaces.ErrNotFound, ErrNotEligible, ErrStampFailed,
// ErrConflict or ErrStorage; none of them changes the document.
func (s *Service) Sign(ctx context.Context, documentID int64, role interfaces.Role, signer Signer, candidate string) (SignResult, error) {
	log := s.log.With("documentID", documentID, "role", role)

	unlock := s.locks.Lock(documentID)
	defer unlock()

	doc, err := s.store.Document(ctx, documentID)
	if err != nil {
		return SignResult{}, err
	}

	if doc.SignedBy(role) {
		log.Info("Signature already recorded", "state", doc.State())
		return SignResult{Outcome: interfaces.VerifyOutcome{Kind: interfaces.OutcomeAlreadySigned}, Document: doc}, nil
	}
	if err := eligible(doc, role); err != nil {
		return SignResult{Document: doc}, err
	}

	outcome, err := s.issuer.Verify(ctx, documentID, role, candidate)
	if err != nil {
		return SignResult{Document: doc}, err
	}
	if outcome.Kind != interfaces.OutcomeSuccess {
		log.Info("Signature code rejected", "outcome", outcome.String())
		return SignResult{Outcome: outcome, Document: doc}, nil
	}

	signedAt := s.issuer.Clock().Now().UTC()
	facts := stamp.FactsFor(doc, "").With(role, stamp.SignerFacts{Name: signer.Name, SignedAt: signedAt})

	newKey, err := s.compositor.Apply(ctx, doc.FilePath, facts, stamp.RevisionFor(role))
	if err != nil {
		return SignResult{Outcome: outcome, Document: doc}, err
	}

	committed, err := s.store.CommitSignature(ctx, interfaces.SignatureCommit{
		DocumentID:   documentID,
		Role:         role,
		SignerName:   signer.Name,
		SignedAt:     signedAt,
		PrevFilePath: doc.FilePath,
		NewFilePath:  newKey,
	})
	if err != nil {
		log.Error("Failed to commit signature", "newKey", newKey, "err", err)
		s.compositor.Discard(ctx, newKey)
		return SignResult{Outcome: outcome, Document: doc}, err
	}

	log.Info("Document signed", "signer", signer.Name, "revision", newKey, "state", committed.State())
	return SignResult{Outcome: outcome, Document: committed, RevisionKey: newKey}, nil
}

// PendingForClient lists the documents awaiting the client's signature, newest first.
func (s *Service) PendingForClient(ctx context.Context, clientID int64) ([]interfaces.Document, error) {
	return s.store.PendingDocuments(ctx, clientID)
}

// Document returns a document by id.
func (s *Service) Document(ctx context.Context, documentID int64) (interfaces.Document, error) {
	return s.store.Document(ctx, documentID)
}

// CurrentRevision returns the bytes of the document's latest revision.
func (s *Service) CurrentRevision(ctx context.Context, doc interfaces.Document) ([]byte, error) {
	data, err := s.revisions.Fetch(ctx, doc.FilePath)
	if err != nil {
		s.log.Error("Failed to fetch revision", "documentID", doc.ID, "key", doc.FilePath, "err", err)
		return nil, err
	}
	return data, nil
}

// ClientByEmail looks a client up case-insensitively.
func (s *Service) ClientByEmail(ctx context.Context, email string) (interfaces.Client, error) {
	return s.store.ClientByEmail(ctx, email)
}

// Client returns a client by id.
func (s *Service) Client(ctx context.Context, id int64) (interfaces.Client, error) {
	return s.store.Client(ctx, id)
}
