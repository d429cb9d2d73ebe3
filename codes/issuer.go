package codes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/ruteri/lawsign-backend/cryptoutils"
	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/ruteri/lawsign-backend/metrics"
)

// IssueRequest describes who receives a code and for which signature.
type IssueRequest struct {
	DocumentID int64
	Role       interfaces.Role

	// Recipient is the email address the code is sent to.
	Recipient string

	// RecipientName personalises the greeting of client mail.
	RecipientName string

	// ClientName is mentioned in lawyer mail.
	ClientName string
}

// Issuer creates, delivers and checks one-time signature codes.
type Issuer struct {
	store    interfaces.Store
	mailer   interfaces.Mailer
	clock    clock.Clock
	generate func() (string, error)
	log      *slog.Logger
}

// Option customises an Issuer.
type Option func(*Issuer)

// WithClock replaces the wall clock, used by tests to move time.
func WithClock(c clock.Clock) Option {
	return func(i *Issuer) { i.clock = c }
}

// WithGenerator replaces the random code generator.
func WithGenerator(generate func() (string, error)) Option {
	return func(i *Issuer) { i.generate = generate }
}

// NewIssuer creates an Issuer persisting codes in store and delivering them through mailer.
func NewIssuer(store interfaces.Store, mailer interfaces.Mailer, log *slog.Logger, opts ...Option) *Issuer {
	i := &Issuer{
		store:    store,
		mailer:   mailer,
		clock:    clock.New(),
		generate: cryptoutils.GenerateCode,
		log:      log,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Clock returns the issuer's time source.
func (i *Issuer) Clock() clock.Clock {
	return i.clock
}

// Issue generates a code, delivers it and, only if delivery succeeded,
// stores it with attempts=0 and a ten minute expiry.
func (i *Issuer) Issue(ctx context.Context, req IssueRequest) (interfaces.SignatureCode, error) {
	log := i.log.With("documentID", req.DocumentID, "role", req.Role)

	if _, err := interfaces.ParseRole(string(req.Role)); err != nil {
		return interfaces.SignatureCode{}, err
	}
	if req.Recipient == "" {
		return interfaces.SignatureCode{}, fmt.Errorf("%w: no recipient address", interfaces.ErrDeliveryFailed)
	}

	code, err := i.generate()
	if err != nil {
		return interfaces.SignatureCode{}, err
	}

	if err := i.mailer.Send(ctx, composeMessage(req, code)); err != nil {
		metrics.IncCodeDeliveryFailures(req.Role.String())
		log.Error("Failed to deliver signature code", "to", req.Recipient, "err", err)
		return interfaces.SignatureCode{}, fmt.Errorf("%w: %v", interfaces.ErrDeliveryFailed, err)
	}

	now := i.clock.Now().UTC()
	stored, err := i.store.InsertCode(ctx, interfaces.SignatureCode{
		DocumentID: req.DocumentID,
		Role:       req.Role,
		Code:       code,
		Attempts:   0,
		CreatedAt:  now,
		ExpiresAt:  now.Add(interfaces.CodeTTL),
	})
	if err != nil {
		log.Error("Failed to persist signature code", "err", err)
		return interfaces.SignatureCode{}, err
	}

	metrics.IncCodesIssued(req.Role.String())
	log.Info("Signature code issued", "codeID", stored.ID, "expiresAt", stored.ExpiresAt)
	return stored, nil
}

// Verify checks candidate against the latest code for (documentID, role).
// Expected outcomes are returned as values; the error is reserved for
// storage failures.
func (i *Issuer) Verify(ctx context.Context, documentID int64, role interfaces.Role, candidate string) (interfaces.VerifyOutcome, error) {
	outcome, err := i.verify(ctx, documentID, role, candidate)
	if err != nil {
		i.log.Error("Code verification failed", "documentID", documentID, "role", role, "err", err)
		return interfaces.VerifyOutcome{}, err
	}

	metrics.IncVerification(role.String(), outcome.Kind.String())
	i.log.Debug("Code verified", "documentID", documentID, "role", role, "outcome", outcome.String())
	return outcome, nil
}

func (i *Issuer) verify(ctx context.Context, documentID int64, role interfaces.Role, candidate string) (interfaces.VerifyOutcome, error) {
	code, err := i.store.LatestCode(ctx, documentID, role)
	if errors.Is(err, interfaces.ErrNotFound) {
		return interfaces.VerifyOutcome{Kind: interfaces.OutcomeNotFound}, nil
	}
	if err != nil {
		return interfaces.VerifyOutcome{}, err
	}

	if code.Expired(i.clock.Now()) {
		return interfaces.VerifyOutcome{Kind: interfaces.OutcomeExpired, AttemptsUsed: code.Attempts}, nil
	}

	if code.Exhausted() {
		return interfaces.VerifyOutcome{Kind: interfaces.OutcomeExhausted, AttemptsUsed: code.Attempts}, nil
	}

	if cryptoutils.EqualCodes(code.Code, candidate) {
		return interfaces.VerifyOutcome{Kind: interfaces.OutcomeSuccess, AttemptsUsed: code.Attempts}, nil
	}

	attempts, err := i.store.IncrementAttempts(ctx, code.ID)
	if err != nil {
		return interfaces.VerifyOutcome{}, err
	}

	remaining := interfaces.MaxCodeAttempts - attempts
	if remaining <= 0 {
		return interfaces.VerifyOutcome{Kind: interfaces.OutcomeExhausted, AttemptsUsed: attempts}, nil
	}
	return interfaces.VerifyOutcome{
		Kind:              interfaces.OutcomeMismatch,
		AttemptsUsed:      attempts,
		AttemptsRemaining: remaining,
	}, nil
}
