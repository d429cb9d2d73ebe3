package signing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ruteri/lawsign-backend/codes"
	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/ruteri/lawsign-backend/mailer"
	"github.com/ruteri/lawsign-backend/stamp"
	"github.com/ruteri/lawsign-backend/storage"
	"github.com/ruteri/lawsign-backend/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lawyer = Signer{Name: "Anna Lawyer", Email: "anna@lawfirm.example"}
	client = Signer{Name: "Ivan Petrov", Email: "ivan@example.com"}
)

type serviceFixture struct {
	service   *Service
	store     *store.SQLiteStore
	revisions *storage.FileBackend
	merger    *stamp.PDFCPUMerger
	mailer    *mailer.Recorder
	clock     *clock.Mock

	mu    sync.Mutex
	codes []string
}

type fixtureOption func(*serviceFixture) interfaces.Store

// withStore substitutes the store seen by the service.
func withStore(wrap func(*store.SQLiteStore) interfaces.Store) fixtureOption {
	return func(f *serviceFixture) interfaces.Store { return wrap(f.store) }
}

func newServiceFixture(t *testing.T, opts ...fixtureOption) *serviceFixture {
	t.Helper()
	dir, err := os.MkdirTemp("", "lawsign-signing-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.OpenSQLite(ctx, store.SQLiteConfig{Path: filepath.Join(dir, "lawsign.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	revisions, err := storage.NewFileBackend(filepath.Join(dir, "uploads"), logger)
	require.NoError(t, err)
	merger, err := stamp.NewPDFCPUMerger("")
	require.NoError(t, err)

	f := &serviceFixture{
		store:     s,
		revisions: revisions,
		merger:    merger,
		mailer:    &mailer.Recorder{},
		clock:     clock.NewMock(),
	}
	f.clock.Set(time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC))

	var st interfaces.Store = s
	for _, opt := range opts {
		st = opt(f)
	}

	issuer := codes.NewIssuer(st, f.mailer, logger, codes.WithClock(f.clock), codes.WithGenerator(f.nextCode))
	compositor := stamp.NewCompositor(revisions, stamp.DefaultLayout(time.UTC), f.merger, logger)
	f.service = NewService(st, revisions, issuer, compositor, logger)
	return f
}

func (f *serviceFixture) queueCodes(codes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, codes...)
}

func (f *serviceFixture) nextCode() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.codes) == 0 {
		return "", errors.New("no more test codes")
	}
	code := f.codes[0]
	f.codes = f.codes[1:]
	return code, nil
}

func (f *serviceFixture) intake(t *testing.T, data []byte) interfaces.Document {
	t.Helper()
	doc, c, err := f.service.Intake(context.Background(), IntakeRequest{
		ClientEmail:    client.Email,
		ClientFullName: client.Name,
		Filename:       "contract.pdf",
		Data:           data,
	})
	require.NoError(t, err)
	assert.Equal(t, c.ID, doc.ClientID)
	return doc
}

func (f *serviceFixture) requestCode(t *testing.T, docID int64, role interfaces.Role, signer Signer, code string) {
	t.Helper()
	f.queueCodes(code)
	_, err := f.service.RequestCode(context.Background(), docID, role, signer)
	require.NoError(t, err)
}

func (f *serviceFixture) sign(t *testing.T, docID int64, role interfaces.Role, signer Signer, candidate string) SignResult {
	t.Helper()
	result, err := f.service.Sign(context.Background(), docID, role, signer, candidate)
	require.NoError(t, err)
	return result
}

func (f *serviceFixture) pageCount(t *testing.T, key string) int {
	t.Helper()
	data, err := f.revisions.Fetch(context.Background(), key)
	require.NoError(t, err)
	n, err := f.merger.PageCount(bytes.NewReader(data))
	require.NoError(t, err)
	return n
}

func (f *serviceFixture) fullySign(t *testing.T) interfaces.Document {
	t.Helper()
	doc := f.intake(t, stamp.BlankDocument(2))
	f.requestCode(t, doc.ID, interfaces.RoleLawyer, lawyer, "LAW123")
	require.True(t, f.sign(t, doc.ID, interfaces.RoleLawyer, lawyer, "LAW123").Signed())
	f.requestCode(t, doc.ID, interfaces.RoleClient, client, "CLI456")
	result := f.sign(t, doc.ID, interfaces.RoleClient, client, "CLI456")
	require.True(t, result.Signed())
	return result.Document
}

func TestIntake(t *testing.T) {
	f := newServiceFixture(t)
	original := stamp.BlankDocument(1)
	doc := f.intake(t, original)

	assert.Equal(t, interfaces.StateCreated, doc.State())
	assert.Equal(t, "contract.pdf", doc.OriginalName)
	assert.Len(t, doc.DocumentHash, 32)
	assert.True(t, strings.HasSuffix(doc.FilePath, "_contract.pdf"))

	data, err := f.service.CurrentRevision(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, original, data)

	// re-intake refreshes the client's name
	_, c, err := f.service.Intake(context.Background(), IntakeRequest{
		ClientEmail: "IVAN@example.com", ClientFullName: "Ivan S. Petrov", Filename: "annex.pdf", Data: stamp.BlankDocument(1),
	})
	require.NoError(t, err)
	assert.Equal(t, doc.ClientID, c.ID)
	assert.Equal(t, "Ivan S. Petrov", c.FullName)
}

func TestSign_MismatchThenSuccess(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	doc := f.intake(t, stamp.BlankDocument(3))
	original := doc.FilePath

	f.requestCode(t, doc.ID, interfaces.RoleLawyer, lawyer, "AB12CD")
	msg, ok := f.mailer.Last()
	require.True(t, ok)
	assert.Equal(t, lawyer.Email, msg.To)
	assert.Contains(t, msg.Body, "AB12CD")

	result := f.sign(t, doc.ID, interfaces.RoleLawyer, lawyer, "WRONG1")
	assert.False(t, result.Signed())
	assert.Equal(t, interfaces.OutcomeMismatch, result.Outcome.Kind)
	assert.Equal(t, 1, result.Outcome.AttemptsUsed)
	assert.Equal(t, 2, result.Outcome.AttemptsRemaining)

	f.clock.Add(2 * time.Minute)
	result = f.sign(t, doc.ID, interfaces.RoleLawyer, lawyer, " ab12cd")
	require.True(t, result.Signed())
	assert.Equal(t, interfaces.StateLawyerSigned, result.Document.State())
	assert.Equal(t, result.RevisionKey, result.Document.FilePath)
	assert.True(t, strings.HasSuffix(result.RevisionKey, "_contract_signed.pdf"))
	assert.Equal(t, lawyer.Name, result.Document.LawyerName)
	assert.True(t, f.clock.Now().Equal(result.Document.LawyerSignedAt))

	assert.Equal(t, 3, f.pageCount(t, result.RevisionKey))
	_, err := f.revisions.Fetch(ctx, original)
	assert.NoError(t, err, "the original revision is kept")

	stored, err := f.service.Document(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, result.RevisionKey, stored.FilePath)

	pending, err := f.service.PendingForClient(ctx, doc.ClientID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, doc.ID, pending[0].ID)
}

func TestSign_FullFlow(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	doc := f.fullySign(t)
	assert.Equal(t, interfaces.StateFullySigned, doc.State())
	assert.True(t, strings.HasSuffix(doc.FilePath, "_contract_signed_final.pdf"))
	assert.Equal(t, lawyer.Name, doc.LawyerName, "the lawyer identity survives to the final stamp")
	assert.Equal(t, 2, f.pageCount(t, doc.FilePath))

	msg, ok := f.mailer.Last()
	require.True(t, ok)
	assert.Equal(t, client.Email, msg.To)

	pending, err := f.service.PendingForClient(ctx, doc.ClientID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestClientBeforeLawyer(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	doc := f.intake(t, stamp.BlankDocument(1))

	f.queueCodes("CLI456")
	_, err := f.service.RequestCode(ctx, doc.ID, interfaces.RoleClient, client)
	assert.ErrorIs(t, err, interfaces.ErrNotEligible)

	_, err = f.store.LatestCode(ctx, doc.ID, interfaces.RoleClient)
	assert.ErrorIs(t, err, interfaces.ErrNotFound, "no code row is written")
	assert.Empty(t, f.mailer.Messages(), "no mail is sent")

	_, err = f.service.Sign(ctx, doc.ID, interfaces.RoleClient, client, "CLI456")
	assert.ErrorIs(t, err, interfaces.ErrNotEligible)

	stored, err := f.service.Document(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.FilePath, stored.FilePath)
	assert.False(t, stored.ClientSigned)
}

func TestFullySignedIsTerminal(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	doc := f.fullySign(t)

	for _, role := range []interfaces.Role{interfaces.RoleLawyer, interfaces.RoleClient} {
		_, err := f.service.RequestCode(ctx, doc.ID, role, client)
		assert.ErrorIs(t, err, interfaces.ErrAlreadySigned)

		for _, candidate := range []string{"LAW123", "CLI456", "XXXXXX"} {
			result := f.sign(t, doc.ID, role, client, candidate)
			assert.Equal(t, interfaces.OutcomeAlreadySigned, result.Outcome.Kind)
			assert.False(t, result.Signed())
		}
	}

	stored, err := f.service.Document(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, stored)
}

func TestSign_UnknownDocument(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.service.Sign(context.Background(), 404, interfaces.RoleLawyer, lawyer, "AB12CD")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	_, err = f.service.CheckEligible(context.Background(), 404, interfaces.RoleLawyer)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestSign_StampFailureLeavesState(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	doc := f.intake(t, []byte("not a pdf at all"))

	f.requestCode(t, doc.ID, interfaces.RoleLawyer, lawyer, "AB12CD")
	result, err := f.service.Sign(ctx, doc.ID, interfaces.RoleLawyer, lawyer, "AB12CD")
	assert.ErrorIs(t, err, interfaces.ErrStampFailed)
	assert.False(t, result.Signed())

	stored, err := f.service.Document(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.FilePath, stored.FilePath)
	assert.Equal(t, interfaces.StateCreated, stored.State())

	_, err = f.revisions.Fetch(ctx, stamp.RevisionKey(doc.FilePath, stamp.RevisionSigned))
	assert.ErrorIs(t, err, interfaces.ErrRevisionNotFound)
}

// conflictingStore refuses every commit as if another writer got there first.
type conflictingStore struct {
	*store.SQLiteStore
}

func (s conflictingStore) CommitSignature(ctx context.Context, commit interfaces.SignatureCommit) (interfaces.Document, error) {
	return interfaces.Document{}, fmt.Errorf("%w: document %d", interfaces.ErrConflict, commit.DocumentID)
}

func TestSign_CommitConflictDiscardsRevision(t *testing.T) {
	f := newServiceFixture(t, withStore(func(s *store.SQLiteStore) interfaces.Store {
		return conflictingStore{SQLiteStore: s}
	}))
	ctx := context.Background()
	doc := f.intake(t, stamp.BlankDocument(1))

	f.requestCode(t, doc.ID, interfaces.RoleLawyer, lawyer, "AB12CD")
	_, err := f.service.Sign(ctx, doc.ID, interfaces.RoleLawyer, lawyer, "AB12CD")
	assert.ErrorIs(t, err, interfaces.ErrConflict)

	_, err = f.revisions.Fetch(ctx, stamp.RevisionKey(doc.FilePath, stamp.RevisionSigned))
	assert.ErrorIs(t, err, interfaces.ErrRevisionNotFound, "the uncommitted revision is discarded")

	_, err = f.revisions.Fetch(ctx, doc.FilePath)
	assert.NoError(t, err)

	stored, err := f.service.Document(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, interfaces.StateCreated, stored.State())
}

func TestSign_ConcurrentSubmissions(t *testing.T) {
	f := newServiceFixture(t)
	doc := f.intake(t, stamp.BlankDocument(1))
	f.requestCode(t, doc.ID, interfaces.RoleLawyer, lawyer, "AB12CD")

	const submissions = 4
	results := make([]SignResult, submissions)
	errs := make([]error, submissions)

	var wg sync.WaitGroup
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.service.Sign(context.Background(), doc.ID, interfaces.RoleLawyer, lawyer, "AB12CD")
		}(i)
	}
	wg.Wait()

	signed := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i].Signed() {
			signed++
		} else {
			assert.Equal(t, interfaces.OutcomeAlreadySigned, results[i].Outcome.Kind)
		}
	}
	assert.Equal(t, 1, signed)
	assert.Zero(t, f.service.locks.Len())
}

func TestRequestCode_DeliveryFailure(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	doc := f.intake(t, stamp.BlankDocument(1))

	f.mailer.SetErr(errors.New("relay down"))
	f.queueCodes("AB12CD")
	_, err := f.service.RequestCode(ctx, doc.ID, interfaces.RoleLawyer, lawyer)
	assert.ErrorIs(t, err, interfaces.ErrDeliveryFailed)

	result := f.sign(t, doc.ID, interfaces.RoleLawyer, lawyer, "AB12CD")
	assert.Equal(t, interfaces.OutcomeNotFound, result.Outcome.Kind)

	f.mailer.SetErr(nil)
	f.requestCode(t, doc.ID, interfaces.RoleLawyer, lawyer, "EF34GH")
	assert.True(t, f.sign(t, doc.ID, interfaces.RoleLawyer, lawyer, "EF34GH").Signed())
}
