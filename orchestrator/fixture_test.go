package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ruteri/lawsign-backend/codes"
	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/ruteri/lawsign-backend/mailer"
	"github.com/ruteri/lawsign-backend/signing"
	"github.com/ruteri/lawsign-backend/stamp"
	"github.com/ruteri/lawsign-backend/storage"
	"github.com/ruteri/lawsign-backend/store"
	"github.com/stretchr/testify/require"
)

const lawyerChat = 1001

var testLawyer = Lawyer{ChatID: lawyerChat, FullName: "Anna Lawyer", Email: "anna@lawfirm.example"}

type botFixture struct {
	core   *signing.Service
	mailer *mailer.Recorder
	clock  *clock.Mock
	lawyer *LawyerBot
	client *ClientBot

	mu    sync.Mutex
	codes []string
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	dir, err := os.MkdirTemp("", "lawsign-orchestrator-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.OpenSQLite(ctx, store.SQLiteConfig{Path: filepath.Join(dir, "lawsign.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	revisions, err := storage.NewFileBackend(filepath.Join(dir, "uploads"), logger)
	require.NoError(t, err)

	f := &botFixture{mailer: &mailer.Recorder{}, clock: clock.NewMock()}
	f.clock.Set(time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC))

	issuer := codes.NewIssuer(s, f.mailer, logger, codes.WithClock(f.clock), codes.WithGenerator(f.nextCode))
	merger, err := stamp.NewPDFCPUMerger("")
	require.NoError(t, err)
	compositor := stamp.NewCompositor(revisions, stamp.DefaultLayout(time.UTC), merger, logger)
	f.core = signing.NewService(s, revisions, issuer, compositor, logger)

	roster, err := NewRoster(testLawyer)
	require.NoError(t, err)
	f.lawyer = NewLawyerBot(f.core, roster, logger)
	f.client = NewClientBot(f.core, "https://support.example/chat", logger)
	return f
}

func (f *botFixture) queueCodes(codes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, codes...)
}

func (f *botFixture) nextCode() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.codes) == 0 {
		return "", errors.New("no more test codes")
	}
	code := f.codes[0]
	f.codes = f.codes[1:]
	return code, nil
}

// intake registers a client document without going through the bot.
func (f *botFixture) intake(t *testing.T, email, name string) interfaces.Document {
	t.Helper()
	doc, _, err := f.core.Intake(context.Background(), signing.IntakeRequest{
		ClientEmail: email, ClientFullName: name, Filename: "agreement.pdf", Data: stamp.BlankDocument(2),
	})
	require.NoError(t, err)
	return doc
}

// lawyerSigns commits the lawyer's signature without going through the bot.
func (f *botFixture) lawyerSigns(t *testing.T, doc interfaces.Document) {
	t.Helper()
	ctx := context.Background()
	f.queueCodes("LAW123")
	_, err := f.core.RequestCode(ctx, doc.ID, interfaces.RoleLawyer, lawyerSigner(testLawyer))
	require.NoError(t, err)
	result, err := f.core.Sign(ctx, doc.ID, interfaces.RoleLawyer, lawyerSigner(testLawyer), "LAW123")
	require.NoError(t, err)
	require.True(t, result.Signed())
}

func pdfUpload(name string) Upload {
	data := stamp.BlankDocument(1)
	return Upload{Filename: name, MimeType: interfaces.PDFMimeType, Size: int64(len(data)), Data: data}
}
