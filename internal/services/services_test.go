package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/knowledgebot/backend/internal/api"
	"github.com/knowledgebot/backend/internal/repository"
	"github.com/knowledgebot/backend/internal/simulator"
	"github.com/knowledgebot/backend/internal/storage/kv"
	"github.com/knowledgebot/backend/internal/storage/models"
	"github.com/knowledgebot/backend/internal/store"
)

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, systemInstruction string, history []models.Message, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fixture struct {
	auth      *AuthService
	knowledge *KnowledgeBaseService
	chat      *ChatService
	repo      *repository.Repository
}

func newFixture(t *testing.T, completer *fakeCompleter) fixture {
	t.Helper()
	backing := kv.NewMemoryStore()
	st := store.New(backing)
	if err := st.EnsureSeeded(); err != nil {
		t.Fatalf("EnsureSeeded: %v", err)
	}
	repo := repository.New(st, "admin@knowledgebot.pro")
	sim := simulator.New(0, api.NewHandlers(repo, completer).Routes())
	return fixture{
		auth:      NewAuthService(sim, backing, "kb_pro_session"),
		knowledge: NewKnowledgeBaseService(sim, repo),
		chat:      NewChatService(sim, repo),
		repo:      repo,
	}
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t, &fakeCompleter{})
	ctx := context.Background()

	if _, ok := f.auth.CurrentUser(); ok {
		t.Fatal("fresh session should be logged out")
	}

	signed, err := f.auth.Signup(ctx, "Ann", "ann@example.com", "pw")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	current, ok := f.auth.CurrentUser()
	if !ok || current.ID != signed.ID {
		t.Fatalf("session after signup = %+v, %v", current, ok)
	}

	if err := f.auth.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := f.auth.CurrentUser(); ok {
		t.Fatal("session should be cleared after logout")
	}

	if _, err := f.auth.Login(ctx, "ann@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, ok := f.auth.CurrentUser(); !ok {
		t.Fatal("session should be set after login")
	}
}

func TestFailedLoginLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t, &fakeCompleter{})
	ctx := context.Background()

	if _, err := f.auth.Login(ctx, "ghost@example.com", "pw"); !errors.Is(err, repository.ErrUnauthorized) {
		t.Fatalf("login = %v, want ErrUnauthorized", err)
	}
	if _, ok := f.auth.CurrentUser(); ok {
		t.Fatal("failed login must not create a session")
	}
}

func TestRelevantContextMatches(t *testing.T) {
	f := newFixture(t, &fakeCompleter{})
	ctx := context.Background()

	if _, err := f.knowledge.AddDocument(ctx, models.KnowledgeDocument{
		Title: "Shipping policy", Content: "Orders ship within two days.", Type: models.DocumentText,
	}); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	got, err := f.knowledge.RelevantContext("SHIPPING")
	if err != nil {
		t.Fatalf("RelevantContext: %v", err)
	}
	if got != "Orders ship within two days." {
		t.Fatalf("context = %q", got)
	}
}

func TestRelevantContextFallsBackToEverything(t *testing.T) {
	f := newFixture(t, &fakeCompleter{})
	ctx := context.Background()

	if _, err := f.knowledge.AddDocument(ctx, models.KnowledgeDocument{
		Title: "A", Content: "alpha content", Type: models.DocumentText,
	}); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	got, err := f.knowledge.RelevantContext("no-keyword-matches-this")
	if err != nil {
		t.Fatalf("RelevantContext: %v", err)
	}
	// Some context beats none: all contents, seed document included.
	if !strings.Contains(got, "alpha content") || !strings.Contains(got, "KnowledgeBot Pro is a secure RAG platform") {
		t.Fatalf("fallback context incomplete: %q", got)
	}
}

func TestUploadFileHTMLExtraction(t *testing.T) {
	f := newFixture(t, &fakeCompleter{})

	html := []byte(`<html><head><style>p{color:red}</style></head><body><p>Quarterly results exceeded plan.</p><script>alert(1)</script></body></html>`)
	doc, err := f.knowledge.UploadFile(context.Background(), "report.html", html)
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if doc.Type != models.DocumentFile {
		t.Fatalf("uploaded document type = %q, want file", doc.Type)
	}
	if doc.AuthorSignature != "OCR_AUTO_EXTRACT" {
		t.Fatalf("author signature = %q", doc.AuthorSignature)
	}
	if doc.Content != "Quarterly results exceeded plan." {
		t.Fatalf("extracted content = %q", doc.Content)
	}
}

func TestUploadFileBinaryPlaceholder(t *testing.T) {
	f := newFixture(t, &fakeCompleter{})

	doc, err := f.knowledge.UploadFile(context.Background(), "Enterprise_Strategy_7.pdf", []byte{0x25, 0x50, 0x44, 0x46})
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if doc.Title != "Enterprise_Strategy_7.pdf" {
		t.Fatalf("title = %q", doc.Title)
	}
	if !strings.Contains(doc.Content, "strategic objectives") {
		t.Fatalf("placeholder extraction missing: %q", doc.Content)
	}
}

func TestChatFallbackOnProviderError(t *testing.T) {
	f := newFixture(t, &fakeCompleter{err: errors.New("provider down")})

	reply := f.chat.SendMessage(context.Background(), "hello", nil)
	if reply != FallbackReply {
		t.Fatalf("reply = %q, want fallback", reply)
	}
}

func TestChatReturnsCompletion(t *testing.T) {
	f := newFixture(t, &fakeCompleter{reply: "all good"})

	reply := f.chat.SendMessage(context.Background(), "hello", nil)
	if reply != "all good" {
		t.Fatalf("reply = %q", reply)
	}
}

func TestChatHistoryRoundTripThroughFacade(t *testing.T) {
	f := newFixture(t, &fakeCompleter{})

	msgs := []models.Message{{ID: "m1", Role: models.MessageUser, Content: "hi", Timestamp: 1}}
	if err := f.chat.SaveHistory("u_9", msgs); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}
	got, err := f.chat.History("u_9")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("history = %+v", got)
	}
}
