package api

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/knowledgebot/backend/internal/repository"
	"github.com/knowledgebot/backend/internal/simulator"
	"github.com/knowledgebot/backend/internal/storage/kv"
	"github.com/knowledgebot/backend/internal/storage/models"
	"github.com/knowledgebot/backend/internal/store"
)

type fakeCompleter struct {
	lastInstruction string
	lastPrompt      string
	reply           string
	err             error
}

func (f *fakeCompleter) Complete(ctx context.Context, systemInstruction string, history []models.Message, prompt string) (string, error) {
	f.lastInstruction = systemInstruction
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newDispatcher(t *testing.T, completer *fakeCompleter) (*simulator.Dispatcher, *repository.Repository) {
	t.Helper()
	st := store.New(kv.NewMemoryStore())
	if err := st.EnsureSeeded(); err != nil {
		t.Fatalf("EnsureSeeded: %v", err)
	}
	repo := repository.New(st, "admin@knowledgebot.pro")
	handlers := NewHandlers(repo, completer)
	return simulator.New(0, handlers.Routes()), repo
}

func TestLoginEndpointStatuses(t *testing.T) {
	sim, repo := newDispatcher(t, &fakeCompleter{})
	if _, err := repo.Register("Ann", "ann@example.com", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ctx := context.Background()

	result, err := sim.Post(ctx, PathLogin, LoginRequest{Email: "ann@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	user := result.(models.User)
	if user.Password != "" {
		t.Fatal("login response leaked a password")
	}

	if _, err := sim.Post(ctx, PathLogin, LoginRequest{Email: "ann@example.com", Password: "bad"}); !errors.Is(err, repository.ErrUnauthorized) {
		t.Fatalf("bad login = %v, want ErrUnauthorized", err)
	}

	logs := sim.Logs()
	if len(logs) != 2 {
		t.Fatalf("log entries = %d, want 2", len(logs))
	}
	if logs[0].Status != 200 || logs[1].Status != 401 {
		t.Fatalf("statuses = %d,%d want 200,401", logs[0].Status, logs[1].Status)
	}
	if logs[0].Payload != "ann@example.com" {
		t.Fatalf("login payload summary = %q", logs[0].Payload)
	}
}

func TestSignupEndpoint(t *testing.T) {
	sim, _ := newDispatcher(t, &fakeCompleter{})
	ctx := context.Background()

	if _, err := sim.Post(ctx, PathSignup, SignupRequest{Name: "Bob", Email: "bob@example.com", Password: "pw"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, err := sim.Post(ctx, PathSignup, SignupRequest{Name: "Bob", Email: "bob@example.com", Password: "pw"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("duplicate signup = %v, want ErrConflict", err)
	}

	logs := sim.Logs()
	if logs[0].Status != 201 {
		t.Fatalf("signup success status = %d, want 201", logs[0].Status)
	}
	if logs[1].Status != 500 {
		t.Fatalf("duplicate signup status = %d, want 500", logs[1].Status)
	}
}

func TestKnowledgeEndpoints(t *testing.T) {
	sim, _ := newDispatcher(t, &fakeCompleter{})
	ctx := context.Background()

	created, err := sim.Post(ctx, PathKnowledgeCreate, models.KnowledgeDocument{
		Title: "Pricing", Content: "Contact sales.", Type: models.DocumentText,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	doc := created.(models.KnowledgeDocument)

	title := "Pricing v2"
	updated, err := sim.Put(ctx, PathKnowledgeUpdate+"/"+doc.ID, models.DocumentUpdate{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.(models.KnowledgeDocument).Title != "Pricing v2" {
		t.Fatalf("update result: %+v", updated)
	}

	if _, err := sim.Put(ctx, PathKnowledgeUpdate+"/doc_absent", models.DocumentUpdate{Title: &title}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("update missing = %v, want ErrNotFound", err)
	}

	listed, err := sim.Get(ctx, PathKnowledgeList)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	docs := listed.([]models.KnowledgeDocument)
	if len(docs) != 2 { // seed + created
		t.Fatalf("listed %d documents, want 2", len(docs))
	}

	deleted, err := sim.Delete(ctx, PathKnowledgeDelete+"/"+doc.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted.(DeleteResponse).Success {
		t.Fatal("delete response not successful")
	}
	// Idempotent: second delete also succeeds.
	if _, err := sim.Delete(ctx, PathKnowledgeDelete+"/"+doc.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestChatEndpointBuildsContext(t *testing.T) {
	completer := &fakeCompleter{reply: "answer"}
	sim, repo := newDispatcher(t, completer)
	ctx := context.Background()

	if _, err := repo.CreateDocument(models.KnowledgeDocument{
		Title: "Billing FAQ", Content: "Invoices go out monthly.", Type: models.DocumentText,
	}); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	result, err := sim.Post(ctx, PathChat, ChatRequest{Prompt: "billing"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if result != "answer" {
		t.Fatalf("chat result = %v", result)
	}
	if !strings.Contains(completer.lastInstruction, "Invoices go out monthly.") {
		t.Fatalf("matched document not in system instruction: %q", completer.lastInstruction)
	}

	// No match: the provider is told to answer from general knowledge.
	if _, err := sim.Post(ctx, PathChat, ChatRequest{Prompt: "zzz-no-such-topic"}); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(completer.lastInstruction, "General Knowledge Mode Active.") {
		t.Fatalf("fallback context missing: %q", completer.lastInstruction)
	}
}

func TestChatEndpointProviderFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("provider down")}
	sim, _ := newDispatcher(t, completer)

	if _, err := sim.Post(context.Background(), PathChat, ChatRequest{Prompt: "hi"}); err == nil {
		t.Fatal("provider failure should surface to the facade layer")
	}
	logs := sim.Logs()
	if len(logs) != 1 || logs[0].Status != 500 {
		t.Fatalf("provider failure logs = %+v, want one 500 entry", logs)
	}
}
