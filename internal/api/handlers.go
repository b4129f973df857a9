// Package api binds the fixed endpoint table to backend operations. The
// mapping is the contract: anything outside it is a programming error that
// the dispatcher rejects loudly.
package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/knowledgebot/backend/internal/llm"
	"github.com/knowledgebot/backend/internal/repository"
	"github.com/knowledgebot/backend/internal/simulator"
	"github.com/knowledgebot/backend/internal/storage/models"
)

// Endpoint paths of the simulated HTTP surface.
const (
	PathLogin           = "/auth/login"
	PathSignup          = "/auth/signup"
	PathChat            = "/ai/chat"
	PathKnowledgeCreate = "/knowledge/create"
	PathKnowledgeUpdate = "/knowledge/update"
	PathKnowledgeList   = "/knowledge/list"
	PathKnowledgeDelete = "/knowledge/delete"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChatRequest struct {
	Prompt  string           `json:"prompt"`
	History []models.Message `json:"history"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}

type Handlers struct {
	repo      *repository.Repository
	completer llm.Completer
}

func NewHandlers(repo *repository.Repository, completer llm.Completer) *Handlers {
	return &Handlers{repo: repo, completer: completer}
}

// Routes returns the full endpoint-to-operation table.
func (h *Handlers) Routes() []simulator.Route {
	return []simulator.Route{
		{
			Method: "POST", Path: PathLogin, SuccessStatus: 200,
			Handler: h.login,
			Summary: func(req simulator.Request, _ any) string {
				return req.Body.(LoginRequest).Email
			},
		},
		{
			Method: "POST", Path: PathSignup, SuccessStatus: 201,
			Handler: h.signup,
			Summary: func(req simulator.Request, _ any) string {
				return req.Body.(SignupRequest).Email
			},
		},
		{
			Method: "POST", Path: PathChat, SuccessStatus: 200,
			Handler: h.chat,
			Summary: func(req simulator.Request, _ any) string {
				return req.Body.(ChatRequest).Prompt
			},
		},
		{
			Method: "POST", Path: PathKnowledgeCreate, SuccessStatus: 201,
			Handler: h.createDocument,
			Summary: func(req simulator.Request, _ any) string {
				return req.Body.(models.KnowledgeDocument).Title
			},
		},
		{
			Method: "PUT", Path: PathKnowledgeUpdate, HasParam: true, SuccessStatus: 200,
			Handler: h.updateDocument,
			Summary: func(req simulator.Request, result any) string {
				if doc, ok := result.(models.KnowledgeDocument); ok && doc.Title != "" {
					return doc.Title
				}
				return req.ID
			},
		},
		{
			Method: "GET", Path: PathKnowledgeList, SuccessStatus: 200,
			Handler: h.listDocuments,
		},
		{
			Method: "DELETE", Path: PathKnowledgeDelete, HasParam: true, SuccessStatus: 200,
			Handler: h.deleteDocument,
			Summary: func(req simulator.Request, _ any) string {
				return req.ID
			},
		},
	}
}

func (h *Handlers) login(ctx context.Context, req simulator.Request) (any, error) {
	body, ok := req.Body.(LoginRequest)
	if !ok {
		return nil, fmt.Errorf("login: unexpected body %T", req.Body)
	}
	return h.repo.Authenticate(body.Email, body.Password)
}

func (h *Handlers) signup(ctx context.Context, req simulator.Request) (any, error) {
	body, ok := req.Body.(SignupRequest)
	if !ok {
		return nil, fmt.Errorf("signup: unexpected body %T", req.Body)
	}
	return h.repo.Register(body.Name, body.Email, body.Password)
}

func (h *Handlers) createDocument(ctx context.Context, req simulator.Request) (any, error) {
	body, ok := req.Body.(models.KnowledgeDocument)
	if !ok {
		return nil, fmt.Errorf("create document: unexpected body %T", req.Body)
	}
	return h.repo.CreateDocument(body)
}

func (h *Handlers) updateDocument(ctx context.Context, req simulator.Request) (any, error) {
	body, ok := req.Body.(models.DocumentUpdate)
	if !ok {
		return nil, fmt.Errorf("update document: unexpected body %T", req.Body)
	}
	return h.repo.UpdateDocument(req.ID, body)
}

func (h *Handlers) listDocuments(ctx context.Context, req simulator.Request) (any, error) {
	return h.repo.ListDocuments()
}

func (h *Handlers) deleteDocument(ctx context.Context, req simulator.Request) (any, error) {
	if err := h.repo.DeleteDocument(req.ID); err != nil {
		return nil, err
	}
	return DeleteResponse{Success: true}, nil
}

func (h *Handlers) chat(ctx context.Context, req simulator.Request) (any, error) {
	body, ok := req.Body.(ChatRequest)
	if !ok {
		return nil, fmt.Errorf("chat: unexpected body %T", req.Body)
	}

	docs, err := h.repo.ListDocuments()
	if err != nil {
		return nil, err
	}

	instruction := fmt.Sprintf(
		"You are a support bot for KnowledgeBot Pro (2026 Edition). Use this context: %s. Keep answers professional and concise.",
		chatContext(docs, body.Prompt),
	)

	return h.completer.Complete(ctx, instruction, body.History, body.Prompt)
}

// chatContext gathers the contents of documents whose title or content
// contains the prompt, case-insensitively. With no match the provider is told
// to answer from general knowledge.
func chatContext(docs []models.KnowledgeDocument, prompt string) string {
	q := strings.ToLower(prompt)
	var parts []string
	for _, d := range docs {
		if strings.Contains(strings.ToLower(d.Title), q) || strings.Contains(strings.ToLower(d.Content), q) {
			parts = append(parts, d.Content)
		}
	}
	if len(parts) == 0 {
		return "General Knowledge Mode Active."
	}
	return strings.Join(parts, "\n\n")
}
