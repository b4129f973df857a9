package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/knowledgebot/backend/internal/api"
	"github.com/knowledgebot/backend/internal/repository"
	"github.com/knowledgebot/backend/internal/simulator"
	"github.com/knowledgebot/backend/internal/storage/models"
	"github.com/knowledgebot/backend/pkg/logger"
)

// uploadPlaceholderText stands in for real OCR extraction on binary uploads.
const uploadPlaceholderText = "This document outlines the strategic objectives for KnowledgeBot Pro. Our primary mission is to democratize intelligence via RAG (Retrieval Augmented Generation) architecture. We aim for 100% uptime and sub-200ms response times."

const uploadAuthorSignature = "OCR_AUTO_EXTRACT"

var whitespaceRun = regexp.MustCompile(`\s+`)

// KnowledgeBaseService is the facade over document CRUD and context
// retrieval. CRUD goes through the simulator; RelevantContext reads the
// repository directly, like the original facade.
type KnowledgeBaseService struct {
	sim  *simulator.Dispatcher
	repo *repository.Repository
}

func NewKnowledgeBaseService(sim *simulator.Dispatcher, repo *repository.Repository) *KnowledgeBaseService {
	return &KnowledgeBaseService{sim: sim, repo: repo}
}

func (s *KnowledgeBaseService) Documents(ctx context.Context) ([]models.KnowledgeDocument, error) {
	result, err := s.sim.Get(ctx, api.PathKnowledgeList)
	if err != nil {
		return nil, err
	}
	return result.([]models.KnowledgeDocument), nil
}

func (s *KnowledgeBaseService) AddDocument(ctx context.Context, doc models.KnowledgeDocument) (models.KnowledgeDocument, error) {
	result, err := s.sim.Post(ctx, api.PathKnowledgeCreate, doc)
	if err != nil {
		return models.KnowledgeDocument{}, err
	}
	return result.(models.KnowledgeDocument), nil
}

func (s *KnowledgeBaseService) UpdateDocument(ctx context.Context, id string, updates models.DocumentUpdate) (models.KnowledgeDocument, error) {
	result, err := s.sim.Put(ctx, api.PathKnowledgeUpdate+"/"+id, updates)
	if err != nil {
		return models.KnowledgeDocument{}, err
	}
	return result.(models.KnowledgeDocument), nil
}

func (s *KnowledgeBaseService) RemoveDocument(ctx context.Context, id string) error {
	_, err := s.sim.Delete(ctx, api.PathKnowledgeDelete+"/"+id)
	return err
}

// UploadFile simulates a file upload: HTML gets its text extracted, anything
// else gets the placeholder extraction, and the result lands in the knowledge
// base as a file-type document.
func (s *KnowledgeBaseService) UploadFile(ctx context.Context, filename string, data []byte) (models.KnowledgeDocument, error) {
	content := uploadPlaceholderText
	if looksLikeHTML(filename, data) {
		if extracted := extractHTMLText(data); extracted != "" {
			content = extracted
		}
	}

	logger.Info("Simulated file upload",
		zap.String("filename", filename),
		zap.Int("bytes", len(data)),
	)

	return s.AddDocument(ctx, models.KnowledgeDocument{
		Title:           filename,
		Content:         content,
		Type:            models.DocumentFile,
		AuthorSignature: uploadAuthorSignature,
	})
}

// RelevantContext does a case-insensitive substring match of the query
// against title+content. When nothing matches but documents exist, it
// concatenates all contents: some context beats none for a small demo corpus.
func (s *KnowledgeBaseService) RelevantContext(query string) (string, error) {
	docs, err := s.repo.ListDocuments()
	if err != nil {
		return "", err
	}

	q := strings.ToLower(query)
	var matched []string
	for _, d := range docs {
		if strings.Contains(strings.ToLower(d.Title), q) || strings.Contains(strings.ToLower(d.Content), q) {
			matched = append(matched, d.Content)
		}
	}

	if len(matched) == 0 && len(docs) > 0 {
		all := make([]string, 0, len(docs))
		for _, d := range docs {
			all = append(all, d.Content)
		}
		return strings.Join(all, "\n\n"), nil
	}
	return strings.Join(matched, "\n\n"), nil
}

func looksLikeHTML(filename string, data []byte) bool {
	name := strings.ToLower(filename)
	if strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".htm") {
		return true
	}
	head := strings.ToLower(string(data[:min(len(data), 256)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

func extractHTMLText(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		logger.Warn("Failed to parse uploaded HTML", zap.Error(err))
		return ""
	}
	doc.Find("script, style, nav, footer").Remove()
	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
