package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/knowledgebot/backend/internal/api"
	"github.com/knowledgebot/backend/internal/metrics"
	"github.com/knowledgebot/backend/internal/repository"
	"github.com/knowledgebot/backend/internal/simulator"
	"github.com/knowledgebot/backend/internal/storage/models"
	"github.com/knowledgebot/backend/pkg/logger"
)

// FallbackReply is what the chat widget shows whenever the AI call fails,
// whatever the reason. Provider errors never reach the transcript.
const FallbackReply = "The backend AI service is temporarily unavailable."

// ChatService sends prompts through the simulated AI endpoint and persists
// transcripts. Transcript saves overwrite the whole history, so callers pass
// the full message list every time.
type ChatService struct {
	sim  *simulator.Dispatcher
	repo *repository.Repository
}

func NewChatService(sim *simulator.Dispatcher, repo *repository.Repository) *ChatService {
	return &ChatService{sim: sim, repo: repo}
}

// SendMessage forwards the prompt plus prior turns and returns the completion
// text, degrading to FallbackReply on any error.
func (s *ChatService) SendMessage(ctx context.Context, prompt string, history []models.Message) string {
	result, err := s.sim.Post(ctx, api.PathChat, api.ChatRequest{Prompt: prompt, History: history})
	if err != nil {
		logger.Error("AI completion failed", zap.Error(err))
		metrics.LLMFailures.Inc()
		return FallbackReply
	}
	return result.(string)
}

func (s *ChatService) History(userID string) ([]models.Message, error) {
	return s.repo.ChatHistory(userID)
}

func (s *ChatService) SaveHistory(userID string, messages []models.Message) error {
	return s.repo.SaveChatHistory(userID, messages)
}
