// Package services holds the typed facades presentation code talks to. They
// translate UI intents into simulated requests and manage the client-side
// session marker.
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/knowledgebot/backend/internal/api"
	"github.com/knowledgebot/backend/internal/simulator"
	"github.com/knowledgebot/backend/internal/storage/kv"
	"github.com/knowledgebot/backend/internal/storage/models"
	"github.com/knowledgebot/backend/pkg/logger"
)

// AuthService manages login, signup and the persisted session snapshot. The
// session has no expiry: logged in until logout.
type AuthService struct {
	sim        *simulator.Dispatcher
	sessions   kv.Store
	sessionKey string
}

func NewAuthService(sim *simulator.Dispatcher, sessions kv.Store, sessionKey string) *AuthService {
	return &AuthService{sim: sim, sessions: sessions, sessionKey: sessionKey}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, error) {
	result, err := s.sim.Post(ctx, api.PathLogin, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return models.User{}, err
	}
	user := result.(models.User)
	if err := s.saveSession(user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string) (models.User, error) {
	result, err := s.sim.Post(ctx, api.PathSignup, api.SignupRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return models.User{}, err
	}
	user := result.(models.User)
	if err := s.saveSession(user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Logout clears the session marker. No simulated request is involved.
func (s *AuthService) Logout() error {
	return s.sessions.Delete(s.sessionKey)
}

// CurrentUser reads the session marker without contacting the simulator.
func (s *AuthService) CurrentUser() (models.User, bool) {
	data, err := s.sessions.Get(s.sessionKey)
	if err != nil {
		return models.User{}, false
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		logger.Warn("Discarding unreadable session snapshot", zap.Error(err))
		return models.User{}, false
	}
	return user, true
}

func (s *AuthService) saveSession(user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.sessions.Set(s.sessionKey, data)
}
