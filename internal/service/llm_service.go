package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"bilimbagdar/internal/config"
	"bilimbagdar/internal/models"
)

var ErrLLMUnavailable = errors.New("language model unavailable")

// LLMService handles interaction with the language-model collaborator.
// Every failure path returns an error so the caller can apply its rule-based
// fallback; the coaching flow must never hard-fail on this service.
type LLMService struct {
	baseURL string
	model   string
	enabled bool
	client  *http.Client
}

// NewLLMService creates a new LLM service
func NewLLMService(cfg *config.LLMConfig) *LLMService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := cfg.Model
	if model == "" {
		model = "llama3"
	}
	return &LLMService{
		baseURL: baseURL,
		model:   model,
		enabled: cfg.Enabled,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Enabled reports whether the collaborator is configured at all
func (s *LLMService) Enabled() bool {
	return s != nil && s.enabled
}

type chatEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string      `json:"model"`
	Messages []chatEntry `json:"messages"`
	Stream   bool        `json:"stream"`
}

type ollamaChatResponse struct {
	Message chatEntry `json:"message"`
	Done    bool      `json:"done"`
}

// Complete sends the system instruction plus the running transcript and
// returns the generated text
func (s *LLMService) Complete(ctx context.Context, system string, transcript []models.ChatMessage) (string, error) {
	if !s.Enabled() {
		return "", ErrLLMUnavailable
	}

	messages := make([]chatEntry, 0, len(transcript)+1)
	messages = append(messages, chatEntry{Role: "system", Content: system})
	for _, m := range transcript {
		role := m.Role
		if role != "user" && role != "assistant" {
			role = "user"
		}
		messages = append(messages, chatEntry{Role: role, Content: m.Content})
	}

	reqBody := ollamaChatRequest{
		Model:    s.model,
		Messages: messages,
		Stream:   false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("LLM service unreachable", "error", err)
		return "", fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		slog.Error("LLM service returned non-200 status", "status", resp.StatusCode, "body", string(bodyBytes))
		return "", fmt.Errorf("%w: status %d", ErrLLMUnavailable, resp.StatusCode)
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		slog.Error("Failed to decode LLM response", "error", err)
		return "", fmt.Errorf("%w: malformed response", ErrLLMUnavailable)
	}

	text := strings.TrimSpace(chatResp.Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrLLMUnavailable)
	}
	return text, nil
}
