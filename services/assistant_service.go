package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"ticket-ledger/internal/status"
	"ticket-ledger/models"
	"ticket-ledger/utils"
	"time"
)

// AssistantService wraps the generative-text collaborator used by the
// support chat. It is entirely decoupled from the ledger.
type AssistantService struct {
	baseURL string
	apiKey  string
	model   string
	hc      *http.Client
	breaker *utils.CircuitBreaker
}

func NewAssistantService(baseURL, apiKey, model string) *AssistantService {
	return &AssistantService{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		hc:      &http.Client{Timeout: 60 * time.Second},
		breaker: utils.NewCircuitBreaker("assistant"),
	}
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generateContent struct {
	Role  string         `json:"role"`
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateResponse sends the role-tagged conversation and returns the
// completion text.
func (s *AssistantService) GenerateResponse(ctx context.Context, messages []models.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("assistant: empty conversation: %w", status.ErrInvalidInput)
	}

	contents := make([]generateContent, 0, len(messages))
	for _, msg := range messages {
		role := msg.Role
		if role == "assistant" {
			role = "model"
		}
		contents = append(contents, generateContent{
			Role:  role,
			Parts: []generatePart{{Text: msg.Content}},
		})
	}

	reqBody := generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 1024,
		},
	}

	result, err := s.breaker.Execute(ctx, func() (any, error) {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("assistant: marshal request: %w", err)
		}

		endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("assistant: http.NewRequestWithContext: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.hc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("assistant: request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("assistant: unexpected status %d: %s", resp.StatusCode, raw)
		}

		var out generateResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("assistant: decode response: %w", err)
		}
		if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
			return nil, fmt.Errorf("assistant: empty completion")
		}
		return out.Candidates[0].Content.Parts[0].Text, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
