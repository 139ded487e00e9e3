package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nexh/focus/internal/domain"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/models"
	geminiDefaultModel = "gemini-2.0-flash"
)

type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL points the client at another endpoint (used by tests).
func (c *GeminiClient) SetBaseURL(u string) {
	c.baseURL = u
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (c *GeminiClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{{Text: prompt}},
				Role:  "user",
			},
		},
		GenerationConfig: &geminiGenerationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	// Transport errors echo the URL, so the key must stay out of it.
	url := fmt.Sprintf("%s/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API returned status %d: %s", resp.StatusCode, MaskPII(string(respBody)))
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal gemini response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("gemini API error: %s", result.Error.Message)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini API returned no content")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

type draftData struct {
	CustomerName             string `json:"customer_name"`
	DaysSinceLastInteraction int    `json:"days_since_last_interaction"`
	Reason                   string `json:"reason"`
}

func buildDraftPrompt(req domain.DraftRequest) (string, error) {
	industry := CleanInput(req.Industry)
	if industry == "" {
		industry = "General"
	}
	language := CleanInput(req.Language)
	if language == "" {
		language = domain.DefaultLanguage
	}

	data, err := json.MarshalIndent(draftData{
		CustomerName:             CleanInput(req.Entry.Name),
		DaysSinceLastInteraction: req.Entry.DaysSinceLastInteraction,
		Reason:                   req.Entry.Reason,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(draftPrompt, industry, req.Date, language, string(data)), nil
}

func (c *GeminiClient) Draft(ctx context.Context, req domain.DraftRequest) (string, error) {
	prompt, err := buildDraftPrompt(req)
	if err != nil {
		return "", fmt.Errorf("build draft prompt: %w", err)
	}

	result, err := c.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("draft: %w", err)
	}

	result = stripFences(result)

	var parsed struct {
		DraftContent *string `json:"draft_content"`
	}
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		return "", fmt.Errorf("parse draft result: %w", err)
	}
	if parsed.DraftContent == nil || *parsed.DraftContent == "" {
		return "", fmt.Errorf("gemini returned an empty draft")
	}

	return *parsed.DraftContent, nil
}
