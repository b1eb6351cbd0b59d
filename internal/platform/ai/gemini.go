package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pharmasense/pharmasense/internal/apperr"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/"

const maxRetries = 3

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client (used in tests).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(u string) ClientOption {
	return func(cl *Client) { cl.baseURL = u }
}

// Client talks to the Gemini generateContent API and implements
// Recommender.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(apiKey, model string, log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name, echoed in recommendation
// responses.
func (c *Client) Model() string { return c.model }

// ---------------------------------------------------------------------------
// Request envelope
// ---------------------------------------------------------------------------

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type requestPart struct {
	Text string `json:"text"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

func safetySettings() []safetySetting {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}
	out := make([]safetySetting, 0, len(categories))
	for _, cat := range categories {
		out = append(out, safetySetting{Category: cat, Threshold: "BLOCK_MEDIUM_AND_ABOVE"})
	}
	return out
}

func textRequest(prompt string, temperature float64, maxTokens int) generateRequest {
	return generateRequest{
		Contents: []requestContent{{Parts: []requestPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      temperature,
			TopP:             0.8,
			MaxOutputTokens:  maxTokens,
			ResponseMimeType: "application/json",
		},
		SafetySettings: safetySettings(),
	}
}

// ---------------------------------------------------------------------------
// Response envelope
// ---------------------------------------------------------------------------

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// extractText pulls the first non-empty text part out of the response.
// A safety-filter block surfaces as SafetyBlockError and is never
// retried.
func extractText(resp *generateResponse) (string, error) {
	if reason := resp.PromptFeedback.BlockReason; reason != "" {
		return "", apperr.NewSafetyBlock(fmt.Sprintf("Blocked by Gemini safety filter: %s", reason))
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in Gemini response")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if strings.TrimSpace(part.Text) != "" {
			return part.Text, nil
		}
	}
	return "", fmt.Errorf("no text content found in Gemini response parts")
}

// ---------------------------------------------------------------------------
// Retry loop
// ---------------------------------------------------------------------------

func (c *Client) url() string {
	return fmt.Sprintf("%s%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
}

// callWithRetry posts the request and decodes the JSON payload into out,
// then applies validate. Validation and transport errors are retried
// with linear backoff; SafetyBlockError propagates immediately.
func (c *Client) callWithRetry(ctx context.Context, body generateRequest, operation string, out interface{}, validate func() error) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal gemini request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		start := time.Now()
		text, err := c.post(ctx, payload)
		if err != nil {
			if apperr.IsSafetyBlock(err) {
				return err
			}
			lastErr = err
			c.log.Warn().Err(err).Str("operation", operation).Int("attempt", attempt).
				Msg("gemini call failed")
			continue
		}

		if err := json.Unmarshal([]byte(text), out); err != nil {
			lastErr = fmt.Errorf("decode gemini output: %w", err)
			c.log.Warn().Err(lastErr).Str("operation", operation).Int("attempt", attempt).
				Msg("gemini output malformed")
			continue
		}
		if err := validate(); err != nil {
			lastErr = err
			c.log.Warn().Err(err).Str("operation", operation).Int("attempt", attempt).
				Msg("gemini output failed validation")
			continue
		}

		c.log.Info().Str("operation", operation).Dur("elapsed", time.Since(start)).
			Msg("gemini call succeeded")
		return nil
	}

	c.log.Error().Err(lastErr).Str("operation", operation).Int("attempts", maxRetries).
		Msg("gemini call exhausted retries")
	return fmt.Errorf("gemini %s failed after %d attempts: %w", operation, maxRetries, lastErr)
}

func (c *Client) post(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %d: %.200s", resp.StatusCode, raw)
	}

	var envelope generateResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("decode gemini envelope: %w", err)
	}
	return extractText(&envelope)
}

// ---------------------------------------------------------------------------
// Recommender implementation
// ---------------------------------------------------------------------------

func (c *Client) GenerateRecommendations(ctx context.Context, rc RecommendationContext) (*RecommendationOutput, error) {
	body := textRequest(buildRecommendationPrompt(rc), 0.2, 4096)

	var out RecommendationOutput
	err := c.callWithRetry(ctx, body, "generate_recommendations", &out, func() error {
		return validateRecommendations(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GeneratePatientInstructions(ctx context.Context, in InstructionsInput) (*PatientInstructions, error) {
	body := textRequest(buildPatientInstructionsPrompt(in), 0.3, 2048)

	var out PatientInstructions
	err := c.callWithRetry(ctx, body, "generate_patient_instructions", &out, func() error {
		return validateInstructions(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func validateRecommendations(out *RecommendationOutput) error {
	if len(out.Recommendations) == 0 {
		return apperr.NewValidation("generate_recommendations", "recommendations", "must not be empty")
	}
	for _, rec := range out.Recommendations {
		if strings.TrimSpace(rec.Medication) == "" {
			return apperr.NewValidation("generate_recommendations", "medication", "must not be blank")
		}
		if strings.TrimSpace(rec.Dosage) == "" {
			return apperr.NewValidation("generate_recommendations", "dosage", "must not be blank")
		}
	}
	return nil
}

func validateInstructions(out *PatientInstructions) error {
	if strings.TrimSpace(out.MedicationName) == "" {
		return apperr.NewValidation("generate_patient_instructions", "medication_name", "must not be blank")
	}
	if strings.TrimSpace(out.HowToTake) == "" {
		return apperr.NewValidation("generate_patient_instructions", "how_to_take", "must not be blank")
	}
	return nil
}
