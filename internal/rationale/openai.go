package rationale

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/opsagent/reorder/internal/domain"
)

const defaultEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAIGenerator asks a chat-completion model for a short rationale.
// Failures are returned to the caller, which falls back to the
// template generator; the decision itself is never affected.
type OpenAIGenerator struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	return &OpenAIGenerator{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *OpenAIGenerator) Generate(ctx context.Context, rec domain.ReorderRecommendation, supplier domain.SupplierConfig) (string, error) {
	prompt := fmt.Sprintf(
		"Provide a short (<= 40 words) human-friendly explanation for a reorder recommendation.\n"+
			"SKU: %s\nAvg daily demand: %.2f\nDemand sigma: %.2f\nLead time (days): %d\n"+
			"Safety stock: %.1f\nReorder point: %.1f\nCurrent stock: %.0f\nPack size: %d\n"+
			"Recommended order: %d\nTarget (order-up-to): %.0f\n"+
			"Return a single-sentence rationale.",
		rec.SKU, rec.Stats.AvgDailyDemand, rec.Stats.Sigma, supplier.LeadTimeDays,
		rec.SafetyStock, rec.ReorderPoint, supplier.CurrentStock, supplier.PackSize,
		rec.RoundedQuantity, supplier.TargetStock,
	)

	body, err := json.Marshal(chatRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   80,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("encode rationale request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build rationale request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("rationale request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rationale request returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode rationale response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("rationale response had no content")
	}

	return parsed.Choices[0].Message.Content, nil
}
