package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sunears/LiaoFansLifeRecord/internal/domain"
	"github.com/sunears/LiaoFansLifeRecord/internal/ports"
)

// Client implements ports.Generator via the OpenRouter API.
type Client struct {
	httpClient     *http.Client
	apiKey         string
	baseURL        string
	model          string
	fallbackModels []string
	logger         *slog.Logger
}

func NewClient(httpClient *http.Client, apiKey, baseURL, model string, fallbackModels []string, logger *slog.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(baseURL, "/"),
		model:          model,
		fallbackModels: fallbackModels,
		logger:         logger,
	}
}

// chatRequest / chatResponse mirror the OpenAI-compatible API shapes.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) GenerateScenario(ctx context.Context, in ports.ScenarioRequest) (ports.ScenarioResult, error) {
	system := buildScenarioSystemPrompt(in.Lang)
	user := buildScenarioUserPrompt(in)

	var out ports.ScenarioResult
	model, err := c.withModelFallback(ctx, func(model string) error {
		out = ports.ScenarioResult{}
		return c.completeJSON(ctx, model, system, user, scenarioSchema, &out)
	})
	if err != nil {
		return ports.ScenarioResult{}, err
	}

	if out.Difficulty < 1 {
		out.Difficulty = 1
	}
	if out.Difficulty > 5 {
		out.Difficulty = 5
	}
	out.Model = model

	return out, nil
}

func (c *Client) ResolveAction(ctx context.Context, in ports.ResolveRequest) (ports.ResolutionResult, error) {
	system := buildResolveSystemPrompt(in.Lang)
	user := buildResolveUserPrompt(in)

	var out ports.ResolutionResult
	model, err := c.withModelFallback(ctx, func(model string) error {
		out = ports.ResolutionResult{}
		return c.completeJSON(ctx, model, system, user, resolutionSchema, &out)
	})
	if err != nil {
		return ports.ResolutionResult{}, err
	}
	out.Model = model

	return out, nil
}

// withModelFallback tries the configured model, then each fallback model in
// order, returning the model that succeeded.
func (c *Client) withModelFallback(ctx context.Context, call func(model string) error) (string, error) {
	models := make([]string, 0, 1+len(c.fallbackModels))
	models = append(models, c.model)
	models = append(models, c.fallbackModels...)

	var lastErr error
	for _, model := range models {
		err := call(model)
		if err == nil {
			return model, nil
		}
		lastErr = err
		if len(models) > 1 {
			c.logger.WarnContext(ctx, "model failed, trying next", "model", model, "error", err)
		}
	}

	return "", lastErr
}

// completeJSON runs one chat completion and unmarshals the content into out,
// retrying once with a correction prompt if the content is not valid JSON.
func (c *Client) completeJSON(ctx context.Context, model, system, user, schema string, out any) error {
	content, err := c.callLLM(ctx, model, system, user)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
	}

	if err := json.Unmarshal([]byte(content), out); err != nil {
		c.logger.WarnContext(ctx, "LLM returned invalid JSON, retrying", "model", model, "error", err)
		content, err = c.callLLM(ctx, model, system, retryPrompt(content, schema))
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
		}
		if err := json.Unmarshal([]byte(content), out); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidLLMJSON, err)
		}
	}

	return nil
}

func (c *Client) callLLM(ctx context.Context, model, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
