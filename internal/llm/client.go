package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Request describes one completion call: role instructions, user content,
// sampling temperature and an optional structured-output hint.
type Request struct {
	System      string
	User        string
	Temperature float64
	ForceJSON   bool
	MaxTokens   int
}

// Completer is the generation-service boundary every role component talks
// through. Implementations either return text or fail; there is no partial
// result.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

const defaultMaxTokens = 4096

// Client talks to an OpenAI- or Anthropic-compatible endpoint with rate
// limiting and bounded retries.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int
	limiter    *rate.Limiter
	apiType    string // "anthropic" or "openai"
	logger     *slog.Logger
}

type Option func(*Client)

func WithRetry(maxRetries int) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		transport := c.httpClient.Transport
		c.httpClient = &http.Client{
			Timeout:   timeout,
			Transport: transport,
		}
	}
}

func WithRateLimit(requestsPerMinute int, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
	}
}

func WithAPIConfig(baseURL, model string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
		c.model = model
		if strings.Contains(baseURL, "openai") {
			c.apiType = "openai"
		} else {
			c.apiType = "anthropic"
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	c := &Client{
		apiKey:  apiKey,
		baseURL: "https://api.openai.com/v1",
		model:   "gpt-4o-mini",
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
		maxRetries: 3,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		apiType:    "openai",
		logger:     slog.Default().With("component", "llm_client"),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger.Debug("LLM client initialized",
		"api_type", c.apiType,
		"base_url", c.baseURL,
		"model", c.model,
		"max_retries", c.maxRetries,
		"rate_limit", fmt.Sprintf("%v req/s", c.limiter.Limit()))

	return c
}

// Complete performs one completion with rate limiting and linear-backoff
// retries. The caller sees either the generated text or the last error.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	requestID := fmt.Sprintf("llm_%d", time.Now().UnixNano())
	startTime := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Error("rate limit wait failed",
			"request_id", requestID,
			"error", err)
		return "", fmt.Errorf("rate limit wait failed: %w", err)
	}

	c.logger.Debug("rate limit passed",
		"request_id", requestID,
		"wait_duration_ms", time.Since(startTime).Milliseconds())

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			c.logger.Debug("retry backoff",
				"request_id", requestID,
				"attempt", attempt,
				"backoff_seconds", backoff.Seconds())

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				c.logger.Warn("request cancelled during backoff",
					"request_id", requestID,
					"attempt", attempt)
				return "", ctx.Err()
			}
		}

		attemptStart := time.Now()
		c.logger.Debug("attempting generation request",
			"request_id", requestID,
			"attempt", attempt,
			"system_prompt_length", len(req.System),
			"user_prompt_length", len(req.User),
			"temperature", req.Temperature,
			"force_json", req.ForceJSON,
			"api_type", c.apiType,
			"model", c.model)

		response, err := c.doRequest(ctx, req)
		attemptDuration := time.Since(attemptStart)

		if err == nil {
			c.logger.Info("generation request successful",
				"request_id", requestID,
				"attempt", attempt,
				"duration_ms", attemptDuration.Milliseconds(),
				"response_length", len(response),
				"total_duration_ms", time.Since(startTime).Milliseconds())
			return response, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			c.logger.Error("generation request cancelled",
				"request_id", requestID,
				"attempt", attempt,
				"error", err)
			return "", err
		}

		c.logger.Warn("generation request failed, will retry",
			"request_id", requestID,
			"attempt", attempt,
			"duration_ms", attemptDuration.Milliseconds(),
			"error", err)
	}

	c.logger.Error("generation request failed after max retries",
		"request_id", requestID,
		"max_retries", c.maxRetries,
		"total_duration_ms", time.Since(startTime).Milliseconds(),
		"last_error", lastErr)

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, req Request) (string, error) {
	if c.apiType == "openai" {
		return c.doOpenAIRequest(ctx, req)
	}
	return c.doAnthropicRequest(ctx, req)
}

const jsonOnlyInstruction = "IMPORTANT: You MUST respond with valid JSON only. Your entire response must be a single JSON object with no additional text, markdown, or explanations."

func (c *Client) doOpenAIRequest(ctx context.Context, req Request) (string, error) {
	system := req.System
	if req.ForceJSON {
		if system != "" {
			system += "\n\n"
		}
		system += jsonOnlyInstruction
	}

	messages := make([]map[string]string, 0, 2)
	if system != "" {
		messages = append(messages, map[string]string{
			"role":    "system",
			"content": system,
		})
	}
	messages = append(messages, map[string]string{
		"role":    "user",
		"content": req.User,
	})

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	requestBody := map[string]interface{}{
		"model":       c.model,
		"messages":    messages,
		"max_tokens":  maxTokens,
		"temperature": req.Temperature,
	}

	if req.ForceJSON {
		requestBody["response_format"] = map[string]string{
			"type": "json_object",
		}
	}

	body, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	c.logger.Debug("openai request completed",
		"prompt_tokens", response.Usage.PromptTokens,
		"completion_tokens", response.Usage.CompletionTokens,
		"total_tokens", response.Usage.TotalTokens)

	return response.Choices[0].Message.Content, nil
}

func (c *Client) doAnthropicRequest(ctx context.Context, req Request) (string, error) {
	system := req.System
	if req.ForceJSON {
		if system != "" {
			system += "\n\n"
		}
		system += jsonOnlyInstruction
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	requestBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": req.User,
			},
		},
		"max_tokens":  maxTokens,
		"temperature": req.Temperature,
	}
	if system != "" {
		requestBody["system"] = system
	}

	body, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}

	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	c.logger.Debug("anthropic request completed",
		"input_tokens", response.Usage.InputTokens,
		"output_tokens", response.Usage.OutputTokens)

	return response.Content[0].Text, nil
}
