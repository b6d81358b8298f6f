package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/vendorseo/internal/logger"
	"github.com/timmy/vendorseo/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// KeyCursor remembers the key index that last succeeded so the next call
// starts there. It is shared by every request in the process.
type KeyCursor struct {
	idx atomic.Int64
}

// NewKeyCursor returns a cursor starting at key 0.
func NewKeyCursor() *KeyCursor {
	return &KeyCursor{}
}

func (c *KeyCursor) Load() int {
	return int(c.idx.Load())
}

func (c *KeyCursor) Store(i int) {
	c.idx.Store(int64(i))
}

// GatewayConfig holds configuration for the keyword gateway.
type GatewayConfig struct {
	BaseURL        string
	APIKeys        []string
	Models         []string
	AttemptTimeout time.Duration
	Referer        string
	Title          string
}

// KeywordResult is a successful gateway call.
type KeywordResult struct {
	Keywords []string
	Raw      string
	Mode     ParseMode
	Model    string
	KeyIndex int
}

// KeywordGateway calls an OpenAI-compatible chat completions API, rotating
// across keys and falling back across models.
type KeywordGateway struct {
	client   *resty.Client
	endpoint string
	keys     []string
	models   []string
	timeout  time.Duration
	cursor   *KeyCursor
	metrics  *telemetry.Metrics
}

// NewKeywordGateway creates a gateway. A nil cursor gets a private one.
func NewKeywordGateway(cfg *GatewayConfig, cursor *KeyCursor, metrics *telemetry.Metrics) *KeywordGateway {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	if cfg.Referer != "" {
		client.SetHeader("HTTP-Referer", cfg.Referer)
	}
	if cfg.Title != "" {
		client.SetHeader("X-Title", cfg.Title)
	}

	timeout := cfg.AttemptTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if cursor == nil {
		cursor = NewKeyCursor()
	}

	return &KeywordGateway{
		client:   client,
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + "/chat/completions",
		keys:     cfg.APIKeys,
		models:   cfg.Models,
		timeout:  timeout,
		cursor:   cursor,
		metrics:  metrics,
	}
}

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
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// softFailure is an attempt failure that moves on to the next combination.
type softFailure struct {
	reason string
	err    error
}

func (e *softFailure) Error() string {
	if e.err != nil {
		return e.reason + ": " + e.err.Error()
	}
	return e.reason
}

func (e *softFailure) Unwrap() error { return e.err }

// Generate tries models in priority order and, for each, every key starting
// at the cursor. Quota responses (429, 402), timeouts, transport errors and
// undecodable bodies move to the next combination; any other error status
// aborts with *ProviderError.
func (g *KeywordGateway) Generate(ctx context.Context, systemPrompt, userPrompt string) (*KeywordResult, error) {
	n := len(g.keys)
	if n == 0 {
		return nil, ErrNoCredentials
	}

	ctx, span := telemetry.StartSpan(ctx, "gateway.generate")
	defer span.End()

	start := g.cursor.Load() % n
	if start < 0 {
		start = 0
	}

	attempts := 0
	for _, model := range g.models {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("keyword generation cancelled: %w", err)
			}

			keyIndex := (start + i) % n
			attempts++
			actx := logger.WithFields(ctx, logger.Fields{logger.FieldModel: model, "key_index": keyIndex})

			content, err := g.attempt(actx, model, g.keys[keyIndex], systemPrompt, userPrompt)
			if err == nil {
				g.cursor.Store(keyIndex)
				g.metrics.ObserveAIAttempt(model, "ok")
				span.SetAttributes(attribute.String("ai.model", model), attribute.Int("ai.attempts", attempts))

				parsed := ParseKeywordList(content)
				logger.With(logger.Fields{"parse_mode": string(parsed.Mode)}).
					WithCount(len(parsed.Keywords)).
					Info(actx, "AI keywords generated")

				return &KeywordResult{
					Keywords: parsed.Keywords,
					Raw:      content,
					Mode:     parsed.Mode,
					Model:    model,
					KeyIndex: keyIndex,
				}, nil
			}

			var provider *ProviderError
			if errors.As(err, &provider) {
				provider.Model = model
				provider.KeyIndex = keyIndex
				g.metrics.ObserveAIAttempt(model, "provider_error")
				logger.FromContext(actx).WithError(err).Error("AI provider rejected request")
				return nil, provider
			}

			var soft *softFailure
			if errors.As(err, &soft) {
				g.metrics.ObserveAIAttempt(model, soft.reason)
			}
			logger.FromContext(actx).WithError(err).Warn("AI attempt failed, trying next")
		}
	}

	return nil, &ExhaustedProvidersError{Models: len(g.models), Keys: n, Attempts: attempts}
}

func (g *KeywordGateway) attempt(ctx context.Context, model, key, systemPrompt, userPrompt string) (string, error) {
	actx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.R().
		SetContext(actx).
		SetAuthToken(key).
		SetBody(chatRequest{
			Model: model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
		}).
		Post(g.endpoint)
	if err != nil {
		if errors.Is(actx.Err(), context.DeadlineExceeded) {
			return "", &softFailure{reason: "timeout", err: err}
		}
		return "", &softFailure{reason: "transport", err: err}
	}

	status := resp.StatusCode()
	if status == http.StatusTooManyRequests || status == http.StatusPaymentRequired {
		return "", &softFailure{reason: "quota", err: fmt.Errorf("HTTP %d", status)}
	}

	var body chatResponse
	decodeErr := json.Unmarshal(resp.Body(), &body)

	if status < 200 || status >= 300 {
		msg := fmt.Sprintf("HTTP %d", status)
		if decodeErr == nil && body.Error != nil && body.Error.Message != "" {
			msg = body.Error.Message
		}
		return "", &ProviderError{StatusCode: status, Message: msg}
	}
	if decodeErr != nil {
		return "", &softFailure{reason: "decode", err: decodeErr}
	}
	if len(body.Choices) == 0 {
		return "", nil
	}
	return body.Choices[0].Message.Content, nil
}
