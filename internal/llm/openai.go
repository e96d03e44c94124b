package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rs/zerolog/log"
)

// OpenAIProvider implements Provider on top of the OpenAI chat completion
// API. Calls run under a circuit breaker so a flapping upstream cannot keep
// every request waiting on a full timeout.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	apiKey  string
	timeout time.Duration
	tracer  trace.Tracer
	breaker *gobreaker.CircuitBreaker
}

// NewOpenAIProvider creates a provider for the given API key and model.
// An empty key yields an unconfigured provider; agents handle that case.
func NewOpenAIProvider(apiKey, model string, timeout time.Duration) *OpenAIProvider {
	settings := gobreaker.Settings{
		Name:        "llm-provider",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	var client *openai.Client
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}

	return &OpenAIProvider{
		client:  client,
		model:   model,
		apiKey:  apiKey,
		timeout: timeout,
		tracer:  otel.Tracer("llm-provider"),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// SetClient overrides the underlying client. Used in tests to point the
// provider at a local stub server.
func (p *OpenAIProvider) SetClient(client *openai.Client) {
	p.client = client
}

// Configured reports whether an API key was supplied.
func (p *OpenAIProvider) Configured() bool {
	return p.client != nil
}

// Generate runs a single-turn chat completion for the prompt.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := p.tracer.Start(ctx, "llm.generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.model", p.model),
		attribute.Int("llm.prompt_length", len(prompt)),
	)

	if p.client == nil {
		return "", fmt.Errorf("llm provider not configured")
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("empty completion response")
		}
		return resp.Choices[0].Message.Content, nil
	})

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("llm generate failed: %w", err)
	}

	text := result.(string)
	span.SetAttributes(attribute.Int("llm.response_length", len(text)))

	return text, nil
}
