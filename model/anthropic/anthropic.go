// Package anthropic provides a model.Backend implementation using the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/swarmgate/model"
)

// Options configures the Anthropic backend adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Backend wraps the Anthropic Messages API behind the generic
// model.Backend interface.
type Backend struct {
	client *anthropic.Client
	opts   Options
}

// NewBackend creates a new Anthropic backend using the official client.
func NewBackend(optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Backend{
		client: &client,
		opts:   opts,
	}
}

// NewBackendFromClient creates a new Anthropic backend from an existing client.
func NewBackendFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Backend{
		client: client,
		opts:   opts,
	}
}

// Invoke implements model.Backend for the non-streaming path.
func (b *Backend) Invoke(ctx context.Context, inv model.Invocation) (*model.Result, error) {
	modelID := b.opts.Model
	if inv.Model != "" {
		modelID = anthropic.Model(inv.Model)
	}

	params := anthropic.MessageNewParams{
		Model:       modelID,
		MaxTokens:   b.opts.MaxTokens,
		Temperature: anthropic.Float(b.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(inv.Message)),
		},
	}

	if inv.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: inv.SystemPrompt}}
	}

	start := time.Now()

	resp, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	return &model.Result{
		Text:    sb.String(),
		Model:   string(modelID),
		Elapsed: time.Since(start),
	}, nil
}

// InvokeStreaming is not implemented for the Anthropic adapter.
// TODO: adapt anthropic.MessageStreamEvent deltas to model.ChunkStream.
func (b *Backend) InvokeStreaming(_ context.Context, _ model.Invocation) (model.ChunkStream, error) {
	return nil, model.ErrStreamingUnsupported
}

// Info returns metadata describing this backend implementation.
func (b *Backend) Info() model.Info {
	return model.Info{
		Name:     string(b.opts.Model),
		Provider: "anthropic",
	}
}
