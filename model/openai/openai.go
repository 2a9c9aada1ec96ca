// Package openai provides a model.Backend implementation using the
// OpenAI Chat Completions API, including streaming. Setting a base URL
// points the same adapter at any OpenAI-compatible endpoint such as
// OpenRouter.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/hupe1980/swarmgate/model"
)

// OpenRouterBaseURL is the OpenAI-compatible endpoint of OpenRouter.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Options configure the OpenAI backend adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string
	Provider            string
}

// Backend wraps the OpenAI Chat Completions API behind the generic
// model.Backend interface.
type Backend struct {
	client *openai.Client
	opts   Options
}

// NewBackend creates a new OpenAI backend using the official client.
func NewBackend(optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		Provider:            "openai",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(clientOpts...)

	return &Backend{client: &client, opts: opts}
}

// NewBackendFromClient creates a new OpenAI backend from an existing client.
func NewBackendFromClient(client *openai.Client, optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		Provider:            "openai",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Backend{client: client, opts: opts}
}

// NewOpenRouterBackend creates a backend targeting OpenRouter's
// OpenAI-compatible API.
func NewOpenRouterBackend(apiKey string, optFns ...func(o *Options)) *Backend {
	fns := append([]func(o *Options){func(o *Options) {
		o.APIKey = apiKey
		o.BaseURL = OpenRouterBaseURL
		o.Provider = "openrouter"
	}}, optFns...)

	return NewBackend(fns...)
}

// Invoke implements model.Backend for the non-streaming path.
func (b *Backend) Invoke(ctx context.Context, inv model.Invocation) (*model.Result, error) {
	params := b.buildParams(inv)
	start := time.Now()

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	return &model.Result{
		Text:    resp.Choices[0].Message.Content,
		Model:   params.Model,
		Elapsed: time.Since(start),
	}, nil
}

// InvokeStreaming implements model.Backend; the returned ChunkStream
// yields the non-empty text deltas of the completion.
func (b *Backend) InvokeStreaming(ctx context.Context, inv model.Invocation) (model.ChunkStream, error) {
	stream := b.client.Chat.Completions.NewStreaming(ctx, b.buildParams(inv))

	return &chunkStream{stream: stream}, nil
}

// buildParams assembles the Chat Completion parameters. The invocation
// model, when set, overrides the adapter default.
func (b *Backend) buildParams(inv model.Invocation) openai.ChatCompletionNewParams {
	modelID := b.opts.Model
	if inv.Model != "" {
		modelID = inv.Model
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if inv.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(inv.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(inv.Message))

	return openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               modelID,
		Temperature:         openai.Float(b.opts.Temperature),
		MaxCompletionTokens: openai.Int(b.opts.MaxCompletionTokens),
	}
}

// Info returns metadata describing this backend implementation.
func (b *Backend) Info() model.Info {
	return model.Info{
		Name:     b.opts.Model,
		Provider: b.opts.Provider,
	}
}

// chunkStream adapts the SDK's SSE stream to model.ChunkStream, skipping
// chunks without a text delta.
type chunkStream struct {
	stream  *ssestream.Stream[openai.ChatCompletionChunk]
	current string
}

func (s *chunkStream) Next() bool {
	for s.stream.Next() {
		ck := s.stream.Current()
		if len(ck.Choices) > 0 && ck.Choices[0].Delta.Content != "" {
			s.current = ck.Choices[0].Delta.Content
			return true
		}
	}

	return false
}

func (s *chunkStream) Current() string { return s.current }

func (s *chunkStream) Err() error { return s.stream.Err() }

func (s *chunkStream) Close() error { return s.stream.Close() }
