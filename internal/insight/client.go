package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dgraph-io/ristretto"
)

const (
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 1024
	cacheTTL         = 6 * time.Hour
)

const insightsSystemPrompt = `You are a household finance assistant for a family expense tracker.
You receive a JSON bundle of pre-computed figures. Write a short, friendly analysis in plain text:
2-4 observations followed by concrete recommendations. Only use numbers present in the bundle.`

const predictionSystemPrompt = `You are a household finance assistant. You receive JSON with a family's
spending pattern, monthly history and already computed month-ahead predictions. Explain in a few
sentences why spending is expected to move this way. Do not change or invent the predicted numbers.`

// completer sends one prompt to a language model.
type completer interface {
	complete(ctx context.Context, system, prompt string) (string, error)
}

// ClientConfig configures the Anthropic-backed generator.
type ClientConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
	CacheSize int64 // bytes of cached responses, 0 disables caching
}

// Client is a Generator backed by the Anthropic Messages API with a response cache.
type Client struct {
	llm   completer
	cache *ristretto.Cache
}

// NewClient creates a generator for the given key. It returns Nop when the
// key is empty so callers can always use the result.
func NewClient(cfg ClientConfig) (Generator, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return Nop{}, nil
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	api := anthropic.NewClient(option.WithAPIKey(key))
	c, err := newClient(&anthropicCompleter{client: &api, model: cfg.Model, maxTokens: cfg.MaxTokens}, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(llm completer, cacheSize int64) (*Client, error) {
	c := &Client{llm: llm}
	if cacheSize > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 10_000,
			MaxCost:     cacheSize,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("insight: creating cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// GenerateInsights produces a narrative analysis of bundle.
func (c *Client) GenerateInsights(ctx context.Context, bundle any) (string, error) {
	return c.generate(ctx, insightsSystemPrompt, bundle)
}

// GeneratePredictionNarrative explains a set of predictions.
func (c *Client) GeneratePredictionNarrative(ctx context.Context, bundle any) (string, error) {
	return c.generate(ctx, predictionSystemPrompt, bundle)
}

func (c *Client) generate(ctx context.Context, system string, bundle any) (string, error) {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("insight: encoding bundle: %w", err)
	}
	prompt := "Data:\n" + string(data)

	key := cacheKey(system, prompt)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return v.(string), nil
		}
	}

	text, err := c.llm.complete(ctx, system, prompt)
	if err != nil {
		return "", err
	}

	if c.cache != nil && text != "" {
		c.cache.SetWithTTL(key, text, int64(len(text)), cacheTTL)
		c.cache.Wait()
	}
	return text, nil
}

func cacheKey(system, prompt string) string {
	sum := sha256.Sum256([]byte(system + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}

type anthropicCompleter struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

func (a *anthropicCompleter) complete(ctx context.Context, system, prompt string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("insight: messages request: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
