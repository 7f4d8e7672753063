package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/grant-matcher/internal/logger"
	"github.com/spigell/grant-matcher/internal/utils"
)

const (
	Provider = "gemini"

	defaultModel        = "gemini-2.5-pro"
	defaultWebModel     = "gemini-2.5-flash"
	defaultMaxRetries   = 3
	defaultMaxLogLength = 200
	maxQuotaWait        = 10 * time.Second
	maxBackoff          = 30 * time.Second
)

// wait is swapped in tests to skip backoff delays.
var wait = utils.WaitFor

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

// modelsAPI is the part of *genai.Models the generator uses.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config describes how to reach Gemini.
type Config struct {
	APIKey       string
	Model        string
	WebModel     string
	MaxRetries   int
	MaxLogLength int
	Temperature  float32
}

// Request is a single prompt sent to Gemini.
type Request struct {
	System string
	Prompt string
	// JSON asks the model for an application/json reply.
	JSON bool
	// Search enables the Google Search tool and uses the web model.
	Search bool
}

// Generator wraps the Google GenAI client with retries and logging.
type Generator struct {
	models      modelsAPI
	model       string
	webModel    string
	maxRetries  int
	maxLogLen   int
	temperature float32
	logger      *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, cfg, log), nil
}

func newGenerator(models modelsAPI, cfg Config, log *zap.Logger) *Generator {
	g := &Generator{
		models:      models,
		model:       strings.TrimSpace(cfg.Model),
		webModel:    strings.TrimSpace(cfg.WebModel),
		maxRetries:  cfg.MaxRetries,
		maxLogLen:   cfg.MaxLogLength,
		temperature: cfg.Temperature,
	}
	if g.model == "" {
		g.model = defaultModel
	}
	if g.webModel == "" {
		g.webModel = defaultWebModel
	}
	if g.maxRetries <= 0 {
		g.maxRetries = defaultMaxRetries
	}
	if g.maxLogLen <= 0 {
		g.maxLogLen = defaultMaxLogLength
	}
	g.logger = logger.WithAI(log, Provider, g.model)
	return g
}

// Model returns the model used for text generation.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Generate sends the request and returns the textual reply. Transient API
// failures are retried up to the configured number of attempts.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	model := g.model
	if req.Search {
		model = g.webModel
	}
	config := g.contentConfig(req)

	g.logger.Debug("gemini generate content request",
		zap.String("request_model", model),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, g.maxLogLen)),
	)

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		resp, err := g.models.GenerateContent(ctx, model, genai.Text(prompt), config)
		if err == nil {
			output := responseText(resp)
			if output == "" {
				return "", errors.New("gemini api returned empty response")
			}
			g.logger.Debug("gemini generate content response",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(output)),
				zap.String("response_preview", logger.TruncateForLog(output, g.maxLogLen)),
			)
			return output, nil
		}

		lastErr = err
		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == g.maxRetries {
			break
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := wait(ctx, delay); err != nil {
			return "", fmt.Errorf("waiting to retry: %w", err)
		}
	}

	return "", fmt.Errorf("generate content: %w", lastErr)
}

func (g *Generator) contentConfig(req Request) *genai.GenerateContentConfig {
	temperature := g.temperature
	config := &genai.GenerateContentConfig{Temperature: &temperature}

	if system := strings.TrimSpace(req.System); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if req.JSON && !req.Search {
		config.ResponseMIMEType = "application/json"
	}
	if req.Search {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	return config
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

// retryDelay decides whether err is transient and how long to wait.
// Quota errors are only retried when the server asks for a short pause.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var ptr *genai.APIError
		if !errors.As(err, &ptr) || ptr == nil {
			return 0, false
		}
		apiErr = *ptr
	}

	backoff := utils.Backoff(attempt, time.Second, maxBackoff)

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		m := retryAfterPattern.FindStringSubmatch(apiErr.Message)
		if m == nil {
			return backoff, true
		}
		seconds, convErr := strconv.ParseFloat(m[1], 64)
		if convErr != nil {
			return backoff, true
		}
		delay := time.Duration(seconds * float64(time.Second))
		if delay > maxQuotaWait {
			return 0, false
		}
		return delay, true
	case apiErr.Code >= http.StatusInternalServerError:
		return backoff, true
	default:
		return 0, false
	}
}
