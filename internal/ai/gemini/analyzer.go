package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/ai"
	"github.com/spigell/grant-matcher/internal/applicant"
	"github.com/spigell/grant-matcher/internal/logger"
)

type contentGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

//go:embed prompt.md
var analyzePrompt string

const analyzeSystem = `You analyse applications to charitable foundations.
Return a short, correct and factual structured analysis.
Do not invent facts. Rely only on what the user stated.
Extra keywords must be short words or phrases that help matching.`

// Analyzer extracts structured insights from an application with Gemini.
type Analyzer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

// NewAnalyzer returns an ai.Analyzer backed by the generator.
func NewAnalyzer(generator contentGenerator, log *zap.Logger, maxLogLength int) *Analyzer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Analyzer{
		generator: generator,
		logger:    logger.WithAI(log, Provider, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

// Analyze asks Gemini for insights about the profile.
func (a *Analyzer) Analyze(ctx context.Context, profile applicant.Profile) (*ai.Insights, error) {
	profileJSON, err := json.MarshalIndent(ai.ProfilePayload(profile), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	prompt := strings.ReplaceAll(analyzePrompt, "{{PROFILE_JSON}}", string(profileJSON))

	raw, err := a.generator.Generate(ctx, Request{System: analyzeSystem, Prompt: prompt, JSON: true})
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini analysis response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	insights, err := parseInsights(raw)
	if err != nil {
		return nil, err
	}

	if insights.NormalizedNeedCategory == "" {
		insights.NormalizedNeedCategory = profile.Need
	}

	return insights, nil
}

func parseInsights(raw string) (*ai.Insights, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	var insights ai.Insights
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &insights,
	})
	if err != nil {
		return nil, fmt.Errorf("create insights decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode gemini insights: %w", err)
	}

	if category := strings.TrimSpace(string(insights.NormalizedNeedCategory)); category != "" {
		need, ok := applicant.ParseNeedCategory(category)
		if !ok {
			return nil, fmt.Errorf("gemini returned unknown need category %q", category)
		}
		insights.NormalizedNeedCategory = need
	}

	insights.ConciseSummary = strings.TrimSpace(insights.ConciseSummary)
	insights.ApplicantStory = strings.TrimSpace(insights.ApplicantStory)
	insights.ExtraKeywords = ai.CleanKeywords(insights.ExtraKeywords)
	insights.PriorityFacts = ai.CleanKeywords(insights.PriorityFacts)
	insights.MissingInformation = ai.CleanKeywords(insights.MissingInformation)
	insights.CautionFlags = ai.CleanKeywords(insights.CautionFlags)
	if insights.RecommendedTone = strings.TrimSpace(insights.RecommendedTone); insights.RecommendedTone == "" {
		insights.RecommendedTone = ai.DefaultTone
	}

	return &insights, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
