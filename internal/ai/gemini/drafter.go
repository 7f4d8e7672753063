package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/ai"
	"github.com/spigell/grant-matcher/internal/applicant"
	"github.com/spigell/grant-matcher/internal/logger"
)

const draftSystem = `You write a first draft of an application to a charitable foundation.
Write only the draft, no explanation before or after.
Use a warm but professional language.
Do not invent documents, diagnoses or financial facts.
If something is uncertain, phrase it carefully.
Structure:
- Heading
- To
- Short introduction
- Description of the need
- Financial situation
- Why the foundation fits
- Which documents are available
- Closing`

//go:embed research.md
var researchPrompt string

// Drafter writes application drafts with Gemini.
type Drafter struct {
	generator contentGenerator
	logger    *zap.Logger
}

// NewDrafter returns an ai.DraftWriter backed by the generator.
func NewDrafter(generator contentGenerator, log *zap.Logger) *Drafter {
	return &Drafter{
		generator: generator,
		logger:    logger.WithAI(log, Provider, generator.Model()),
	}
}

// WriteDraft asks Gemini for a draft based on the profile, insights and top matches.
func (d *Drafter) WriteDraft(ctx context.Context, req ai.DraftRequest) (string, error) {
	payload := map[string]any{
		"applicant":   ai.ProfilePayload(req.Profile),
		"insights":    req.Insights,
		"top_matches": ai.MatchPayload(req.TopMatches()),
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal draft payload: %w", err)
	}

	text, err := d.generator.Generate(ctx, Request{System: draftSystem, Prompt: string(body)})
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("gemini returned no application draft")
	}

	d.logger.Debug("gemini draft created", zap.Int("draft_length", len(text)))
	return text, nil
}

// Researcher searches the web for further foundations with Gemini.
type Researcher struct {
	generator contentGenerator
}

// NewResearcher returns an ai.Researcher backed by the generator.
func NewResearcher(generator contentGenerator) *Researcher {
	return &Researcher{generator: generator}
}

// Research asks the web model for foundations outside the local catalog.
func (r *Researcher) Research(ctx context.Context, profile applicant.Profile, insights *ai.Insights) (string, error) {
	profileJSON, err := json.MarshalIndent(ai.ProfilePayload(profile), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile payload: %w", err)
	}

	insightsText := "No extra interpretation"
	if insights != nil {
		raw, err := json.MarshalIndent(insights, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal insights: %w", err)
		}
		insightsText = string(raw)
	}

	prompt := strings.ReplaceAll(researchPrompt, "{{PROFILE_JSON}}", string(profileJSON))
	prompt = strings.ReplaceAll(prompt, "{{INSIGHTS_JSON}}", insightsText)

	text, err := r.generator.Generate(ctx, Request{Prompt: prompt, Search: true})
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("web research returned no result")
	}
	return text, nil
}
