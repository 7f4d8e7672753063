// Package enrichment resolves optional AI input for the matching engine.
// Failures never stop matching: they degrade to no extra keywords and a
// notice for the user.
package enrichment

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/ai"
	"github.com/spigell/grant-matcher/internal/applicant"
	"github.com/spigell/grant-matcher/internal/logger"
)

// Outcome is the resolved enrichment for one profile.
type Outcome struct {
	Keywords []string
	// Notice is set when enrichment failed and matching ran without it.
	Notice string
	Err    error
}

// Degraded reports whether enrichment failed.
func (o Outcome) Degraded() bool {
	return o.Err != nil
}

// Resolve fetches extra keywords from src. A nil source is ai.NoKeywords.
func Resolve(ctx context.Context, src ai.KeywordSource, profile applicant.Profile, log *zap.Logger) Outcome {
	if src == nil {
		src = ai.NoKeywords
	}

	keywords, err := src.Keywords(ctx, profile)
	if err != nil {
		logger.WithFields(log, logger.ProfileFields(profile)...).Warn("keyword enrichment failed, matching without extra keywords", zap.Error(err))
		return Outcome{
			Keywords: []string{},
			Notice:   "AI interpretation could not run: " + err.Error(),
			Err:      err,
		}
	}

	return Outcome{Keywords: ai.CleanKeywords(keywords)}
}
