// Package app runs a submitted application through enrichment, filtering,
// ranking, persistence and drafting.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/ai"
	"github.com/spigell/grant-matcher/internal/applicant"
	"github.com/spigell/grant-matcher/internal/drafting"
	"github.com/spigell/grant-matcher/internal/enrichment"
	"github.com/spigell/grant-matcher/internal/filtering"
	"github.com/spigell/grant-matcher/internal/foundation"
	"github.com/spigell/grant-matcher/internal/logger"
	"github.com/spigell/grant-matcher/internal/matching"
	"github.com/spigell/grant-matcher/internal/metrics"
	"github.com/spigell/grant-matcher/internal/review"
	"github.com/spigell/grant-matcher/internal/storage"
)

// DefaultTopMatches is how many foundations a submission returns.
const DefaultTopMatches = 3

// Deps are the collaborators of a Service. Only Catalog is required.
type Deps struct {
	Catalog    *foundation.Catalog
	Engine     *matching.Engine
	Analyzer   ai.Analyzer
	Drafter    ai.DraftWriter
	Researcher ai.Researcher
	Repository storage.Repository
	Metrics    *metrics.Manager
	Logger     *zap.Logger
}

// Config holds the service settings read from configuration.
type Config struct {
	TopMatches         int
	ExcludeFoundations []string
	ExcludeMatched     bool
}

// Options are per-submission switches.
type Options struct {
	UseAI       bool
	WebResearch bool
	// TopN overrides Config.TopMatches when positive.
	TopN int
}

// Submission is everything produced for one application.
type Submission struct {
	Reference     uuid.UUID
	ApplicationID uint
	Profile       applicant.Profile
	Matches       []matching.Result
	Reviews       []review.Review
	Draft         string
	Insights      *ai.Insights
	Research      string
	// Notices describe optional steps that failed and were skipped.
	Notices []string
}

type Service struct {
	cfg      Config
	deps     Deps
	template ai.DraftWriter
	stored   bool
}

func New(cfg Config, deps Deps) (*Service, error) {
	if deps.Catalog == nil {
		return nil, errors.New("foundation catalog is required")
	}
	if deps.Engine == nil {
		deps.Engine = matching.NewEngine()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Default()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	stored := deps.Repository != nil
	if !stored {
		deps.Repository = storage.Disabled
	}
	if cfg.TopMatches <= 0 {
		cfg.TopMatches = DefaultTopMatches
	}

	return &Service{
		cfg:      cfg,
		deps:     deps,
		template: drafting.New(),
		stored:   stored,
	}, nil
}

// Catalog returns the catalog the service ranks.
func (s *Service) Catalog() *foundation.Catalog {
	return s.deps.Catalog
}

// Filters returns the catalog filters for an applicant.
func (s *Service) Filters(email string) []filtering.Filter {
	steps := []filtering.Filter{
		filtering.NewExcludedFoundations(s.cfg.ExcludeFoundations, s.deps.Logger),
		filtering.NewAppliedHistory(
			&filtering.AppliedHistoryConfig{Email: email, Ignore: !s.cfg.ExcludeMatched},
			&filtering.AppliedHistoryDeps{History: s.deps.Repository, Logger: s.deps.Logger},
		),
	}
	if !s.stored {
		filtering.DisableByName(steps, filtering.AppliedHistoryName, "storage is disabled")
	}
	return steps
}

// Submit matches a consenting applicant against the catalog. Failures of
// optional steps are reported as notices; only a missing consent or a
// failing filter abort the submission.
func (s *Service) Submit(ctx context.Context, profile applicant.Profile, opts Options) (*Submission, error) {
	log := logger.WithFields(s.deps.Logger, logger.ProfileFields(profile)...)

	if err := profile.RequireConsent(); err != nil {
		s.deps.Metrics.RecordSubmission(metrics.OutcomeRejected)
		return nil, err
	}

	sub := &Submission{Profile: profile, Notices: []string{}}

	source := ai.NoKeywords
	var recorder *recordingAnalyzer
	if opts.UseAI && s.deps.Analyzer != nil {
		recorder = &recordingAnalyzer{next: s.deps.Analyzer}
		source = ai.KeywordsFrom(recorder)
	}

	outcome := enrichment.Resolve(ctx, source, profile, log)
	if outcome.Degraded() {
		s.deps.Metrics.RecordEnrichmentFailure(metrics.StageInsights)
		sub.Notices = append(sub.Notices, outcome.Notice)
	}
	keywords := outcome.Keywords
	if recorder != nil {
		sub.Insights = recorder.insights
	}

	candidates, err := filtering.Run(ctx, log, s.Filters(profile.Email), s.deps.Catalog.All())
	if err != nil {
		s.deps.Metrics.RecordSubmission(metrics.OutcomeFailed)
		return nil, fmt.Errorf("filtering catalog: %w", err)
	}

	topN := s.cfg.TopMatches
	if opts.TopN > 0 {
		topN = opts.TopN
	}

	started := time.Now()
	sub.Matches = s.deps.Engine.Rank(profile, candidates, topN, keywords...)
	s.deps.Metrics.RecordRankingDuration(time.Since(started))
	sub.Reviews = review.All(sub.Matches)

	s.save(ctx, log, sub)
	s.draft(ctx, log, sub, opts)
	if opts.UseAI && opts.WebResearch {
		s.research(ctx, log, sub)
	}

	if len(sub.Matches) == 0 {
		s.deps.Metrics.RecordSubmission(metrics.OutcomeNoMatch)
	} else {
		s.deps.Metrics.RecordSubmission(metrics.OutcomeMatched)
		s.deps.Metrics.RecordTopMatchScore(sub.Matches[0].Score)
	}

	log.Info("application matched",
		zap.String(logger.FieldReference, sub.Reference.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(sub.Matches)),
		zap.Int("notices", len(sub.Notices)),
	)

	return sub, nil
}

// History lists recent applications.
func (s *Service) History(ctx context.Context, limit int) ([]storage.Application, error) {
	return s.deps.Repository.ListRecentApplications(ctx, limit)
}

// Matches lists the stored matches of an application.
func (s *Service) Matches(ctx context.Context, applicationID uint) ([]storage.Match, error) {
	return s.deps.Repository.ListMatches(ctx, applicationID)
}

func (s *Service) save(ctx context.Context, log *zap.Logger, sub *Submission) {
	record := storage.NewApplication(sub.Profile)
	sub.Reference = record.Reference

	if err := s.deps.Repository.SaveApplication(ctx, record); err != nil {
		s.skip(log, sub, metrics.StageStorage, "Application could not be saved", err)
		return
	}
	sub.ApplicationID = record.ID

	matches := storage.NewMatches(sub.Matches, func(r matching.Result) string {
		return string(review.StatusOf(r))
	})
	if err := s.deps.Repository.SaveMatches(ctx, record.ID, matches); err != nil {
		s.skip(log, sub, metrics.StageStorage, "Matches could not be saved", err)
	}
}

func (s *Service) draft(ctx context.Context, log *zap.Logger, sub *Submission, opts Options) {
	req := ai.DraftRequest{Profile: sub.Profile, Matches: sub.Matches, Insights: sub.Insights}

	if opts.UseAI && s.deps.Drafter != nil {
		text, err := s.deps.Drafter.WriteDraft(ctx, req)
		if err == nil {
			sub.Draft = text
			return
		}
		s.skip(log, sub, metrics.StageDraft, "AI draft could not run", err)
	}

	text, err := s.template.WriteDraft(ctx, req)
	if err != nil {
		s.skip(log, sub, metrics.StageDraft, "Draft could not be written", err)
		return
	}
	sub.Draft = text
}

func (s *Service) research(ctx context.Context, log *zap.Logger, sub *Submission) {
	if s.deps.Researcher == nil {
		return
	}

	text, err := s.deps.Researcher.Research(ctx, sub.Profile, sub.Insights)
	if err != nil {
		s.skip(log, sub, metrics.StageResearch, "Web research could not run", err)
		return
	}
	sub.Research = text
}

func (s *Service) skip(log *zap.Logger, sub *Submission, stage, notice string, err error) {
	log.Warn("optional step failed", zap.String(logger.FieldStage, stage), zap.Error(err))
	s.deps.Metrics.RecordEnrichmentFailure(stage)
	sub.Notices = append(sub.Notices, fmt.Sprintf("%s: %v", notice, err))
}

// recordingAnalyzer keeps the insights of a successful analysis so the draft
// and the response can use them next to the extracted keywords.
type recordingAnalyzer struct {
	next     ai.Analyzer
	insights *ai.Insights
}

func (r *recordingAnalyzer) Analyze(ctx context.Context, profile applicant.Profile) (*ai.Insights, error) {
	insights, err := r.next.Analyze(ctx, profile)
	if err != nil {
		return nil, err
	}
	r.insights = insights
	return insights, nil
}
