package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/ai"
	"github.com/spigell/grant-matcher/internal/app"
	"github.com/spigell/grant-matcher/internal/applicant"
	"github.com/spigell/grant-matcher/internal/review"
	"github.com/spigell/grant-matcher/internal/storage"
)

type handler struct {
	svc    *app.Service
	logger *zap.Logger
}

type matchRequest struct {
	applicant.Input
	UseAI       bool `json:"use_ai"`
	WebResearch bool `json:"web_research"`
	TopN        int  `json:"top_n"`
}

type matchView struct {
	FoundationID     string        `json:"foundation_id"`
	FoundationName   string        `json:"foundation_name"`
	ApplicationURL   string        `json:"application_url"`
	Score            int           `json:"score"`
	Reasons          []string      `json:"reasons"`
	Warnings         []string      `json:"warnings"`
	MissingDocuments []string      `json:"missing_documents"`
	Status           review.Status `json:"status"`
	Note             string        `json:"note"`
	Checks           []review.Item `json:"checks"`
	NextStep         string        `json:"next_step"`
}

type submissionResponse struct {
	Reference     string       `json:"reference"`
	ApplicationID uint         `json:"application_id,omitempty"`
	Matches       []matchView  `json:"matches"`
	Draft         string       `json:"draft"`
	Insights      *ai.Insights `json:"insights,omitempty"`
	Research      string       `json:"research,omitempty"`
	Notices       []string     `json:"notices"`
}

func (h *handler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

func (h *handler) foundations(c *fiber.Ctx) error {
	catalog := h.svc.Catalog()
	return c.JSON(fiber.Map{
		"count":       catalog.Len(),
		"foundations": catalog.All(),
		"categories":  catalog.CategoryCounts(),
	})
}

func (h *handler) match(c *fiber.Ctx) error {
	var req matchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	profile, err := applicant.New(req.Input)
	if err != nil {
		var verrs applicant.ValidationErrors
		if errors.As(err, &verrs) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "validation failed",
				"fields": verrs.Fields(),
			})
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	sub, err := h.svc.Submit(c.UserContext(), profile, app.Options{
		UseAI:       req.UseAI,
		WebResearch: req.WebResearch,
		TopN:        req.TopN,
	})
	if err != nil {
		if errors.Is(err, applicant.ErrConsentRequired) {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}
		h.logger.Error("submission failed", zap.Error(err))
		return err
	}

	return c.JSON(newSubmissionResponse(sub))
}

func (h *handler) applications(c *fiber.Ctx) error {
	apps, err := h.svc.History(c.UserContext(), c.QueryInt("limit", storage.DefaultListLimit))
	if err != nil {
		return storageError(err)
	}

	return c.JSON(fiber.Map{
		"count":        len(apps),
		"applications": apps,
	})
}

func (h *handler) applicationMatches(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid application id")
	}

	matches, err := h.svc.Matches(c.UserContext(), uint(id))
	if err != nil {
		return storageError(err)
	}

	return c.JSON(fiber.Map{
		"application_id": id,
		"matches":        matches,
	})
}

func storageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrDisabled):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return err
	}
}

func newSubmissionResponse(sub *app.Submission) submissionResponse {
	resp := submissionResponse{
		Reference:     sub.Reference.String(),
		ApplicationID: sub.ApplicationID,
		Matches:       make([]matchView, 0, len(sub.Matches)),
		Draft:         sub.Draft,
		Insights:      sub.Insights,
		Research:      sub.Research,
		Notices:       sub.Notices,
	}

	for i, r := range sub.Matches {
		rv := sub.Reviews[i]
		view := matchView{
			FoundationID:     rv.FoundationID,
			FoundationName:   rv.FoundationName,
			Score:            r.Score,
			Reasons:          r.Reasons,
			Warnings:         r.Warnings,
			MissingDocuments: r.MissingDocuments,
			Status:           rv.Status,
			Note:             rv.Note,
			Checks:           rv.Checks,
			NextStep:         review.NextStep(r),
		}
		if r.Foundation != nil {
			view.ApplicationURL = r.Foundation.ApplicationURL
		}
		if view.MissingDocuments == nil {
			view.MissingDocuments = []string{}
		}
		resp.Matches = append(resp.Matches, view)
	}

	return resp
}
