package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/spigell/grant-matcher/internal/applicant"
	"github.com/spigell/grant-matcher/internal/matching"
)

// Application is a stored submission.
type Application struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Reference       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"reference"`
	FullName        string    `gorm:"type:text;not null" json:"full_name"`
	Email           string    `gorm:"type:text;index;not null" json:"email"`
	Municipality    string    `gorm:"type:text" json:"municipality"`
	Age             int       `json:"age"`
	ApplicantType   string    `gorm:"type:text" json:"applicant_type"`
	NeedCategory    string    `gorm:"type:text" json:"need_category"`
	RequestedAmount int       `json:"requested_amount"`
	MonthlyIncome   int       `json:"monthly_income"`
	Urgency         string    `gorm:"type:text" json:"urgency"`
	Description     string    `gorm:"type:text" json:"description"`
	Documents       []string  `gorm:"serializer:json" json:"documents"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Application) TableName() string {
	return "applications"
}

// Match is one ranked foundation of an application.
type Match struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ApplicationID  uint      `gorm:"index;not null" json:"application_id"`
	FoundationID   string    `gorm:"type:text;not null" json:"foundation_id"`
	FoundationName string    `gorm:"type:text" json:"foundation_name"`
	Score          int       `json:"score"`
	Status         string    `gorm:"type:text" json:"status"`
	Reasons        []string  `gorm:"serializer:json" json:"reasons"`
	Warnings       []string  `gorm:"serializer:json" json:"warnings"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Match) TableName() string {
	return "matches"
}

// NewApplication builds a record for a profile with a fresh reference.
func NewApplication(p applicant.Profile) *Application {
	return &Application{
		Reference:       uuid.New(),
		FullName:        p.FullName,
		Email:           p.Email,
		Municipality:    p.Municipality,
		Age:             p.Age,
		ApplicantType:   string(p.Type),
		NeedCategory:    string(p.Need),
		RequestedAmount: p.RequestedAmount,
		MonthlyIncome:   p.MonthlyIncome,
		Urgency:         string(p.Urgency),
		Description:     p.Description,
		Documents:       p.Documents(),
	}
}

// NewMatches converts ranked results into records. statusOf may be nil.
func NewMatches(results []matching.Result, statusOf func(matching.Result) string) []Match {
	out := make([]Match, 0, len(results))
	for _, r := range results {
		if r.Foundation == nil {
			continue
		}
		m := Match{
			FoundationID:   r.Foundation.ID,
			FoundationName: r.Foundation.Name,
			Score:          r.Score,
			Reasons:        r.Reasons,
			Warnings:       r.Warnings,
		}
		if statusOf != nil {
			m.Status = statusOf(r)
		}
		out = append(out, m)
	}
	return out
}
