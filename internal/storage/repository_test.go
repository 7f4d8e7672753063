package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/spigell/grant-matcher/internal/applicant"
	"github.com/spigell/grant-matcher/internal/foundation"
	"github.com/spigell/grant-matcher/internal/matching"
)

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	return NewRepository(gdb), mock
}

func profile() applicant.Profile {
	return applicant.Profile{
		FullName:        "Anna Andersson",
		Email:           "Anna@Example.se",
		Municipality:    "Uppsala",
		Age:             72,
		Type:            applicant.Senior,
		Need:            applicant.Dental,
		RequestedAmount: 12000,
		MonthlyIncome:   15000,
		Urgency:         applicant.High,
		Description:     "I need a new denture.",
		HasQuote:        true,
	}
}

func TestNewApplication(t *testing.T) {
	app := NewApplication(profile())

	assert.NotEqual(t, uuid.Nil, app.Reference)
	assert.Equal(t, "senior", app.ApplicantType)
	assert.Equal(t, "dental", app.NeedCategory)
	assert.Equal(t, []string{applicant.DocQuote}, app.Documents)
	assert.NotEqual(t, app.Reference, NewApplication(profile()).Reference)
}

func TestNewMatches(t *testing.T) {
	results := []matching.Result{
		{Foundation: &foundation.Foundation{ID: "sf-001", Name: "Senior Dental Care Fund"}, Score: 118, Reasons: []string{"a"}},
		{Score: 10},
		{Foundation: &foundation.Foundation{ID: "sf-005", Name: "Regional Health Support"}, Score: 80, Warnings: []string{"w"}},
	}

	matches := NewMatches(results, func(r matching.Result) string {
		if r.Score >= 100 {
			return "high"
		}
		return "low"
	})

	require.Len(t, matches, 2)
	assert.Equal(t, "sf-001", matches[0].FoundationID)
	assert.Equal(t, "high", matches[0].Status)
	assert.Equal(t, []string{"w"}, matches[1].Warnings)
	assert.Equal(t, "low", matches[1].Status)

	assert.Empty(t, NewMatches(results[:1], nil)[0].Status)
}

func TestSaveApplication(t *testing.T) {
	repo, mock := newMockRepository(t)
	app := NewApplication(profile())

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "applications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveApplication(context.Background(), app))
	assert.Equal(t, uint(7), app.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveApplicationError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "applications"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.SaveApplication(context.Background(), NewApplication(profile()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create application")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMatches(t *testing.T) {
	repo, mock := newMockRepository(t)
	matches := []Match{
		{FoundationID: "sf-001", Score: 118, Reasons: []string{"a"}},
		{FoundationID: "sf-005", Score: 80},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "matches"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveMatches(context.Background(), 7, matches))
	assert.Equal(t, uint(7), matches[0].ApplicationID)
	assert.Equal(t, uint(7), matches[1].ApplicationID)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.NoError(t, repo.SaveMatches(context.Background(), 7, nil))
}

func TestListRecentApplications(t *testing.T) {
	repo, mock := newMockRepository(t)
	ref := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "reference", "full_name", "email", "need_category", "documents", "created_at"}).
		AddRow(2, ref.String(), "Anna Andersson", "anna@example.se", "dental", `["quote"]`, now).
		AddRow(1, uuid.New().String(), "Erik Berg", "erik@example.se", "research", `[]`, now.Add(-time.Hour))
	mock.ExpectQuery(`SELECT \* FROM "applications" ORDER BY created_at DESC LIMIT`).WillReturnRows(rows)

	apps, err := repo.ListRecentApplications(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, uint(2), apps[0].ID)
	assert.Equal(t, ref, apps[0].Reference)
	assert.Equal(t, []string{"quote"}, apps[0].Documents)
	assert.Empty(t, apps[1].Documents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMatches(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "applications" WHERE "applications"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(3, "anna@example.se"))
	mock.ExpectQuery(`SELECT \* FROM "matches" WHERE application_id = \$1 ORDER BY score DESC`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "application_id", "foundation_id", "score", "reasons", "warnings"}).
			AddRow(10, 3, "sf-001", 118, `["Target group matches."]`, `[]`).
			AddRow(11, 3, "sf-005", 80, `[]`, `["Missing documents: invoice."]`))

	matches, err := repo.ListMatches(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "sf-001", matches[0].FoundationID)
	assert.Equal(t, []string{"Target group matches."}, matches[0].Reasons)
	assert.Equal(t, []string{"Missing documents: invoice."}, matches[1].Warnings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMatchesUnknownApplication(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "applications" WHERE "applications"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.ListMatches(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchedFoundationIDs(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT DISTINCT .*foundation_id.* FROM "matches" JOIN applications ON applications.id = matches.application_id WHERE LOWER\(applications.email\) = \$1`).
		WithArgs("anna@example.se").
		WillReturnRows(sqlmock.NewRows([]string{"foundation_id"}).AddRow("sf-005").AddRow("sf-001"))

	ids, err := repo.MatchedFoundationIDs(context.Background(), " Anna@Example.se ")
	require.NoError(t, err)
	assert.Equal(t, []string{"sf-001", "sf-005"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())

	ids, err = repo.MatchedFoundationIDs(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDisabledRepository(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, Disabled.SaveApplication(ctx, NewApplication(profile())))
	assert.NoError(t, Disabled.SaveMatches(ctx, 1, []Match{{FoundationID: "sf-001"}}))

	_, err := Disabled.ListRecentApplications(ctx, 5)
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = Disabled.ListMatches(ctx, 1)
	assert.ErrorIs(t, err, ErrDisabled)

	ids, err := Disabled.MatchedFoundationIDs(ctx, "anna@example.se")
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
