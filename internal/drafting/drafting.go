// Package drafting renders a first application draft from a template. It is
// the local DraftWriter used when no AI provider is configured or the
// provider fails.
package drafting

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	_ "embed"

	"github.com/spigell/grant-matcher/internal/ai"
	"github.com/spigell/grant-matcher/internal/applicant"
)

const (
	maxReasons      = 3
	defaultTarget   = "the selected foundation"
	noDocumentsText = "no documents provided yet"
)

//go:embed draft.tmpl
var draftTemplate string

var tmpl = template.Must(template.New("draft").Funcs(template.FuncMap{
	"amount": formatAmount,
}).Parse(draftTemplate))

type draftData struct {
	Profile   applicant.Profile
	Target    string
	Need      string
	Summary   string
	Reasons   []string
	Documents []string
	Missing   []string
}

// Writer renders drafts from the embedded template.
type Writer struct{}

// New returns a template draft writer.
func New() *Writer {
	return &Writer{}
}

// WriteDraft renders the draft for the top match of the request.
func (w *Writer) WriteDraft(_ context.Context, req ai.DraftRequest) (string, error) {
	data := draftData{
		Profile:   req.Profile,
		Target:    defaultTarget,
		Need:      strings.ReplaceAll(string(req.Profile.Need), "-", " "),
		Summary:   req.Profile.Description,
		Documents: req.Profile.Documents(),
	}

	if len(req.Matches) > 0 && req.Matches[0].Foundation != nil {
		top := req.Matches[0]
		data.Target = top.Foundation.Name
		data.Reasons = top.Reasons
		if len(data.Reasons) > maxReasons {
			data.Reasons = data.Reasons[:maxReasons]
		}
	}

	if len(data.Documents) == 0 {
		data.Documents = []string{noDocumentsText}
	}

	if req.Insights != nil {
		if summary := strings.TrimSpace(req.Insights.ConciseSummary); summary != "" {
			data.Summary = summary
		}
		data.Missing = req.Insights.MissingInformation
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render draft: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// formatAmount renders an integer amount with comma thousands separators.
func formatAmount(v int) string {
	s := strconv.Itoa(v)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if negative {
		return "-" + b.String()
	}
	return b.String()
}
