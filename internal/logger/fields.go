package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/applicant"
)

const (
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"

	FieldApplicantType = "applicant_type"
	FieldNeedCategory  = "need_category"
	FieldMunicipality  = "municipality"
	FieldUrgency       = "urgency"

	FieldReference = "reference"
	FieldStage     = "stage"
)

// StringField is a key/value pair that is dropped when either side is blank.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts pairs into zap fields, trimming both sides and
// skipping blank entries.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to l. A nil l becomes a no-op logger.
func WithFields(l *zap.Logger, fields ...zap.Field) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// AIFields describes the AI provider and model behind a log entry.
func AIFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithAI attaches AIFields to l.
func WithAI(l *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(l, AIFields(provider, model)...)
}

// ProfileFields describes a profile for logs. Names, emails and free text
// are never included.
func ProfileFields(p applicant.Profile) []zap.Field {
	return StringFields(
		StringField{Key: FieldApplicantType, Value: string(p.Type)},
		StringField{Key: FieldNeedCategory, Value: string(p.Need)},
		StringField{Key: FieldMunicipality, Value: p.Municipality},
		StringField{Key: FieldUrgency, Value: string(p.Urgency)},
	)
}
