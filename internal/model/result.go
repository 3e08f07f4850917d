package model

import (
	"time"

	"github.com/dukerupert/neurocalm/internal/dass"
)

const (
	TestTypeShort = "Dass-21"
	TestTypeLong  = "Dass-42"
)

// Result is one questionnaire run. Scales not yet submitted are dass.Unset.
type Result struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	TestType   string     `json:"testtype"`
	Depression dass.Score `json:"dep_score"`
	Anxiety    dass.Score `json:"anx_score"`
	Stress     dass.Score `json:"str_score"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Severity interprets the stored score for a scale.
func (r *Result) Severity(scale dass.Scale) dass.Severity {
	switch scale {
	case dass.Depression:
		return r.Depression.Interpret(scale)
	case dass.Anxiety:
		return r.Anxiety.Interpret(scale)
	case dass.Stress:
		return r.Stress.Interpret(scale)
	}
	return dass.Incomplete
}

func (r *Result) DepressionSeverity() dass.Severity { return r.Severity(dass.Depression) }
func (r *Result) AnxietySeverity() dass.Severity    { return r.Severity(dass.Anxiety) }
func (r *Result) StressSeverity() dass.Severity     { return r.Severity(dass.Stress) }

// Complete reports whether all three scales have been recorded.
func (r *Result) Complete() bool {
	return r.Depression.IsSet() && r.Anxiety.IsSet() && r.Stress.IsSet()
}
