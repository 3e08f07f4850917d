// Package assessment walks a questionnaire run through its three pages:
// depression, then anxiety, then stress.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/neurocalm/internal/dass"
	"github.com/dukerupert/neurocalm/internal/metrics"
	"github.com/dukerupert/neurocalm/internal/model"
	"github.com/dukerupert/neurocalm/internal/session"
	"github.com/dukerupert/neurocalm/internal/store"
)

const ResultsPath = "/results"

// ErrOutOfOrder is returned when a page arrives before the pages it depends on.
var ErrOutOfOrder = errors.New("questionnaire page submitted out of order")

// Form is one questionnaire variant and the pages it is served from.
type Form struct {
	Name     string
	TestType string
	// Pages holds the page for each scale, in dass.Scales order.
	Pages [3]string
	// Weight multiplies each answer option.
	Weight int
	items  []Question
}

var (
	Short = Form{
		Name:     "dass21",
		TestType: model.TestTypeShort,
		Pages:    [3]string{"/dass21-dep.html", "/dass21-anx.html", "/dass21-str.html"},
		Weight:   2,
		items:    shortItems,
	}
	Long = Form{
		Name:     "dass42",
		TestType: model.TestTypeLong,
		Pages:    [3]string{"/dass42-dep.html", "/dass42-anx.html", "/dass42-str.html"},
		Weight:   1,
		items:    longItems,
	}
)

// Next returns where a run with the given number of recorded pages continues.
func (f Form) Next(recorded int) string {
	if recorded < 0 {
		recorded = 0
	}
	if recorded >= len(f.Pages) {
		return ResultsPath
	}
	return f.Pages[recorded]
}

func step(scale dass.Scale) int {
	for i, s := range dass.Scales {
		if s == scale {
			return i
		}
	}
	return -1
}

type ResultStore interface {
	Create(ctx context.Context, userID int64, testType string, depression int) (int64, error)
	UpdateScale(ctx context.Context, id, userID int64, scale dass.Scale, score int) error
}

// Outcome describes a processed page. Next is set even when Submit fails with
// ErrOutOfOrder, pointing at the page the run expects.
type Outcome struct {
	Score    int
	Severity dass.Severity
	Next     string
}

type Service struct {
	results ResultStore
	logger  *slog.Logger
}

func NewService(results ResultStore, logger *slog.Logger) *Service {
	return &Service{results: results, logger: logger}
}

// Submit scores one page and persists it. The depression page always starts
// a new run; later pages update the run carried in the session. The returned
// run replaces the caller's.
func (s *Service) Submit(ctx context.Context, userID int64, run *session.Run, form Form, scale dass.Scale, answers map[string]string) (*session.Run, Outcome, error) {
	i := step(scale)
	if i < 0 {
		return run, Outcome{}, fmt.Errorf("submit page: unknown scale %q", scale)
	}

	if i > 0 && !s.inOrder(run, form, i) {
		metrics.AssessmentRejectedTotal.WithLabelValues(form.TestType, string(scale)).Inc()
		return run, Outcome{Next: s.expected(run, form)}, ErrOutOfOrder
	}

	score, err := dass.Sum(answers, form.MaxAnswer())
	if err != nil {
		return run, Outcome{}, err
	}
	out := Outcome{Score: score, Severity: dass.Classify(scale, score), Next: form.Next(i + 1)}

	if i == 0 {
		id, err := s.results.Create(ctx, userID, form.TestType, score)
		if err != nil {
			return run, Outcome{}, fmt.Errorf("start run: %w", err)
		}
		s.record(form, scale, out)
		return &session.Run{ResultID: id, TestType: form.TestType, Recorded: 1}, out, nil
	}

	err = s.results.UpdateScale(ctx, run.ResultID, userID, scale, score)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("run missing, restarting questionnaire", "result_id", run.ResultID, "user_id", userID)
		return nil, Outcome{Next: form.Pages[0]}, ErrOutOfOrder
	}
	if err != nil {
		return run, Outcome{}, fmt.Errorf("record %s: %w", scale, err)
	}
	s.record(form, scale, out)

	next := *run
	if next.Recorded < i+1 {
		next.Recorded = i + 1
	}
	return &next, out, nil
}

func (s *Service) inOrder(run *session.Run, form Form, i int) bool {
	return run != nil && run.TestType == form.TestType && run.Recorded >= i
}

func (s *Service) expected(run *session.Run, form Form) string {
	if run == nil || run.TestType != form.TestType {
		return form.Pages[0]
	}
	return form.Next(run.Recorded)
}

func (s *Service) record(form Form, scale dass.Scale, out Outcome) {
	metrics.AssessmentPagesTotal.WithLabelValues(form.TestType, string(scale), string(out.Severity)).Inc()
	s.logger.Debug("page recorded", "test_type", form.TestType, "scale", scale, "severity", out.Severity)
}
