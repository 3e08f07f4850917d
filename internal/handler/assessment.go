package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/neurocalm/internal/assessment"
	"github.com/dukerupert/neurocalm/internal/auth"
	"github.com/dukerupert/neurocalm/internal/dass"
	"github.com/dukerupert/neurocalm/internal/dedup"
	"github.com/dukerupert/neurocalm/internal/metrics"
	"github.com/dukerupert/neurocalm/internal/session"
	"github.com/dukerupert/neurocalm/internal/store"
)

var scaleTitles = map[dass.Scale]string{
	dass.Depression: "Depression",
	dass.Anxiety:    "Anxiety",
	dass.Stress:     "Stress",
}

type AssessmentHandler struct {
	svc      *assessment.Service
	results  *store.ResultStore
	sessions *session.Manager
	dedup    dedup.Checker
	window   time.Duration
	render   *Renderer
	logger   *slog.Logger
}

func NewAssessmentHandler(
	svc *assessment.Service,
	rs *store.ResultStore,
	sm *session.Manager,
	dc dedup.Checker,
	window time.Duration,
	rr *Renderer,
	logger *slog.Logger,
) *AssessmentHandler {
	return &AssessmentHandler{
		svc:      svc,
		results:  rs,
		sessions: sm,
		dedup:    dc,
		window:   window,
		render:   rr,
		logger:   logger,
	}
}

// Questionnaire renders the questions of one scale.
func (h *AssessmentHandler) Questionnaire(form assessment.Form, scale dass.Scale, action string) http.HandlerFunc {
	step := 1
	for i, s := range dass.Scales {
		if s == scale {
			step = i + 1
		}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		h.render.Render(w, http.StatusOK, "questionnaire.html", map[string]any{
			"TestType":  form.TestType,
			"Title":     scaleTitles[scale],
			"Step":      step,
			"Action":    action,
			"Questions": form.Questions(scale),
			"Options":   form.Options(),
		})
	}
}

// Submit records one questionnaire page and redirects to the next one.
func (h *AssessmentHandler) Submit(form assessment.Form, scale dass.Scale) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		answers, err := readFields(w, r)
		if err != nil || len(answers) == 0 {
			http.Error(w, "No answers provided", http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		sess := session.FromContext(ctx)

		key := submissionKey(sess, form, scale, sess.Data.Run, answers)
		if h.window > 0 {
			seen, err := h.dedup.Seen(ctx, key, h.window)
			if err != nil {
				h.logger.Warn("dedup check", "error", err)
			}
			if seen {
				metrics.DuplicateSubmissionsTotal.Inc()
				http.Redirect(w, r, form.After(scale), http.StatusSeeOther)
				return
			}
		}

		run, out, err := h.svc.Submit(ctx, auth.UserID(ctx), sess.Data.Run, form, scale, answers)
		if err != nil {
			h.forget(r, key)
		}
		switch {
		case errors.Is(err, assessment.ErrOutOfOrder):
			sess.Data.Run = run
			if err := h.sessions.Save(ctx, w, sess); err != nil {
				h.logger.Error("save session", "error", err)
			}
			http.Redirect(w, r, out.Next, http.StatusSeeOther)
			return
		case errors.Is(err, dass.ErrNoAnswers):
			http.Error(w, "No answers provided", http.StatusBadRequest)
			return
		case errors.Is(err, dass.ErrInvalidAnswer):
			http.Error(w, "Invalid answer", http.StatusBadRequest)
			return
		case err != nil:
			h.logger.Error("submit page", "error", err, "test_type", form.TestType, "scale", scale)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		sess.Data.Run = run
		if err := h.sessions.Save(ctx, w, sess); err != nil {
			h.logger.Error("save session", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		h.remember(r, submissionKey(sess, form, scale, run, answers))
		http.Redirect(w, r, out.Next, http.StatusSeeOther)
	}
}

// submissionKey identifies a page submission against the run state it was
// made from. A repeat sent after the first one was recorded carries the
// updated run, so remember stores the key for that state too.
func submissionKey(sess *session.Session, form assessment.Form, scale dass.Scale, run *session.Run, answers map[string]string) string {
	var id int64
	recorded := 0
	if run != nil {
		id, recorded = run.ResultID, run.Recorded
	}
	return dedup.Key(sess.Token, fmt.Sprintf("%s-%s-%d-%d", form.Name, scale, id, recorded), answers)
}

func (h *AssessmentHandler) remember(r *http.Request, key string) {
	if h.window <= 0 {
		return
	}
	if _, err := h.dedup.Seen(r.Context(), key, h.window); err != nil {
		h.logger.Warn("dedup remember", "error", err)
	}
}

func (h *AssessmentHandler) forget(r *http.Request, key string) {
	if h.window <= 0 {
		return
	}
	if err := h.dedup.Forget(r.Context(), key); err != nil {
		h.logger.Warn("dedup forget", "error", err)
	}
}

// Results shows the user's most recent run.
func (h *AssessmentHandler) Results(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.results.Latest(ctx, auth.UserID(ctx))
	if err != nil {
		h.logger.Error("load latest result", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if result == nil {
		http.Error(w, "User results not found", http.StatusNotFound)
		return
	}
	h.render.Render(w, http.StatusOK, "results.html", map[string]any{"Result": result})
}

func (h *AssessmentHandler) PastEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	evaluations, err := h.results.ListByUser(ctx, auth.UserID(ctx))
	if err != nil {
		h.logger.Error("list results", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render.Render(w, http.StatusOK, "past_evaluation.html", map[string]any{"Evaluations": evaluations})
}

func (h *AssessmentHandler) Exercises(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/exercises.html", http.StatusSeeOther)
}
