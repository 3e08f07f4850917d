package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/neurocalm/internal/auth"
	"github.com/dukerupert/neurocalm/internal/model"
	"github.com/dukerupert/neurocalm/internal/session"
	"github.com/dukerupert/neurocalm/internal/store"
)

type ProfileHandler struct {
	users    *store.UserStore
	sessions *session.Manager
	render   *Renderer
	logger   *slog.Logger
}

func NewProfileHandler(us *store.UserStore, sm *session.Manager, rr *Renderer, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{users: us, sessions: sm, render: rr, logger: logger}
}

type profileRequest struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Email     string `validate:"required,email"`
	DOB       string `validate:"omitempty,datetime=2006-01-02"`
	Region    string
}

var profileMessages = map[string]string{
	"required": "Missing required fields!",
	"email":    "Invalid email address",
	"datetime": "Invalid date of birth",
}

func (h *ProfileHandler) currentUser(w http.ResponseWriter, r *http.Request) *model.User {
	user, err := h.users.GetByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("load user", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return nil
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return nil
	}
	return user
}

func (h *ProfileHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	h.render.Render(w, http.StatusOK, "dashboard.html", map[string]any{"User": user})
}

func (h *ProfileHandler) Details(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	h.render.Render(w, http.StatusOK, "details.html", map[string]any{
		"User": user,
		"DOB":  user.DOBString(),
	})
}

// Update overwrites the logged-in user's profile and returns the stored row.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	req := profileRequest{
		FirstName: strings.TrimSpace(fields["firstName"]),
		LastName:  strings.TrimSpace(fields["lastName"]),
		Email:     model.NormalizeEmail(fields["email"]),
		DOB:       strings.TrimSpace(fields["dob"]),
		Region:    strings.TrimSpace(fields["region"]),
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationMessage(err, profileMessages)})
		return
	}
	dob, err := parseDate(req.DOB)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": profileMessages["datetime"]})
		return
	}

	ctx := r.Context()
	user, err := h.users.UpdateProfile(ctx, auth.UserID(ctx), model.Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		DOB:       dob,
		Region:    req.Region,
	})
	if errors.Is(err, store.ErrEmailTaken) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Email is already in use"})
		return
	}
	if err != nil {
		h.logger.Error("update user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}

	sess := session.FromContext(ctx)
	sess.SetUser(user.ID, user.Email, user.FirstName)
	if err := h.sessions.Save(ctx, w, sess); err != nil {
		h.logger.Error("save session", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User details updated successfully",
		"user":    user,
	})
}
