package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/neurocalm/internal/auth"
	"github.com/dukerupert/neurocalm/internal/email"
	"github.com/dukerupert/neurocalm/internal/metrics"
	"github.com/dukerupert/neurocalm/internal/model"
	"github.com/dukerupert/neurocalm/internal/otp"
	"github.com/dukerupert/neurocalm/internal/session"
	"github.com/dukerupert/neurocalm/internal/store"
)

// CodeSender delivers one-time codes. email.Service implements it.
type CodeSender interface {
	SendCode(ctx context.Context, purpose email.Purpose, to, code string) error
}

type AuthHandler struct {
	users    *store.UserStore
	sessions *session.Manager
	codes    CodeSender
	otpTTL   time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthHandler(us *store.UserStore, sm *session.Manager, codes CodeSender, otpTTL time.Duration, logger *slog.Logger) *AuthHandler {
	if otpTTL <= 0 {
		otpTTL = otp.DefaultTTL
	}
	return &AuthHandler{
		users:    us,
		sessions: sm,
		codes:    codes,
		otpTTL:   otpTTL,
		logger:   logger,
		now:      time.Now,
	}
}

type emailRequest struct {
	Email string `validate:"required,email"`
}

type signupRequest struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Email     string `validate:"required,email"`
	DOB       string `validate:"omitempty,datetime=2006-01-02"`
	Region    string
	Password  string `validate:"required,max=72"`
	Confirm   string `validate:"required,eqfield=Password"`
	OTP       string
}

var signupMessages = map[string]string{
	"required": "Missing required fields!",
	"eqfield":  "Passwords do not match",
	"email":    "Invalid email address",
	"datetime": "Invalid date of birth",
	"max":      "Password is too long",
}

type loginRequest struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type resetPasswordRequest struct {
	Password string `validate:"required,max=72"`
	Confirm  string `validate:"required,eqfield=Password"`
}

// SendOTP mails a signup code to an address that has no account yet.
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	h.sendCode(w, r, email.PurposeSignup)
}

// SendResetOTP mails a password-reset code to an existing account.
func (h *AuthHandler) SendResetOTP(w http.ResponseWriter, r *http.Request) {
	h.sendCode(w, r, email.PurposeReset)
}

func (h *AuthHandler) sendCode(w http.ResponseWriter, r *http.Request, purpose email.Purpose) {
	fields, err := readFields(w, r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req := emailRequest{Email: model.NormalizeEmail(fields["email"])}
	if err := validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	ctx := r.Context()
	existing, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.logger.Error("otp user lookup", "error", err, "purpose", purpose)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if purpose == email.PurposeSignup && existing != nil {
		writeMessage(w, http.StatusOK, "User already exists. Please try to login.")
		return
	}
	if purpose == email.PurposeReset && existing == nil {
		writeMessage(w, http.StatusOK, "User doesn't have an account")
		return
	}

	pending, err := otp.New(req.Email, h.otpTTL, h.now())
	if err != nil {
		h.logger.Error("generate otp", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to send OTP")
		return
	}

	sess := session.FromContext(ctx)
	if err := h.codes.SendCode(ctx, purpose, req.Email, pending.Code); err != nil {
		h.logger.Error("send otp", "error", err, "purpose", purpose)
		metrics.OTPSentTotal.WithLabelValues(string(purpose), "failed").Inc()
		h.setPending(sess, purpose, nil)
		if sess.Token != "" {
			if err := h.sessions.Save(ctx, w, sess); err != nil {
				h.logger.Error("save session", "error", err)
			}
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to send OTP")
		return
	}
	metrics.OTPSentTotal.WithLabelValues(string(purpose), "sent").Inc()

	h.setPending(sess, purpose, pending)
	if err := h.sessions.Save(ctx, w, sess); err != nil {
		h.logger.Error("save session", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeMessage(w, http.StatusOK, "OTP has been sent successfully!")
}

func (h *AuthHandler) setPending(sess *session.Session, purpose email.Purpose, p *otp.Pending) {
	if purpose == email.PurposeReset {
		sess.ClearReset()
		sess.Data.ResetOTP = p
		return
	}
	sess.Data.SignupOTP = p
}

// checkCode verifies a submitted code and persists the attempt counter.
// Exhausted or expired codes are dropped from the session.
func (h *AuthHandler) checkCode(ctx context.Context, w http.ResponseWriter, sess *session.Session, purpose email.Purpose, addr, code string) error {
	pending := sess.Data.SignupOTP
	if purpose == email.PurposeReset {
		pending = sess.Data.ResetOTP
	}

	err := pending.Verify(addr, code, h.now())
	metrics.OTPVerificationsTotal.WithLabelValues(string(purpose), otpResult(err)).Inc()
	switch {
	case err == nil, errors.Is(err, otp.ErrNoCode):
		return err
	case errors.Is(err, otp.ErrExpired), errors.Is(err, otp.ErrTooManyAttempts):
		h.setPending(sess, purpose, nil)
	}
	if saveErr := h.sessions.Save(ctx, w, sess); saveErr != nil {
		h.logger.Error("save session", "error", saveErr)
	}
	return err
}

func otpResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, otp.ErrNoCode):
		return "missing"
	case errors.Is(err, otp.ErrExpired):
		return "expired"
	case errors.Is(err, otp.ErrTooManyAttempts):
		return "locked"
	default:
		return "mismatch"
	}
}

func otpMessage(err error) string {
	switch {
	case errors.Is(err, otp.ErrExpired):
		return "OTP has expired. Please request a new one."
	case errors.Is(err, otp.ErrTooManyAttempts):
		return "Too many incorrect attempts. Please request a new OTP."
	default:
		return "Incorrect OTP"
	}
}

// Signup creates the account once the emailed code matches, then logs the
// browser in as the new user unless it already had a user.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req := signupRequest{
		FirstName: strings.TrimSpace(fields["key1"]),
		LastName:  strings.TrimSpace(fields["key2"]),
		Email:     model.NormalizeEmail(fields["key3"]),
		DOB:       strings.TrimSpace(fields["key4"]),
		Region:    strings.TrimSpace(fields["key5"]),
		Password:  fields["key6"],
		Confirm:   fields["key7"],
		OTP:       strings.TrimSpace(fields["key8"]),
	}

	ctx := r.Context()
	sess := session.FromContext(ctx)
	if err := h.checkCode(ctx, w, sess, email.PurposeSignup, req.Email, req.OTP); err != nil {
		http.Error(w, otpMessage(err), http.StatusBadRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err, signupMessages), http.StatusBadRequest)
		return
	}
	dob, err := parseDate(req.DOB)
	if err != nil {
		http.Error(w, signupMessages["datetime"], http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		http.Error(w, "Password hashing failed", http.StatusInternalServerError)
		return
	}

	user, err := h.users.Create(ctx, model.NewUser{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		DOB:          dob,
		Region:       req.Region,
		PasswordHash: hash,
	})
	if errors.Is(err, store.ErrEmailTaken) {
		http.Error(w, "User already exists. Please try to login.", http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("create user", "error", err)
		http.Error(w, "Error signing up.", http.StatusInternalServerError)
		return
	}
	metrics.SignupsTotal.Inc()
	h.logger.Info("user signed up", "user_id", user.ID)

	sess.Data.SignupOTP = nil
	if !sess.LoggedIn() {
		sess.SetUser(user.ID, user.Email, user.FirstName)
	}
	if err := h.sessions.Renew(ctx, w, sess); err != nil {
		h.logger.Error("renew session", "error", err)
		http.Error(w, "Error signing up.", http.StatusInternalServerError)
		return
	}
	writeMessage(w, http.StatusOK, "Signup successful!")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req := loginRequest{Email: model.NormalizeEmail(fields["email"]), Password: fields["password"]}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Missing required fields!", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		http.Error(w, "Error logging in", http.StatusInternalServerError)
		return
	}
	if user == nil {
		metrics.LoginsTotal.WithLabelValues("unknown_user").Inc()
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	err = auth.CheckPassword(user.PasswordHash, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.logger.Error("check password", "error", err, "user_id", user.ID)
		http.Error(w, "Error logging in", http.StatusInternalServerError)
		return
	}

	sess := session.FromContext(ctx)
	sess.SetUser(user.ID, user.Email, user.FirstName)
	sess.Data.Run = nil
	if err := h.sessions.Renew(ctx, w, sess); err != nil {
		h.logger.Error("renew session", "error", err)
		http.Error(w, "Error logging in", http.StatusInternalServerError)
		return
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := h.sessions.Destroy(r.Context(), w, sess); err != nil {
		h.logger.Error("logout", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// VerifyOTP checks a password-reset code. Success opens a reset window for the
// account the code was sent to.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	addr := model.NormalizeEmail(fields["key1"])
	code := strings.TrimSpace(fields["key2"])

	ctx := r.Context()
	sess := session.FromContext(ctx)
	if err := h.checkCode(ctx, w, sess, email.PurposeReset, addr, code); err != nil {
		writeMessage(w, http.StatusBadRequest, otpMessage(err))
		return
	}

	until := h.now().Add(h.otpTTL)
	sess.Data.ResetEmail = sess.Data.ResetOTP.Email
	sess.Data.ResetUntil = &until
	sess.Data.ResetOTP = nil
	if err := h.sessions.Save(ctx, w, sess); err != nil {
		h.logger.Error("save session", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeMessage(w, http.StatusOK, "OTP has been verified successfully!")
}

// ResetPassword sets a new password for the account verified by VerifyOTP.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	sess := session.FromContext(ctx)
	if !sess.ResetAllowed(h.now()) {
		writeMessage(w, http.StatusForbidden, "Please verify the OTP first")
		return
	}

	req := resetPasswordRequest{Password: fields["password"], Confirm: fields["confirmPassword"]}
	if err := validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, validationMessage(err, signupMessages))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	err = h.users.UpdatePassword(ctx, sess.Data.ResetEmail, hash)
	if errors.Is(err, store.ErrNotFound) {
		sess.ClearReset()
		if err := h.sessions.Save(ctx, w, sess); err != nil {
			h.logger.Error("save session", "error", err)
		}
		writeMessage(w, http.StatusNotFound, "User doesn't have an account")
		return
	}
	if err != nil {
		h.logger.Error("update password", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sess.ClearReset()
	if err := h.sessions.Save(ctx, w, sess); err != nil {
		h.logger.Error("save session", "error", err)
	}
	h.logger.Info("password reset")
	writeMessage(w, http.StatusOK, "Password has been reset successfully!")
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
