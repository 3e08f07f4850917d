package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/neurocalm/internal/assessment"
	"github.com/dukerupert/neurocalm/internal/dass"
	"github.com/dukerupert/neurocalm/internal/database"
	"github.com/dukerupert/neurocalm/internal/dedup"
	"github.com/dukerupert/neurocalm/internal/handler"
	"github.com/dukerupert/neurocalm/internal/middleware"
	"github.com/dukerupert/neurocalm/internal/session"
	"github.com/dukerupert/neurocalm/internal/store"
	"github.com/dukerupert/neurocalm/web"
)

const DefaultRateLimit = 10

type Config struct {
	// TrustProxy takes the client address from X-Forwarded-For.
	TrustProxy  bool
	OTPTTL      time.Duration
	DedupWindow time.Duration
	// RateLimit is the number of auth requests allowed per client per minute.
	// Zero disables limiting.
	RateLimit int
}

type Server struct {
	db          *database.DB
	sessions    *session.Manager
	authH       *handler.AuthHandler
	profileH    *handler.ProfileHandler
	assessmentH *handler.AssessmentHandler
	healthH     *handler.HealthHandler
	rateLimiter *middleware.RateLimiter
	clientIP    func(*http.Request) string
	cfg         Config
	logger      *slog.Logger
}

func New(db *database.DB, sessions *session.Manager, dc dedup.Checker, codes handler.CodeSender, cfg Config, logger *slog.Logger) (*Server, error) {
	renderer, err := handler.NewRenderer(web.Templates(), logger.With("component", "render"))
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	userStore := store.NewUserStore(db)
	resultStore := store.NewResultStore(db)
	svc := assessment.NewService(resultStore, logger.With("component", "assessment"))

	return &Server{
		db:          db,
		sessions:    sessions,
		authH:       handler.NewAuthHandler(userStore, sessions, codes, cfg.OTPTTL, logger.With("component", "auth")),
		profileH:    handler.NewProfileHandler(userStore, sessions, renderer, logger.With("component", "profile")),
		assessmentH: handler.NewAssessmentHandler(svc, resultStore, sessions, dc, cfg.DedupWindow, renderer, logger.With("component", "assessment")),
		healthH:     handler.NewHealthHandler(db, logger.With("component", "health")),
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimit, time.Minute),
		clientIP:    middleware.ClientIP(cfg.TrustProxy),
		cfg:         cfg,
		logger:      logger,
	}, nil
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	static := web.Static()

	// Public pages
	mux.HandleFunc("GET /{$}", staticPage(static, "index.html"))
	mux.HandleFunc("GET /signup", staticPage(static, "signup.html"))
	mux.HandleFunc("GET /login", staticPage(static, "login.html"))
	mux.Handle("GET /", http.FileServerFS(static))
	mux.HandleFunc("GET /health", s.healthH.Health)

	// Account
	mux.HandleFunc("POST /signup", s.rateLimited(s.authH.Signup))
	mux.HandleFunc("POST /login", s.rateLimited(s.authH.Login))
	mux.HandleFunc("GET /logout", s.authH.Logout)
	mux.HandleFunc("POST /send-otp", s.rateLimited(s.authH.SendOTP))
	mux.HandleFunc("POST /send-otp-forgot-password", s.rateLimited(s.authH.SendResetOTP))
	mux.HandleFunc("POST /verify-otp", s.rateLimited(s.authH.VerifyOTP))
	mux.HandleFunc("POST /reset-password", s.rateLimited(s.authH.ResetPassword))

	// Profile
	mux.Handle("GET /dashboard", middleware.RequireUser(http.HandlerFunc(s.profileH.Dashboard)))
	mux.Handle("GET /details", middleware.RequireUser(http.HandlerFunc(s.profileH.Details)))
	mux.Handle("POST /user/update", middleware.RequireUserAPI(http.HandlerFunc(s.profileH.Update)))

	// Questionnaires
	s.registerForm(mux, assessment.Short, [3]string{"/submit-page1", "/submit-page2", "/submit-page3"})
	s.registerForm(mux, assessment.Long, [3]string{"/submit-page11", "/submit-page22", "/submit-page33"})
	mux.Handle("GET /results", middleware.RequireUser(http.HandlerFunc(s.assessmentH.Results)))
	mux.Handle("GET /past-evaluation", middleware.RequireUser(http.HandlerFunc(s.assessmentH.PastEvaluation)))
	mux.Handle("POST /exercises", middleware.RequireUser(http.HandlerFunc(s.assessmentH.Exercises)))

	var h http.Handler = mux
	h = middleware.Sessions(s.sessions)(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"), s.clientIP)(h)
	return middleware.RequestID(h)
}

// MetricsHandler serves the Prometheus registry. It is mounted on its own
// listener, never on Router.
func MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) registerForm(mux *http.ServeMux, form assessment.Form, submit [3]string) {
	for i, scale := range dass.Scales {
		mux.Handle("GET "+form.Page(scale), middleware.RequireUser(s.assessmentH.Questionnaire(form, scale, submit[i])))
		mux.Handle("POST "+submit[i], middleware.RequireUser(s.assessmentH.Submit(form, scale)))
	}
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	if s.cfg.RateLimit <= 0 {
		return h
	}
	return s.rateLimiter.Limit(s.clientIP)(h).ServeHTTP
}
