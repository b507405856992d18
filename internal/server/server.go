package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"docbrief/internal/auth"
	"docbrief/internal/domain"
	"docbrief/internal/metrics"
	"docbrief/internal/pipeline"
	"docbrief/internal/speech"
	"docbrief/internal/summarizer"
	"docbrief/internal/translate"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const (
	SessionCookie = "session"

	defaultMaxUploadBytes = 16 << 20
	readHeaderTimeout     = 10 * time.Second
	rateLimitBurst        = 10
)

type Authenticator interface {
	Register(ctx context.Context, in auth.RegisterInput) (domain.User, error)
	Login(ctx context.Context, identifier string, password string) (domain.Session, error)
	Authenticate(ctx context.Context, token string) (int64, error)
	Logout(ctx context.Context, token string) error
	User(ctx context.Context, userID int64) (domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, update domain.ProfileUpdate) (domain.User, error)
}

type Summarizer interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
}

type ProviderDirectory interface {
	Availability(p summarizer.Provider) summarizer.Availability
	DefaultProvider() (summarizer.Provider, bool)
}

type Translator interface {
	Translate(ctx context.Context, text string, lang string) (translate.Translation, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string, lang string) (speech.Audio, error)
}

type HistoryLister interface {
	ListSummaries(ctx context.Context, userID int64, limit int) ([]domain.SummaryRecord, error)
}

type Deps struct {
	Auth       Authenticator
	Summarizer Summarizer
	Providers  ProviderDirectory
	Translator Translator
	Speaker    Speaker
	History    HistoryLister
}

type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	// RateLimitRPS caps requests per client IP on the expensive routes.
	// Zero disables the limit.
	RateLimitRPS float64
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

type Server struct {
	e    *echo.Echo
	deps Deps
	opts Options
	log  *slog.Logger
}

func New(deps Deps, opts Options, log *slog.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		e:    echo.New(),
		deps: deps,
		opts: opts,
		log:  log,
	}

	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Server.ReadHeaderTimeout = readHeaderTimeout

	s.e.Use(middleware.RequestID())
	s.e.Use(s.requestLogger())
	s.e.Use(middleware.Recover())

	s.routes()

	return s
}

func (s *Server) routes() {
	var limited echo.MiddlewareFunc = noLimit
	if s.opts.RateLimitRPS > 0 {
		limited = newIPRateLimiter(rate.Limit(s.opts.RateLimitRPS), rateLimitBurst).middleware()
	}

	s.e.GET("/healthz", s.handleHealth)
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.e.POST("/register", s.handleRegister, limited)
	s.e.POST("/login", s.handleLogin, limited)
	s.e.GET("/logout", s.handleLogout)

	s.e.POST("/summarize", s.handleSummarize, limited, s.bodyLimit(), s.optionalSession)
	s.e.POST("/translate", s.handleTranslate, limited)
	s.e.POST("/speak", s.handleSpeak, limited)
	s.e.GET("/uploads/:name", s.handleUpload)

	api := s.e.Group("/api", s.requireSession)
	api.GET("/me", s.handleMe)
	api.POST("/profile", s.handleProfile)
	api.GET("/history", s.handleHistory)
	api.GET("/providers", s.handleProviders)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogError:     true,
		LogMethod:    true,
		LogLatency:   true,
		LogRoutePath: true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			metrics.RecordHTTPRequest(v.Method, v.RoutePath, v.Status)

			if v.RoutePath == "/healthz" || v.RoutePath == "/metrics" {
				return nil
			}

			ctx := c.Request().Context()
			if v.Error == nil {
				s.log.InfoContext(ctx, "Request is handled",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"requestID", v.RequestID,
					"latencyMs", v.Latency.Milliseconds())
			} else {
				s.log.ErrorContext(ctx, "Failed to handle request",
					"error", v.Error,
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"requestID", v.RequestID,
					"latencyMs", v.Latency.Milliseconds())
			}

			return nil
		},
	})
}

func (s *Server) bodyLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.ContentLength > s.opts.MaxUploadBytes {
				return c.JSON(http.StatusRequestEntityTooLarge, apiError{Error: "Upload is too large."})
			}

			req.Body = http.MaxBytesReader(c.Response(), req.Body, s.opts.MaxUploadBytes)

			return next(c)
		}
	}
}

func noLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return next
}
