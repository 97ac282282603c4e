package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/access"
	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/dashboard"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/notification"
	"github.com/trezcool/academia/core/sponsorship"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/services/throttle"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Registry   prometheus.Registerer // optional
		Limiter    throttle.Limiter      // optional

		UserSvc         *user.Service
		CourseSvc       *course.Service
		EnrollmentSvc   *enrollment.Service
		AssessmentSvc   *assessment.Service
		SponsorshipSvc  *sponsorship.Service
		NotificationSvc *notification.Service
		DashboardSvc    *dashboard.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	if deps.Limiter == nil {
		deps.Limiter = throttle.NewNopLimiter()
	}
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.deps.Registry != nil {
		s.app.Use(metricsMiddleware(newHTTPMetrics(s.deps.Registry)))
	}

	s.app.GET("/", home)

	auth := authMiddleware(s.deps.UserSvc)

	registerUserAPI(s.app, auth, s.deps.UserSvc, s.deps.Limiter, s.deps.Validate)
	registerDashboardAPI(s.app, auth, s.deps.DashboardSvc)

	api := s.app.Group("/api", auth)
	registerResource(api, "/course", access.Course, &courseAPI{svc: s.deps.CourseSvc, validate: s.deps.Validate})
	registerVideoAPI(api, s.deps.CourseSvc, s.deps.Validate)
	registerResource(api, "/enrollment", access.Enrollment, &enrollmentAPI{svc: s.deps.EnrollmentSvc, validate: s.deps.Validate})
	registerResource(api, "/assessment", access.Assessment, &assessmentAPI{svc: s.deps.AssessmentSvc, validate: s.deps.Validate})
	registerResource(api, "/submission", access.Submission, &submissionAPI{svc: s.deps.AssessmentSvc, validate: s.deps.Validate})
	registerResource(api, "/sponsorship", access.Sponsorship, &sponsorshipAPI{svc: s.deps.SponsorshipSvc, validate: s.deps.Validate})
	registerResource(api, "/payment", access.Payment, &paymentAPI{svc: s.deps.SponsorshipSvc, validate: s.deps.Validate})
	registerResource(api, "/notification", access.Notification, &notificationAPI{svc: s.deps.NotificationSvc, validate: s.deps.Validate})
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Academia API!")
}
