package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	echoapi "github.com/trezcool/academia/apps/api/echo"
	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/dashboard"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/notification"
	"github.com/trezcool/academia/core/sponsorship"
	"github.com/trezcool/academia/core/user"
	emailsvc "github.com/trezcool/academia/services/email"
	logsvc "github.com/trezcool/academia/services/logger"
	"github.com/trezcool/academia/services/throttle"
	"github.com/trezcool/academia/storage/database"
	inmemdb "github.com/trezcool/academia/storage/database/inmem"
	sqlxrepos "github.com/trezcool/academia/storage/database/sqlx"
)

// storage groups the repositories of one backend.
type storage struct {
	tx            core.Transactor
	users         user.Repository
	courses       course.Repository
	enrollments   enrollment.Repository
	assessments   assessment.Repository
	sponsorships  sponsorship.Repository
	notifications notification.Repository
	closer        io.Closer
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	std := logrus.New()
	std.SetOutput(os.Stdout)
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger := logsvc.NewRollbarLogger(std, conf)

	// set up DB
	store, err := setUpStorage(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = store.closer.Close(); err != nil {
			logger.Error("Failed to close the database", err)
		}
	}()

	// set up the login throttle
	limiter := throttle.NewNopLimiter()
	if conf.Redis.URL != "" {
		opts, err := redis.ParseURL(conf.Redis.URL)
		if err != nil {
			logger.Fatal(fmt.Sprintf("parsing redis URL: %v", err), err)
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		limiter = throttle.NewRedisLimiter(rdb, "login", conf.Redis.LoginAttempts, conf.Redis.LoginWindow)
	}

	// set up metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// set up services
	var mailSvc core.EmailService
	if conf.Email.Backend == core.EmailBackendSendgrid {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	} else {
		mailSvc = emailsvc.NewConsoleService(conf)
	}

	usrSvc := user.NewService(store.users, conf)
	courseSvc := course.NewService(store.courses, usrSvc)
	enrollSvc := enrollment.NewService(store.enrollments, usrSvc, store.courses)
	dispatcher := notification.NewDispatcher(store.notifications, store.enrollments, mailSvc, notification.NewMetrics(registry))
	assessSvc := assessment.NewService(store.tx, store.assessments, usrSvc, store.courses, dispatcher)
	sponsorSvc := sponsorship.NewService(store.tx, store.sponsorships, usrSvc, dispatcher)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	if err = core.ParseEmailTemplates(); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus metrics of the API.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			Validate:        validate,
			Translator:      translator,
			Registry:        registry,
			Limiter:         limiter,
			UserSvc:         usrSvc,
			CourseSvc:       courseSvc,
			EnrollmentSvc:   enrollSvc,
			AssessmentSvc:   assessSvc,
			SponsorshipSvc:  sponsorSvc,
			NotificationSvc: notification.NewService(store.notifications, usrSvc),
			DashboardSvc:    dashboard.NewService(usrSvc, courseSvc, enrollSvc, sponsorSvc),
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func setUpStorage(ctx context.Context, conf *core.Config) (*storage, error) {
	if conf.Database.InMemory() {
		db := inmemdb.Open()
		return &storage{
			tx:            inmemdb.NewTransactor(),
			users:         inmemdb.NewUserRepository(db),
			courses:       inmemdb.NewCourseRepository(db),
			enrollments:   inmemdb.NewEnrollmentRepository(db),
			assessments:   inmemdb.NewAssessmentRepository(db),
			sponsorships:  inmemdb.NewSponsorshipRepository(db),
			notifications: inmemdb.NewNotificationRepository(db),
			closer:        nopCloser{},
		}, nil
	}

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &storage{
		tx:            sqlxrepos.NewTransactor(db),
		users:         sqlxrepos.NewUserRepository(db),
		courses:       sqlxrepos.NewCourseRepository(db),
		enrollments:   sqlxrepos.NewEnrollmentRepository(db),
		assessments:   sqlxrepos.NewAssessmentRepository(db),
		sponsorships:  sqlxrepos.NewSponsorshipRepository(db),
		notifications: sqlxrepos.NewNotificationRepository(db),
		closer:        db,
	}, nil
}
