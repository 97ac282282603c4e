package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	inmemdb "github.com/trezcool/academia/storage/database/inmem"
)

var (
	errMissingToken = httpErr{Error: "authentication credentials were not provided"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

// env is a server wired to a fresh in-memory store.
type env struct {
	app      echoapi.Server
	mailer   *emailsvc.ConsoleServiceMock
	registry *prometheus.Registry

	usrRepo     user.Repository
	courseRepo  course.Repository
	enrollRepo  enrollment.Repository
	assessRepo  assessment.Repository
	sponsorRepo sponsorship.Repository
	notifRepo   notification.Repository

	usrSvc *user.Service
}

func testConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "Academia",
		SecretKey:        "test-secret",
		DefaultFromEmail: mail.Address{Name: "Academia", Address: "noreply@academia.test"},
		Server:           core.ServerConfig{DisableReqLogs: true},
		Database:         core.DatabaseConfig{Engine: "memory"},
		Email:            core.EmailConfig{Backend: core.EmailBackendConsole},
	}
}

func setup(t *testing.T, limiter ...throttle.Limiter) *env {
	t.Helper()
	conf := testConfig()

	std := logrus.New()
	std.SetOutput(io.Discard)
	logger := logsvc.NewRollbarLogger(std, conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up DB & repos
	db := inmemdb.Open()
	tx := inmemdb.NewTransactor()
	e := &env{
		mailer:      emailsvc.NewConsoleServiceMock(conf),
		registry:    prometheus.NewRegistry(),
		usrRepo:     inmemdb.NewUserRepository(db),
		courseRepo:  inmemdb.NewCourseRepository(db),
		enrollRepo:  inmemdb.NewEnrollmentRepository(db),
		assessRepo:  inmemdb.NewAssessmentRepository(db),
		sponsorRepo: inmemdb.NewSponsorshipRepository(db),
		notifRepo:   inmemdb.NewNotificationRepository(db),
	}

	// set up services
	e.usrSvc = user.NewService(e.usrRepo, conf)
	courseSvc := course.NewService(e.courseRepo, e.usrSvc)
	enrollSvc := enrollment.NewService(e.enrollRepo, e.usrSvc, e.courseRepo)
	dispatcher := notification.NewDispatcher(e.notifRepo, e.enrollRepo, e.mailer, notification.NewMetrics(e.registry))
	assessSvc := assessment.NewService(tx, e.assessRepo, e.usrSvc, e.courseRepo, dispatcher)
	sponsorSvc := sponsorship.NewService(tx, e.sponsorRepo, e.usrSvc, dispatcher)

	deps := echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		Registry:        e.registry,
		UserSvc:         e.usrSvc,
		CourseSvc:       courseSvc,
		EnrollmentSvc:   enrollSvc,
		AssessmentSvc:   assessSvc,
		SponsorshipSvc:  sponsorSvc,
		NotificationSvc: notification.NewService(e.notifRepo, e.usrSvc),
		DashboardSvc:    dashboard.NewService(e.usrSvc, courseSvc, enrollSvc, sponsorSvc),
	}
	if len(limiter) > 0 {
		deps.Limiter = limiter[0]
	}
	e.app = echoapi.NewServer(deps)
	return e
}

func (e *env) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := e.usrSvc.GetOrCreateToken(context.Background(), usr)
	require.NoError(t, err)
	return token.Key
}

func (e *env) serve(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	e.app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpResult struct {
	Result string `json:"result"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func marshallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, e *env, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			e.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
