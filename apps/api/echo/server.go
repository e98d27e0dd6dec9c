package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/notification"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/stats"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/user"
	metricsvc "github.com/trezcool/shule/services/metrics"
)

func init() {
	// amounts and percentages are serialized as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type ServerDeps struct {
	Conf            *core.Config
	Logger          core.Logger
	Metrics         *metricsvc.Metrics
	UserSvc         user.ServiceInterface
	StudentSvc      student.ServiceInterface
	FeeSvc          fee.ServiceInterface
	StatsSvc        stats.ServiceInterface
	ReportSvc       report.ServiceInterface
	AttendanceSvc   attendance.ServiceInterface
	NotificationSvc notification.ServiceInterface
	Validate        *validator.Validate
	Translator      ut.Translator
}

type Server struct {
	deps     ServerDeps
	app      *echo.Echo
	auth     *authenticator
	errors   chan error
	shutdown chan os.Signal
}

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.deps.Metrics != nil {
		s.app.Use(s.deps.Metrics.Middleware())
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}

	s.app.GET("/", home)

	jwt := s.auth.middleware()
	api := s.app.Group("/api", jwt)

	registerUserAPI(s.app, jwt, s.auth, s.deps.UserSvc, s.deps.Validate)
	registerStudentAPI(s.app, jwt, s.deps.StudentSvc, s.deps.Validate)
	registerFeeAPI(s.app, jwt, s.deps.FeeSvc, s.deps.ReportSvc, s.deps.Validate)
	registerStatsAPI(s.app, api, jwt, s.deps.StatsSvc, s.deps.ReportSvc)
	registerAttendanceAPI(api, s.deps.AttendanceSvc, s.deps.Validate)
	registerNotificationAPI(api, s.deps.NotificationSvc, s.deps.Validate)
}

// Start listens on Server.Address until the server is shut down.
// Listening errors are sent to Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shule API!")
}
