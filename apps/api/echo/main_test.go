package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/notification"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/stats"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/user"
	metricsvc "github.com/trezcool/shule/services/metrics"
	"github.com/trezcool/shule/tests"
)

var errMissingToken = errorResponse{Status: "error", Message: "missing or malformed jwt"}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

// fixtures exposes the state behind the test server.
type fixtures struct {
	feeRepo  *testutil.FeeRepository
	userRepo *testutil.UserRepository
	gateway  *testutil.Gateway
	logger   *testutil.Logger
	students *fakeStudentService
	attend   *fakeAttendanceService
	notifs   *fakeNotificationService
	metrics  *metricsvc.Metrics
}

func setup(t *testing.T) (*Server, *fixtures) {
	t.Helper()

	conf := new(core.Config)
	conf.AppName = "Shule"
	conf.TestMode = true
	conf.SecretKey = "test-secret"
	conf.Server.JWTExpirationDelta = time.Hour

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	fx := &fixtures{
		feeRepo:  testutil.NewFeeRepository(),
		userRepo: testutil.NewUserRepository(),
		gateway:  new(testutil.Gateway),
		logger:   new(testutil.Logger),
		students: newFakeStudentService(),
		attend:   new(fakeAttendanceService),
		notifs:   new(fakeNotificationService),
		metrics:  metricsvc.New(),
	}

	srv := NewServer(ServerDeps{
		Conf:            conf,
		Logger:          fx.logger,
		Metrics:         fx.metrics,
		UserSvc:         user.NewService(fx.gateway, fx.userRepo),
		StudentSvc:      fx.students,
		FeeSvc:          fee.NewService(fx.gateway, fx.feeRepo, fx.metrics, fx.logger),
		StatsSvc:        fakeStatsService{},
		ReportSvc:       fakeReportService{},
		AttendanceSvc:   fx.attend,
		NotificationSvc: fx.notifs,
		Validate:        validate,
		Translator:      translator,
	})
	return srv, fx
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, srv *Server, usr user.User) string {
	t.Helper()
	token, err := srv.auth.generateToken(srv.auth.userClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func success(t *testing.T, data interface{}, message ...string) []byte {
	t.Helper()
	resp := successResponse{Status: "success", Data: data}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	return marshalObj(t, resp)
}

func failure(t *testing.T, message string, fields map[string]string) []byte {
	t.Helper()
	return marshalObj(t, errorResponse{Status: "error", Message: message, Fields: fields})
}

// indentJSON normalizes a JSON document so two documents can be diffed line by line.
func indentJSON(t *testing.T, data []byte) string {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("indentJSON(%s) failed: %v", data, err)
	}
	out, _ := json.MarshalIndent(v, "", "  ")
	return string(out)
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v (body: %s)", rec.Code, tt.wantCode, rec.Body.String())
	}
	got, want := indentJSON(t, rec.Body.Bytes()), indentJSON(t, tt.wantData)
	if got != want {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(want),
			B:        difflib.SplitLines(got),
			FromFile: "want",
			ToFile:   "got",
			Context:  2,
		})
		t.Errorf("failed! data mismatch:\n%s", diff)
	}
}

func runHTTPTests(t *testing.T, srv *Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// Fake services

type fakeStudentService struct {
	students map[int]student.Student
	filter   student.QueryFilter
}

var _ student.ServiceInterface = (*fakeStudentService)(nil)

func newFakeStudentService() *fakeStudentService {
	return &fakeStudentService{students: make(map[int]student.Student)}
}

func (svc *fakeStudentService) Create(_ context.Context, ns student.NewStudent) (student.Student, error) {
	totalFee, _ := decimal.NewFromString(ns.TotalFee.String())
	s := student.Student{
		ID:        len(svc.students) + 1,
		FullName:  ns.FullName,
		Grade:     ns.Grade,
		Email:     null.NewString(ns.Email, ns.Email != ""),
		Status:    "active",
		TotalFee:  totalFee,
		FeeStatus: fee.DeriveStatus(decimal.Zero, totalFee),
	}
	svc.students[s.ID] = s
	return s, nil
}

func (svc *fakeStudentService) Update(_ context.Context, us student.UpdateStudent) (student.Student, error) {
	s, ok := svc.students[us.ID]
	if !ok {
		return student.Student{}, errors.WithStack(student.ErrNotFound)
	}
	if us.Grade != "" {
		s.Grade = us.Grade
	}
	svc.students[s.ID] = s
	return s, nil
}

func (svc *fakeStudentService) Get(_ context.Context, id int) (student.Student, error) {
	s, ok := svc.students[id]
	if !ok {
		return student.Student{}, errors.WithStack(student.ErrNotFound)
	}
	return s, nil
}

func (svc *fakeStudentService) Query(_ context.Context, filter student.QueryFilter) ([]student.Student, error) {
	svc.filter = filter
	students := []student.Student{}
	for id := 1; id <= len(svc.students); id++ {
		if filter.Grade == "" || svc.students[id].Grade == filter.Grade {
			students = append(students, svc.students[id])
		}
	}
	return students, nil
}

func (svc *fakeStudentService) Search(ctx context.Context, query string) ([]student.Student, error) {
	if core.CleanString(query) == "" {
		return nil, core.NewFieldError("query", "this field is required")
	}
	return svc.Query(ctx, student.QueryFilter{Search: query})
}

type fakeStatsService struct{}

var _ stats.ServiceInterface = fakeStatsService{}

func (fakeStatsService) Dashboard(_ context.Context, asOf time.Time) (stats.Snapshot, error) {
	return dashboardSnapshot(asOf), nil
}

func dashboardSnapshot(asOf time.Time) stats.Snapshot {
	return stats.Snapshot{
		AsOf:              core.NewDate(asOf),
		TotalStudents:     42,
		NewAdmissions:     []stats.Admission{},
		PendingFees:       7,
		MonthlyAdmissions: stats.MonthlyHistogram(nil),
		RecentPayments:    []stats.RecentPayment{},
		AttendanceSummary: attendance.Summarize(nil),
	}
}

type fakeReportService struct{}

var _ report.ServiceInterface = fakeReportService{}

func (fakeReportService) FeeCollection(_ context.Context, start, end core.Date) (report.CollectionReport, error) {
	if end.Before(start.Time) {
		return report.CollectionReport{}, core.NewFieldError("end_date", "must not be before start_date")
	}
	return report.BuildCollectionReport(start, end, []report.CollectedPayment{
		{PaymentID: 1, StudentID: 1, FullName: "Jane Doe", AmountPaid: decimal.NewFromInt(1000), PaymentMethod: "cash", PaymentDate: start},
	}), nil
}

func (fakeReportService) ClassPerformance(_ context.Context, grade string, examID int) (report.PerformanceReport, error) {
	if examID != 3 {
		return report.PerformanceReport{}, errors.Wrap(report.ErrExamNotFound, "getting exam")
	}
	return classReport(grade), nil
}

func classReport(grade string) report.PerformanceReport {
	return report.PerformanceReport{
		Grade:             grade,
		ExamID:            3,
		ExamName:          "Mid Term",
		SubjectAverages:   []report.SubjectAverage{},
		OverallAverage:    decimal.Zero,
		PassPercentage:    decimal.Zero,
		TopPerformers:     []report.Performer{},
		GradeDistribution: map[string]int{},
	}
}

type fakeAttendanceService struct {
	date       core.Date
	start, end core.Date
}

var _ attendance.ServiceInterface = (*fakeAttendanceService)(nil)

func (svc *fakeAttendanceService) Mark(_ context.Context, nr attendance.NewRecord) (attendance.Record, error) {
	if nr.StudentID != 7 {
		return attendance.Record{}, errors.WithStack(fee.ErrStudentNotFound)
	}
	return attendance.Record{ID: 1, StudentID: nr.StudentID, Date: nr.Date, Status: nr.Status}, nil
}

func (svc *fakeAttendanceService) DailySummary(_ context.Context, date core.Date) (attendance.Summary, error) {
	svc.date = date
	s := attendance.Summarize(attendance.Counts{attendance.StatusPresent: 2, attendance.StatusAbsent: 1})
	s.Date = date
	return s, nil
}

func (svc *fakeAttendanceService) StudentSummary(_ context.Context, studentID int, start, end core.Date) (attendance.StudentSummary, error) {
	svc.start, svc.end = start, end
	return attendance.StudentSummary{StudentID: studentID, StartDate: start, EndDate: end, Summary: attendance.Summarize(nil)}, nil
}

type fakeNotificationService struct {
	filter notification.Filter
}

var _ notification.ServiceInterface = (*fakeNotificationService)(nil)

func (svc *fakeNotificationService) Send(_ context.Context, nn notification.NewNotification) (notification.Notification, error) {
	return notification.Notification{
		ID:        1,
		Title:     nn.Title,
		Message:   nn.Message,
		Type:      nn.Type,
		StudentID: null.NewInt(nn.StudentID, nn.StudentID > 0),
		UserID:    null.NewInt(nn.UserID, nn.UserID > 0),
	}, nil
}

func (svc *fakeNotificationService) SendBulk(_ context.Context, bn notification.BulkNotification) (notification.BulkResult, error) {
	if bn.Grade != "5" {
		return notification.BulkResult{}, errors.WithStack(notification.ErrNoRecipients)
	}
	return notification.BulkResult{Grade: bn.Grade, RecipientCount: 3, EmailedCount: 2}, nil
}

func (svc *fakeNotificationService) Query(_ context.Context, filter notification.Filter) ([]notification.Notification, error) {
	svc.filter = filter
	if filter.IsEmpty() {
		return nil, core.NewValidationError(errors.New("user_id or student_id is required"))
	}
	return []notification.Notification{}, nil
}
