package student

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
)

var (
	// errors
	ErrNotFound       = fee.ErrStudentNotFound
	errNoUpdateFields = errors.New("no update fields provided")
	errEmptySearch    = core.NewFieldError("query", "this field is required")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, exec core.DBExecutor, s Student) (Student, error)
		GetStudent(ctx context.Context, exec core.DBExecutor, id int) (Student, error)
		// UpdateStudent only writes profile fields.
		UpdateStudent(ctx context.Context, exec core.DBExecutor, s Student) (Student, error)
		// QueryStudents applies AND on the provided filter fields.
		// QueryFilter.Search does a case-insensitive match on one of full_name, grade, email or phone.
		QueryStudents(ctx context.Context, exec core.DBExecutor, filter QueryFilter) ([]Student, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, ns NewStudent) (Student, error)
		Update(ctx context.Context, us UpdateStudent) (Student, error)
		Get(ctx context.Context, id int) (Student, error)
		Query(ctx context.Context, filter QueryFilter) ([]Student, error)
		Search(ctx context.Context, query string) ([]Student, error)
	}

	Service struct {
		db   core.Gateway
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(db core.Gateway, repo Repository) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(db, "db"),
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()

	return &Service{db: db, repo: repo}
}

// Create enrolls a new student. A student owing nothing starts with a completed fee status.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	totalFee := decimal.Zero
	if ns.TotalFee != "" {
		var err error
		if totalFee, err = decimal.NewFromString(ns.TotalFee.String()); err != nil {
			return Student{}, core.NewFieldError("total_fee", "must be a non-negative amount")
		}
	}

	s := Student{
		FullName:  ns.FullName,
		Grade:     ns.Grade,
		Gender:    nullString(ns.Gender),
		Email:     nullString(ns.Email),
		Phone:     nullString(ns.Phone),
		Address:   nullString(ns.Address),
		Status:    ns.Status,
		TotalFee:  totalFee,
		FeeStatus: fee.DeriveStatus(decimal.Zero, totalFee),
	}
	if s.Status == "" {
		s.Status = "active"
	}
	if ns.DateOfBirth != "" {
		s.DateOfBirth, _ = core.ParseDate(ns.DateOfBirth)
	}
	if ns.EnrollmentDate != "" {
		s.EnrollmentDate, _ = core.ParseDate(ns.EnrollmentDate)
	} else {
		s.EnrollmentDate = core.Today()
	}

	var created Student
	err := svc.db.WithSession(ctx, func(exec core.DBExecutor) error {
		var err error
		created, err = svc.repo.CreateStudent(ctx, exec, s)
		return errors.Wrap(err, "creating student")
	})
	return created, err
}

func (svc *Service) Update(ctx context.Context, us UpdateStudent) (Student, error) {
	var updated Student
	err := svc.db.WithTx(ctx, func(tx core.DBExecutor) error {
		s, err := svc.repo.GetStudent(ctx, tx, us.ID)
		if err != nil {
			return errors.Wrap(err, "getting student")
		}
		us.apply(&s)
		updated, err = svc.repo.UpdateStudent(ctx, tx, s)
		return errors.Wrap(err, "updating student")
	})
	return updated, err
}

func (svc *Service) Get(ctx context.Context, id int) (Student, error) {
	var s Student
	err := svc.db.WithSession(ctx, func(exec core.DBExecutor) error {
		var err error
		s, err = svc.repo.GetStudent(ctx, exec, id)
		return errors.Wrap(err, "getting student")
	})
	return s, err
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Student, error) {
	filter.Clean()
	var students []Student
	err := svc.db.WithSession(ctx, func(exec core.DBExecutor) error {
		var err error
		students, err = svc.repo.QueryStudents(ctx, exec, filter)
		return errors.Wrap(err, "querying students")
	})
	if students == nil {
		students = []Student{}
	}
	return students, err
}

func (svc *Service) Search(ctx context.Context, query string) ([]Student, error) {
	query = core.CleanString(query)
	if query == "" {
		return nil, errEmptySearch
	}
	return svc.Query(ctx, QueryFilter{Search: query})
}
