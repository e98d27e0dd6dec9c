package report

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrExamNotFound = core.NewNotFoundError("exam")
)

type (
	Repository interface {
		// QueryCollectedPayments returns the payments dated within [start, end], oldest first.
		QueryCollectedPayments(ctx context.Context, exec core.DBExecutor, start, end core.Date) ([]CollectedPayment, error)

		// GetExamName returns ErrExamNotFound when the exam does not exist.
		GetExamName(ctx context.Context, exec core.DBExecutor, examID int) (string, error)
		QuerySubjectAverages(ctx context.Context, exec core.DBExecutor, grade string, examID int) ([]SubjectAverage, error)
		// QueryStudentAggregates returns one row per student ordered by student_id.
		QueryStudentAggregates(ctx context.Context, exec core.DBExecutor, grade string, examID int) ([]StudentAggregate, error)
		CountLetterGrades(ctx context.Context, exec core.DBExecutor, grade string, examID int) (map[string]int, error)
		// OverallAverage is the mean of all matching marks_obtained, 0 when there are none.
		OverallAverage(ctx context.Context, exec core.DBExecutor, grade string, examID int) (decimal.Decimal, error)
	}

	ServiceInterface interface {
		FeeCollection(ctx context.Context, start, end core.Date) (CollectionReport, error)
		ClassPerformance(ctx context.Context, grade string, examID int) (PerformanceReport, error)
	}

	Options struct {
		TopPerformers int
		PassMark      int
	}

	Service struct {
		db   core.Gateway
		repo Repository
		opts Options
	}
)

var _ ServiceInterface = (*Service)(nil)

func OptionsFromConfig(conf *core.Config) Options {
	return Options{
		TopPerformers: conf.Ledger.TopPerformers,
		PassMark:      conf.Ledger.PassMark,
	}
}

func NewService(db core.Gateway, repo Repository, opts Options) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(db, "db"),
		vala.IsNotNil(repo, "repo"),
		vala.GreaterThan(opts.TopPerformers, 0, "opts.TopPerformers"),
	).CheckAndPanic()

	return &Service{db: db, repo: repo, opts: opts}
}

// FeeCollection reports the payments collected between start and end, both inclusive.
func (svc *Service) FeeCollection(ctx context.Context, start, end core.Date) (CollectionReport, error) {
	if end.Before(start.Time) {
		return CollectionReport{}, core.NewFieldError("end_date", "must not be before start_date")
	}

	var payments []CollectedPayment
	err := svc.db.WithSession(ctx, func(exec core.DBExecutor) error {
		var err error
		payments, err = svc.repo.QueryCollectedPayments(ctx, exec, start, end)
		return errors.Wrap(err, "querying collected payments")
	})
	if err != nil {
		return CollectionReport{}, err
	}
	return BuildCollectionReport(start, end, payments), nil
}

// ClassPerformance reports how the students of grade performed at an exam.
func (svc *Service) ClassPerformance(ctx context.Context, grade string, examID int) (PerformanceReport, error) {
	grade = core.CleanString(grade)
	if grade == "" {
		return PerformanceReport{}, core.NewFieldError("grade", "this field is required")
	}

	rpt := PerformanceReport{Grade: grade, ExamID: examID}
	var aggs []StudentAggregate

	err := svc.db.WithSession(ctx, func(exec core.DBExecutor) error {
		var err error
		if rpt.ExamName, err = svc.repo.GetExamName(ctx, exec, examID); err != nil {
			return errors.Wrap(err, "getting exam")
		}
		if rpt.SubjectAverages, err = svc.repo.QuerySubjectAverages(ctx, exec, grade, examID); err != nil {
			return errors.Wrap(err, "querying subject averages")
		}
		if aggs, err = svc.repo.QueryStudentAggregates(ctx, exec, grade, examID); err != nil {
			return errors.Wrap(err, "querying student aggregates")
		}
		if rpt.GradeDistribution, err = svc.repo.CountLetterGrades(ctx, exec, grade, examID); err != nil {
			return errors.Wrap(err, "counting letter grades")
		}
		rpt.OverallAverage, err = svc.repo.OverallAverage(ctx, exec, grade, examID)
		return errors.Wrap(err, "computing overall average")
	})
	if err != nil {
		return PerformanceReport{}, err
	}

	if rpt.SubjectAverages == nil {
		rpt.SubjectAverages = []SubjectAverage{}
	}
	for i := range rpt.SubjectAverages {
		rpt.SubjectAverages[i].Average = rpt.SubjectAverages[i].Average.Round(2)
	}
	if rpt.GradeDistribution == nil {
		rpt.GradeDistribution = make(map[string]int)
	}
	rpt.OverallAverage = rpt.OverallAverage.Round(2)
	rpt.TopPerformers = TopPerformers(aggs, svc.opts.TopPerformers)
	rpt.TotalStudents = len(aggs)
	rpt.PassedStudents, rpt.PassPercentage = PassRate(aggs, decimal.NewFromInt(int64(svc.opts.PassMark)))
	return rpt, nil
}
