package attendance

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/student"
)

type (
	Repository interface {
		StudentExists(ctx context.Context, exec core.DBExecutor, studentID int) (bool, error)
		// UpsertRecord inserts the record or overwrites the status of the same (student, date) pair.
		UpsertRecord(ctx context.Context, exec core.DBExecutor, r Record) (Record, error)
		CountByStatus(ctx context.Context, exec core.DBExecutor, date core.Date) (Counts, error)
		CountStudentByStatus(ctx context.Context, exec core.DBExecutor, studentID int, start, end core.Date) (Counts, error)
	}

	ServiceInterface interface {
		Mark(ctx context.Context, nr NewRecord) (Record, error)
		DailySummary(ctx context.Context, date core.Date) (Summary, error)
		StudentSummary(ctx context.Context, studentID int, start, end core.Date) (StudentSummary, error)
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

func (svc *Service) Mark(ctx context.Context, nr NewRecord) (Record, error) {
	if err := nr.Validate(); err != nil {
		return Record{}, err
	}
	if nr.Date.IsZero() {
		nr.Date = core.Today()
	}

	var rec Record
	err := svc.db.WithTx(ctx, func(tx core.DBExecutor) error {
		exists, err := svc.repo.StudentExists(ctx, tx, nr.StudentID)
		if err != nil {
			return errors.Wrap(err, "checking student")
		}
		if !exists {
			return errors.WithStack(student.ErrNotFound)
		}
		rec, err = svc.repo.UpsertRecord(ctx, tx, Record{StudentID: nr.StudentID, Date: nr.Date, Status: nr.Status})
		return errors.Wrap(err, "upserting attendance")
	})
	return rec, err
}

// DailySummary summarizes all attendance records of date.
func (svc *Service) DailySummary(ctx context.Context, date core.Date) (Summary, error) {
	var summary Summary
	err := svc.db.WithSession(ctx, func(exec core.DBExecutor) error {
		var err error
		summary, err = DailySummary(ctx, svc.repo, exec, date)
		return err
	})
	return summary, err
}

func (svc *Service) StudentSummary(ctx context.Context, studentID int, start, end core.Date) (StudentSummary, error) {
	if end.Before(start.Time) {
		return StudentSummary{}, core.NewFieldError("end_date", "must not be before start_date")
	}

	var summary StudentSummary
	err := svc.db.WithSession(ctx, func(exec core.DBExecutor) error {
		exists, err := svc.repo.StudentExists(ctx, exec, studentID)
		if err != nil {
			return errors.Wrap(err, "checking student")
		}
		if !exists {
			return errors.WithStack(student.ErrNotFound)
		}
		counts, err := svc.repo.CountStudentByStatus(ctx, exec, studentID, start, end)
		if err != nil {
			return errors.Wrap(err, "counting attendance")
		}
		summary = StudentSummary{StudentID: studentID, StartDate: start, EndDate: end, Summary: Summarize(counts)}
		return nil
	})
	return summary, err
}

// DailySummary runs on an already open session so that other aggregators can reuse it.
func DailySummary(ctx context.Context, repo Repository, exec core.DBExecutor, date core.Date) (Summary, error) {
	counts, err := repo.CountByStatus(ctx, exec, date)
	if err != nil {
		return Summary{}, errors.Wrap(err, "counting attendance")
	}
	summary := Summarize(counts)
	summary.Date = date
	return summary, nil
}
