package stats

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
)

type (
	Repository interface {
		CountStudents(ctx context.Context, exec core.DBExecutor) (int, error)
		CountAdmissionsSince(ctx context.Context, exec core.DBExecutor, since core.Date) (int, error)
		// QueryAdmissionsSince returns the newest admissions first.
		QueryAdmissionsSince(ctx context.Context, exec core.DBExecutor, since core.Date, limit int) ([]Admission, error)
		CountPendingFees(ctx context.Context, exec core.DBExecutor) (int, error)
		// CountAdmissionsByMonth only returns the months of year having admissions.
		CountAdmissionsByMonth(ctx context.Context, exec core.DBExecutor, year int) (map[time.Month]int, error)
		// QueryRecentPayments returns the latest payments first.
		QueryRecentPayments(ctx context.Context, exec core.DBExecutor, limit int) ([]RecentPayment, error)
	}

	ServiceInterface interface {
		Dashboard(ctx context.Context, asOf time.Time) (Snapshot, error)
	}

	Options struct {
		NewAdmissionsWindow time.Duration
		NewAdmissionsLimit  int
		RecentPaymentsLimit int
	}

	Service struct {
		db             core.Gateway
		repo           Repository
		attendanceRepo attendance.Repository
		opts           Options
	}
)

var _ ServiceInterface = (*Service)(nil)

func OptionsFromConfig(conf *core.Config) Options {
	return Options{
		NewAdmissionsWindow: conf.Ledger.NewAdmissionsWindow,
		NewAdmissionsLimit:  conf.Ledger.NewAdmissionsLimit,
		RecentPaymentsLimit: conf.Ledger.RecentPaymentsLimit,
	}
}

func NewService(db core.Gateway, repo Repository, attendanceRepo attendance.Repository, opts Options) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(db, "db"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(attendanceRepo, "attendanceRepo"),
		vala.GreaterThan(opts.NewAdmissionsLimit, 0, "opts.NewAdmissionsLimit"),
		vala.GreaterThan(opts.RecentPaymentsLimit, 0, "opts.RecentPaymentsLimit"),
	).CheckAndPanic()

	return &Service{
		db:             db,
		repo:           repo,
		attendanceRepo: attendanceRepo,
		opts:           opts,
	}
}

// Dashboard computes the dashboard snapshot relative to asOf.
func (svc *Service) Dashboard(ctx context.Context, asOf time.Time) (Snapshot, error) {
	today := core.NewDate(asOf)
	since := core.NewDate(asOf.Add(-svc.opts.NewAdmissionsWindow))
	snap := Snapshot{AsOf: today}

	err := svc.db.WithSession(ctx, func(exec core.DBExecutor) error {
		var err error
		if snap.TotalStudents, err = svc.repo.CountStudents(ctx, exec); err != nil {
			return errors.Wrap(err, "counting students")
		}

		if snap.NewAdmissionCount, err = svc.repo.CountAdmissionsSince(ctx, exec, since); err != nil {
			return errors.Wrap(err, "counting new admissions")
		}
		if snap.NewAdmissions, err = svc.repo.QueryAdmissionsSince(ctx, exec, since, svc.opts.NewAdmissionsLimit); err != nil {
			return errors.Wrap(err, "querying new admissions")
		}

		if snap.PendingFees, err = svc.repo.CountPendingFees(ctx, exec); err != nil {
			return errors.Wrap(err, "counting pending fees")
		}

		monthly, err := svc.repo.CountAdmissionsByMonth(ctx, exec, today.Year())
		if err != nil {
			return errors.Wrap(err, "counting monthly admissions")
		}
		snap.MonthlyAdmissions = MonthlyHistogram(monthly)

		if snap.RecentPayments, err = svc.repo.QueryRecentPayments(ctx, exec, svc.opts.RecentPaymentsLimit); err != nil {
			return errors.Wrap(err, "querying recent payments")
		}

		snap.AttendanceSummary, err = attendance.DailySummary(ctx, svc.attendanceRepo, exec, today)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}

	if snap.NewAdmissions == nil {
		snap.NewAdmissions = []Admission{}
	}
	if snap.RecentPayments == nil {
		snap.RecentPayments = []RecentPayment{}
	}
	return snap, nil
}
