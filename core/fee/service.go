package fee

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrStudentNotFound = core.NewNotFoundError("student")
	ErrOverpayment     = core.NewRuleError("overpayment_rejected", "payment exceeds total fee")
)

type (
	// Repository is the ledger's view of the store. Every method runs on the given session.
	Repository interface {
		// GetAccount returns ErrStudentNotFound when the student does not exist.
		// forUpdate locks the student row until the end of the enclosing transaction.
		GetAccount(ctx context.Context, exec core.DBExecutor, studentID int, forUpdate bool) (Account, error)
		SumPayments(ctx context.Context, exec core.DBExecutor, studentID int) (decimal.Decimal, error)
		InsertPayment(ctx context.Context, exec core.DBExecutor, p Payment) (Payment, error)
		SetFeeStatus(ctx context.Context, exec core.DBExecutor, studentID int, status Status) error
		QueryPayments(ctx context.Context, exec core.DBExecutor, studentID int) ([]Payment, error)
	}

	// Observer is notified of ledger outcomes.
	Observer interface {
		PaymentRecorded(method string, amount decimal.Decimal)
		OverpaymentRejected()
	}

	ServiceInterface interface {
		RecordPayment(ctx context.Context, np NewPayment) (Receipt, error)
		GetDue(ctx context.Context, studentID int) (DueSummary, error)
		GetStatement(ctx context.Context, studentID int) (Statement, error)
	}

	Service struct {
		db       core.Gateway
		repo     Repository
		observer Observer
		logger   core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(db core.Gateway, repo Repository, observer Observer, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(db, "db"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(observer, "observer"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		db:       db,
		repo:     repo,
		observer: observer,
		logger:   logger,
	}
}

// RecordPayment appends a payment to the student's ledger and recomputes the student's fee status.
// The student row is locked for the whole check-then-insert-then-update sequence, so concurrent
// payments for the same student can never add up to more than the total fee.
func (svc *Service) RecordPayment(ctx context.Context, np NewPayment) (Receipt, error) {
	if err := np.Validate(); err != nil {
		return Receipt{}, err
	}
	if np.PaymentDate.IsZero() {
		np.PaymentDate = core.Today()
	}

	var rcpt Receipt
	err := svc.db.WithTx(ctx, func(tx core.DBExecutor) error {
		acct, err := svc.repo.GetAccount(ctx, tx, np.StudentID, true /* forUpdate */)
		if err != nil {
			return errors.Wrap(err, "loading fee account")
		}

		priorPaid, err := svc.repo.SumPayments(ctx, tx, np.StudentID)
		if err != nil {
			return errors.Wrap(err, "summing payments")
		}

		newPaid := priorPaid.Add(np.Amount)
		if newPaid.GreaterThan(acct.TotalFee) {
			svc.observer.OverpaymentRejected()
			svc.logger.Warn(fmt.Sprintf(
				"overpayment rejected: student %d, total fee %s, paid %s, attempted %s",
				acct.StudentID, acct.TotalFee, priorPaid, np.Amount,
			))
			return errors.WithStack(ErrOverpayment)
		}

		status := DeriveStatus(newPaid, acct.TotalFee)
		p, err := svc.repo.InsertPayment(ctx, tx, Payment{
			ReceiptNo:     uuid.New(),
			StudentID:     acct.StudentID,
			AmountPaid:    np.Amount,
			PaymentDate:   np.PaymentDate,
			PaymentMethod: np.PaymentMethod,
			Remarks:       np.Remarks,
			FeeStatus:     status,
		})
		if err != nil {
			return errors.Wrap(err, "inserting payment")
		}

		if status != acct.FeeStatus {
			if err = svc.repo.SetFeeStatus(ctx, tx, acct.StudentID, status); err != nil {
				return errors.Wrap(err, "setting fee status")
			}
		}

		rcpt = Receipt{
			ReceiptNo:   p.ReceiptNo,
			PaymentID:   p.ID,
			StudentID:   p.StudentID,
			AmountPaid:  p.AmountPaid,
			NewBalance:  acct.TotalFee.Sub(newPaid),
			FeeStatus:   status,
			PaymentDate: p.PaymentDate,
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	svc.observer.PaymentRecorded(np.PaymentMethod, np.Amount)
	return rcpt, nil
}

func (svc *Service) GetDue(ctx context.Context, studentID int) (DueSummary, error) {
	var due DueSummary
	err := svc.db.WithSession(ctx, func(exec core.DBExecutor) error {
		var err error
		due, err = svc.getDue(ctx, exec, studentID)
		return err
	})
	return due, err
}

func (svc *Service) getDue(ctx context.Context, exec core.DBExecutor, studentID int) (DueSummary, error) {
	acct, err := svc.repo.GetAccount(ctx, exec, studentID, false)
	if err != nil {
		return DueSummary{}, errors.Wrap(err, "loading fee account")
	}
	paid, err := svc.repo.SumPayments(ctx, exec, studentID)
	if err != nil {
		return DueSummary{}, errors.Wrap(err, "summing payments")
	}

	due := acct.TotalFee.Sub(paid)
	if due.IsNegative() {
		return DueSummary{}, errors.Errorf(
			"ledger invariant broken: student %d paid %s over a total fee of %s", studentID, paid, acct.TotalFee,
		)
	}

	return DueSummary{
		StudentID:  acct.StudentID,
		FullName:   acct.FullName,
		Grade:      acct.Grade,
		TotalFee:   acct.TotalFee,
		AmountPaid: paid,
		DueAmount:  due,
		FeeStatus:  acct.FeeStatus,
	}, nil
}

func (svc *Service) GetStatement(ctx context.Context, studentID int) (Statement, error) {
	var stmt Statement
	err := svc.db.WithSession(ctx, func(exec core.DBExecutor) error {
		due, err := svc.getDue(ctx, exec, studentID)
		if err != nil {
			return err
		}
		payments, err := svc.repo.QueryPayments(ctx, exec, studentID)
		if err != nil {
			return errors.Wrap(err, "querying payments")
		}
		if payments == nil {
			payments = []Payment{}
		}
		stmt = Statement{DueSummary: due, Payments: payments}
		return nil
	})
	return stmt, err
}

// NopObserver ignores ledger outcomes.
type NopObserver struct{}

func (NopObserver) PaymentRecorded(string, decimal.Decimal) {}
func (NopObserver) OverpaymentRejected()                    {}
