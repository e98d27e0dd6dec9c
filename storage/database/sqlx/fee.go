package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
)

const (
	feeAccountQuery = `SELECT student_id, full_name, grade, total_fee, fee_status FROM students WHERE student_id = $1`

	paymentColumns = `payment_id, receipt_no, student_id, amount_paid, payment_date, payment_method, remarks, fee_status, created_at`
)

type feeRepository struct{}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository() *feeRepository {
	return &feeRepository{}
}

func (feeRepository) GetAccount(ctx context.Context, exec core.DBExecutor, studentID int, forUpdate bool) (fee.Account, error) {
	q := feeAccountQuery
	if forUpdate {
		q += " FOR UPDATE"
	}

	var acct fee.Account
	if err := sqlx.GetContext(ctx, exec, &acct, q, studentID); err != nil {
		return fee.Account{}, trapNoRowsErr(err, fee.ErrStudentNotFound, "getting fee account")
	}
	return acct, nil
}

func (feeRepository) SumPayments(ctx context.Context, exec core.DBExecutor, studentID int) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := sqlx.GetContext(ctx, exec, &sum,
		`SELECT COALESCE(SUM(amount_paid), 0) FROM fee_payments WHERE student_id = $1`, studentID)
	if err != nil {
		return decimal.Zero, storeErr(err, "summing payments")
	}
	return sum, nil
}

func (feeRepository) InsertPayment(ctx context.Context, exec core.DBExecutor, p fee.Payment) (fee.Payment, error) {
	q := `INSERT INTO fee_payments (receipt_no, student_id, amount_paid, payment_date, payment_method, remarks, fee_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING payment_id, created_at`

	err := exec.QueryRowxContext(ctx, q,
		p.ReceiptNo, p.StudentID, p.AmountPaid, p.PaymentDate, p.PaymentMethod, p.Remarks, p.FeeStatus,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fee.Payment{}, storeErr(err, "inserting payment")
	}
	return p, nil
}

func (feeRepository) SetFeeStatus(ctx context.Context, exec core.DBExecutor, studentID int, status fee.Status) error {
	_, err := exec.ExecContext(ctx, `UPDATE students SET fee_status = $1 WHERE student_id = $2`, status, studentID)
	return storeErr(err, "updating fee status")
}

func (feeRepository) QueryPayments(ctx context.Context, exec core.DBExecutor, studentID int) ([]fee.Payment, error) {
	payments := make([]fee.Payment, 0)
	q := `SELECT ` + paymentColumns + ` FROM fee_payments WHERE student_id = $1 ORDER BY payment_date DESC, payment_id DESC`
	if err := sqlx.SelectContext(ctx, exec, &payments, q, studentID); err != nil {
		return nil, storeErr(err, "querying payments")
	}
	return payments, nil
}
