package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/stats"
)

type statsRepository struct{}

var _ stats.Repository = (*statsRepository)(nil) // interface compliance check

func NewStatsRepository() *statsRepository {
	return &statsRepository{}
}

func count(ctx context.Context, exec core.DBExecutor, msg, q string, args ...interface{}) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, exec, &n, q, args...); err != nil {
		return 0, storeErr(err, msg)
	}
	return n, nil
}

func (statsRepository) CountStudents(ctx context.Context, exec core.DBExecutor) (int, error) {
	return count(ctx, exec, "counting students", `SELECT COUNT(*) FROM students`)
}

func (statsRepository) CountAdmissionsSince(ctx context.Context, exec core.DBExecutor, since core.Date) (int, error) {
	return count(ctx, exec, "counting admissions", `SELECT COUNT(*) FROM students WHERE enrollment_date >= $1`, since)
}

func (statsRepository) QueryAdmissionsSince(ctx context.Context, exec core.DBExecutor, since core.Date, limit int) ([]stats.Admission, error) {
	q := `SELECT student_id, full_name, grade, enrollment_date FROM students
		WHERE enrollment_date >= $1
		ORDER BY enrollment_date DESC, student_id DESC
		LIMIT $2`

	admissions := make([]stats.Admission, 0, limit)
	if err := sqlx.SelectContext(ctx, exec, &admissions, q, since, limit); err != nil {
		return nil, storeErr(err, "querying admissions")
	}
	return admissions, nil
}

func (statsRepository) CountPendingFees(ctx context.Context, exec core.DBExecutor) (int, error) {
	return count(ctx, exec, "counting pending fees", `SELECT COUNT(*) FROM students WHERE fee_status = $1`, fee.StatusPending)
}

func (statsRepository) CountAdmissionsByMonth(ctx context.Context, exec core.DBExecutor, year int) (map[time.Month]int, error) {
	q := `SELECT EXTRACT(MONTH FROM enrollment_date)::int AS month, COUNT(*) AS count FROM students
		WHERE EXTRACT(YEAR FROM enrollment_date) = $1
		GROUP BY month`

	var rows []struct {
		Month int `db:"month"`
		Count int `db:"count"`
	}
	if err := sqlx.SelectContext(ctx, exec, &rows, q, year); err != nil {
		return nil, storeErr(err, "counting monthly admissions")
	}
	counts := make(map[time.Month]int, len(rows))
	for _, r := range rows {
		counts[time.Month(r.Month)] = r.Count
	}
	return counts, nil
}

func (statsRepository) QueryRecentPayments(ctx context.Context, exec core.DBExecutor, limit int) ([]stats.RecentPayment, error) {
	q := `SELECT p.payment_id, p.student_id, s.full_name, p.amount_paid, p.payment_method, p.payment_date
		FROM fee_payments p JOIN students s ON s.student_id = p.student_id
		ORDER BY p.payment_date DESC, p.payment_id DESC
		LIMIT $1`

	payments := make([]stats.RecentPayment, 0, limit)
	if err := sqlx.SelectContext(ctx, exec, &payments, q, limit); err != nil {
		return nil, storeErr(err, "querying recent payments")
	}
	return payments, nil
}
