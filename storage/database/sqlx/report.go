package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/report"
)

// results of the students of a grade for an exam
const gradeResultsFrom = `FROM exam_results r JOIN students s ON s.student_id = r.student_id
	WHERE s.grade = $1 AND r.exam_id = $2`

type reportRepository struct{}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository() *reportRepository {
	return &reportRepository{}
}

func (reportRepository) QueryCollectedPayments(ctx context.Context, exec core.DBExecutor, start, end core.Date) ([]report.CollectedPayment, error) {
	q := `SELECT p.payment_id, p.student_id, s.full_name, p.amount_paid, p.payment_date, p.payment_method, p.remarks
		FROM fee_payments p JOIN students s ON s.student_id = p.student_id
		WHERE p.payment_date BETWEEN $1 AND $2
		ORDER BY p.payment_date, p.payment_id`

	payments := make([]report.CollectedPayment, 0)
	if err := sqlx.SelectContext(ctx, exec, &payments, q, start, end); err != nil {
		return nil, storeErr(err, "querying collected payments")
	}
	return payments, nil
}

func (reportRepository) GetExamName(ctx context.Context, exec core.DBExecutor, examID int) (string, error) {
	var name string
	if err := sqlx.GetContext(ctx, exec, &name, `SELECT exam_name FROM exams WHERE exam_id = $1`, examID); err != nil {
		return "", trapNoRowsErr(err, report.ErrExamNotFound, "getting exam")
	}
	return name, nil
}

func (reportRepository) QuerySubjectAverages(ctx context.Context, exec core.DBExecutor, grade string, examID int) ([]report.SubjectAverage, error) {
	q := `SELECT sub.subject_id, sub.subject_name AS subject, AVG(r.marks_obtained) AS average
		FROM exam_results r
		JOIN students s ON s.student_id = r.student_id
		JOIN subjects sub ON sub.subject_id = r.subject_id
		WHERE s.grade = $1 AND r.exam_id = $2
		GROUP BY sub.subject_id, sub.subject_name
		ORDER BY sub.subject_name, sub.subject_id`

	avgs := make([]report.SubjectAverage, 0)
	if err := sqlx.SelectContext(ctx, exec, &avgs, q, grade, examID); err != nil {
		return nil, storeErr(err, "querying subject averages")
	}
	return avgs, nil
}

func (reportRepository) QueryStudentAggregates(ctx context.Context, exec core.DBExecutor, grade string, examID int) ([]report.StudentAggregate, error) {
	q := `SELECT s.student_id, s.full_name, SUM(r.marks_obtained) AS marks_obtained, SUM(r.total_marks) AS total_marks
		` + gradeResultsFrom + `
		GROUP BY s.student_id, s.full_name
		ORDER BY s.student_id`

	aggs := make([]report.StudentAggregate, 0)
	if err := sqlx.SelectContext(ctx, exec, &aggs, q, grade, examID); err != nil {
		return nil, storeErr(err, "querying student aggregates")
	}
	return aggs, nil
}

func (reportRepository) CountLetterGrades(ctx context.Context, exec core.DBExecutor, grade string, examID int) (map[string]int, error) {
	q := `SELECT COALESCE(r.grade, '') AS key, COUNT(*) AS count
		` + gradeResultsFrom + `
		GROUP BY r.grade`

	var rows []statusCount
	if err := sqlx.SelectContext(ctx, exec, &rows, q, grade, examID); err != nil {
		return nil, storeErr(err, "counting letter grades")
	}
	dist := make(map[string]int, len(rows))
	for _, r := range rows {
		dist[r.Key] += r.Count
	}
	return dist, nil
}

func (reportRepository) OverallAverage(ctx context.Context, exec core.DBExecutor, grade string, examID int) (decimal.Decimal, error) {
	var avg decimal.Decimal
	q := `SELECT COALESCE(AVG(r.marks_obtained), 0) ` + gradeResultsFrom
	if err := sqlx.GetContext(ctx, exec, &avg, q, grade, examID); err != nil {
		return decimal.Zero, storeErr(err, "computing overall average")
	}
	return avg, nil
}
