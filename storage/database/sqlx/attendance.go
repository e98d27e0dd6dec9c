package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
)

type attendanceRepository struct{}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository() *attendanceRepository {
	return &attendanceRepository{}
}

func (attendanceRepository) StudentExists(ctx context.Context, exec core.DBExecutor, studentID int) (bool, error) {
	return studentExists(ctx, exec, studentID)
}

func studentExists(ctx context.Context, exec core.DBExecutor, studentID int) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, exec, &exists, `SELECT EXISTS (SELECT 1 FROM students WHERE student_id = $1)`, studentID)
	if err != nil {
		return false, storeErr(err, "checking student")
	}
	return exists, nil
}

func (attendanceRepository) UpsertRecord(ctx context.Context, exec core.DBExecutor, r attendance.Record) (attendance.Record, error) {
	q := `INSERT INTO attendance (student_id, date, status, updated_at) VALUES ($1, $2, $3, NOW())
		ON CONFLICT (student_id, date) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		RETURNING attendance_id, updated_at`

	if err := exec.QueryRowxContext(ctx, q, r.StudentID, r.Date, r.Status).Scan(&r.ID, &r.UpdatedAt); err != nil {
		return attendance.Record{}, storeErr(err, "upserting attendance")
	}
	return r, nil
}

func (attendanceRepository) CountByStatus(ctx context.Context, exec core.DBExecutor, date core.Date) (attendance.Counts, error) {
	q := `SELECT status AS key, COUNT(*) AS count FROM attendance WHERE date = $1 GROUP BY status`
	return countByStatus(ctx, exec, q, date)
}

func (attendanceRepository) CountStudentByStatus(ctx context.Context, exec core.DBExecutor, studentID int, start, end core.Date) (attendance.Counts, error) {
	q := `SELECT status AS key, COUNT(*) AS count FROM attendance
		WHERE student_id = $1 AND date BETWEEN $2 AND $3
		GROUP BY status`
	return countByStatus(ctx, exec, q, studentID, start, end)
}

func countByStatus(ctx context.Context, exec core.DBExecutor, q string, args ...interface{}) (attendance.Counts, error) {
	var rows []statusCount
	if err := sqlx.SelectContext(ctx, exec, &rows, q, args...); err != nil {
		return nil, storeErr(err, "counting attendance")
	}
	counts := make(attendance.Counts, len(rows))
	for _, r := range rows {
		counts[attendance.Status(r.Key)] = r.Count
	}
	return counts, nil
}
