package sqlxrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/student"
)

const studentColumns = `student_id, full_name, grade, date_of_birth, gender, email, phone, address, status, total_fee, fee_status, enrollment_date, created_at`

type studentRepository struct{}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository() *studentRepository {
	return &studentRepository{}
}

func (studentRepository) CreateStudent(ctx context.Context, exec core.DBExecutor, s student.Student) (student.Student, error) {
	q := `INSERT INTO students (full_name, grade, date_of_birth, gender, email, phone, address, status, total_fee, fee_status, enrollment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING student_id, created_at`

	err := exec.QueryRowxContext(ctx, q,
		s.FullName, s.Grade, s.DateOfBirth, s.Gender, s.Email, s.Phone, s.Address,
		s.Status, s.TotalFee, s.FeeStatus, s.EnrollmentDate,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return student.Student{}, storeErr(err, "inserting student")
	}
	return s, nil
}

func (studentRepository) GetStudent(ctx context.Context, exec core.DBExecutor, id int) (student.Student, error) {
	var s student.Student
	q := `SELECT ` + studentColumns + ` FROM students WHERE student_id = $1`
	if err := sqlx.GetContext(ctx, exec, &s, q, id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "getting student")
	}
	return s, nil
}

func (studentRepository) UpdateStudent(ctx context.Context, exec core.DBExecutor, s student.Student) (student.Student, error) {
	q := `UPDATE students
		SET full_name = $1, grade = $2, date_of_birth = $3, gender = $4, email = $5, phone = $6, address = $7, status = $8
		WHERE student_id = $9`

	res, err := exec.ExecContext(ctx, q,
		s.FullName, s.Grade, s.DateOfBirth, s.Gender, s.Email, s.Phone, s.Address, s.Status, s.ID,
	)
	if err != nil {
		return student.Student{}, storeErr(err, "updating student")
	}
	if n, err := res.RowsAffected(); err != nil {
		return student.Student{}, storeErr(err, "updating student")
	} else if n == 0 {
		return student.Student{}, errors.WithStack(student.ErrNotFound)
	}
	return s, nil
}

func (studentRepository) QueryStudents(ctx context.Context, exec core.DBExecutor, filter student.QueryFilter) ([]student.Student, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		p := "$" + strconv.Itoa(len(args))
		conds = append(conds, "(full_name ILIKE "+p+" OR grade ILIKE "+p+" OR email ILIKE "+p+" OR phone ILIKE "+p+")")
	}
	if filter.Grade != "" {
		args = append(args, filter.Grade)
		conds = append(conds, "grade = $"+strconv.Itoa(len(args)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + studentColumns + ` FROM students`)
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	for _, ord := range filter.Orderings {
		sb.WriteString(ord.String() + ", ")
	}
	sb.WriteString("student_id ASC")

	students := make([]student.Student, 0)
	if err := sqlx.SelectContext(ctx, exec, &students, sb.String(), args...); err != nil {
		return nil, storeErr(err, "querying students")
	}
	return students, nil
}
