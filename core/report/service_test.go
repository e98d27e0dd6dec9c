package report_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/tests"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// aggregate builds a StudentAggregate scoring pct percent out of 100 marks.
func aggregate(id int, name, pct string) report.StudentAggregate {
	return report.StudentAggregate{StudentID: id, FullName: name, MarksObtained: dec(pct), TotalMarks: dec("100")}
}

type reportRepo struct {
	exams    map[int]string
	payments []report.CollectedPayment
	averages []report.SubjectAverage
	aggs     []report.StudentAggregate
	letters  map[string]int
	overall  decimal.Decimal
}

func (r *reportRepo) QueryCollectedPayments(context.Context, core.DBExecutor, core.Date, core.Date) ([]report.CollectedPayment, error) {
	return r.payments, nil
}

func (r *reportRepo) GetExamName(_ context.Context, _ core.DBExecutor, examID int) (string, error) {
	name, ok := r.exams[examID]
	if !ok {
		return "", errors.WithStack(report.ErrExamNotFound)
	}
	return name, nil
}

func (r *reportRepo) QuerySubjectAverages(context.Context, core.DBExecutor, string, int) ([]report.SubjectAverage, error) {
	return r.averages, nil
}

func (r *reportRepo) QueryStudentAggregates(context.Context, core.DBExecutor, string, int) ([]report.StudentAggregate, error) {
	return r.aggs, nil
}

func (r *reportRepo) CountLetterGrades(context.Context, core.DBExecutor, string, int) (map[string]int, error) {
	return r.letters, nil
}

func (r *reportRepo) OverallAverage(context.Context, core.DBExecutor, string, int) (decimal.Decimal, error) {
	return r.overall, nil
}

func newService(repo report.Repository) *report.Service {
	return report.NewService(new(testutil.Gateway), repo, report.Options{TopPerformers: 5, PassMark: 40})
}

func TestPassRate(t *testing.T) {
	tests := []struct {
		name       string
		pcts       []string
		wantPassed int
		wantPct    string
	}{
		{name: "no students", wantPct: "0"},
		{name: "boundary is a pass", pcts: []string{"90", "39.9", "40", "55"}, wantPassed: 3, wantPct: "75"},
		{name: "thirds", pcts: []string{"80", "20", "30"}, wantPassed: 1, wantPct: "33.33"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var aggs []report.StudentAggregate
			for i, p := range tt.pcts {
				aggs = append(aggs, aggregate(i+1, "", p))
			}
			passed, pct := report.PassRate(aggs, dec("40"))
			assert.Equal(t, tt.wantPassed, passed)
			assert.True(t, pct.Equal(dec(tt.wantPct)), "pct = %s; want %s", pct, tt.wantPct)
		})
	}
}

func TestStudentAggregate_Percentage(t *testing.T) {
	sa := report.StudentAggregate{MarksObtained: dec("79.8"), TotalMarks: dec("200")}
	assert.True(t, sa.Percentage().Equal(dec("39.9")))

	assert.True(t, report.StudentAggregate{}.Percentage().IsZero(), "no marks yields 0")
}

func TestTopPerformers(t *testing.T) {
	aggs := []report.StudentAggregate{
		aggregate(1, "A", "70"),
		aggregate(2, "B", "85"),
		aggregate(3, "C", "70"),
		aggregate(4, "D", "92.456"),
		aggregate(5, "E", "70"),
		aggregate(6, "F", "10"),
		aggregate(7, "G", "70"),
	}

	top := report.TopPerformers(aggs, 5)
	require.Len(t, top, 5)
	var ids []int
	for _, p := range top {
		ids = append(ids, p.StudentID)
	}
	assert.Equal(t, []int{4, 2, 1, 3, 5}, ids, "ties keep their input order")
	assert.Equal(t, "92.46", top[0].Percentage.String())
	assert.Equal(t, 1, aggs[0].StudentID, "input is left untouched")

	assert.Len(t, report.TopPerformers(aggs[:2], 5), 2)
	assert.NotNil(t, report.TopPerformers(nil, 5))
}

func TestBuildCollectionReport(t *testing.T) {
	start, end := core.MustParseDate("2024-01-01"), core.MustParseDate("2024-01-31")

	t.Run("empty range", func(t *testing.T) {
		rpt := report.BuildCollectionReport(start, end, nil)
		assert.True(t, rpt.TotalCollected.IsZero())
		assert.Equal(t, 0, rpt.TotalTransactions)
		assert.NotNil(t, rpt.PaymentMethods)
		assert.Empty(t, rpt.PaymentMethods)
		assert.NotNil(t, rpt.Payments)
	})

	t.Run("breakdown by method", func(t *testing.T) {
		rpt := report.BuildCollectionReport(start, end, []report.CollectedPayment{
			{PaymentID: 1, AmountPaid: dec("1000"), PaymentMethod: "cash"},
			{PaymentID: 2, AmountPaid: dec("250.50"), PaymentMethod: "card"},
			{PaymentID: 3, AmountPaid: dec("500"), PaymentMethod: "cash"},
		})
		assert.Equal(t, "1750.5", rpt.TotalCollected.String())
		assert.Equal(t, 3, rpt.TotalTransactions)
		require.Len(t, rpt.PaymentMethods, 2)
		assert.Equal(t, "1500", rpt.PaymentMethods["cash"].String())
		assert.Equal(t, "250.5", rpt.PaymentMethods["card"].String())
	})
}

func TestService_FeeCollection(t *testing.T) {
	svc := newService(new(reportRepo))

	rpt, err := svc.FeeCollection(context.Background(), core.MustParseDate("2024-01-01"), core.MustParseDate("2024-01-31"))
	require.NoError(t, err)
	assert.Equal(t, 0, rpt.TotalTransactions)

	_, err = svc.FeeCollection(context.Background(), core.MustParseDate("2024-02-01"), core.MustParseDate("2024-01-31"))
	assert.EqualError(t, err, "end_date: must not be before start_date")
}

func TestService_ClassPerformance(t *testing.T) {
	ctx := context.Background()
	repo := &reportRepo{
		exams: map[int]string{3: "Mid Term"},
		averages: []report.SubjectAverage{
			{Subject: "Math", Average: dec("71.666666")},
			{Subject: "English", Average: dec("64")},
		},
		aggs: []report.StudentAggregate{
			aggregate(1, "A", "90"),
			aggregate(2, "B", "39.9"),
			aggregate(3, "C", "40"),
			aggregate(4, "D", "55"),
		},
		letters: map[string]int{"A": 1, "C": 2, "F": 1},
		overall: dec("56.225"),
	}
	svc := newService(repo)

	t.Run("report", func(t *testing.T) {
		rpt, err := svc.ClassPerformance(ctx, " 5 ", 3)
		require.NoError(t, err)
		assert.Equal(t, "5", rpt.Grade)
		assert.Equal(t, "Mid Term", rpt.ExamName)
		assert.Equal(t, "71.67", rpt.SubjectAverages[0].Average.String())
		assert.Equal(t, "56.23", rpt.OverallAverage.String())
		assert.Equal(t, 4, rpt.TotalStudents)
		assert.Equal(t, 3, rpt.PassedStudents)
		assert.True(t, rpt.PassPercentage.Equal(dec("75")))
		require.Len(t, rpt.TopPerformers, 4)
		assert.Equal(t, 1, rpt.TopPerformers[0].StudentID)
		assert.Equal(t, 2, rpt.TopPerformers[3].StudentID)
		assert.Equal(t, map[string]int{"A": 1, "C": 2, "F": 1}, rpt.GradeDistribution)
	})

	t.Run("unknown exam", func(t *testing.T) {
		_, err := svc.ClassPerformance(ctx, "5", 99)
		assert.True(t, core.IsNotFound(err))
		assert.EqualError(t, err, "getting exam: exam not found")
	})

	t.Run("grade required", func(t *testing.T) {
		_, err := svc.ClassPerformance(ctx, "  ", 3)
		assert.EqualError(t, err, "grade: this field is required")
	})

	t.Run("no results", func(t *testing.T) {
		rpt, err := newService(&reportRepo{exams: map[int]string{3: "Mid Term"}}).ClassPerformance(ctx, "5", 3)
		require.NoError(t, err)
		assert.Equal(t, 0, rpt.TotalStudents)
		assert.True(t, rpt.PassPercentage.IsZero())
		assert.NotNil(t, rpt.SubjectAverages)
		assert.NotNil(t, rpt.TopPerformers)
		assert.NotNil(t, rpt.GradeDistribution)
	})
}
