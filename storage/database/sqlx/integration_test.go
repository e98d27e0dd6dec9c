package sqlxrepos

import (
	"context"
	_ "embed"
	"os"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/storage/database"
	"github.com/trezcool/shule/tests"
)

//go:embed schema.sql
var schema string

// prepareDB connects to TEST_DATABASE_URL, applies the schema and empties the tables.
func prepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	db.MustExec(schema)
	db.MustExec(`TRUNCATE notifications, exam_results, exams, subjects, attendance, fee_payments, students, users RESTART IDENTITY CASCADE`)
	return db
}

func TestIntegration_ConcurrentPayments(t *testing.T) {
	db := prepareDB(t)
	ctx := context.Background()
	gw := database.NewGateway(db)

	studentSvc := student.NewService(gw, NewStudentRepository())
	s, err := studentSvc.Create(ctx, student.NewStudent{FullName: "Jane Doe", Grade: "5", TotalFee: "10000"})
	require.NoError(t, err)
	assert.Equal(t, fee.StatusPending, s.FeeStatus)

	feeSvc := fee.NewService(gw, NewFeeRepository(), fee.NopObserver{}, &testutil.Logger{})

	// 8 payments of 2000 against a total fee of 10000: exactly 5 may succeed.
	var (
		wg                 sync.WaitGroup
		mu                 sync.Mutex
		succeeded, refused int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := feeSvc.RecordPayment(ctx, fee.NewPayment{
				StudentID:     s.ID,
				Amount:        decimal.NewFromInt(2000),
				PaymentMethod: "cash",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case core.IsStoreUnavailable(err):
				t.Errorf("RecordPayment() store error: %v", err)
			default:
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 3, refused)

	due, err := feeSvc.GetDue(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, due.DueAmount.IsZero())
	assert.Equal(t, fee.StatusCompleted, due.FeeStatus)
}
