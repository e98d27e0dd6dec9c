package fee_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/tests"
)

type recordingObserver struct {
	mu       sync.Mutex
	recorded []string
	rejected int
}

func (o *recordingObserver) PaymentRecorded(method string, amount decimal.Decimal) {
	o.mu.Lock()
	o.recorded = append(o.recorded, method+":"+amount.String())
	o.mu.Unlock()
}

func (o *recordingObserver) OverpaymentRejected() {
	o.mu.Lock()
	o.rejected++
	o.mu.Unlock()
}

func newService(t *testing.T) (*fee.Service, *testutil.FeeRepository, *recordingObserver, *testutil.Logger) {
	t.Helper()
	repo := testutil.NewFeeRepository()
	obs := new(recordingObserver)
	logger := new(testutil.Logger)
	return fee.NewService(new(testutil.Gateway), repo, obs, logger), repo, obs, logger
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		paid, total string
		want        fee.Status
	}{
		{"0", "0", fee.StatusCompleted},
		{"0", "10000", fee.StatusPending},
		{"9999.99", "10000", fee.StatusPending},
		{"10000", "10000", fee.StatusCompleted},
		{"10000.00", "10000", fee.StatusCompleted},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fee.DeriveStatus(amount(tt.paid), amount(tt.total)), "paid %s of %s", tt.paid, tt.total)
	}
}

func TestService_RecordPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("overpayment then settlement", func(t *testing.T) {
		svc, repo, obs, logger := newService(t)
		repo.AddAccount(1, "Jane Doe", amount("10000"), amount("9000"))

		_, err := svc.RecordPayment(ctx, fee.NewPayment{StudentID: 1, Amount: amount("1500"), PaymentMethod: "cash"})
		require.Error(t, err)
		assert.Equal(t, fee.ErrOverpayment, pkgerrors.Cause(err))
		assert.Equal(t, 1, repo.PaymentCount(1), "no payment must be written")
		assert.Equal(t, fee.StatusPending, repo.Account(1).FeeStatus)
		assert.Equal(t, 1, obs.rejected)
		require.Len(t, logger.Entries, 1)
		assert.Contains(t, logger.Entries[0], "WARN: overpayment rejected: student 1")

		rcpt, err := svc.RecordPayment(ctx, fee.NewPayment{StudentID: 1, Amount: amount("1000"), PaymentMethod: "Card"})
		require.NoError(t, err)
		assert.Equal(t, 1, rcpt.StudentID)
		assert.True(t, rcpt.AmountPaid.Equal(amount("1000")))
		assert.True(t, rcpt.NewBalance.IsZero())
		assert.Equal(t, fee.StatusCompleted, rcpt.FeeStatus)
		assert.NotEmpty(t, rcpt.ReceiptNo.String())
		assert.Equal(t, fee.StatusCompleted, repo.Account(1).FeeStatus)
		assert.Equal(t, []string{"card:1000"}, obs.recorded)

		due, err := svc.GetDue(ctx, 1)
		require.NoError(t, err)
		assert.True(t, due.AmountPaid.Equal(amount("10000")))
		assert.True(t, due.DueAmount.IsZero())
		assert.Equal(t, fee.StatusCompleted, due.FeeStatus)
	})

	t.Run("partial payment keeps status pending", func(t *testing.T) {
		svc, repo, _, _ := newService(t)
		repo.AddAccount(2, "John Doe", amount("5000"), decimal.Zero)

		rcpt, err := svc.RecordPayment(ctx, fee.NewPayment{StudentID: 2, Amount: amount("1250.50"), PaymentMethod: "transfer"})
		require.NoError(t, err)
		assert.Equal(t, "3749.5", rcpt.NewBalance.String())
		assert.Equal(t, fee.StatusPending, rcpt.FeeStatus)

		due, err := svc.GetDue(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "1250.5", due.AmountPaid.String())
		assert.Equal(t, "3749.5", due.DueAmount.String())
	})

	t.Run("payment date defaults to today", func(t *testing.T) {
		testutil.FreezeTime(t, time.Date(2024, 3, 5, 22, 30, 0, 0, time.UTC))
		svc, repo, _, _ := newService(t)
		repo.AddAccount(3, "Ann", amount("100"), decimal.Zero)

		rcpt, err := svc.RecordPayment(ctx, fee.NewPayment{StudentID: 3, Amount: amount("10"), PaymentMethod: "cash"})
		require.NoError(t, err)
		assert.Equal(t, "2024-03-05", rcpt.PaymentDate.String())

		rcpt, err = svc.RecordPayment(ctx, fee.NewPayment{
			StudentID:     3,
			Amount:        amount("10"),
			PaymentMethod: "cash",
			PaymentDate:   core.MustParseDate("2024-02-01"),
		})
		require.NoError(t, err)
		assert.Equal(t, "2024-02-01", rcpt.PaymentDate.String())
	})

	t.Run("sub-cent amount cannot leave a settled fee pending", func(t *testing.T) {
		svc, repo, _, _ := newService(t)
		repo.AddAccount(4, "Ann", amount("100"), amount("99.99"))

		_, err := svc.RecordPayment(ctx, fee.NewPayment{StudentID: 4, Amount: amount("0.006"), PaymentMethod: "cash"})
		assert.EqualError(t, err, "payment_amount: must have at most 2 decimal places")
		assert.Equal(t, 1, repo.PaymentCount(4))
		assert.Equal(t, fee.StatusPending, repo.Account(4).FeeStatus)

		rcpt, err := svc.RecordPayment(ctx, fee.NewPayment{StudentID: 4, Amount: amount("0.01"), PaymentMethod: "cash"})
		require.NoError(t, err)
		assert.True(t, rcpt.NewBalance.IsZero())
		assert.Equal(t, fee.StatusCompleted, repo.Account(4).FeeStatus)
	})

	t.Run("unknown student", func(t *testing.T) {
		svc, _, _, _ := newService(t)
		_, err := svc.RecordPayment(ctx, fee.NewPayment{StudentID: 404, Amount: amount("10"), PaymentMethod: "cash"})
		assert.True(t, core.IsNotFound(err))
		assert.EqualError(t, err, "loading fee account: student not found")
	})

	t.Run("invalid payment", func(t *testing.T) {
		svc, _, _, _ := newService(t)
		tests := []struct {
			name      string
			np        fee.NewPayment
			wantField string
		}{
			{"no student", fee.NewPayment{Amount: amount("10"), PaymentMethod: "cash"}, "student_id"},
			{"zero amount", fee.NewPayment{StudentID: 1, Amount: decimal.Zero, PaymentMethod: "cash"}, "payment_amount"},
			{"negative amount", fee.NewPayment{StudentID: 1, Amount: amount("-5"), PaymentMethod: "cash"}, "payment_amount"},
			{"sub-cent amount", fee.NewPayment{StudentID: 1, Amount: amount("0.006"), PaymentMethod: "cash"}, "payment_amount"},
			{"amount below a cent", fee.NewPayment{StudentID: 1, Amount: amount("0.0001"), PaymentMethod: "cash"}, "payment_amount"},
			{"no method", fee.NewPayment{StudentID: 1, Amount: amount("10"), PaymentMethod: "  "}, "payment_method"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.RecordPayment(ctx, tt.np)
				vErr, ok := err.(*core.ValidationError)
				require.True(t, ok, "want *core.ValidationError, got %T", err)
				require.Len(t, vErr.Fields, 1)
				assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
			})
		}
	})

	t.Run("store failure", func(t *testing.T) {
		svc, repo, obs, _ := newService(t)
		repo.AddAccount(1, "Jane Doe", amount("100"), decimal.Zero)
		repo.Err = errors.New("pq: connection refused")

		_, err := svc.RecordPayment(ctx, fee.NewPayment{StudentID: 1, Amount: amount("10"), PaymentMethod: "cash"})
		assert.True(t, core.IsStoreUnavailable(err))
		assert.Empty(t, obs.recorded)
	})
}

func TestService_RecordPayment_Concurrent(t *testing.T) {
	ctx := context.Background()
	svc, repo, obs, _ := newService(t)
	repo.AddAccount(1, "Jane Doe", amount("10000"), decimal.Zero)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordPayment(ctx, fee.NewPayment{StudentID: 1, Amount: amount("2000"), PaymentMethod: "cash"})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, accepted)
	assert.Equal(t, 3, obs.rejected)
	due, err := svc.GetDue(ctx, 1)
	require.NoError(t, err)
	assert.True(t, due.DueAmount.IsZero())
	assert.Equal(t, fee.StatusCompleted, due.FeeStatus)
}

func TestService_GetDue(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown student", func(t *testing.T) {
		svc, _, _, _ := newService(t)
		_, err := svc.GetDue(ctx, 9)
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("broken invariant is reported, not clamped", func(t *testing.T) {
		svc, repo, _, _ := newService(t)
		repo.AddAccount(1, "Jane Doe", amount("100"), amount("150"))

		_, err := svc.GetDue(ctx, 1)
		require.Error(t, err)
		assert.False(t, core.IsNotFound(err))
		assert.Contains(t, err.Error(), "ledger invariant broken")
	})
}

func TestService_GetStatement(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newService(t)
	repo.AddAccount(1, "Jane Doe", amount("1000"), amount("100"))
	repo.AddAccount(2, "John Doe", amount("1000"), decimal.Zero)

	_, err := svc.RecordPayment(ctx, fee.NewPayment{
		StudentID:     1,
		Amount:        amount("200"),
		PaymentMethod: "card",
		PaymentDate:   core.MustParseDate("2024-03-01"),
	})
	require.NoError(t, err)

	stmt, err := svc.GetStatement(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", stmt.FullName)
	assert.Equal(t, "700", stmt.DueAmount.String())
	require.Len(t, stmt.Payments, 2)
	assert.Equal(t, "2024-03-01", stmt.Payments[0].PaymentDate.String(), "newest first")
	assert.Equal(t, "2024-01-15", stmt.Payments[1].PaymentDate.String())

	stmt, err = svc.GetStatement(ctx, 2)
	require.NoError(t, err)
	assert.NotNil(t, stmt.Payments)
	assert.Empty(t, stmt.Payments)
}
