package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
)

// FeeRepository is an in-memory fee.Repository.
type FeeRepository struct {
	mu       sync.Mutex
	lastID   int
	accounts map[int]fee.Account
	payments map[int][]fee.Payment

	// Err, when set, is returned by every method as a store failure.
	Err error
}

var _ fee.Repository = (*FeeRepository)(nil)

func NewFeeRepository() *FeeRepository {
	return &FeeRepository{
		accounts: make(map[int]fee.Account),
		payments: make(map[int][]fee.Payment),
	}
}

// AddAccount registers a student owing totalFee, with already paid recorded as a single prior payment.
func (repo *FeeRepository) AddAccount(studentID int, fullName string, totalFee, paid decimal.Decimal) fee.Account {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	acct := fee.Account{
		StudentID: studentID,
		FullName:  fullName,
		Grade:     "5",
		TotalFee:  totalFee,
		FeeStatus: fee.DeriveStatus(paid, totalFee),
	}
	repo.accounts[studentID] = acct
	if paid.IsPositive() {
		repo.insert(fee.Payment{
			StudentID:     studentID,
			AmountPaid:    paid,
			PaymentDate:   core.MustParseDate("2024-01-15"),
			PaymentMethod: "cash",
			FeeStatus:     acct.FeeStatus,
		})
	}
	return acct
}

// Account returns the stored account of a student.
func (repo *FeeRepository) Account(studentID int) fee.Account {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.accounts[studentID]
}

// PaymentCount returns the number of payments stored for a student.
func (repo *FeeRepository) PaymentCount(studentID int) int {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return len(repo.payments[studentID])
}

func (repo *FeeRepository) storeErr() error {
	if repo.Err != nil {
		return core.NewStoreError(repo.Err)
	}
	return nil
}

func (repo *FeeRepository) GetAccount(_ context.Context, _ core.DBExecutor, studentID int, _ bool) (fee.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if err := repo.storeErr(); err != nil {
		return fee.Account{}, err
	}
	acct, ok := repo.accounts[studentID]
	if !ok {
		return fee.Account{}, errors.WithStack(fee.ErrStudentNotFound)
	}
	return acct, nil
}

func (repo *FeeRepository) SumPayments(_ context.Context, _ core.DBExecutor, studentID int) (decimal.Decimal, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if err := repo.storeErr(); err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, p := range repo.payments[studentID] {
		sum = sum.Add(p.AmountPaid)
	}
	return sum, nil
}

func (repo *FeeRepository) InsertPayment(_ context.Context, _ core.DBExecutor, p fee.Payment) (fee.Payment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if err := repo.storeErr(); err != nil {
		return fee.Payment{}, err
	}
	return repo.insert(p), nil
}

func (repo *FeeRepository) insert(p fee.Payment) fee.Payment {
	repo.lastID++
	p.ID = repo.lastID
	p.CreatedAt = time.Now().UTC()
	repo.payments[p.StudentID] = append(repo.payments[p.StudentID], p)
	return p
}

func (repo *FeeRepository) SetFeeStatus(_ context.Context, _ core.DBExecutor, studentID int, status fee.Status) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if err := repo.storeErr(); err != nil {
		return err
	}
	acct, ok := repo.accounts[studentID]
	if !ok {
		return errors.WithStack(fee.ErrStudentNotFound)
	}
	acct.FeeStatus = status
	repo.accounts[studentID] = acct
	return nil
}

func (repo *FeeRepository) QueryPayments(_ context.Context, _ core.DBExecutor, studentID int) ([]fee.Payment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if err := repo.storeErr(); err != nil {
		return nil, err
	}
	payments := make([]fee.Payment, len(repo.payments[studentID]))
	copy(payments, repo.payments[studentID])
	sort.SliceStable(payments, func(i, j int) bool {
		if !payments[i].PaymentDate.Equal(payments[j].PaymentDate.Time) {
			return payments[i].PaymentDate.After(payments[j].PaymentDate.Time)
		}
		return payments[i].ID > payments[j].ID
	})
	return payments, nil
}
