package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// Gateway is an in-process core.Gateway for services backed by fake repositories.
// Transactions are serialized. fn always receives a nil session.
type Gateway struct {
	mu sync.Mutex

	// Err, when set, is returned as a store failure instead of running fn.
	Err error

	Sessions int
	Txs      int
}

var _ core.Gateway = (*Gateway)(nil)

func (gw *Gateway) WithSession(_ context.Context, fn func(exec core.DBExecutor) error) error {
	gw.mu.Lock()
	gw.Sessions++
	err := gw.Err
	gw.mu.Unlock()
	if err != nil {
		return core.NewStoreError(err)
	}
	return fn(nil)
}

func (gw *Gateway) WithTx(_ context.Context, fn func(tx core.DBExecutor) error) error {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	gw.Txs++
	if gw.Err != nil {
		return core.NewStoreError(gw.Err)
	}
	return fn(nil)
}

// Logger records log entries as "LEVEL: msg".
type Logger struct {
	mu      sync.Mutex
	Entries []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	l.Entries = append(l.Entries, level+": "+msg)
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }

// EmailService renders and keeps the messages it is asked to send.
type EmailService struct {
	mu   sync.Mutex
	Sent []*core.EmailMessage
}

var _ core.EmailService = (*EmailService)(nil)

func (svc *EmailService) SendMessages(messages ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, msg := range messages {
		if err := msg.Render(); err != nil {
			panic(err)
		}
		svc.Sent = append(svc.Sent, msg)
	}
}

// FreezeTime makes core.NowFunc return now until the end of the test.
func FreezeTime(t *testing.T, now time.Time) {
	t.Helper()
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = time.Now })
}

// UserRepository is an in-memory user.Repository.
type UserRepository struct {
	mu     sync.Mutex
	lastID int
	users  map[int]user.User
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int]user.User)}
}

func (repo *UserRepository) CheckUniqueness(_ context.Context, _ core.DBExecutor, username, email string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, u := range repo.users {
		if u.Username == username {
			return errors.WithStack(user.ErrUsernameExists)
		}
		if u.Email == email {
			return errors.WithStack(user.ErrEmailExists)
		}
	}
	return nil
}

func (repo *UserRepository) CreateUser(_ context.Context, _ core.DBExecutor, usr user.User) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.lastID++
	usr.ID = repo.lastID
	repo.users[usr.ID] = usr
	return usr, nil
}

func (repo *UserRepository) GetUserByID(_ context.Context, _ core.DBExecutor, id int) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if u, ok := repo.users[id]; ok {
		return u, nil
	}
	return user.User{}, errors.WithStack(user.ErrNotFound)
}

func (repo *UserRepository) GetUserByUsername(_ context.Context, _ core.DBExecutor, username string) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, u := range repo.users {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, errors.WithStack(user.ErrNotFound)
}

func (repo *UserRepository) UpdateLastLogin(_ context.Context, _ core.DBExecutor, id int, at time.Time) error {
	return repo.update(id, func(u *user.User) { u.LastLogin.SetValid(at) })
}

func (repo *UserRepository) UpdatePassword(_ context.Context, _ core.DBExecutor, id int, hash []byte) error {
	return repo.update(id, func(u *user.User) { u.PasswordHash = hash })
}

func (repo *UserRepository) update(id int, fn func(u *user.User)) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	u, ok := repo.users[id]
	if !ok {
		return errors.WithStack(user.ErrNotFound)
	}
	fn(&u)
	repo.users[id] = u
	return nil
}

// CreateUser stores an active user with the given password.
func CreateUser(t *testing.T, repo user.Repository, username, pwd, role string) user.User {
	t.Helper()
	usr := user.User{
		Username:  username,
		Email:     username + "@shule.test",
		FullName:  fmt.Sprintf("User %s", username),
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), nil, usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
