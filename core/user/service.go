package user

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = core.NewRuleError("invalid_credentials", "invalid username or password")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrUsernameExists or ErrEmailExists on conflict.
		CheckUniqueness(ctx context.Context, exec core.DBExecutor, username, email string) error
		CreateUser(ctx context.Context, exec core.DBExecutor, usr User) (User, error)
		GetUserByID(ctx context.Context, exec core.DBExecutor, id int) (User, error)
		GetUserByUsername(ctx context.Context, exec core.DBExecutor, username string) (User, error)
		UpdateLastLogin(ctx context.Context, exec core.DBExecutor, id int, at time.Time) error
		UpdatePassword(ctx context.Context, exec core.DBExecutor, id int, hash []byte) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, creds Credentials) (User, error)
		GetByID(ctx context.Context, id int) (User, error)
		ResetPassword(ctx context.Context, rp ResetPassword) (User, error)
	}

	Service struct {
		db   core.Gateway
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(db core.Gateway, repo Repository) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(db, "db"),
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()

	return &Service{db: db, repo: repo}
}

func uniquenessError(err error) error {
	var field string
	switch errors.Cause(err) {
	case ErrUsernameExists:
		field = "username"
	case ErrEmailExists:
		field = "email"
	default:
		return err
	}
	cause := errors.Cause(err)
	return core.NewValidationError(cause, core.FieldError{Field: field, Error: cause.Error()})
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	usr := User{
		Username:  nu.Username,
		Email:     nu.Email,
		FullName:  nu.FullName,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: core.NowFunc().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	var created User
	err := svc.db.WithTx(ctx, func(tx core.DBExecutor) error {
		if err := svc.repo.CheckUniqueness(ctx, tx, usr.Username, usr.Email); err != nil {
			return uniquenessError(err)
		}
		var err error
		created, err = svc.repo.CreateUser(ctx, tx, usr)
		return errors.Wrap(err, "creating user")
	})
	return created, err
}

// Authenticate checks the credentials and stamps the user's last login.
// Unknown usernames, inactive users and wrong passwords all yield ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	var usr User
	err := svc.db.WithTx(ctx, func(tx core.DBExecutor) error {
		var err error
		usr, err = svc.repo.GetUserByUsername(ctx, tx, creds.Username)
		if err != nil {
			if core.IsNotFound(err) {
				return errors.WithStack(ErrInvalidCredentials)
			}
			return errors.Wrap(err, "getting user")
		}
		if !usr.IsActive || usr.CheckPassword(creds.Password) != nil {
			return errors.WithStack(ErrInvalidCredentials)
		}

		usr.LastLogin = null.TimeFrom(core.NowFunc().UTC())
		return errors.Wrap(svc.repo.UpdateLastLogin(ctx, tx, usr.ID, usr.LastLogin.Time), "updating last login")
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	var usr User
	err := svc.db.WithSession(ctx, func(exec core.DBExecutor) error {
		var err error
		usr, err = svc.repo.GetUserByID(ctx, exec, id)
		return errors.Wrap(err, "getting user")
	})
	return usr, err
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) (User, error) {
	var usr User
	err := svc.db.WithTx(ctx, func(tx core.DBExecutor) error {
		var err error
		if usr, err = svc.repo.GetUserByUsername(ctx, tx, rp.Username); err != nil {
			return errors.Wrap(err, "getting user")
		}
		if err = usr.SetPassword(rp.Password); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		return errors.Wrap(svc.repo.UpdatePassword(ctx, tx, usr.ID, usr.PasswordHash), "updating password")
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}
