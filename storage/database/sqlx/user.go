package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

const userColumns = `user_id, username, email, full_name, role, is_active, password_hash, created_at, last_login`

type userRepository struct{}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository() *userRepository {
	return &userRepository{}
}

func (userRepository) CheckUniqueness(ctx context.Context, exec core.DBExecutor, username, email string) error {
	var taken struct {
		Username bool `db:"username"`
		Email    bool `db:"email"`
	}
	q := `SELECT
		EXISTS (SELECT 1 FROM users WHERE username = $1) AS username,
		EXISTS (SELECT 1 FROM users WHERE email = $2) AS email`
	if err := sqlx.GetContext(ctx, exec, &taken, q, username, email); err != nil {
		return storeErr(err, "checking user uniqueness")
	}

	switch {
	case taken.Username:
		return errors.WithStack(user.ErrUsernameExists)
	case taken.Email:
		return errors.WithStack(user.ErrEmailExists)
	}
	return nil
}

func (userRepository) CreateUser(ctx context.Context, exec core.DBExecutor, usr user.User) (user.User, error) {
	q := `INSERT INTO users (username, email, full_name, role, is_active, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING user_id`

	err := exec.QueryRowxContext(ctx, q,
		usr.Username, usr.Email, usr.FullName, usr.Role, usr.IsActive, usr.PasswordHash, usr.CreatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, storeErr(err, "inserting user")
	}
	return usr, nil
}

func (userRepository) GetUserByID(ctx context.Context, exec core.DBExecutor, id int) (user.User, error) {
	var usr user.User
	q := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	if err := sqlx.GetContext(ctx, exec, &usr, q, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return usr, nil
}

func (userRepository) GetUserByUsername(ctx context.Context, exec core.DBExecutor, username string) (user.User, error) {
	var usr user.User
	q := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	if err := sqlx.GetContext(ctx, exec, &usr, q, username); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return usr, nil
}

func (userRepository) UpdateLastLogin(ctx context.Context, exec core.DBExecutor, id int, at time.Time) error {
	_, err := exec.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE user_id = $2`, at, id)
	return storeErr(err, "updating last login")
}

func (userRepository) UpdatePassword(ctx context.Context, exec core.DBExecutor, id int, hash []byte) error {
	_, err := exec.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE user_id = $2`, hash, id)
	return storeErr(err, "updating password")
}
