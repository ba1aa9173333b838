package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/partier/partier/internal/utils"
)

// User mirrors the 'users' table.  PasswordHash is never serialized.
type User struct {
	ID           uint64 `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	IsOrganizer  bool   `json:"isOrganizer"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var (
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

// dupUserKeyError maps a MySQL duplicate-key violation (error 1062) on the
// users table to the sentinel for the unique key it hit.  The index name is
// only present in the error message, so this is string matching like the
// 1062 detection itself.  Returns nil for anything that is not a
// duplicate-key error.
func dupUserKeyError(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return nil
	}
	if strings.Contains(msg, "uq_users_email") {
		return ErrEmailExists
	}
	return ErrUsernameExists
}

const userCols = "id,username,password_hash,email,full_name,is_organizer,is_super_admin"

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.FullName, &u.IsOrganizer, &u.IsSuperAdmin)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// Create hashes the password and inserts the user, returning its ID.
// Username and email are normalized before insertion.
func (r *UserRepo) Create(ctx context.Context, u *User, password string, cost int) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, email, full_name, is_organizer, is_super_admin) VALUES (?,?,?,?,?,?)",
		u.Username, hash, u.Email, u.FullName, u.IsOrganizer, u.IsSuperAdmin)
	if err != nil {
		if dup := dupUserKeyError(err); dup != nil {
			return dup
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.PasswordHash = hash
	return nil
}

// GetByUsername fetches a user by exact username match.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	username = strings.TrimSpace(username)
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE username=? LIMIT 1", username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns every user ordered by id.  Used by the super-admin panel and
// the CSV export.
func (r *UserRepo) List(ctx context.Context) ([]User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userCols+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.FullName, &u.IsOrganizer, &u.IsSuperAdmin); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UserUpdate carries the mutable user fields for PATCH-style updates.  Nil
// pointers mean "leave unchanged".
type UserUpdate struct {
	Email        *string `json:"email"`
	FullName     *string `json:"fullName"`
	IsOrganizer  *bool   `json:"isOrganizer"`
	IsSuperAdmin *bool   `json:"isSuperAdmin"`
}

// Update applies the non-nil fields of upd to the user and returns the fresh
// row.  Returns ErrNotFound when the user does not exist.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate) (User, error) {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if upd.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*upd.Email)))
	}
	if upd.FullName != nil {
		sets = append(sets, "full_name=?")
		args = append(args, *upd.FullName)
	}
	if upd.IsOrganizer != nil {
		sets = append(sets, "is_organizer=?")
		args = append(args, *upd.IsOrganizer)
	}
	if upd.IsSuperAdmin != nil {
		sets = append(sets, "is_super_admin=?")
		args = append(args, *upd.IsSuperAdmin)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", args...); err != nil {
			if dup := dupUserKeyError(err); dup != nil {
				return User{}, dup
			}
			return User{}, err
		}
	}
	return r.GetByID(ctx, id)
}
