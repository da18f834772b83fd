package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, username, email, password_hash, role, is_approved, created_at`

// ByLogin finds a user by username or, case-insensitively, by email.
func (r *UserRepo) ByLogin(ctx context.Context, login string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `
	  SELECT `+userCols+` FROM users
	  WHERE username = ? OR LOWER(email) = LOWER(?)
	  ORDER BY username = ? DESC
	  LIMIT 1
	`, login, login, login)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether the username or email is already registered.
func (r *UserRepo) Exists(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, `
	  SELECT COUNT(*) FROM users WHERE username = ? OR LOWER(email) = LOWER(?)
	`, username, email)
	return n > 0, err
}

// TakenByOther reports whether another account already uses the username
// or email.
func (r *UserRepo) TakenByOther(ctx context.Context, id int64, username, email string) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, `
	  SELECT COUNT(*) FROM users
	  WHERE id <> ? AND (username = ? OR LOWER(email) = LOWER(?))
	`, id, username, email)
	return n > 0, err
}

func (r *UserRepo) Update(ctx context.Context, u domain.User) error {
	_, err := r.DB.ExecContext(ctx, `
	  UPDATE users SET username = ?, email = ?, role = ?, is_approved = ? WHERE id = ?
	`, u.Username, u.Email, u.Role, u.IsApproved, u.ID)
	return err
}

func (r *UserRepo) SetPassword(ctx context.Context, id int64, hash string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	return err
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	res, err := r.DB.ExecContext(ctx, `
	  INSERT INTO users(username, email, password_hash, role, is_approved, created_at)
	  VALUES(?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, u.Username, u.Email, u.Hash, u.Role, u.IsApproved)
	if err != nil {
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

// CreateSession records a new anonymous session.
func (r *UserRepo) CreateSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `
	  INSERT INTO sessions(id, user_id, created_at, last_seen)
	  VALUES(?, NULL, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, sid)
	return err
}

// TouchSession refreshes last_seen and reports whether the session exists.
func (r *UserRepo) TouchSession(ctx context.Context, sid string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE sessions SET last_seen = CURRENT_TIMESTAMP WHERE id = ?`, sid)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RotateSession replaces oldSid with newSid bound to userID.
func (r *UserRepo) RotateSession(ctx context.Context, oldSid, newSid string, userID int64) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, oldSid); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
	  INSERT INTO sessions(id, user_id, created_at, last_seen)
	  VALUES(?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, newSid, userID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `
	  SELECT u.id, u.username, u.email, u.password_hash, u.role, u.is_approved, u.created_at
	  FROM sessions s
	  JOIN users u ON u.id = s.user_id
	  WHERE s.id = ?
	`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) DeleteSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sid)
	return err
}

// DeleteUserSessions signs a user out everywhere except the session keep.
func (r *UserRepo) DeleteUserSessions(ctx context.Context, userID int64, keep string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ? AND id <> ?`, userID, keep)
	return err
}

// PruneSessions deletes sessions idle since before cutoff.
func (r *UserRepo) PruneSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
	  DELETE FROM sessions WHERE datetime(COALESCE(last_seen, created_at)) < datetime(?)
	`, sqliteTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// List returns users, optionally only those of one role.
func (r *UserRepo) List(ctx context.Context, role string) ([]domain.User, error) {
	var out []domain.User
	q := `SELECT ` + userCols + ` FROM users`
	args := []any{}
	if role != "" {
		q += ` WHERE role = ?`
		args = append(args, role)
	}
	err := r.DB.SelectContext(ctx, &out, q+` ORDER BY created_at DESC, id DESC`, args...)
	return out, err
}

func (r *UserRepo) ListPending(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := r.DB.SelectContext(ctx, &out, `
	  SELECT `+userCols+` FROM users WHERE is_approved = 0 ORDER BY created_at, id
	`)
	return out, err
}

func (r *UserRepo) Approve(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`UPDATE users SET is_approved = 1 WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, r.DB.Rebind(q), args...)
	return err
}

// Delete removes a user with their sessions and carts. Shops, products and
// ratings cascade; a user who placed orders cannot be deleted.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var sessionIDs []string
	if err := tx.SelectContext(ctx, &sessionIDs, `SELECT id FROM sessions WHERE user_id = ?`, id); err != nil {
		return err
	}
	if len(sessionIDs) > 0 {
		q, args, err := sqlx.In(`DELETE FROM carts WHERE id IN (?)`, sessionIDs)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
		q, args, err = sqlx.In(`DELETE FROM sessions WHERE id IN (?)`, sessionIDs)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// CountByRole returns the number of users per role.
func (r *UserRepo) CountByRole(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Role string `db:"role"`
		N    int    `db:"n"`
	}
	if err := r.DB.SelectContext(ctx, &rows, `SELECT role, COUNT(*) AS n FROM users GROUP BY role`); err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, row := range rows {
		out[row.Role] = row.N
	}
	return out, nil
}

func (r *UserRepo) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE is_approved = 0`)
	return n, err
}
