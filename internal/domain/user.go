package domain

const (
	RoleAdmin    = "admin"
	RoleMarketer = "marketer"
	RoleCustomer = "customer"
)

type User struct {
	ID         int64  `db:"id"`
	Username   string `db:"username"`
	Email      string `db:"email"`
	Hash       string `db:"password_hash"`
	Role       string `db:"role"`
	IsApproved bool   `db:"is_approved"`
	CreatedAt  string `db:"created_at"`
}

func (u *User) IsAdmin() bool    { return u != nil && u.Role == RoleAdmin }
func (u *User) IsMarketer() bool { return u != nil && u.Role == RoleMarketer }
func (u *User) IsCustomer() bool { return u != nil && u.Role == RoleCustomer }

// LogUserID lets the request logger tag entries with the signed-in user.
func (u *User) LogUserID() int64 { return u.ID }
