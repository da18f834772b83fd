package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

type AuthService struct {
	Users *repos.UserRepo
}

func NewAuthService(users *repos.UserRepo) *AuthService {
	return &AuthService{Users: users}
}

type Registration struct {
	Username string
	Email    string
	Password string
	Role     string
}

// Register creates a customer or marketer account. Customers can sign in
// immediately; marketers wait for an admin to approve them.
func (s *AuthService) Register(ctx context.Context, r Registration) (*domain.User, error) {
	if r.Role != domain.RoleCustomer && r.Role != domain.RoleMarketer {
		return nil, ErrForbidden
	}
	exists, err := s.Users.Exists(ctx, r.Username, r.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicate
	}
	h, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Username:   r.Username,
		Email:      strings.ToLower(r.Email),
		Hash:       string(h),
		Role:       r.Role,
		IsApproved: r.Role == domain.RoleCustomer,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// StartSession opens an anonymous session and returns its id.
func (s *AuthService) StartSession(ctx context.Context) (string, error) {
	sid := uuid.NewString()
	return sid, s.Users.CreateSession(ctx, sid)
}

// Resume looks sid up. known is false for ids the server never issued or
// has since pruned; user is nil for an anonymous session.
func (s *AuthService) Resume(ctx context.Context, sid string) (user *domain.User, known bool, err error) {
	known, err = s.Users.TouchSession(ctx, sid)
	if err != nil || !known {
		return nil, false, err
	}
	user, err = s.Users.SessionUser(ctx, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, true, nil
	}
	if err != nil {
		return nil, true, err
	}
	return user, true, nil
}

// Login checks the credentials and replaces sid with a new session bound to
// the user. The caller moves the cart and reissues the cookie.
func (s *AuthService) Login(ctx context.Context, sid, login, password string) (*domain.User, string, error) {
	u, err := s.Users.ByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return nil, "", ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, "", ErrBadCreds
	}
	if !u.IsApproved && !u.IsAdmin() {
		return nil, "", ErrNotApproved
	}
	newSid := uuid.NewString()
	if err := s.Users.RotateSession(ctx, sid, newSid, u.ID); err != nil {
		return nil, "", err
	}
	return u, newSid, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.DeleteSession(ctx, sid)
}

// UpdateProfile changes the user's username and email.
func (s *AuthService) UpdateProfile(ctx context.Context, u *domain.User, username, email string) (*domain.User, error) {
	taken, err := s.Users.TakenByOther(ctx, u.ID, username, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicate
	}
	next := *u
	next.Username = username
	next.Email = strings.ToLower(email)
	if err := s.Users.Update(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

// ChangePassword replaces the password after checking the current one.
// Every other session of the user is signed out; keep stays.
func (s *AuthService) ChangePassword(ctx context.Context, u *domain.User, keep, current, next string) error {
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(current)) != nil {
		return ErrBadCreds
	}
	h, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.Users.SetPassword(ctx, u.ID, string(h)); err != nil {
		return err
	}
	return s.Users.DeleteUserSessions(ctx, u.ID, keep)
}
