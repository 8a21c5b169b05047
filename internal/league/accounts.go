package league

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/DoyleJ11/league-backend/internal/auth"
	"github.com/DoyleJ11/league-backend/internal/domain"
)

const minPasswordLen = 8

// Signup creates a user with a local password. The first user becomes a
// site admin.
func (s *Service) Signup(ctx context.Context, name, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, fmt.Errorf("email is malformed: %w", domain.ErrInvalid)
	}
	if len(password) < minPasswordLen {
		return domain.User{}, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, domain.ErrInvalid)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{Name: strings.TrimSpace(name), Email: email, IsAdmin: len(users) == 0}
	if err := s.repo.CreateUser(ctx, &u, hash); err != nil {
		return domain.User{}, err
	}
	s.linkPersons(ctx, u)
	return u, nil
}

// linkPersons attaches unlinked roster entries carrying the user's email.
func (s *Service) linkPersons(ctx context.Context, u domain.User) {
	err := s.repo.LinkPersonsByEmail(ctx, u.Email, u.ID)
	if err != nil {
		s.log.Warn("link persons", zap.String("user_id", u.ID), zap.Error(err))
	}
}

// Login checks credentials. Unknown emails and wrong passwords look the same.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	u, acct, err := s.repo.Credentials(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("bad credentials: %w", domain.ErrUnauthenticated)
	}
	if err != nil {
		return domain.User{}, err
	}
	if !auth.VerifyPassword(acct.PasswordHash, password) {
		return domain.User{}, fmt.Errorf("bad credentials: %w", domain.ErrUnauthenticated)
	}
	if u.Disabled {
		return domain.User{}, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	return u, nil
}

type ProfilePatch struct {
	Name     *string `json:"name,omitempty"`
	ImageURL *string `json:"image,omitempty"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, p ProfilePatch) (domain.User, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return u, err
	}
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.ImageURL != nil {
		u.ImageURL = *p.ImageURL
	}
	return u, s.repo.SaveUser(ctx, &u)
}

// AddEmail attaches an unverified address and returns its verification token.
// Delivering the token is left to the caller.
func (s *Service) AddEmail(ctx context.Context, userID, email string) (domain.UserEmail, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.UserEmail{}, "", fmt.Errorf("email is malformed: %w", domain.ErrInvalid)
	}
	token, err := auth.NewToken()
	if err != nil {
		return domain.UserEmail{}, "", err
	}
	e := domain.UserEmail{UserID: userID, Email: email, VerifyToken: token, CreatedAt: s.now()}
	if err := s.repo.AddEmail(ctx, &e); err != nil {
		return domain.UserEmail{}, "", err
	}
	return e, token, nil
}

func (s *Service) VerifyEmail(ctx context.Context, userID, token string) (domain.UserEmail, error) {
	return s.repo.VerifyEmail(ctx, userID, token, s.now())
}

type UserPatch struct {
	IsAdmin  *bool `json:"isAdmin,omitempty"`
	Disabled *bool `json:"disabled,omitempty"`
}

// UpdateUser sets a user's admin and disabled flags. Site admins only, and
// never against their own account.
func (s *Service) UpdateUser(ctx context.Context, actor Actor, id string, p UserPatch) (domain.User, error) {
	if !actor.Admin {
		return domain.User{}, domain.ErrForbidden
	}
	if id == actor.UserID && ((p.IsAdmin != nil && !*p.IsAdmin) || (p.Disabled != nil && *p.Disabled)) {
		return domain.User{}, fmt.Errorf("cannot demote or disable yourself: %w", domain.ErrInvalid)
	}
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return u, err
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
	if p.Disabled != nil {
		u.Disabled = *p.Disabled
	}
	return u, s.repo.SaveUser(ctx, &u)
}

func (s *Service) ListUsers(ctx context.Context, actor Actor) ([]domain.User, error) {
	if !actor.Admin {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListUsers(ctx)
}
