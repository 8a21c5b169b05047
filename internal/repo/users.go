package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DoyleJ11/league-backend/internal/domain"
)

const ProviderCredentials = "credentials"

// CreateUser stores u with its primary email and password credential.
func (r *Repo) CreateUser(ctx context.Context, u *domain.User, passwordHash string) error {
	newID(&u.ID)
	u.Email = strings.ToLower(u.Email)
	return r.Tx(ctx, func(tx *Repo) error {
		if err := tx.conn(ctx).Create(u).Error; err != nil {
			return translate(err, "create user")
		}
		email := domain.UserEmail{UserID: u.ID, Email: u.Email, Primary: true}
		if err := tx.AddEmail(ctx, &email); err != nil {
			return err
		}
		acct := domain.Account{UserID: u.ID, Provider: ProviderCredentials, PasswordHash: passwordHash}
		newID(&acct.ID)
		return translate(tx.conn(ctx).Create(&acct).Error, "create account")
	})
}

func (r *Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := r.conn(ctx).First(&u, "id = ?", id).Error
	return u, translate(err, "get user")
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.conn(ctx).First(&u, "email = ?", strings.ToLower(email)).Error
	return u, translate(err, "get user by email")
}

// Credentials returns the user and password account for email.
func (r *Repo) Credentials(ctx context.Context, email string) (domain.User, domain.Account, error) {
	u, err := r.GetUserByEmail(ctx, email)
	if err != nil {
		return u, domain.Account{}, err
	}
	var acct domain.Account
	err = r.conn(ctx).First(&acct, "user_id = ? AND provider = ?", u.ID, ProviderCredentials).Error
	return u, acct, translate(err, "get credentials")
}

func (r *Repo) SaveUser(ctx context.Context, u *domain.User) error {
	return translate(r.conn(ctx).Save(u).Error, "save user")
}

func (r *Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.conn(ctx).Order("created_at").Find(&users).Error
	return users, translate(err, "list users")
}

func (r *Repo) AddEmail(ctx context.Context, e *domain.UserEmail) error {
	newID(&e.ID)
	e.Email = strings.ToLower(e.Email)
	return translate(r.conn(ctx).Create(e).Error, "add email")
}

func (r *Repo) ListEmails(ctx context.Context, userID string) ([]domain.UserEmail, error) {
	var emails []domain.UserEmail
	err := r.conn(ctx).Where("user_id = ?", userID).Order("is_primary DESC, created_at").Find(&emails).Error
	return emails, translate(err, "list emails")
}

// VerifyEmail marks the email of userID carrying token as verified. Tokens
// are single use.
func (r *Repo) VerifyEmail(ctx context.Context, userID, token string, now time.Time) (domain.UserEmail, error) {
	var e domain.UserEmail
	if token == "" {
		return e, fmt.Errorf("verify email: %w", domain.ErrInvalid)
	}
	err := r.Tx(ctx, func(tx *Repo) error {
		if err := tx.conn(ctx).First(&e, "user_id = ? AND verify_token = ?", userID, token).Error; err != nil {
			return translate(err, "verify email")
		}
		e.VerifyToken = ""
		e.VerifiedAt = &now
		return translate(tx.conn(ctx).Save(&e).Error, "verify email")
	})
	return e, err
}
