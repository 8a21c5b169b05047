// Package repo is the gorm-backed persistence layer. Every method takes a
// context and maps gorm's not-found and duplicate-key errors onto the domain
// sentinels.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DoyleJ11/league-backend/internal/domain"
)

type Repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Tx runs fn against a repo bound to one transaction.
func (r *Repo) Tx(ctx context.Context, fn func(tx *Repo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{db: tx})
	})
}

func (r *Repo) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// translate maps driver errors onto domain sentinels, keeping what for context.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, domain.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}
