package repo

import (
	"context"
	"fmt"

	"github.com/DoyleJ11/league-backend/internal/domain"
)

func (r *Repo) CreateGame(ctx context.Context, g *domain.Game) error {
	newID(&g.ID)
	if g.Status == "" {
		g.Status = domain.GameScheduled
	}
	return translate(r.conn(ctx).Create(g).Error, "create game")
}

func (r *Repo) GetGame(ctx context.Context, id string) (domain.Game, error) {
	var g domain.Game
	err := r.conn(ctx).First(&g, "id = ?", id).Error
	return g, translate(err, "get game")
}

// ErrStaleGame is returned by SaveGame when the stored game no longer
// matches the copy the change was computed from.
var ErrStaleGame = fmt.Errorf("game changed since it was read: %w", domain.ErrConflict)

// SaveGame writes g's status and score, provided the stored game still has
// prev's status and score, and appends its score log entry in the same
// transaction.
func (r *Repo) SaveGame(ctx context.Context, g *domain.Game, prev domain.Game, entry *domain.ScoreLog) error {
	return r.Tx(ctx, func(tx *Repo) error {
		res := tx.conn(ctx).Model(&domain.Game{}).
			Where("id = ? AND status = ? AND home_score = ? AND away_score = ?",
				g.ID, prev.Status, prev.HomeScore, prev.AwayScore).
			Updates(map[string]any{
				"status":     g.Status,
				"home_score": g.HomeScore,
				"away_score": g.AwayScore,
				"updated_at": g.UpdatedAt,
			})
		if res.Error != nil {
			return translate(res.Error, "save game")
		}
		if res.RowsAffected == 0 {
			return ErrStaleGame
		}
		if entry == nil {
			return nil
		}
		return translate(tx.conn(ctx).Create(entry).Error, "append score log")
	})
}

// ListGames returns orgID's games, optionally only those in status.
func (r *Repo) ListGames(ctx context.Context, orgID string, status domain.GameStatus) ([]domain.Game, error) {
	q := r.conn(ctx).Where("organization_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var games []domain.Game
	err := q.Order("starts_at").Find(&games).Error
	return games, translate(err, "list games")
}

func (r *Repo) LiveGames(ctx context.Context) ([]domain.Game, error) {
	var games []domain.Game
	err := r.conn(ctx).Where("status = ?", domain.GameLive).Order("starts_at").Find(&games).Error
	return games, translate(err, "list live games")
}

func (r *Repo) ScoreLogs(ctx context.Context, gameID string) ([]domain.ScoreLog, error) {
	var logs []domain.ScoreLog
	err := r.conn(ctx).Where("game_id = ?", gameID).Order("id").Find(&logs).Error
	return logs, translate(err, "list score logs")
}
