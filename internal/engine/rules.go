package engine

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/DoyleJ11/league-backend/internal/domain"
)

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// CheckMatchup rejects games between the same team or across sports.
func CheckMatchup(home, away domain.Team) error {
	if home.ID == away.ID {
		return ErrIllegalMatchup
	}
	if home.SportID != away.SportID {
		return fmt.Errorf("%w: teams play different sports", ErrIllegalMatchup)
	}
	return nil
}

// ApplyStatus moves g to status and returns the new game plus its score log entry.
func ApplyStatus(g domain.Game, status domain.GameStatus, actor string, now time.Time) (domain.Game, domain.ScoreLog, error) {
	if !domain.CanTransition(g.Status, status) {
		return g, domain.ScoreLog{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, g.Status, status)
	}
	next := g
	next.Status = status
	next.UpdatedAt = now
	return next, scoreLog(next, actor, now), nil
}

// ApplyScore records a new score on a live game.
func ApplyScore(g domain.Game, home, away int, actor string, now time.Time) (domain.Game, domain.ScoreLog, error) {
	if g.Status != domain.GameLive {
		return g, domain.ScoreLog{}, fmt.Errorf("%w: status is %s", ErrGameNotLive, g.Status)
	}
	if home < 0 || away < 0 {
		return g, domain.ScoreLog{}, invalid("scores cannot be negative")
	}
	next := g
	next.HomeScore = home
	next.AwayScore = away
	next.UpdatedAt = now
	return next, scoreLog(next, actor, now), nil
}

func scoreLog(g domain.Game, actor string, now time.Time) domain.ScoreLog {
	return domain.ScoreLog{
		GameID:    g.ID,
		HomeScore: g.HomeScore,
		AwayScore: g.AwayScore,
		Status:    g.Status,
		UpdatedBy: actor,
		CreatedAt: now,
	}
}
