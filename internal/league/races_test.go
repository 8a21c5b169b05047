package league

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/internal/engine"
	"github.com/DoyleJ11/league-backend/pkg/protocol"
)

// liveGame creates a game for a fresh org and puts it live.
func (f *fixture) liveGame(t *testing.T, admin Actor) domain.Game {
	t.Helper()
	sport, err := f.svc.CreateSport(context.Background(), admin, "Soccer")
	require.NoError(t, err)
	org := f.org(t, admin, "Org")
	home := f.mustExec(t, admin, protocol.ActAddTeam, map[string]any{"organizationId": org.ID, "sportId": sport.ID, "name": "Home"}).(domain.Team)
	away := f.mustExec(t, admin, protocol.ActAddTeam, map[string]any{"organizationId": org.ID, "sportId": sport.ID, "name": "Away"}).(domain.Team)
	game := f.mustExec(t, admin, protocol.ActAddGame, map[string]any{
		"organizationId": org.ID, "homeTeamId": home.ID, "awayTeamId": away.ID, "startsAt": f.now,
	}).(domain.Game)
	return f.mustExec(t, admin, protocol.ActUpdateGameStatus, map[string]any{"gameId": game.ID, "status": "Live"}).(domain.Game)
}

// afterGameRead runs fn once, right after the next read of the games table.
func (f *fixture) afterGameRead(t *testing.T, fn func()) {
	t.Helper()
	var armed atomic.Bool
	armed.Store(true)
	require.NoError(t, f.db.Callback().Query().After("gorm:query").Register("test:after_game_read", func(tx *gorm.DB) {
		if tx.Statement.Table == "games" && armed.CompareAndSwap(true, false) {
			fn()
		}
	}))
}

func TestUpdateScore_AfterConcurrentFinish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.signup(t, "admin@example.com")
	game := f.liveGame(t, admin)

	// The game finishes between the score update's read and its write.
	f.afterGameRead(t, func() {
		f.mustExec(t, admin, protocol.ActUpdateGameStatus, map[string]any{"gameId": game.ID, "status": "Finished"})
	})
	_, err := f.exec(t, admin, protocol.ActUpdateScore, map[string]any{"gameId": game.ID, "homeScore": 4, "awayScore": 0})
	require.ErrorIs(t, err, engine.ErrGameNotLive)

	got, err := f.svc.Repo().GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GameFinished, got.Status)
	assert.Equal(t, 0, got.HomeScore)

	logs, err := f.svc.Repo().ScoreLogs(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.GameFinished, logs[1].Status)
}

func TestFinishGame_KeepsConcurrentScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.signup(t, "admin@example.com")
	game := f.liveGame(t, admin)

	// A goal lands between the finish's read and its write.
	f.afterGameRead(t, func() {
		f.mustExec(t, admin, protocol.ActUpdateScore, map[string]any{"gameId": game.ID, "homeScore": 3, "awayScore": 1})
	})
	final := f.mustExec(t, admin, protocol.ActUpdateGameStatus, map[string]any{"gameId": game.ID, "status": "Finished"}).(domain.Game)
	assert.Equal(t, domain.GameFinished, final.Status)
	assert.Equal(t, 3, final.HomeScore)

	got, err := f.svc.Repo().GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GameFinished, got.Status)
	assert.Equal(t, 3, got.HomeScore)
	assert.Equal(t, 1, got.AwayScore)

	// A finished game stays finished.
	_, err = f.exec(t, admin, protocol.ActUpdateGameStatus, map[string]any{"gameId": game.ID, "status": "Live"})
	require.ErrorIs(t, err, engine.ErrIllegalTransition)
}

func TestGameMutations_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.signup(t, "admin@example.com")
	game := f.liveGame(t, admin)

	const scorers = 8
	var (
		wg       sync.WaitGroup
		scored   atomic.Int32
		finishes atomic.Int32
	)
	for i := 1; i <= scorers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.exec(t, admin, protocol.ActUpdateScore, map[string]any{"gameId": game.ID, "homeScore": i, "awayScore": 0})
			switch {
			case err == nil:
				scored.Add(1)
			case !errors.Is(err, engine.ErrGameNotLive) && !errors.Is(err, domain.ErrConflict):
				t.Errorf("score %d: %v", i, err)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			_, err := f.exec(t, admin, protocol.ActUpdateGameStatus, map[string]any{"gameId": game.ID, "status": "Finished"})
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			if err != nil {
				t.Errorf("finish: %v", err)
				return
			}
			finishes.Add(1)
			return
		}
	}()
	wg.Wait()

	require.EqualValues(t, 1, finishes.Load())
	got, err := f.svc.Repo().GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GameFinished, got.Status)

	// Live, every accepted score, then the final entry carrying the stored score.
	logs, err := f.svc.Repo().ScoreLogs(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2+int(scored.Load()))
	last := logs[len(logs)-1]
	assert.Equal(t, domain.GameFinished, last.Status)
	assert.Equal(t, got.HomeScore, last.HomeScore)
	for _, l := range logs[:len(logs)-1] {
		assert.Equal(t, domain.GameLive, l.Status, "no score recorded after the final whistle")
	}
}

func TestClaimOrganization_ConcurrentRedemption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.signup(t, "admin@example.com")
	org := domain.Organization{Name: "Listed", Slug: "listed"}
	require.NoError(t, f.svc.Repo().CreateOrg(ctx, &org, ""))
	ref, err := f.svc.CreateClaimReferral(ctx, admin, org.ID, "")
	require.NoError(t, err)

	const claimers = 6
	actors := make([]Actor, claimers)
	for i := range actors {
		actors[i] = f.signup(t, string(rune('a'+i))+"@example.com")
	}

	var (
		wg     sync.WaitGroup
		claims atomic.Int32
	)
	for _, actor := range actors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ClaimOrganization(ctx, actor, ref.Token)
			switch {
			case err == nil:
				claims.Add(1)
			case !errors.Is(err, domain.ErrGone):
				t.Errorf("claim: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, claims.Load())
	admins, err := f.svc.Repo().OrgAdminUserIDs(ctx, org.ID)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}
