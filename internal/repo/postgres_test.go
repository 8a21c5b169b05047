package repo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/league-backend/internal/domain"
)

// newMockRepo runs the repository over the postgres dialect against sqlmock.
func newMockRepo(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return New(gdb), mock
}

func TestPostgres_ListSports(t *testing.T) {
	r, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow("s1", "Hockey").
		AddRow("s2", "Soccer")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sports" ORDER BY name`)).WillReturnRows(rows)

	sports, err := r.ListSports(context.Background())
	require.NoError(t, err)
	require.Len(t, sports, 2)
	require.Equal(t, "Soccer", sports[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetOrgNotFound(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "organizations" WHERE id = $1`)).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := r.GetOrg(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ExpireReferrals(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "org_claim_referrals" SET "expired"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := r.ExpireReferrals(context.Background(), time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ConsumeReferralLosesRace(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "org_claim_referrals" WHERE token = $1`)).
		WithArgs("tok", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "token", "created_by", "expires_at", "expired"}).
			AddRow("r1", "o1", "tok", "admin", now.Add(time.Hour), false))
	// Another transaction redeemed the token after the read; the guarded
	// update matches nothing.
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "org_claim_referrals" SET "used_at"=$1,"used_by"=$2 WHERE id = $3 AND used_at IS NULL AND expired = $4 AND expires_at > $5`)).
		WithArgs(sqlmock.AnyArg(), "u2", "r1", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := r.ConsumeReferral(context.Background(), "tok", "u2", now)
	require.ErrorIs(t, err, domain.ErrGone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveGameGuardsStatus(t *testing.T) {
	r, mock := newMockRepo(t)
	g := domain.Game{ID: "g1", Status: domain.GameLive, HomeScore: 3, AwayScore: 1, UpdatedAt: time.Now().UTC()}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "games" SET "away_score"=$1,"home_score"=$2,"status"=$3,"updated_at"=$4 WHERE id = $5 AND status = $6 AND home_score = $7 AND away_score = $8`)).
		WithArgs(1, 3, sqlmock.AnyArg(), sqlmock.AnyArg(), "g1", sqlmock.AnyArg(), 2, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	prev := domain.Game{ID: "g1", Status: domain.GameLive, HomeScore: 2, AwayScore: 1}
	err := r.SaveGame(context.Background(), &g, prev, &domain.ScoreLog{GameID: "g1"})
	require.ErrorIs(t, err, ErrStaleGame)
	require.NoError(t, mock.ExpectationsWereMet())
}
