// Package league executes client actions against the repository and fans the
// resulting updates out to rooms.
package league

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/internal/engine"
	"github.com/DoyleJ11/league-backend/internal/repo"
	"github.com/DoyleJ11/league-backend/pkg/protocol"
)

// Publisher delivers updates to their rooms. *hub.Hub satisfies it.
type Publisher interface {
	Publish(ctx context.Context, updates ...protocol.Update) error
}

// Actor is the user a request runs as. A zero Actor is anonymous.
type Actor struct {
	UserID string
	Admin  bool
}

type Service struct {
	repo     *repo.Repo
	pub      Publisher
	log      *zap.Logger
	now      func() time.Time
	claimTTL time.Duration
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithClaimTTL sets how long claim referrals stay redeemable.
func WithClaimTTL(d time.Duration) Option { return func(s *Service) { s.claimTTL = d } }

func New(r *repo.Repo, pub Publisher, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		repo:     r,
		pub:      pub,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		claimTTL: 7 * 24 * time.Hour,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Repo() *repo.Repo { return s.repo }

// ActorFor loads the session user. Disabled users are refused.
func (s *Service) ActorFor(ctx context.Context, userID string) (Actor, error) {
	if userID == "" {
		return Actor{}, nil
	}
	u, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return Actor{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return Actor{}, err
	}
	if u.Disabled {
		return Actor{}, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	return Actor{UserID: u.ID, Admin: u.IsAdmin}, nil
}

// Execute applies cmd as actor, then publishes its effects. The returned
// value is the ack payload.
func (s *Service) Execute(ctx context.Context, actor Actor, cmd engine.Command) (any, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}

	var (
		result  any
		effects []engine.Effect
		err     error
	)
	switch c := cmd.(type) {
	case *engine.AddOrg:
		result, effects, err = s.addOrg(ctx, actor, c)
	case *engine.UpdateOrg:
		result, effects, err = s.updateOrg(ctx, actor, c)
	case *engine.AddTeam:
		result, effects, err = s.addTeam(ctx, actor, c)
	case *engine.AddVenue:
		result, effects, err = s.addVenue(ctx, actor, c)
	case *engine.AddEvent:
		result, effects, err = s.addEvent(ctx, actor, c)
	case *engine.AddGame:
		result, effects, err = s.addGame(ctx, actor, c)
	case *engine.UpdateGameStatus:
		result, effects, err = s.updateGameStatus(ctx, actor, c)
	case *engine.UpdateScore:
		result, effects, err = s.updateScore(ctx, actor, c)
	case *engine.AddPerson:
		result, effects, err = s.addPerson(ctx, actor, c)
	case *engine.AddMembership:
		result, effects, err = s.addMembership(ctx, actor, c)
	case *engine.MarkNotificationRead:
		result, effects, err = s.markNotificationRead(ctx, actor, c)
	default:
		return nil, fmt.Errorf("%w: %s", engine.ErrUnknownAction, cmd.Action())
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, effects...)
	return result, nil
}

// authorize allows site admins and admins of orgID.
func (s *Service) authorize(ctx context.Context, actor Actor, orgID string) error {
	if actor.UserID == "" {
		return domain.ErrUnauthenticated
	}
	if actor.Admin {
		return nil
	}
	ok, err := s.repo.IsOrgAdmin(ctx, orgID, actor.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not an admin of organization %s: %w", orgID, domain.ErrForbidden)
	}
	return nil
}

// publish fans effects out. The change is already committed, so failures are
// logged rather than returned.
func (s *Service) publish(ctx context.Context, effects ...engine.Effect) {
	if s.pub == nil {
		return
	}
	for _, e := range effects {
		updates, err := e.Updates()
		if err != nil {
			s.log.Error("encode update", zap.String("type", e.Type), zap.Error(err))
			continue
		}
		if err := s.pub.Publish(ctx, updates...); err != nil {
			s.log.Warn("publish update", zap.String("type", e.Type), zap.Error(err))
			return
		}
	}
}

// Everything below runs after the command's change has committed. A failing
// step is logged and skipped so the effects already gathered still go out.

// summaryEffects refreshes the summaries of orgIDs.
func (s *Service) summaryEffects(ctx context.Context, orgIDs ...string) []engine.Effect {
	summaries, err := s.repo.OrgSummaries(ctx, orgIDs...)
	if err != nil {
		s.log.Warn("refresh summaries", zap.Strings("org_ids", orgIDs), zap.Error(err))
		return nil
	}
	return engine.SummaryEffects(summaries...)
}

// orgSummary reads org's summary, falling back to the bare organization.
func (s *Service) orgSummary(ctx context.Context, org domain.Organization) (domain.OrganizationSummary, []engine.Effect) {
	summary, err := s.repo.OrgSummary(ctx, org.ID)
	if err != nil {
		s.log.Warn("refresh summary", zap.String("org_id", org.ID), zap.Error(err))
		return domain.OrganizationSummary{Organization: org}, nil
	}
	return summary, engine.SummaryEffects(summary)
}

func (s *Service) liveGamesEffects(ctx context.Context) []engine.Effect {
	live, err := s.repo.LiveGames(ctx)
	if err != nil {
		s.log.Warn("refresh live games", zap.Error(err))
		return nil
	}
	return []engine.Effect{engine.LiveGamesEffect(live)}
}

// notify stores one notification per user, skipping skip, and returns their effects.
func (s *Service) notify(ctx context.Context, userIDs []string, skip, kind, msg, subject string) []engine.Effect {
	var ns []domain.Notification
	for _, id := range userIDs {
		if id == skip {
			continue
		}
		ns = append(ns, domain.Notification{
			UserID:    id,
			Kind:      kind,
			Message:   msg,
			SubjectID: subject,
			CreatedAt: s.now(),
		})
	}
	if err := s.repo.CreateNotifications(ctx, ns); err != nil {
		s.log.Warn("notify", zap.String("kind", kind), zap.String("subject_id", subject), zap.Error(err))
		return nil
	}
	effects := make([]engine.Effect, len(ns))
	for i, n := range ns {
		effects[i] = engine.NotificationEffect(n)
	}
	return effects
}

// RefreshLiveGames publishes the current live set to the live_games room.
func (s *Service) RefreshLiveGames(ctx context.Context) error {
	live, err := s.repo.LiveGames(ctx)
	if err != nil {
		return err
	}
	s.publish(ctx, engine.LiveGamesEffect(live))
	return nil
}

func (s *Service) LiveGames(ctx context.Context) ([]domain.Game, error) {
	live, err := s.repo.LiveGames(ctx)
	if live == nil {
		live = []domain.Game{}
	}
	return live, err
}
