package league

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/internal/engine"
	"github.com/DoyleJ11/league-backend/internal/repo"
)

func (s *Service) addOrg(ctx context.Context, actor Actor, c *engine.AddOrg) (any, []engine.Effect, error) {
	org := domain.Organization{
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		LogoURL:     c.LogoURL,
		Claimed:     true,
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.CreateOrg(ctx, &org, actor.UserID); err != nil {
		return nil, nil, err
	}
	summary, effects := s.orgSummary(ctx, org)
	return summary, effects, nil
}

func (s *Service) updateOrg(ctx context.Context, actor Actor, c *engine.UpdateOrg) (any, []engine.Effect, error) {
	if err := s.authorize(ctx, actor, c.ID); err != nil {
		return nil, nil, err
	}
	org, err := s.repo.GetOrg(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	org = c.Patch(org)
	if err := s.repo.SaveOrg(ctx, &org); err != nil {
		return nil, nil, err
	}
	summary, effects := s.orgSummary(ctx, org)
	return summary, effects, nil
}

func (s *Service) addTeam(ctx context.Context, actor Actor, c *engine.AddTeam) (any, []engine.Effect, error) {
	if err := s.authorize(ctx, actor, c.OrganizationID); err != nil {
		return nil, nil, err
	}
	if _, err := s.repo.GetSport(ctx, c.SportID); err != nil {
		return nil, nil, err
	}
	team := domain.Team{
		OrganizationID: c.OrganizationID,
		SportID:        c.SportID,
		Name:           c.Name,
		Division:       c.Division,
	}
	if err := s.repo.CreateTeam(ctx, &team); err != nil {
		return nil, nil, err
	}
	return team, append([]engine.Effect{engine.TeamEffect(team)}, s.summaryEffects(ctx, team.OrganizationID)...), nil
}

func (s *Service) addVenue(ctx context.Context, actor Actor, c *engine.AddVenue) (any, []engine.Effect, error) {
	if err := s.authorize(ctx, actor, c.OrganizationID); err != nil {
		return nil, nil, err
	}
	venue := domain.Venue{
		OrganizationID: c.OrganizationID,
		Name:           c.Name,
		Address:        c.Address,
		Capacity:       c.Capacity,
	}
	if err := s.repo.CreateVenue(ctx, &venue); err != nil {
		return nil, nil, err
	}
	return venue, append([]engine.Effect{engine.VenueEffect(venue)}, s.summaryEffects(ctx, venue.OrganizationID)...), nil
}

// addEvent stores the event and refreshes the summary of the owner and of
// every participating organization, whose admins are also notified.
func (s *Service) addEvent(ctx context.Context, actor Actor, c *engine.AddEvent) (any, []engine.Effect, error) {
	if err := s.authorize(ctx, actor, c.OrganizationID); err != nil {
		return nil, nil, err
	}
	participants := c.Participants()
	for _, id := range participants {
		if _, err := s.repo.GetOrg(ctx, id); err != nil {
			return nil, nil, fmt.Errorf("participant %s: %w", id, err)
		}
	}
	if c.VenueID != nil {
		if err := s.checkVenue(ctx, *c.VenueID, c.OrganizationID); err != nil {
			return nil, nil, err
		}
	}

	event := domain.Event{
		OrganizationID: c.OrganizationID,
		VenueID:        c.VenueID,
		Name:           c.Name,
		StartsAt:       c.StartsAt.UTC(),
		EndsAt:         c.EndsAt,
	}
	for _, id := range participants {
		event.Participants = append(event.Participants, domain.EventParticipant{OrganizationID: id})
	}
	if err := s.repo.CreateEvent(ctx, &event); err != nil {
		return nil, nil, err
	}

	effects := []engine.Effect{engine.EventEffect(event)}
	effects = append(effects, s.summaryEffects(ctx, event.ParticipantIDs()...)...)

	admins, err := s.repo.OrgAdminUserIDs(ctx, participants...)
	if err != nil {
		s.log.Warn("list participant admins", zap.String("event_id", event.ID), zap.Error(err))
		return event, effects, nil
	}
	effects = append(effects, s.notify(ctx, admins, actor.UserID, domain.NotifyEventInvite,
		fmt.Sprintf("Your organization was added to %s", event.Name), event.ID)...)
	return event, effects, nil
}

func (s *Service) checkVenue(ctx context.Context, venueID, orgID string) error {
	v, err := s.repo.GetVenue(ctx, venueID)
	if err != nil {
		return err
	}
	if v.OrganizationID != orgID {
		return fmt.Errorf("venue belongs to another organization: %w", domain.ErrInvalid)
	}
	return nil
}

func (s *Service) addGame(ctx context.Context, actor Actor, c *engine.AddGame) (any, []engine.Effect, error) {
	if err := s.authorize(ctx, actor, c.OrganizationID); err != nil {
		return nil, nil, err
	}
	home, err := s.repo.GetTeam(ctx, c.HomeTeamID)
	if err != nil {
		return nil, nil, err
	}
	away, err := s.repo.GetTeam(ctx, c.AwayTeamID)
	if err != nil {
		return nil, nil, err
	}
	if err := engine.CheckMatchup(home, away); err != nil {
		return nil, nil, err
	}
	// Teams come from the organization, or from any organization taking part
	// in the game's event.
	allowed := []string{c.OrganizationID}
	if c.EventID != nil {
		event, err := s.repo.GetEvent(ctx, *c.EventID)
		if err != nil {
			return nil, nil, err
		}
		allowed = event.ParticipantIDs()
		if !slices.Contains(allowed, c.OrganizationID) {
			return nil, nil, fmt.Errorf("organization does not take part in event %s: %w", event.ID, domain.ErrInvalid)
		}
	}
	for _, t := range []domain.Team{home, away} {
		if !slices.Contains(allowed, t.OrganizationID) {
			return nil, nil, fmt.Errorf("team %s belongs to another organization: %w", t.ID, domain.ErrInvalid)
		}
	}
	if c.VenueID != nil {
		if err := s.checkVenue(ctx, *c.VenueID, c.OrganizationID); err != nil {
			return nil, nil, err
		}
	}

	game := domain.Game{
		OrganizationID: c.OrganizationID,
		EventID:        c.EventID,
		VenueID:        c.VenueID,
		HomeTeamID:     home.ID,
		AwayTeamID:     away.ID,
		Status:         domain.GameScheduled,
		StartsAt:       c.StartsAt.UTC(),
	}
	if err := s.repo.CreateGame(ctx, &game); err != nil {
		return nil, nil, err
	}
	return game, append([]engine.Effect{engine.GameEffect(game)}, s.summaryEffects(ctx, game.OrganizationID)...), nil
}

// maxGameAttempts bounds how often a game change is recomputed after losing a
// race with another writer.
const maxGameAttempts = 3

// changeGame reads the game, applies change and saves the result if nobody
// wrote the game in between. Otherwise it starts over from a fresh read, so
// the rule is always checked against the stored state.
func (s *Service) changeGame(ctx context.Context, actor Actor, id string,
	change func(domain.Game) (domain.Game, domain.ScoreLog, error)) (domain.Game, error) {
	var err error
	for attempt := 0; attempt < maxGameAttempts; attempt++ {
		var (
			game, next domain.Game
			entry      domain.ScoreLog
		)
		if game, err = s.repo.GetGame(ctx, id); err != nil {
			return game, err
		}
		if err = s.authorize(ctx, actor, game.OrganizationID); err != nil {
			return game, err
		}
		if next, entry, err = change(game); err != nil {
			return next, err
		}
		err = s.repo.SaveGame(ctx, &next, game, &entry)
		if !errors.Is(err, repo.ErrStaleGame) {
			return next, err
		}
		s.log.Debug("game changed concurrently", zap.String("game_id", id), zap.Int("attempt", attempt+1))
	}
	return domain.Game{}, err
}

// updateGameStatus moves a game along its lifecycle. Going Live or Finished
// notifies the users behind both teams' members.
func (s *Service) updateGameStatus(ctx context.Context, actor Actor, c *engine.UpdateGameStatus) (any, []engine.Effect, error) {
	next, err := s.changeGame(ctx, actor, c.GameID, func(g domain.Game) (domain.Game, domain.ScoreLog, error) {
		return engine.ApplyStatus(g, c.Status, actor.UserID, s.now())
	})
	if err != nil {
		return nil, nil, err
	}

	effects := []engine.Effect{engine.GameEffect(next)}
	effects = append(effects, s.liveGamesEffects(ctx)...)
	effects = append(effects, s.summaryEffects(ctx, next.OrganizationID)...)

	var kind, msg string
	switch next.Status {
	case domain.GameLive:
		kind, msg = domain.NotifyGameLive, "A game you play in is now live"
	case domain.GameFinished:
		kind, msg = domain.NotifyGameFinal, fmt.Sprintf("Final score %d-%d", next.HomeScore, next.AwayScore)
	}
	if kind != "" {
		users, err := s.repo.TeamMemberUserIDs(ctx, next.TeamIDs()...)
		if err != nil {
			s.log.Warn("list team members", zap.String("game_id", next.ID), zap.Error(err))
			return next, effects, nil
		}
		effects = append(effects, s.notify(ctx, users, "", kind, msg, next.ID)...)
	}
	return next, effects, nil
}

func (s *Service) updateScore(ctx context.Context, actor Actor, c *engine.UpdateScore) (any, []engine.Effect, error) {
	next, err := s.changeGame(ctx, actor, c.GameID, func(g domain.Game) (domain.Game, domain.ScoreLog, error) {
		return engine.ApplyScore(g, c.HomeScore, c.AwayScore, actor.UserID, s.now())
	})
	if err != nil {
		return nil, nil, err
	}
	return next, append([]engine.Effect{engine.GameEffect(next)}, s.liveGamesEffects(ctx)...), nil
}

func (s *Service) addPerson(ctx context.Context, actor Actor, c *engine.AddPerson) (any, []engine.Effect, error) {
	if err := s.authorize(ctx, actor, c.OrganizationID); err != nil {
		return nil, nil, err
	}
	person := domain.Person{
		OrganizationID: c.OrganizationID,
		Name:           c.Name,
		Email:          c.Email,
		UserID:         c.UserID,
	}
	// Link to an existing account when only the email is known.
	if person.UserID == nil && person.Email != "" {
		if u, err := s.repo.GetUserByEmail(ctx, person.Email); err == nil {
			person.UserID = &u.ID
		}
	}
	if err := s.repo.CreatePerson(ctx, &person); err != nil {
		return nil, nil, err
	}
	return person, []engine.Effect{engine.PersonEffect(person)}, nil
}

func (s *Service) addMembership(ctx context.Context, actor Actor, c *engine.AddMembership) (any, []engine.Effect, error) {
	person, err := s.repo.GetPerson(ctx, c.PersonID)
	if err != nil {
		return nil, nil, err
	}
	team, err := s.repo.GetTeam(ctx, c.TeamID)
	if err != nil {
		return nil, nil, err
	}
	if person.OrganizationID != team.OrganizationID {
		return nil, nil, fmt.Errorf("person and team belong to different organizations: %w", domain.ErrInvalid)
	}
	if err := s.authorize(ctx, actor, team.OrganizationID); err != nil {
		return nil, nil, err
	}
	m := domain.Membership{PersonID: person.ID, TeamID: team.ID, Role: c.Role, CreatedAt: s.now()}
	if err := s.repo.CreateMembership(ctx, &m); err != nil {
		return nil, nil, err
	}
	return m, []engine.Effect{engine.PersonEffect(person)}, nil
}

func (s *Service) markNotificationRead(ctx context.Context, actor Actor, c *engine.MarkNotificationRead) (any, []engine.Effect, error) {
	n, err := s.repo.MarkNotificationRead(ctx, c.ID, actor.UserID, s.now())
	if err != nil {
		return nil, nil, err
	}
	return n, []engine.Effect{engine.NotificationEffect(n)}, nil
}
