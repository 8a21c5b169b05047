package league

import (
	"context"
	"strings"

	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/pkg/protocol"
)

type snapshot struct {
	room    string
	updates []protocol.Update
}

func (b *snapshot) add(typ string, data any) error {
	u, err := protocol.NewUpdate(typ, b.room, data)
	if err != nil {
		return err
	}
	b.updates = append(b.updates, u)
	return nil
}

// Snapshot returns the current state a client should see on joining room,
// addressed to that room. Entity-type channels other than organizations and
// live_games are push-only and yield nothing.
func (s *Service) Snapshot(ctx context.Context, room string) ([]protocol.Update, error) {
	b := &snapshot{room: room}
	var err error

	switch {
	case room == protocol.RoomOrganizations:
		var summaries []domain.OrganizationSummary
		if summaries, err = s.repo.ListOrgSummaries(ctx); err == nil {
			err = b.add(protocol.UpdOrganizations, summaries)
		}

	case room == protocol.RoomLiveGames:
		var live []domain.Game
		if live, err = s.LiveGames(ctx); err == nil {
			err = b.add(protocol.UpdLiveGames, live)
		}

	case strings.HasPrefix(room, "org:") && strings.HasSuffix(room, ":summary"):
		id := strings.TrimSuffix(strings.TrimPrefix(room, "org:"), ":summary")
		var summary domain.OrganizationSummary
		if summary, err = s.repo.OrgSummary(ctx, id); err == nil {
			err = b.add(protocol.UpdOrganizations, []domain.OrganizationSummary{summary})
		}

	case strings.HasPrefix(room, "org:"):
		err = s.orgSnapshot(ctx, b, strings.TrimPrefix(room, "org:"))

	case strings.HasPrefix(room, "game:"):
		var g domain.Game
		if g, err = s.repo.GetGame(ctx, strings.TrimPrefix(room, "game:")); err == nil {
			err = b.add(protocol.UpdGames, []domain.Game{g})
		}

	case strings.HasPrefix(room, "user:") && strings.HasSuffix(room, ":notifications"):
		id := strings.TrimSuffix(strings.TrimPrefix(room, "user:"), ":notifications")
		var ns []domain.Notification
		if ns, err = s.repo.ListNotifications(ctx, id); err == nil {
			if ns == nil {
				ns = []domain.Notification{}
			}
			err = b.add(protocol.UpdNotifications, ns)
		}
	}
	if err != nil {
		return nil, err
	}
	return b.updates, nil
}

// orgSnapshot adds one update per non-empty entity list of the organization.
func (s *Service) orgSnapshot(ctx context.Context, b *snapshot, id string) error {
	if _, err := s.repo.GetOrg(ctx, id); err != nil {
		return err
	}
	teams, err := s.repo.ListTeams(ctx, id)
	if err != nil {
		return err
	}
	venues, err := s.repo.ListVenues(ctx, id)
	if err != nil {
		return err
	}
	events, err := s.repo.ListEvents(ctx, id)
	if err != nil {
		return err
	}
	games, err := s.repo.ListGames(ctx, id, "")
	if err != nil {
		return err
	}
	persons, err := s.repo.ListPersons(ctx, id)
	if err != nil {
		return err
	}

	for _, part := range []struct {
		typ  string
		data any
		n    int
	}{
		{protocol.UpdTeams, teams, len(teams)},
		{protocol.UpdVenues, venues, len(venues)},
		{protocol.UpdEvents, events, len(events)},
		{protocol.UpdGames, games, len(games)},
		{protocol.UpdPersons, persons, len(persons)},
	} {
		if part.n == 0 {
			continue
		}
		if err := b.add(part.typ, part.data); err != nil {
			return err
		}
	}
	return nil
}
