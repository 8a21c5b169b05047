package engine

import (
	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/pkg/protocol"
)

// Effect is one update to fan out after a command commits.
type Effect struct {
	Type  string
	Rooms []string
	Data  any
}

// Updates encodes the effect once and addresses a copy to every room.
func (e Effect) Updates() ([]protocol.Update, error) {
	if len(e.Rooms) == 0 {
		return nil, nil
	}
	first, err := protocol.NewUpdate(e.Type, e.Rooms[0], e.Data)
	if err != nil {
		return nil, err
	}
	out := make([]protocol.Update, 0, len(e.Rooms))
	for _, room := range e.Rooms {
		u := first
		u.Room = room
		out = append(out, u)
	}
	return out, nil
}

func SummaryEffects(summaries ...domain.OrganizationSummary) []Effect {
	out := make([]Effect, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, Effect{
			Type:  protocol.UpdOrganizations,
			Rooms: []string{protocol.RoomOrganizations, protocol.OrgSummaryRoom(s.ID)},
			Data:  []domain.OrganizationSummary{s},
		})
	}
	return out
}

func TeamEffect(t domain.Team) Effect {
	return Effect{
		Type:  protocol.UpdTeams,
		Rooms: []string{protocol.RoomTeams, protocol.OrgRoom(t.OrganizationID)},
		Data:  []domain.Team{t},
	}
}

func VenueEffect(v domain.Venue) Effect {
	return Effect{
		Type:  protocol.UpdVenues,
		Rooms: []string{protocol.RoomVenues, protocol.OrgRoom(v.OrganizationID)},
		Data:  []domain.Venue{v},
	}
}

// EventEffect reaches the owner and every participating org.
func EventEffect(e domain.Event) Effect {
	rooms := []string{protocol.RoomEvents}
	for _, id := range e.ParticipantIDs() {
		rooms = append(rooms, protocol.OrgRoom(id))
	}
	return Effect{Type: protocol.UpdEvents, Rooms: rooms, Data: []domain.Event{e}}
}

func GameEffect(g domain.Game) Effect {
	return Effect{
		Type:  protocol.UpdGames,
		Rooms: []string{protocol.RoomGames, protocol.OrgRoom(g.OrganizationID), protocol.GameRoom(g.ID)},
		Data:  []domain.Game{g},
	}
}

// LiveGamesEffect carries the complete live set; receivers replace theirs.
func LiveGamesEffect(live []domain.Game) Effect {
	if live == nil {
		live = []domain.Game{}
	}
	return Effect{Type: protocol.UpdLiveGames, Rooms: []string{protocol.RoomLiveGames}, Data: live}
}

func PersonEffect(p domain.Person) Effect {
	return Effect{
		Type:  protocol.UpdPersons,
		Rooms: []string{protocol.RoomPersons, protocol.OrgRoom(p.OrganizationID)},
		Data:  []domain.Person{p},
	}
}

func NotificationEffect(n domain.Notification) Effect {
	return Effect{
		Type:  protocol.UpdNotifications,
		Rooms: []string{protocol.UserNotificationsRoom(n.UserID)},
		Data:  []domain.Notification{n},
	}
}
