package protocol

import (
	"errors"
	"strings"
)

// Entity-type channels. Subscribing to a channel joins the room of the same
// name, except "notifications" which maps to the caller's own room.
const (
	RoomOrganizations = "organizations"
	RoomTeams         = "teams"
	RoomVenues        = "venues"
	RoomEvents        = "events"
	RoomGames         = "games"
	RoomPersons       = "persons"
	RoomLiveGames     = "live_games"

	ChannelNotifications = "notifications"
)

var ErrUnknownRoom = errors.New("unknown room")
var ErrRoomForbidden = errors.New("room not permitted")

func OrgSummaryRoom(orgID string) string { return "org:" + orgID + ":summary" }

// OrgRoom receives every entity update scoped to one organization.
func OrgRoom(orgID string) string { return "org:" + orgID }

func GameRoom(gameID string) string { return "game:" + gameID }

func UserNotificationsRoom(userID string) string { return "user:" + userID + ":notifications" }

// ChannelRoom resolves an entity-type channel to a room name.
func ChannelRoom(channel, userID string) (string, error) {
	switch channel {
	case RoomOrganizations, RoomTeams, RoomVenues, RoomEvents, RoomGames, RoomPersons, RoomLiveGames:
		return channel, nil
	case ChannelNotifications:
		if userID == "" {
			return "", ErrRoomForbidden
		}
		return UserNotificationsRoom(userID), nil
	}
	return "", ErrUnknownRoom
}

// CheckRoom validates a room name and whether userID may join it.
func CheckRoom(room, userID string) error {
	if _, err := ChannelRoom(room, userID); err == nil {
		if room == ChannelNotifications {
			return ErrUnknownRoom
		}
		return nil
	}

	parts := strings.Split(room, ":")
	switch {
	case len(parts) == 2 && (parts[0] == "org" || parts[0] == "game") && parts[1] != "":
		return nil
	case len(parts) == 3 && parts[0] == "org" && parts[1] != "" && parts[2] == "summary":
		return nil
	case len(parts) == 3 && parts[0] == "user" && parts[1] != "" && parts[2] == "notifications":
		if parts[1] != userID {
			return ErrRoomForbidden
		}
		return nil
	}
	return ErrUnknownRoom
}
