package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/league-backend/pkg/protocol"
)

var ErrUnknownAction = errors.New("unknown action")
var ErrInvalidPayload = errors.New("invalid payload")
var ErrIllegalTransition = errors.New("illegal status transition")
var ErrGameNotLive = errors.New("game is not live")
var ErrIllegalMatchup = errors.New("illegal matchup")

/*
	ADD_ORG / UPDATE_ORG         -> ORGANIZATIONS_UPDATED
	ADD_TEAM / ADD_VENUE         -> TEAMS_UPDATED / VENUES_UPDATED + owner summary
	ADD_EVENT                    -> EVENTS_UPDATED + summary for owner and every participant
	                                + NOTIFICATIONS_UPDATED for participant admins
	ADD_GAME                     -> GAMES_UPDATED + owner summary
	UPDATE_GAME_STATUS           -> GAMES_UPDATED + LIVE_GAMES + summary (+ notifications on Live/Finished)
	UPDATE_SCORE                 -> GAMES_UPDATED + LIVE_GAMES
	ADD_PERSON / ADD_MEMBERSHIP  -> PERSONS_UPDATED
	MARK_NOTIFICATION_READ       -> NOTIFICATIONS_UPDATED
*/

// Command is a decoded, shape-checked client action.
type Command interface {
	Action() string
	Validate() error
}

// Decode turns an action type and its raw payload into a validated Command.
func Decode(action string, payload json.RawMessage) (Command, error) {
	var cmd Command
	switch action {
	case protocol.ActAddOrg:
		cmd = &AddOrg{}
	case protocol.ActUpdateOrg:
		cmd = &UpdateOrg{}
	case protocol.ActAddTeam:
		cmd = &AddTeam{}
	case protocol.ActAddVenue:
		cmd = &AddVenue{}
	case protocol.ActAddEvent:
		cmd = &AddEvent{}
	case protocol.ActAddGame:
		cmd = &AddGame{}
	case protocol.ActUpdateGameStatus:
		cmd = &UpdateGameStatus{}
	case protocol.ActUpdateScore:
		cmd = &UpdateScore{}
	case protocol.ActAddPerson:
		cmd = &AddPerson{}
	case protocol.ActAddMembership:
		cmd = &AddMembership{}
	case protocol.ActMarkNotificationRead:
		cmd = &MarkNotificationRead{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		payload = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPayload, fmt.Sprintf(format, args...))
}
