// Package protocol defines the realtime wire format shared by the socket
// endpoint and the client store.
//
// Client -> Server (ClientMessage.Event):
//
//	join_room      {id, room}
//	leave_room     {id, room}
//	subscribe      {id, channel}      entity-type channel, e.g. "games"
//	unsubscribe    {id, channel}
//	action         {id, type, payload}
//	get_live_games {id}
//	ping
//
// Server -> Client (ServerMessage.Event):
//
//	update {type, room, data}
//	ack    {id, ok, error, data}
//	error  {error}
//	pong
package protocol

import "encoding/json"

const (
	EvtJoinRoom     = "join_room"
	EvtLeaveRoom    = "leave_room"
	EvtSubscribe    = "subscribe"
	EvtUnsubscribe  = "unsubscribe"
	EvtAction       = "action"
	EvtGetLiveGames = "get_live_games"
	EvtPing         = "ping"

	EvtUpdate = "update"
	EvtAck    = "ack"
	EvtError  = "error"
	EvtPong   = "pong"
)

type ClientMessage struct {
	Event   string          `json:"event"`
	ID      string          `json:"id,omitempty"`
	Room    string          `json:"room,omitempty"`
	Channel string          `json:"channel,omitempty"`
	Type    string          `json:"type,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ServerMessage struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Type  string          `json:"type,omitempty"`
	Room  string          `json:"room,omitempty"`
	OK    bool            `json:"ok,omitempty"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Update is a typed payload addressed to one room. Data is encoded once and
// shared by every recipient.
type Update struct {
	Type string
	Room string
	Data json.RawMessage
}

// NewUpdate encodes data for delivery to room.
func NewUpdate(typ, room string, data any) (Update, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Update{}, err
	}
	return Update{Type: typ, Room: room, Data: raw}, nil
}

func (u Update) Message() ServerMessage {
	return ServerMessage{Event: EvtUpdate, Type: u.Type, Room: u.Room, Data: u.Data}
}

// Ack is the outcome of a client request carrying an id.
type Ack struct {
	ID    string          `json:"id"`
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func (a Ack) Message() ServerMessage {
	return ServerMessage{Event: EvtAck, ID: a.ID, OK: a.OK, Error: a.Error, Data: a.Data}
}

// AckFrom reads an ack back out of a server message.
func AckFrom(m ServerMessage) Ack {
	return Ack{ID: m.ID, OK: m.OK, Error: m.Error, Data: m.Data}
}

func ErrorMessage(msg string) ServerMessage {
	return ServerMessage{Event: EvtError, Error: msg}
}
