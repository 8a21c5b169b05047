package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRoom(t *testing.T) {
	cases := []struct {
		name    string
		room    string
		userID  string
		wantErr error
	}{
		{name: "entity channel", room: RoomGames},
		{name: "org summary", room: OrgSummaryRoom("a1")},
		{name: "org scope", room: OrgRoom("a1")},
		{name: "game scope", room: GameRoom("g1")},
		{name: "own notifications", room: UserNotificationsRoom("u1"), userID: "u1"},
		{name: "someone else's notifications", room: UserNotificationsRoom("u2"), userID: "u1", wantErr: ErrRoomForbidden},
		{name: "anonymous notifications", room: UserNotificationsRoom("u2"), wantErr: ErrRoomForbidden},
		{name: "bare notifications channel", room: ChannelNotifications, userID: "u1", wantErr: ErrUnknownRoom},
		{name: "empty org id", room: "org::summary", wantErr: ErrUnknownRoom},
		{name: "garbage", room: "lobby:zed", wantErr: ErrUnknownRoom},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckRoom(tc.room, tc.userID)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestChannelRoom_NotificationsNeedsUser(t *testing.T) {
	_, err := ChannelRoom(ChannelNotifications, "")
	require.ErrorIs(t, err, ErrRoomForbidden)

	room, err := ChannelRoom(ChannelNotifications, "u9")
	require.NoError(t, err)
	assert.Equal(t, "user:u9:notifications", room)
}

func TestNewUpdate_EncodesOnce(t *testing.T) {
	u, err := NewUpdate(UpdOrganizations, OrgSummaryRoom("a"), []map[string]int{{"eventCount": 1}})
	require.NoError(t, err)

	msg := u.Message()
	assert.Equal(t, EvtUpdate, msg.Event)
	assert.Equal(t, "org:a:summary", msg.Room)
	assert.JSONEq(t, `[{"eventCount":1}]`, string(msg.Data))
}
