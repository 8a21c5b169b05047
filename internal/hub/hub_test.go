package hub

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/league-backend/internal/room"
	"github.com/DoyleJ11/league-backend/pkg/protocol"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewHub(ctx, zaptest.NewLogger(t), nil)
}

func stats(t *testing.T, h *Hub) View {
	t.Helper()
	reply := make(chan View, 1)
	h.Inbox() <- Stats{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for hub stats")
		return View{}
	}
}

func TestHub_Join_Get_SamePointer(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()
	out := make(chan protocol.ServerMessage, 1)

	if err := h.JoinRoom(ctx, "games", room.Member{ID: "c1", Outbox: out}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := h.JoinRoom(ctx, "games", room.Member{ID: "c2", Outbox: out}); err != nil {
		t.Fatalf("join: %v", err)
	}

	reply := make(chan *room.Room, 1)
	h.Inbox() <- GetRoom{Name: "games", Reply: reply}
	r1 := <-reply
	h.Inbox() <- GetRoom{Name: "games", Reply: reply}
	r2 := <-reply

	if r1 == nil || r1 != r2 {
		t.Fatalf("expected same room pointer")
	}
	if v := stats(t, h); v.Rooms != 1 || v.Members != 2 {
		t.Fatalf("unexpected stats %+v", v)
	}
}

func TestHub_Publish_OnlyReachesRoomMembers(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	inA := make(chan protocol.ServerMessage, 4)
	inB := make(chan protocol.ServerMessage, 4)
	_ = h.JoinRoom(ctx, protocol.OrgSummaryRoom("a"), room.Member{ID: "ca", Outbox: inA})
	_ = h.JoinRoom(ctx, protocol.OrgSummaryRoom("b"), room.Member{ID: "cb", Outbox: inB})

	u, _ := protocol.NewUpdate(protocol.UpdOrganizations, protocol.OrgSummaryRoom("a"), []int{1})
	if err := h.Publish(ctx, u); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-inA:
		if msg.Room != "org:a:summary" {
			t.Fatalf("wrong room %q", msg.Room)
		}
	case <-time.After(time.Second):
		t.Fatalf("member of org:a:summary got nothing")
	}

	select {
	case msg := <-inB:
		t.Fatalf("member of org:b:summary got %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_LeaveAll_ClosesEmptyRooms(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()
	out := make(chan protocol.ServerMessage, 4)

	_ = h.JoinRoom(ctx, "games", room.Member{ID: "c1", Outbox: out})
	_ = h.JoinRoom(ctx, protocol.GameRoom("g1"), room.Member{ID: "c1", Outbox: out})
	_ = h.JoinRoom(ctx, "games", room.Member{ID: "c2", Outbox: out})

	h.Inbox() <- LeaveAll{MemberID: "c1"}

	v := stats(t, h)
	if v.Rooms != 1 || v.Members != 1 {
		t.Fatalf("want 1 room with 1 member after LeaveAll, got %+v", v)
	}
}

func TestHub_PublishToUnknownRoomIsDropped(t *testing.T) {
	h := newTestHub(t)
	u, _ := protocol.NewUpdate(protocol.UpdGames, "games", []int{})
	if err := h.Publish(context.Background(), u); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if v := stats(t, h); v.Rooms != 0 {
		t.Fatalf("publishing must not create rooms, got %+v", v)
	}
}
