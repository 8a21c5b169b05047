package room

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DoyleJ11/league-backend/pkg/protocol"
)

// helper: receive one message with a timeout so tests never hang
func recvMessage(t *testing.T, ch <-chan protocol.ServerMessage, within time.Duration) protocol.ServerMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(within):
		t.Fatalf("timed out waiting for message")
		return protocol.ServerMessage{} // unreachable
	}
}

func recvNoMessage(t *testing.T, ch <-chan protocol.ServerMessage, within time.Duration) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("expected no message within %v, but got: %+v", within, msg)
	case <-time.After(within):
	}
}

func recvView(t *testing.T, ch <-chan View, within time.Duration) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func mustUpdate(t *testing.T, typ, room string, data any) protocol.Update {
	t.Helper()
	u, err := protocol.NewUpdate(typ, room, data)
	if err != nil {
		t.Fatalf("encode update: %v", err)
	}
	return u
}

func TestRoom_Publish_ReachesEveryMember(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRoom(ctx, "org:a:summary", nil)

	out1 := make(chan protocol.ServerMessage, 2)
	out2 := make(chan protocol.ServerMessage, 2)
	r.Inbox() <- Join{Member: Member{ID: "c1", Outbox: out1}}
	r.Inbox() <- Join{Member: Member{ID: "c2", Outbox: out2}}

	r.Inbox() <- Publish{Update: mustUpdate(t, protocol.UpdOrganizations, "org:a:summary", []int{1})}

	for _, out := range []chan protocol.ServerMessage{out1, out2} {
		msg := recvMessage(t, out, 100*time.Millisecond)
		if msg.Event != protocol.EvtUpdate || msg.Type != protocol.UpdOrganizations || msg.Room != "org:a:summary" {
			t.Fatalf("unexpected message %+v", msg)
		}
	}
}

func TestRoom_Leave_StopsDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRoom(ctx, "games", nil)

	out := make(chan protocol.ServerMessage, 2)
	r.Inbox() <- Join{Member: Member{ID: "c1", Outbox: out}}
	r.Inbox() <- Leave{MemberID: "c1"}
	r.Inbox() <- Publish{Update: mustUpdate(t, protocol.UpdGames, "games", []int{})}

	recvNoMessage(t, out, 100*time.Millisecond)

	reply := make(chan View, 1)
	r.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 100*time.Millisecond)
	if view.NumMembers != 0 || view.Published != 1 {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestRoom_DropSlowMember(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRoom(ctx, "games", nil)

	var kicked atomic.Int32
	slow := make(chan protocol.ServerMessage) // unbuffered and never read
	fast := make(chan protocol.ServerMessage, 4)
	r.Inbox() <- Join{Member: Member{ID: "slow", Outbox: slow, Kick: func() { kicked.Add(1) }}}
	r.Inbox() <- Join{Member: Member{ID: "fast", Outbox: fast}}

	r.Inbox() <- Publish{Update: mustUpdate(t, protocol.UpdGames, "games", []int{1})}
	_ = recvMessage(t, fast, 100*time.Millisecond)

	reply := make(chan View, 1)
	r.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 100*time.Millisecond)

	if view.NumMembers != 1 {
		t.Fatalf("expected slow member to be dropped; NumMembers=%d", view.NumMembers)
	}
	if kicked.Load() != 1 {
		t.Fatalf("expected slow member to be kicked once, got %d", kicked.Load())
	}
}

func TestRoom_Shutdown_ExitsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRoom(ctx, "games", nil)
	r.Inbox() <- Shutdown{}

	select {
	case <-r.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("room loop did not exit after Shutdown")
	}
}
