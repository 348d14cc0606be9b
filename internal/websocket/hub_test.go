package websocket

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestClient(h *Hub) *Client {
	return NewClient(h, nil)
}

func memberIDs(clients []*Client) map[string]bool {
	ids := make(map[string]bool, len(clients))
	for _, c := range clients {
		ids[c.ID] = true
	}
	return ids
}

func TestJoinIdempotent(t *testing.T) {
	h := NewHub()
	c := newTestClient(h)

	h.Join("RM1", c)
	h.Join("RM1", c)

	members := h.Members("RM1")
	if len(members) != 1 {
		t.Fatalf("Members() = %d members, want 1", len(members))
	}
	if members[0].ID != c.ID {
		t.Errorf("Members()[0].ID = %s, want %s", members[0].ID, c.ID)
	}
	if !c.IsInRoom("RM1") {
		t.Error("IsInRoom(RM1) = false after join")
	}
}

func TestLeaveIdempotent(t *testing.T) {
	h := NewHub()
	a := newTestClient(h)
	b := newTestClient(h)

	h.Join("RM1", a)
	h.Join("RM1", b)

	// Выход не-участника — no-op
	outsider := newTestClient(h)
	h.Leave("RM1", outsider)
	if got := len(h.Members("RM1")); got != 2 {
		t.Fatalf("Members() after outsider leave = %d, want 2", got)
	}

	h.Leave("RM1", a)
	h.Leave("RM1", a)
	if got := len(h.Members("RM1")); got != 1 {
		t.Fatalf("Members() after double leave = %d, want 1", got)
	}
	if a.IsInRoom("RM1") {
		t.Error("IsInRoom(RM1) = true after leave")
	}
}

func TestMembersExceptExcludesCaller(t *testing.T) {
	h := NewHub()
	a := newTestClient(h)
	b := newTestClient(h)
	c := newTestClient(h)

	h.Join("RM1", a)
	h.Join("RM1", b)
	h.Join("RM1", c)

	got := memberIDs(h.MembersExcept("RM1", a.ID))
	if len(got) != 2 || got[a.ID] {
		t.Errorf("MembersExcept() = %v, want %s and %s only", got, b.ID, c.ID)
	}

	all := memberIDs(h.Members("RM1"))
	if len(all) != 3 || !all[a.ID] {
		t.Errorf("Members() = %v, want all three", all)
	}
}

func TestRoomIsolation(t *testing.T) {
	h := NewHub()
	a := newTestClient(h)
	b := newTestClient(h)

	h.Join("RM1", a)
	h.Join("RM2", b)

	h.BroadcastToRoom("RM1", []byte("hello"), "")

	select {
	case msg := <-b.Send:
		t.Fatalf("client in RM2 received message from RM1: %s", msg)
	default:
	}

	select {
	case <-a.Send:
	default:
		t.Fatal("client in RM1 did not receive broadcast")
	}
}

func TestEmptyRoomPruned(t *testing.T) {
	h := NewHub()
	c := newTestClient(h)

	h.Join("RM1", c)
	h.Leave("RM1", c)

	h.roomsMu.RLock()
	_, ok := h.rooms["RM1"]
	h.roomsMu.RUnlock()
	if ok {
		t.Error("empty room was not pruned from directory")
	}
	if got := h.Members("RM1"); got != nil {
		t.Errorf("Members() for pruned room = %v, want nil", got)
	}

	// Комната создается заново при следующем join
	h.Join("RM1", c)
	if got := len(h.Members("RM1")); got != 1 {
		t.Errorf("Members() after re-join = %d, want 1", got)
	}
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	h := NewHub()
	a := newTestClient(h)
	b := newTestClient(h)

	h.registerClient(a)
	h.registerClient(b)
	h.Join("RM1", a)
	h.Join("RM2", a)
	h.Join("RM1", b)

	h.unregisterClient(a)

	for _, roomID := range []string{"RM1", "RM2"} {
		if memberIDs(h.Members(roomID))[a.ID] {
			t.Errorf("room %s still contains unregistered client", roomID)
		}
	}
	if !memberIDs(h.Members("RM1"))[b.ID] {
		t.Error("unregister of one client removed another from RM1")
	}

	// Канал закрыт — новая рассылка его уже не увидит
	if _, ok := <-a.Send; ok {
		t.Error("Send channel still open after unregister")
	}

	// Повторный teardown — no-op, без паники на закрытом канале
	h.unregisterClient(a)
}

func TestSendAfterTeardownFails(t *testing.T) {
	h := NewHub()
	c := newTestClient(h)

	h.registerClient(c)
	h.Join("RM1", c)
	h.unregisterClient(c)

	if err := c.SendEvent(EventError, "", nil); !errors.Is(err, ErrClientClosed) {
		t.Errorf("SendEvent() after teardown error = %v, want %v", err, ErrClientClosed)
	}

	// Рассылка по снимку с мертвым соединением не паникует
	h.Join("RM1", newTestClient(h))
	h.BroadcastToRoom("RM1", []byte("hello"), "")
}

// Рассылки, идущие параллельно с teardown соединений, не должны
// ронять процесс отправкой в закрытый канал
func TestBroadcastDuringTeardown(t *testing.T) {
	h := NewHub()

	const n = 64
	clients := make([]*Client, n)
	for i := range clients {
		clients[i] = newTestClient(h)
		h.registerClient(clients[i])
		h.Join("RM1", clients[i])
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.BroadcastToRoom("RM1", []byte("hello"), "")
			}
		}()
	}

	for _, c := range clients {
		h.unregisterClient(c)
	}
	wg.Wait()

	if got := len(h.Members("RM1")); got != 0 {
		t.Errorf("RM1 members after teardown = %d, want 0", got)
	}
}

func TestUnregisterAfterStopDoesNotBlock(t *testing.T) {
	h := NewHub()
	c := newTestClient(h)
	h.registerClient(c)

	h.Stop()

	done := make(chan struct{})
	go func() {
		h.Unregister(c)
		h.Register(newTestClient(h))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Register/Unregister blocked after Stop")
	}
}

func TestConcurrentJoins(t *testing.T) {
	h := NewHub()

	const n = 50
	clients := make([]*Client, n)
	for i := range clients {
		clients[i] = newTestClient(h)
	}

	var wg sync.WaitGroup
	for i, c := range clients {
		wg.Add(1)
		go func(i int, c *Client) {
			defer wg.Done()
			// Четные в RM1, нечетные в RM2: комнаты не должны мешать друг другу
			if i%2 == 0 {
				h.Join("RM1", c)
			} else {
				h.Join("RM2", c)
			}
		}(i, c)
	}
	wg.Wait()

	if got := len(h.Members("RM1")); got != n/2 {
		t.Errorf("RM1 members = %d, want %d", got, n/2)
	}
	if got := len(h.Members("RM2")); got != n/2 {
		t.Errorf("RM2 members = %d, want %d", got, n/2)
	}
}
