package quest

import (
	"testing"
	"time"
)

func TestMemoryStoreCreatesOnFirstUse(t *testing.T) {
	store := NewMemoryStore()

	session := store.Get(42)
	if session.Identity != 42 {
		t.Fatalf("unexpected identity: got %d", session.Identity)
	}
	if session.State != StateInit {
		t.Fatalf("new session state: got %s want %s", session.State, StateInit)
	}
	if session.Quest != "" {
		t.Fatalf("new session quest not empty: %q", session.Quest)
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	store := NewMemoryStore()

	session := store.Get(7)
	session.State = StateQuestShared
	session.Quest = "bring me a dragon scale"
	store.Put(session)

	got := store.Get(7)
	if got.State != StateQuestShared {
		t.Fatalf("state: got %s", got.State)
	}
	if got.Quest != "bring me a dragon scale" {
		t.Fatalf("quest: got %q", got.Quest)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	store := NewMemoryStore()

	session := store.Get(7)
	session.State = StateQuestShared
	session.Quest = "quest"
	store.Put(session)

	store.Reset(7)

	got := store.Get(7)
	if got.State != StateInit || got.Quest != "" {
		t.Fatalf("after reset: state=%s quest=%q", got.State, got.Quest)
	}
}

func TestMemoryStoreIdentitiesIndependent(t *testing.T) {
	store := NewMemoryStore()

	a := store.Get(1)
	a.State = StateQuestShared
	a.Quest = "race me to the fountain"
	store.Put(a)

	b := store.Get(2)
	if b.State != StateInit || b.Quest != "" {
		t.Fatalf("identity 2 leaked state: state=%s quest=%q", b.State, b.Quest)
	}
}

func TestMemoryStoreEvictIdle(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithClock(func() time.Time { return now }))

	store.Put(Session{Identity: 1, State: StateLocationShared})
	store.Put(Session{Identity: 2, State: StateLocationShared})

	now = now.Add(2 * time.Hour)
	store.Put(Session{Identity: 2, State: StateQuestShared, Quest: "duel at dawn"})

	evicted := store.EvictIdle(time.Hour)
	if evicted != 1 {
		t.Fatalf("evicted: got %d want 1", evicted)
	}

	if got := store.Get(1); got.State != StateInit {
		t.Fatalf("identity 1 not recreated fresh: state=%s", got.State)
	}
	if got := store.Get(2); got.Quest != "duel at dawn" {
		t.Fatalf("identity 2 evicted unexpectedly: quest=%q", got.Quest)
	}
}
