package chat

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestJoinCreatesRoomWithJoinerAsHost(t *testing.T) {
	hub, _ := newTestHub()
	a := connect(hub, "a")

	require.NoError(t, hub.Join("a", "alice", "lobby", ""))

	success := lastOf[JoinSuccess](t, a)
	assert.Equal(t, "alice", success.MyUsername)
	assert.Equal(t, "lobby", success.Roomname)
	assert.True(t, success.IsHost)
	assert.Nil(t, success.Password)
	assert.Empty(t, success.History)

	info := lastOf[RoomInfo](t, a)
	assert.Equal(t, ConnID("a"), info.HostID)
	assert.Equal(t, []Member{{ID: "a", Username: "alice"}}, info.Users)

	identity, ok := hub.Identity("a")
	require.True(t, ok)
	assert.Equal(t, Identity{Username: "alice", Room: "lobby"}, identity)
}

func TestJoinSendsSuccessBeforeNotice(t *testing.T) {
	hub, _ := newTestHub()
	a := connect(hub, "a")
	require.NoError(t, hub.Join("a", "alice", "lobby", "secret"))

	events := a.all()
	require.Len(t, events, 3)
	assert.IsType(t, JoinSuccess{}, events[0])
	assert.Equal(t, Message{Type: KindSystem, Text: "alice joined", RawTime: events[1].(Message).RawTime}, events[1])
	assert.IsType(t, RoomInfo{}, events[2])
	assert.Equal(t, "secret", *events[0].(JoinSuccess).Password)
}

func TestJoinResolvesNameCollisions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		hub, _ := newTestHub()
		name := rapid.StringMatching(`[a-zA-Z]{1,8}`).Draw(t, "name")
		count := rapid.IntRange(1, 8).Draw(t, "count")

		want := []string{name}
		for i := 0; i < count; i++ {
			id := ConnID(fmt.Sprintf("c%d", i))
			connect(hub, id)
			if err := hub.Join(id, name, "room", ""); err != nil {
				t.Fatalf("join %d: %v", i, err)
			}
			if i > 0 {
				want = append(want, fmt.Sprintf("%s-%d", name, i+1))
			}
		}

		room, _ := hub.store.lockRoom("room")
		got := usernames(room.members)
		room.lock.Unlock()
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("got names %v, want %v", got, want)
		}
	})
}

func TestJoinNameCollisionIsPerRoom(t *testing.T) {
	hub, _ := newTestHub()
	connect(hub, "a")
	connect(hub, "b")
	connect(hub, "c")

	require.NoError(t, hub.Join("a", "sam", "one", ""))
	require.NoError(t, hub.Join("b", "sam", "two", ""))
	require.NoError(t, hub.Join("c", "sam", "one", ""))

	assert.Equal(t, []string{"sam"}, usernames(members(t, hub, "two")))
	assert.Equal(t, []string{"sam", "sam-2"}, usernames(members(t, hub, "one")))
}

func TestJoinSkipsTakenSuffixes(t *testing.T) {
	hub, _ := newTestHub()
	for _, id := range []ConnID{"a", "b", "c"} {
		connect(hub, id)
	}
	require.NoError(t, hub.Join("a", "bob", "r", ""))
	require.NoError(t, hub.Join("b", "bob-2", "r", ""))
	require.NoError(t, hub.Join("c", "bob", "r", ""))

	assert.Equal(t, []string{"bob", "bob-2", "bob-3"}, usernames(members(t, hub, "r")))
}

func TestJoinWrongPasswordChangesNothing(t *testing.T) {
	hub, clock := newTestHub()
	a := connect(hub, "a")
	b := connect(hub, "b")
	require.NoError(t, hub.Join("a", "A", "r1", "xyz"))
	require.NoError(t, hub.Submit("a", KindNormal, "hello"))
	a.reset()
	clock.advance(MinMessageInterval)

	err := hub.Join("b", "B", "r1", "abc")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	var passwordErr *PasswordError
	require.ErrorAs(t, err, &passwordErr)
	assert.Equal(t, "r1", passwordErr.Room)

	assert.Equal(t, []ErrorMsg{{Text: "Wrong password!"}}, eventsOf[ErrorMsg](b))
	assert.Empty(t, eventsOf[JoinSuccess](b))
	assert.Empty(t, a.all())
	assert.Equal(t, []string{"A"}, usernames(members(t, hub, "r1")))

	room, _ := hub.store.Get("r1")
	room.lock.Lock()
	assert.Len(t, room.history, 1)
	room.lock.Unlock()

	identity, _ := hub.Identity("b")
	assert.Empty(t, identity.Room)

	require.NoError(t, hub.Join("b", "B", "r1", "xyz"))
	assert.Equal(t, []string{"A", "B"}, usernames(members(t, hub, "r1")))
}

func TestJoinPublicRoomIgnoresSuppliedPassword(t *testing.T) {
	hub, _ := newTestHub()
	connect(hub, "a")
	b := connect(hub, "b")
	require.NoError(t, hub.Join("a", "A", "open", ""))

	require.NoError(t, hub.Join("b", "B", "open", "whatever"))

	success := lastOf[JoinSuccess](t, b)
	assert.False(t, success.IsHost)
	assert.Nil(t, success.Password)
}

func TestJoinRejectsInvalidRequests(t *testing.T) {
	hub, _ := newTestHub()
	a := connect(hub, "a")

	assert.ErrorIs(t, hub.Join("a", "  ", "room", ""), ErrInvalidJoin)
	assert.ErrorIs(t, hub.Join("a", "alice", "", ""), ErrInvalidJoin)
	assert.ErrorIs(t, hub.Join("ghost", "alice", "room", ""), ErrUnknownConnection)
	assert.Empty(t, a.all())
	_, exists := hub.store.Get("room")
	assert.False(t, exists)

	require.NoError(t, hub.Join("a", "alice", "room", ""))
	assert.ErrorIs(t, hub.Join("a", "alice", "other", ""), ErrAlreadyJoined)
	_, exists = hub.store.Get("other")
	assert.False(t, exists)
}

func TestHostDisconnectPromotesEarliestMember(t *testing.T) {
	hub, _ := newTestHub()
	connect(hub, "a")
	b := connect(hub, "b")
	c := connect(hub, "c")
	require.NoError(t, hub.Join("a", "A", "r", ""))
	require.NoError(t, hub.Join("b", "B", "r", ""))
	require.NoError(t, hub.Join("c", "C", "r", ""))
	b.reset()

	hub.Disconnect("a")

	left := eventsOf[Message](b)
	require.Len(t, left, 1)
	assert.Equal(t, "A left", left[0].Text)
	info := lastOf[RoomInfo](t, b)
	assert.Equal(t, ConnID("b"), info.HostID)
	assert.Equal(t, []string{"B", "C"}, usernames(info.Users))
	assert.Equal(t, info, lastOf[RoomInfo](t, c))

	_, exists := hub.Identity("a")
	assert.False(t, exists)
}

func TestHostSuccessionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		hub, _ := newTestHub()
		n := rapid.IntRange(2, 8).Draw(t, "members")
		ids := make([]ConnID, n)
		for i := range ids {
			ids[i] = ConnID(fmt.Sprintf("c%d", i))
			connect(hub, ids[i])
			if err := hub.Join(ids[i], "user", "r", ""); err != nil {
				t.Fatal(err)
			}
		}
		remaining := append([]ConnID(nil), ids...)
		leavers := rapid.IntRange(0, n-2).Draw(t, "leavers")
		for i := 0; i < leavers; i++ {
			idx := rapid.IntRange(1, len(remaining)-1).Draw(t, "idx")
			hub.Disconnect(remaining[idx])
			remaining = append(remaining[:idx], remaining[idx+1:]...)
		}

		hub.Disconnect(remaining[0])

		room, ok := hub.store.lockRoom("r")
		if !ok {
			t.Fatal("room vanished")
		}
		defer room.lock.Unlock()
		if room.hostID != remaining[1] {
			t.Fatalf("host %s, want earliest remaining %s", room.hostID, remaining[1])
		}
	})
}

func TestNonHostLeavingKeepsHost(t *testing.T) {
	hub, _ := newTestHub()
	a := connect(hub, "a")
	connect(hub, "b")
	require.NoError(t, hub.Join("a", "A", "r", ""))
	require.NoError(t, hub.Join("b", "B", "r", ""))

	hub.Disconnect("b")

	info := lastOf[RoomInfo](t, a)
	assert.Equal(t, ConnID("a"), info.HostID)
	assert.Equal(t, []string{"A"}, usernames(info.Users))
}

func TestLastMemberLeavingRemovesRoom(t *testing.T) {
	hub, clock := newTestHub()
	connect(hub, "a")
	connect(hub, "b")
	require.NoError(t, hub.Join("a", "A", "r", "pw"))
	require.NoError(t, hub.Join("b", "B", "r", "pw"))
	require.NoError(t, hub.Submit("a", KindNormal, "old news"))

	hub.Disconnect("a")
	hub.Disconnect("b")

	_, exists := hub.store.Get("r")
	assert.False(t, exists)
	assert.Zero(t, hub.store.Count())

	clock.advance(MinMessageInterval)
	c := connect(hub, "c")
	require.NoError(t, hub.Join("c", "C", "r", ""))
	success := lastOf[JoinSuccess](t, c)
	assert.True(t, success.IsHost)
	assert.Empty(t, success.History)
	assert.Nil(t, success.Password)
}

func TestDisconnectWithoutRoomIsNoop(t *testing.T) {
	hub, _ := newTestHub()
	a := connect(hub, "a")

	hub.Disconnect("a")
	hub.Disconnect("a")
	hub.Disconnect("never-connected")

	assert.Empty(t, a.all())
	assert.Zero(t, hub.registry.Count())
}

func TestKickScenario(t *testing.T) {
	hub, _ := newTestHub()
	a := connect(hub, "A")
	b := connect(hub, "B")
	require.NoError(t, hub.Join("A", "A", "lobby", ""))
	require.NoError(t, hub.Join("B", "A", "lobby", ""))
	assert.Equal(t, "A-2", lastOf[JoinSuccess](t, b).MyUsername)
	assert.True(t, lastOf[JoinSuccess](t, a).IsHost)

	require.NoError(t, hub.Kick("A", "B"))
	assert.Len(t, eventsOf[Kicked](b), 1)
	assert.True(t, b.isClosed())

	hub.Disconnect("B")

	info := lastOf[RoomInfo](t, a)
	assert.Equal(t, []Member{{ID: "A", Username: "A"}}, info.Users)
	assert.Equal(t, ConnID("A"), info.HostID)
}

func TestHostOnlyActionsIgnoredForOthers(t *testing.T) {
	hub, _ := newTestHub()
	a := connect(hub, "a")
	b := connect(hub, "b")
	connect(hub, "outsider")
	require.NoError(t, hub.Join("a", "A", "r", ""))
	require.NoError(t, hub.Join("b", "B", "r", ""))
	a.reset()
	b.reset()

	assert.ErrorIs(t, hub.Kick("b", "a"), ErrNotAuthorized)
	assert.ErrorIs(t, hub.Promote("b", "b"), ErrNotAuthorized)
	assert.ErrorIs(t, hub.DeleteRoom("b"), ErrNotAuthorized)
	assert.ErrorIs(t, hub.UpdatePassword("b", "mine"), ErrNotAuthorized)
	assert.ErrorIs(t, hub.Kick("outsider", "a"), ErrNotMember)

	assert.Empty(t, a.all())
	assert.Empty(t, b.all())
	assert.False(t, a.isClosed())
	_, exists := hub.store.Get("r")
	assert.True(t, exists)
}

func TestKickTargetMustBeInHostRoom(t *testing.T) {
	hub, _ := newTestHub()
	connect(hub, "a")
	other := connect(hub, "b")
	require.NoError(t, hub.Join("a", "A", "r", ""))
	require.NoError(t, hub.Join("b", "B", "elsewhere", ""))

	assert.ErrorIs(t, hub.Kick("a", "b"), ErrUnknownTarget)
	assert.ErrorIs(t, hub.Promote("a", "b"), ErrUnknownTarget)
	assert.False(t, other.isClosed())
}

func TestPromoteTransfersHost(t *testing.T) {
	hub, _ := newTestHub()
	a := connect(hub, "a")
	connect(hub, "b")
	require.NoError(t, hub.Join("a", "A", "r", ""))
	require.NoError(t, hub.Join("b", "B", "r", ""))

	require.NoError(t, hub.Promote("a", "b"))

	assert.Equal(t, ConnID("b"), lastOf[RoomInfo](t, a).HostID)
	assert.ErrorIs(t, hub.Kick("a", "b"), ErrNotAuthorized)
	require.NoError(t, hub.Kick("b", "a"))
	assert.True(t, a.isClosed())
}

func TestDeleteRoom(t *testing.T) {
	hub, _ := newTestHub()
	a := connect(hub, "a")
	b := connect(hub, "b")
	require.NoError(t, hub.Join("a", "A", "r", ""))
	require.NoError(t, hub.Join("b", "B", "r", ""))
	b.reset()

	require.NoError(t, hub.DeleteRoom("a"))

	for _, sink := range []*fakeSink{a, b} {
		assert.Len(t, eventsOf[RoomDeleted](sink), 1)
		assert.True(t, sink.isClosed())
	}
	_, exists := hub.store.Get("r")
	assert.False(t, exists)

	a.reset()
	b.reset()
	hub.Disconnect("b")
	hub.Disconnect("a")
	assert.Empty(t, a.all())
	assert.Empty(t, b.all())
	assert.Zero(t, hub.registry.Count())
}

func TestDeleteRoomDoesNotTouchRecreatedRoom(t *testing.T) {
	hub, _ := newTestHub()
	connect(hub, "a")
	require.NoError(t, hub.Join("a", "A", "r", ""))
	require.NoError(t, hub.DeleteRoom("a"))

	c := connect(hub, "c")
	require.NoError(t, hub.Join("c", "C", "r", ""))
	hub.Disconnect("a")

	assert.Equal(t, []string{"C"}, usernames(members(t, hub, "r")))
	assert.Empty(t, eventsOf[Message](c)[1:])
}

func TestUpdatePassword(t *testing.T) {
	hub, _ := newTestHub()
	a := connect(hub, "a")
	connect(hub, "b")
	require.NoError(t, hub.Join("a", "A", "r", ""))
	a.reset()

	require.NoError(t, hub.UpdatePassword("a", "pw"))

	info := lastOf[RoomInfo](t, a)
	require.NotNil(t, info.Password)
	assert.Equal(t, "pw", *info.Password)
	assert.Equal(t, "Room settings changed: locked with a password", lastOf[Message](t, a).Text)
	assert.ErrorIs(t, hub.Join("b", "B", "r", ""), ErrPasswordMismatch)

	require.NoError(t, hub.UpdatePassword("a", ""))
	assert.Nil(t, lastOf[RoomInfo](t, a).Password)
	assert.Equal(t, "Room settings changed: unlocked, the room is now public", lastOf[Message](t, a).Text)
	require.NoError(t, hub.Join("b", "B", "r", "anything"))
}

func TestConcurrentJoinsProduceUniqueNames(t *testing.T) {
	hub, _ := newTestHub()
	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		id := ConnID(fmt.Sprintf("c%d", i))
		connect(hub, id)
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, hub.Join(id, "guest", "busy", ""))
		}()
	}
	wg.Wait()

	names := usernames(members(t, hub, "busy"))
	require.Len(t, names, n)
	seen := make(map[string]bool, n)
	for _, name := range names {
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
	assert.True(t, seen["guest"])
	assert.True(t, seen[fmt.Sprintf("guest-%d", n)])
}

func TestConcurrentJoinAndLeaveNeverLosesRoom(t *testing.T) {
	hub, _ := newTestHub()
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		id := ConnID(fmt.Sprintf("c%d", i))
		connect(hub, id)
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, hub.Join(id, "u", "churn", ""))
			hub.Disconnect(id)
		}()
	}
	wg.Wait()

	_, exists := hub.store.Get("churn")
	assert.False(t, exists)
	assert.Zero(t, hub.registry.Count())
}
