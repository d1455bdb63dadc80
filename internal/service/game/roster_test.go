package game

import (
	"testing"

	"godfather-be/internal/service/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_InitialSnapshot(t *testing.T) {
	h := newHarness(t, Options{DoctorEnabled: true})

	h.join("Alice")

	player := h.connect(ConnPlayer)
	wc, ok := h.sink(player).last(RESP_WAITING_COUNT)
	require.True(t, ok)
	assert.Equal(t, 1, wc.Data.(dto.WaitingCountResponse).Count)

	ctl := h.control()
	cs, ok := h.sink(ctl).last(RESP_CONTROL_STATE)
	require.True(t, ok)

	state := cs.Data.(dto.ControlState)
	assert.Nil(t, state.ActiveRoom)
	assert.True(t, state.DoctorEnabled)
	require.Len(t, state.WaitingPlayers, 1)
	assert.Equal(t, "Alice", state.WaitingPlayers[0].Name)
}

func TestJoin_AppendsToWaitingQueue(t *testing.T) {
	h := newHarness(t, Options{})
	ctl := h.control()

	conn, playerID := h.join("  Alice ")

	joined, ok := h.sink(conn).last(RESP_JOINED)
	require.True(t, ok)
	assert.Equal(t, dto.JoinedResponse{PlayerID: playerID, Name: "Alice"}, joined.Data)

	h.join("Bob")

	cs, ok := h.sink(ctl).last(RESP_CONTROL_STATE)
	require.True(t, ok)
	state := cs.Data.(dto.ControlState)
	assert.Equal(t, 2, state.WaitingCount)
	assert.Equal(t, "Alice", state.WaitingPlayers[0].Name)
	assert.Equal(t, "Bob", state.WaitingPlayers[1].Name)

	wc, ok := h.sink(conn).last(RESP_WAITING_COUNT)
	require.True(t, ok)
	assert.Equal(t, 2, wc.Data.(dto.WaitingCountResponse).Count)
}

func TestJoin_BlankNameDefaults(t *testing.T) {
	h := newHarness(t, Options{})

	conn, _ := h.join("   ")

	joined, ok := h.sink(conn).last(RESP_JOINED)
	require.True(t, ok)
	assert.Equal(t, "Player", joined.Data.(dto.JoinedResponse).Name)
}

func TestJoin_TwiceOnSameConnection(t *testing.T) {
	h := newHarness(t, Options{})

	conn, _ := h.join("Alice")

	err := h.send(conn, REQ_JOIN_PLAYER, dto.JoinPlayerRequest{Name: "Again"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, h.e.ctx.waiting, 1)
}

func TestJoin_MalformedPayload(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.connect(ConnPlayer)

	err := h.e.handle(command{connID: conn, req: RequestWrapper{ReqType: REQ_JOIN_PLAYER, Data: []byte(`{"name":`)}})
	h.deliver()

	assert.ErrorIs(t, err, ErrMalformedRequest)

	resp, ok := h.sink(conn).last(RESP_ERROR)
	require.True(t, ok)
	assert.Equal(t, "MalformedRequest", resp.ErrKind)
	assert.Empty(t, h.e.ctx.waiting)
}

func TestJoin_DuringGameWaitsForNextStart(t *testing.T) {
	h := newHarness(t, Options{})

	ctl, _, _ := h.seats("a", "b", "c")

	late, lateID := h.join("late")
	assert.Nil(t, h.room().Player(lateID))
	assert.Len(t, h.room().Players, 3)

	// 迟到的玩家收不到房间消息
	require.NoError(t, h.send(ctl, REQ_END_NIGHT, nil))
	_, ok := h.sink(late).last(RESP_NIGHT_RESULT)
	assert.False(t, ok)

	wc, ok := h.sink(late).last(RESP_WAITING_COUNT)
	require.True(t, ok)
	assert.Equal(t, 1, wc.Data.(dto.WaitingCountResponse).Count)

	require.NoError(t, h.send(ctl, REQ_RESET_GAME, nil))
	require.NoError(t, h.send(ctl, REQ_START_GAME, nil))

	require.NotNil(t, h.room())
	require.Len(t, h.room().Players, 1)
	assert.Equal(t, lateID, h.room().Players[0].ID)
	assert.True(t, h.room().Players[0].IsHost)
}

func TestDisconnect_RemovesWaitingEntry(t *testing.T) {
	h := newHarness(t, Options{})
	ctl := h.control()

	conn, _ := h.join("Alice")
	h.join("Bob")

	h.disconnect(conn)

	cs, ok := h.sink(ctl).last(RESP_CONTROL_STATE)
	require.True(t, ok)
	state := cs.Data.(dto.ControlState)
	assert.Equal(t, 1, state.WaitingCount)
	assert.Equal(t, "Bob", state.WaitingPlayers[0].Name)

	_, stillThere := h.e.ctx.conns[conn]
	assert.False(t, stillThere)
}

func TestDisconnect_SeatedPlayerKeepsSeat(t *testing.T) {
	h := newHarness(t, Options{})

	ctl, conns, ids := h.seats("gf", "a", "b")
	h.disconnect(conns[1])

	p := h.player(ids[1])
	assert.True(t, p.Alive)
	assert.False(t, p.Connected())
	assert.Len(t, h.room().Players, 3)

	// 断线玩家仍然可以成为目标
	require.NoError(t, h.send(conns[0], REQ_NIGHT_KILL, dto.NightActionRequest{TargetID: ids[1]}))
	require.NoError(t, h.send(ctl, REQ_END_NIGHT, nil))

	assert.False(t, h.player(ids[1]).Alive)
}

func TestDisconnect_UnknownConnectionIsIgnored(t *testing.T) {
	h := newHarness(t, Options{})
	ctl := h.control()
	h.sink(ctl).reset()

	h.disconnect("nope")

	assert.Empty(t, h.sink(ctl).all(RESP_CONTROL_STATE))
}

func TestRequestKindMismatch(t *testing.T) {
	h := newHarness(t, Options{})

	player := h.connect(ConnPlayer)
	ctl := h.control()

	assert.ErrorIs(t, h.send(player, REQ_START_GAME, nil), ErrNotEntitled)
	assert.ErrorIs(t, h.send(ctl, REQ_JOIN_PLAYER, dto.JoinPlayerRequest{Name: "x"}), ErrNotEntitled)
	assert.ErrorIs(t, h.send(ctl, "dance", nil), ErrNotEntitled)
	assert.ErrorIs(t, h.send(player, "dance", nil), ErrUnknownRequest)

	resp, ok := h.sink(player).last(RESP_ERROR)
	require.True(t, ok)
	assert.Equal(t, "UnknownRequest", resp.ErrKind)
}
