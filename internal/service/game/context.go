package game

import (
	"math/rand/v2"
	"time"

	"godfather-be/internal/service/dto"
)

// GameContext is the state owned by the engine worker. Nothing outside the worker
// goroutine reads or writes it; outbound messages are collected in pending and
// handed to the Broadcaster after each command commits.
type GameContext struct {
	Room *Room
	// 大厅配置，仅在没有房间时可修改
	DoctorEnabled bool

	defaultDoctorEnabled bool

	conns   map[string]*Connection
	waiting []*WaitingEntry

	seq     uint64
	pending []delivery

	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
	// 每次进入夜晚时调用，用于调度题目
	onNightStart func(room *Room)
}

func newGameContext(doctorEnabled bool) *GameContext {
	return &GameContext{
		DoctorEnabled:        doctorEnabled,
		defaultDoctorEnabled: doctorEnabled,
		conns:                make(map[string]*Connection),
		waiting:              make([]*WaitingEntry, 0),
		now:                  time.Now,
		shuffle:              rand.Shuffle,
		onNightStart:         func(*Room) {},
	}
}

func (gc *GameContext) Phase() Phase {
	if gc.Room == nil {
		return PhaseLobby
	}

	return gc.Room.Phase
}

func (gc *GameContext) isSeated(conn *Connection) bool {
	if gc.Room == nil || conn.PlayerID == "" {
		return false
	}

	return gc.Room.Player(conn.PlayerID) != nil
}

func (gc *GameContext) nextSeq() uint64 {
	gc.seq++
	return gc.seq
}

func (gc *GameContext) push(conn *Connection, resp ResponseWrapper) {
	if conn == nil || conn.sink == nil {
		return
	}

	gc.pending = append(gc.pending, delivery{connID: conn.ID, sink: conn.sink, resp: resp})
}

func (gc *GameContext) Unicast(conn *Connection, resp ResponseWrapper) {
	if conn == nil {
		return
	}

	resp.Seq = gc.nextSeq()
	gc.push(conn, resp)
}

// BroadcastRoom sends to every seated player that still has a connection.
func (gc *GameContext) BroadcastRoom(resp ResponseWrapper) {
	if gc.Room == nil {
		return
	}

	resp.Seq = gc.nextSeq()
	for _, p := range gc.Room.Players {
		gc.push(p.conn, resp)
	}
}

func (gc *GameContext) BroadcastControls(resp ResponseWrapper) {
	resp.Seq = gc.nextSeq()
	for _, c := range gc.conns {
		if c.Kind == ConnControl {
			gc.push(c, resp)
		}
	}
}

// BroadcastUnseated sends to player connections that hold no seat in the room.
func (gc *GameContext) BroadcastUnseated(resp ResponseWrapper) {
	resp.Seq = gc.nextSeq()
	for _, c := range gc.conns {
		if c.Kind == ConnPlayer && !gc.isSeated(c) {
			gc.push(c, resp)
		}
	}
}

// Sync publishes the post-commit snapshots: room_state to the room, waiting_count to
// unseated connections and control_state to the control surface.
func (gc *GameContext) Sync() {
	if gc.Room != nil {
		gc.BroadcastRoom(WrapResponse(RESP_ROOM_STATE, gc.RoomState()))
	}

	gc.BroadcastUnseated(WrapResponse(
		RESP_WAITING_COUNT,
		dto.WaitingCountResponse{Count: len(gc.waiting)},
	))

	gc.BroadcastControls(WrapResponse(RESP_CONTROL_STATE, gc.ControlState()))
}

func (gc *GameContext) flush() []delivery {
	out := gc.pending
	gc.pending = nil
	return out
}

func (gc *GameContext) RoomState() dto.RoomState {
	room := gc.Room

	players := make([]dto.Player, 0, len(room.Players))
	for _, p := range room.Players {
		players = append(players, dto.Player{
			ID:     p.ID,
			Name:   p.Name,
			Alive:  p.Alive,
			IsHost: p.IsHost,
		})
	}

	return dto.RoomState{
		RoomID:        room.ID,
		Phase:         string(room.Phase),
		DoctorEnabled: room.DoctorEnabled,
		NightRound:    room.NightRound,
		Players:       players,
		Winner:        room.Winner.Ptr(),
	}
}

func (gc *GameContext) ControlState() dto.ControlState {
	state := dto.ControlState{
		WaitingCount:   len(gc.waiting),
		WaitingPlayers: make([]dto.WaitingPlayer, 0, len(gc.waiting)),
		DoctorEnabled:  gc.DoctorEnabled,
	}

	if gc.Room != nil {
		rs := gc.RoomState()
		state.ActiveRoom = &rs
	}

	for _, w := range gc.waiting {
		state.WaitingPlayers = append(state.WaitingPlayers, dto.WaitingPlayer{
			ID:   w.PlayerID,
			Name: w.Name,
		})
	}

	return state
}
