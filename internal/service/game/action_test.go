package game

import (
	"testing"

	"godfather-be/internal/service/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actions(kill, save string) NightActions {
	var na NightActions
	if kill != "" {
		na.Record(NightAction{Round: 1, ActorRole: RoleGodfather, ActorID: "gf", TargetID: kill})
	}
	if save != "" {
		na.Record(NightAction{Round: 1, ActorRole: RoleDoctor, ActorID: "doc", TargetID: save})
	}
	return na
}

func TestResolveNight(t *testing.T) {
	cases := []struct {
		name       string
		kill, save string
		want       Victim
	}{
		{"no actions", "", "", NoKill()},
		{"save without kill", "", "a", NoKill()},
		{"kill without save", "a", "", Killed("a")},
		{"save matches kill", "a", "a", NoKill()},
		{"save elsewhere", "a", "b", Killed("a")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// 对同一组输入反复结算结果不变
			for i := 0; i < 3; i++ {
				assert.Equal(t, tc.want, ResolveNight(actions(tc.kill, tc.save)))
			}
		})
	}
}

func TestNightActions_LastWriteWins(t *testing.T) {
	var na NightActions
	na.Record(NightAction{Round: 1, ActorRole: RoleGodfather, ActorID: "gf", TargetID: "a"})
	na.Record(NightAction{Round: 1, ActorRole: RoleGodfather, ActorID: "gf", TargetID: "b"})

	kill, ok := na.Kill()
	require.True(t, ok)
	assert.Equal(t, "b", kill.TargetID)

	_, ok = na.Save()
	assert.False(t, ok)

	na.Clear()
	_, ok = na.Kill()
	assert.False(t, ok)
}

func TestVictim_Wire(t *testing.T) {
	id, ok := NoKill().PlayerID()
	assert.False(t, ok)
	assert.Empty(t, id)
	assert.Nil(t, NoKill().Ptr())

	b, err := Killed("p1").MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"p1"`, string(b))

	b, err = NoKill().MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

type seat struct {
	role  Role
	alive bool
}

func roster(seated ...seat) *Room {
	room := &Room{}
	for i, s := range seated {
		room.Players = append(room.Players, &Player{ID: string(rune('a' + i)), Role: s.role, Alive: s.alive, Seated: true})
	}
	return room
}

func TestCheckWinner(t *testing.T) {
	cases := []struct {
		name string
		room *Room
		want Winner
	}{
		{
			"game continues",
			roster(seat{RoleGodfather, true}, seat{RoleVillager, true}, seat{RoleDoctor, false}),
			WinnerNone,
		},
		{
			"godfather dead",
			roster(seat{RoleGodfather, false}, seat{RoleVillager, true}),
			WinnerVillagers,
		},
		{
			"only godfather left",
			roster(seat{RoleGodfather, true}, seat{RoleVillager, false}, seat{RoleDoctor, false}),
			WinnerGodfather,
		},
		{
			"lone godfather",
			roster(seat{RoleGodfather, true}),
			WinnerGodfather,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CheckWinner(tc.room))
		})
	}
}

func TestRole_MarshalText(t *testing.T) {
	_, err := RoleUnassigned.MarshalText()
	assert.Error(t, err)

	b, err := RoleDoctor.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "doctor", string(b))
}

func TestNightAction_Ack(t *testing.T) {
	h := newHarness(t, Options{DoctorEnabled: true})

	_, conns, ids := h.seats("gf", "doc", "v")

	require.NoError(t, h.send(conns[0], REQ_NIGHT_KILL, dto.NightActionRequest{TargetID: ids[2], Round: 1}))
	require.NoError(t, h.send(conns[1], REQ_NIGHT_SAVE, dto.NightActionRequest{TargetID: ids[1]}))

	ack, ok := h.sink(conns[0]).last(RESP_ACK)
	require.True(t, ok)
	assert.Equal(t, REQ_NIGHT_KILL, ack.Data.(dto.AckResponse).RequestType)

	kill, ok := h.room().actions.Kill()
	require.True(t, ok)
	assert.Equal(t, ids[2], kill.TargetID)

	// 医生可以保护自己
	save, ok := h.room().actions.Save()
	require.True(t, ok)
	assert.Equal(t, ids[1], save.TargetID)
}

func TestNightAction_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		actor   int
		reqType string
		target  func(ids []string) string
		round   int
		want    error
		kind    string
	}{
		{"villager kills", 2, REQ_NIGHT_KILL, func(ids []string) string { return ids[0] }, 0, ErrNotEntitled, "NotEntitled"},
		{"godfather saves", 0, REQ_NIGHT_SAVE, func(ids []string) string { return ids[0] }, 0, ErrNotEntitled, "NotEntitled"},
		{"unknown target", 0, REQ_NIGHT_KILL, func([]string) string { return "ghost" }, 0, ErrInvalidTarget, "InvalidTarget"},
		{"old round", 0, REQ_NIGHT_KILL, func(ids []string) string { return ids[2] }, 7, ErrStaleRound, "StaleRound"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, Options{DoctorEnabled: true})
			_, conns, ids := h.seats("gf", "doc", "v")

			for _, c := range conns {
				h.sink(c).reset()
			}

			err := h.send(conns[tc.actor], tc.reqType, dto.NightActionRequest{TargetID: tc.target(ids), Round: tc.round})
			assert.ErrorIs(t, err, tc.want)

			resp, ok := h.sink(conns[tc.actor]).last(RESP_ERROR)
			require.True(t, ok)
			assert.Equal(t, tc.kind, resp.ErrKind)

			// 错误只发给发起者，状态不变
			for i, c := range conns {
				if i != tc.actor {
					assert.Empty(t, h.sink(c).all(RESP_ERROR))
				}
				assert.Empty(t, h.sink(c).all(RESP_ROOM_STATE))
			}

			_, hasKill := h.room().actions.Kill()
			_, hasSave := h.room().actions.Save()
			assert.False(t, hasKill)
			assert.False(t, hasSave)
		})
	}
}

func TestNightAction_OutsideNight(t *testing.T) {
	h := newHarness(t, Options{})

	gfConn, _ := h.join("gf")
	_, v := h.join("v")

	err := h.send(gfConn, REQ_NIGHT_KILL, dto.NightActionRequest{TargetID: v})
	assert.ErrorIs(t, err, ErrInvalidTransition, "no room")

	ctl := h.control()
	require.NoError(t, h.send(ctl, REQ_START_GAME, nil))
	require.NoError(t, h.send(ctl, REQ_END_NIGHT, nil))

	err = h.send(gfConn, REQ_NIGHT_KILL, dto.NightActionRequest{TargetID: v})
	assert.ErrorIs(t, err, ErrStaleRound, "day")
	assert.True(t, h.player(v).Alive)
}

func TestNightAction_DeadActorsAndTargets(t *testing.T) {
	h := newHarness(t, Options{DoctorEnabled: true})

	ctl, conns, ids := h.seats("gf", "doc", "a", "b")

	require.NoError(t, h.send(conns[0], REQ_NIGHT_KILL, dto.NightActionRequest{TargetID: ids[1]}))
	require.NoError(t, h.send(ctl, REQ_END_NIGHT, nil))
	require.NoError(t, h.send(ctl, REQ_START_NEXT_NIGHT, nil))

	assert.ErrorIs(t, h.send(conns[1], REQ_NIGHT_SAVE, dto.NightActionRequest{TargetID: ids[2]}), ErrNotEntitled)
	assert.ErrorIs(t, h.send(conns[0], REQ_NIGHT_KILL, dto.NightActionRequest{TargetID: ids[1]}), ErrInvalidTarget)
	assert.ErrorIs(t, h.send(conns[0], REQ_NIGHT_KILL, dto.NightActionRequest{TargetID: ids[2], Round: 1}), ErrStaleRound)

	require.NoError(t, h.send(conns[0], REQ_NIGHT_KILL, dto.NightActionRequest{TargetID: ids[2], Round: 2}))
}

func TestNightAction_UnseatedConnection(t *testing.T) {
	h := newHarness(t, Options{})

	_, _, ids := h.seats("gf", "v")
	late, _ := h.join("late")

	assert.ErrorIs(t, h.send(late, REQ_NIGHT_KILL, dto.NightActionRequest{TargetID: ids[1]}), ErrNotEntitled)

	anon := h.connect(ConnPlayer)
	assert.ErrorIs(t, h.send(anon, REQ_NIGHT_KILL, dto.NightActionRequest{TargetID: ids[1]}), ErrNotEntitled)
}
