package game

import (
	"fmt"

	"godfather-be/internal/service/dto"

	"go.uber.org/zap"
)

// 游戏阶段流转：
// lobby -> night -> day -> night -> ... -> ended
// 1. 大厅（lobby）：没有房间，玩家在等待队列中，控制端可以开关医生角色
// 2. 夜晚（night）：教父选择击杀目标，医生选择保护目标，同时进行答题
// 3. 白天（day）：公布夜晚结果，等待控制端开始下一夜
// 4. 结束（ended）：满足胜负条件，只能通过重置回到大厅
// 所有流转都由控制端显式触发，没有超时自动流转

func phaseChange(room *Room) ResponseWrapper {
	return WrapResponse(RESP_PHASE_CHANGE, dto.PhaseChangeResponse{
		RoomID: room.ID,
		Phase:  string(room.Phase),
	})
}

func onSetDoctorEnabled(ctx *GameContext, req RequestWrapper) error {
	data, err := unwrap[dto.SetDoctorEnabledRequest](req)
	if err != nil {
		return err
	}

	// 房间存在时修改会影响已经分配的身份，直接拒绝
	if ctx.Room != nil {
		return fmt.Errorf("%w: room already in %s", ErrInvalidTransition, ctx.Room.Phase)
	}

	ctx.DoctorEnabled = data.Enabled

	zap.L().Info("doctor role toggled", zap.Bool("enabled", data.Enabled))

	ctx.Sync()

	return nil
}

// onStartGame drains the waiting queue into a new room, assigns roles and opens night 1.
func onStartGame(ctx *GameContext) error {
	if ctx.Room != nil {
		return fmt.Errorf("%w: room already in %s", ErrInvalidTransition, ctx.Room.Phase)
	}

	if len(ctx.waiting) == 0 {
		return fmt.Errorf("%w: no players waiting", ErrInvalidTransition)
	}

	room := &Room{
		ID:      GenShortID(),
		Phase:   PhaseLobby,
		Players: make([]*Player, 0, len(ctx.waiting)),
	}

	for i, w := range ctx.waiting {
		room.Players = append(room.Players, &Player{
			ID:     w.PlayerID,
			Name:   w.Name,
			Seated: true,
			Alive:  true,
			IsHost: i == 0,
			conn:   w.conn,
		})
	}

	ctx.waiting = make([]*WaitingEntry, 0)

	room.DoctorEnabled = assignRoles(room.Players, ctx.DoctorEnabled, ctx.shuffle)

	room.NightRound = 1
	room.Phase = PhaseNight

	ctx.Room = room

	zap.L().Info(
		"game started",
		zap.String("room_id", room.ID),
		zap.Int("players", len(room.Players)),
		zap.Bool("doctor_enabled", room.DoctorEnabled),
	)

	for _, p := range room.Players {
		ctx.Unicast(p.conn, WrapResponse(RESP_ROLE_INFO, dto.RoleInfoResponse{Role: p.Role.String()}))
	}

	ctx.BroadcastRoom(phaseChange(room))
	ctx.Sync()

	ctx.onNightStart(room)

	return nil
}

// assignRoles gives exactly one godfather, one doctor when enabled and at least two players
// are seated, and villager to everyone else. It reports whether a doctor was assigned.
func assignRoles(players []*Player, doctorEnabled bool, shuffle func(int, func(i, j int))) bool {
	order := make([]*Player, len(players))
	copy(order, players)

	shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	for _, p := range order {
		p.Role = RoleVillager
	}

	order[0].Role = RoleGodfather

	if doctorEnabled && len(order) >= 2 {
		order[1].Role = RoleDoctor
		return true
	}

	return false
}

// onEndNight resolves the round, applies the death and moves to day or ended.
func onEndNight(ctx *GameContext) error {
	room := ctx.Room
	if room == nil || room.Phase != PhaseNight {
		return fmt.Errorf("%w: end night in %s", ErrInvalidTransition, ctx.Phase())
	}

	outcome := RoundOutcome{
		Round:  room.NightRound,
		Victim: ResolveNight(room.actions),
	}

	if id, ok := outcome.Victim.PlayerID(); ok {
		if p := room.Player(id); p != nil {
			p.Alive = false
		}
	}

	room.actions.Clear()
	room.prompt = nil

	outcome.Winner = CheckWinner(room)

	zap.L().Info(
		"night resolved",
		zap.String("room_id", room.ID),
		zap.Int("night_round", outcome.Round),
		zap.Any("killed_id", outcome.Victim.Ptr()),
		zap.String("winner", outcome.Winner.String()),
	)

	result := WrapResponse(RESP_NIGHT_RESULT, dto.NightResultResponse{
		RoomID:   room.ID,
		Round:    outcome.Round,
		KilledID: outcome.Victim.Ptr(),
		Winner:   outcome.Winner.Ptr(),
	})

	ctx.BroadcastRoom(result)
	ctx.BroadcastControls(result)

	if outcome.Winner.Decided() {
		room.Winner = outcome.Winner
		room.Phase = PhaseEnded
	} else {
		room.Phase = PhaseDay
	}

	ctx.BroadcastRoom(phaseChange(room))
	ctx.Sync()

	return nil
}

func onStartNextNight(ctx *GameContext) error {
	room := ctx.Room
	if room == nil || room.Phase != PhaseDay {
		return fmt.Errorf("%w: start next night in %s", ErrInvalidTransition, ctx.Phase())
	}

	room.NightRound++
	room.actions.Clear()
	room.prompt = nil
	room.Phase = PhaseNight

	zap.L().Info(
		"night started",
		zap.String("room_id", room.ID),
		zap.Int("night_round", room.NightRound),
	)

	ctx.BroadcastRoom(phaseChange(room))
	ctx.Sync()

	ctx.onNightStart(room)

	return nil
}

// onResetGame is legal in every phase. Seated players lose their seats and must rejoin;
// the waiting queue is kept for the next start.
func onResetGame(ctx *GameContext) error {
	if room := ctx.Room; room != nil {
		room.Phase = PhaseLobby
		ctx.BroadcastRoom(phaseChange(room))

		for _, p := range room.Players {
			if p.conn != nil {
				p.conn.PlayerID = ""
			}
		}

		zap.L().Info("game reset", zap.String("room_id", room.ID))
	}

	ctx.Room = nil
	ctx.DoctorEnabled = ctx.defaultDoctorEnabled

	ctx.Sync()

	return nil
}
