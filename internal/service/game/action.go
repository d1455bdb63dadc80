package game

import (
	"fmt"

	"godfather-be/internal/service/dto"

	"go.uber.org/zap"
)

type NightAction struct {
	Round     int
	ActorRole Role
	ActorID   string
	TargetID  string
}

// NightActions keeps the effective kill and save of the current round.
// A later submission from the same role replaces the earlier one.
type NightActions struct {
	kill *NightAction
	save *NightAction
}

func (na *NightActions) Record(action NightAction) {
	a := action

	switch action.ActorRole {
	case RoleGodfather:
		na.kill = &a
	case RoleDoctor:
		na.save = &a
	}
}

func (na *NightActions) Kill() (NightAction, bool) {
	if na.kill == nil {
		return NightAction{}, false
	}

	return *na.kill, true
}

func (na *NightActions) Save() (NightAction, bool) {
	if na.save == nil {
		return NightAction{}, false
	}

	return *na.save, true
}

func (na *NightActions) Clear() {
	na.kill = nil
	na.save = nil
}

// ResolveNight decides who dies this round. A kill lands unless the save names the same target;
// without a kill nobody dies whatever the save says.
func ResolveNight(actions NightActions) Victim {
	kill, ok := actions.Kill()
	if !ok {
		return NoKill()
	}

	if save, ok := actions.Save(); ok && save.TargetID == kill.TargetID {
		return NoKill()
	}

	return Killed(kill.TargetID)
}

// CheckWinner evaluates the termination condition on the current roster.
func CheckWinner(room *Room) Winner {
	godfatherAlive := false
	othersAlive := 0

	for _, p := range room.Players {
		if !p.Alive {
			continue
		}

		if p.Role == RoleGodfather {
			godfatherAlive = true
		} else {
			othersAlive++
		}
	}

	if !godfatherAlive {
		return WinnerVillagers
	}

	if othersAlive == 0 {
		return WinnerGodfather
	}

	return WinnerNone
}

func requiredRole(reqType string) Role {
	if reqType == REQ_NIGHT_SAVE {
		return RoleDoctor
	}

	return RoleGodfather
}

// handleNightAction validates and records a night_kill or night_save.
func handleNightAction(ctx *GameContext, conn *Connection, req RequestWrapper) error {
	data, err := unwrap[dto.NightActionRequest](req)
	if err != nil {
		return err
	}

	room := ctx.Room
	if room == nil {
		return fmt.Errorf("%w: no active room", ErrInvalidTransition)
	}

	if room.Phase != PhaseNight {
		return fmt.Errorf("%w: phase is %s", ErrStaleRound, room.Phase)
	}

	round := data.Round
	if round == 0 {
		round = room.NightRound
	}

	if round != room.NightRound {
		return fmt.Errorf("%w: round %d, current %d", ErrStaleRound, round, room.NightRound)
	}

	role := requiredRole(req.ReqType)

	actor := room.Player(conn.PlayerID)
	if actor == nil {
		return fmt.Errorf("%w: not seated", ErrNotEntitled)
	}

	if actor.Role != role {
		return fmt.Errorf("%w: %s requires %s", ErrNotEntitled, req.ReqType, role)
	}

	if role == RoleDoctor && !room.DoctorEnabled {
		return fmt.Errorf("%w: doctor disabled", ErrNotEntitled)
	}

	if !actor.Alive {
		return fmt.Errorf("%w: actor is dead", ErrNotEntitled)
	}

	target := room.Player(data.TargetID)
	if target == nil {
		return fmt.Errorf("%w: %q is not seated", ErrInvalidTarget, data.TargetID)
	}

	if !target.Alive {
		return fmt.Errorf("%w: %q is dead", ErrInvalidTarget, data.TargetID)
	}

	room.actions.Record(NightAction{
		Round:     round,
		ActorRole: role,
		ActorID:   actor.ID,
		TargetID:  target.ID,
	})

	zap.L().Debug(
		"night action recorded",
		zap.String("room_id", room.ID),
		zap.Int("night_round", round),
		zap.String("request_type", req.ReqType),
		zap.String("player_id", actor.ID),
		zap.String("target_id", target.ID),
	)

	ctx.Unicast(conn, WrapResponse(RESP_ACK, dto.AckResponse{RequestType: req.ReqType}))

	return nil
}
