package game

import (
	"fmt"
	"strings"

	"godfather-be/internal/service/dto"

	"go.uber.org/zap"
)

const defaultPlayerName = "Player"

type connectRequest struct {
	Kind ConnKind
	Sink Sink
}

func onConnect(ctx *GameContext, connID string, req connectRequest) {
	conn := &Connection{
		ID:   connID,
		Kind: req.Kind,
		sink: req.Sink,
	}

	ctx.conns[connID] = conn

	zap.L().Info(
		"connection registered",
		zap.String("conn_id", connID),
		zap.String("kind", string(req.Kind)),
	)

	switch conn.Kind {
	case ConnControl:
		ctx.Unicast(conn, WrapResponse(RESP_CONTROL_STATE, ctx.ControlState()))
	case ConnPlayer:
		ctx.Unicast(conn, WrapResponse(
			RESP_WAITING_COUNT,
			dto.WaitingCountResponse{Count: len(ctx.waiting)},
		))
	}
}

// onJoin puts a new identity into the waiting queue. Joining never seats a player
// directly; seats are only granted by control_start_game.
func onJoin(ctx *GameContext, conn *Connection, req RequestWrapper) error {
	data, err := unwrap[dto.JoinPlayerRequest](req)
	if err != nil {
		return err
	}

	if conn.PlayerID != "" {
		return fmt.Errorf("%w: connection already joined as %s", ErrInvalidTransition, conn.PlayerID)
	}

	name := strings.TrimSpace(data.Name)
	if name == "" {
		name = defaultPlayerName
	}

	entry := &WaitingEntry{
		PlayerID: GenShortID(),
		Name:     name,
		JoinedAt: ctx.now(),
		conn:     conn,
	}

	conn.PlayerID = entry.PlayerID
	ctx.waiting = append(ctx.waiting, entry)

	zap.L().Info(
		"player joined waiting queue",
		zap.String("conn_id", conn.ID),
		zap.String("player_id", entry.PlayerID),
		zap.String("player_name", entry.Name),
		zap.Int("waiting_count", len(ctx.waiting)),
	)

	ctx.Unicast(conn, WrapResponse(RESP_JOINED, dto.JoinedResponse{
		PlayerID: entry.PlayerID,
		Name:     entry.Name,
	}))

	ctx.Sync()

	return nil
}

// onDisconnect drops the connection. Waiting entries are removed; a seated player keeps
// its seat and aliveness and only loses its connection handle.
func onDisconnect(ctx *GameContext, connID string) {
	conn, ok := ctx.conns[connID]
	if !ok {
		zap.L().Warn("disconnect for unknown connection", zap.String("conn_id", connID))
		return
	}

	delete(ctx.conns, connID)

	changed := false

	if conn.PlayerID != "" {
		if removeWaiting(ctx, conn.PlayerID) {
			changed = true
		} else if ctx.Room != nil {
			if p := ctx.Room.Player(conn.PlayerID); p != nil && p.conn == conn {
				p.conn = nil
				changed = true
			}
		}
	}

	zap.L().Info(
		"connection removed",
		zap.String("conn_id", connID),
		zap.String("player_id", conn.PlayerID),
	)

	if changed {
		ctx.Sync()
	}
}

func removeWaiting(ctx *GameContext, playerID string) bool {
	for i, w := range ctx.waiting {
		if w.PlayerID == playerID {
			ctx.waiting = append(ctx.waiting[:i], ctx.waiting[i+1:]...)
			return true
		}
	}

	return false
}
