package service

import (
	"context"

	"godfather-be/internal/config"
	"godfather-be/internal/service/dto"
	"godfather-be/internal/service/game"
	"godfather-be/internal/service/trivia"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// SessionService 持有唯一的游戏引擎和广播协程，整个进程只有一个会话
type SessionService struct {
	engine      *game.Engine
	broadcaster *game.Broadcaster

	wg conc.WaitGroup
}

func NewSessionService(cfg *config.AppConfig) *SessionService {
	broadcaster := game.NewBroadcaster(cfg.QueueSize)

	engine := game.NewEngine(game.Options{
		DoctorEnabled: cfg.DoctorEnabled,
		QueueSize:     cfg.QueueSize,
		Trivia:        trivia.New(cfg.Trivia.URL, cfg.Trivia.Timeout, cfg.Trivia.FallbackText),
		TriviaTimeout: cfg.Trivia.Timeout,
	}, broadcaster)

	return &SessionService{
		engine:      engine,
		broadcaster: broadcaster,
	}
}

// Start launches the engine worker and the broadcaster.
func (ss *SessionService) Start() {
	ss.wg.Go(ss.broadcaster.Run)
	ss.wg.Go(ss.engine.Run)

	zap.L().Info("session service started")
}

// Close stops the engine first so that every committed batch is still delivered.
func (ss *SessionService) Close() {
	ss.engine.Stop()
	ss.broadcaster.Close()
	ss.wg.Wait()

	zap.L().Info("session service closed")
}

func (ss *SessionService) Connect(kind game.ConnKind, sink game.Sink) (string, error) {
	return ss.engine.Connect(kind, sink)
}

func (ss *SessionService) Submit(connID string, req game.RequestWrapper) error {
	return ss.engine.Submit(connID, req)
}

func (ss *SessionService) Disconnect(connID string) {
	if err := ss.engine.Disconnect(connID); err != nil {
		zap.L().Debug("disconnect after engine stopped", zap.String("conn_id", connID), zap.Error(err))
	}
}

func (ss *SessionService) Snapshot(ctx context.Context) (dto.ControlState, error) {
	return ss.engine.Snapshot(ctx)
}
