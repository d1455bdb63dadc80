package game

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"godfather-be/internal/service/dto"
	"godfather-be/internal/service/trivia"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

type Options struct {
	// 大厅阶段医生角色的默认开关
	DoctorEnabled bool
	QueueSize     int

	Trivia        trivia.Source
	TriviaTimeout time.Duration

	// 测试时替换为确定性的洗牌函数
	Shuffle func(n int, swap func(i, j int))
}

type command struct {
	connID string
	req    RequestWrapper
}

type snapshotRequest struct {
	reply chan dto.ControlState
}

// Engine is the single serialized worker owning the game state. Every command (joins,
// night actions, trivia answers, control commands, connection bookkeeping) goes through
// reqCh and is applied one at a time; the resulting messages are handed to the Broadcaster.
type Engine struct {
	ctx         *GameContext
	broadcaster *Broadcaster

	reqCh   chan command
	doneCh  chan struct{}
	runDone chan struct{}
	running atomic.Bool

	trivia        trivia.Source
	triviaTimeout time.Duration
	triviaWG      conc.WaitGroup

	lifetime context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

func NewEngine(opts Options, broadcaster *Broadcaster) *Engine {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}

	if opts.TriviaTimeout <= 0 {
		opts.TriviaTimeout = 5 * time.Second
	}

	lifetime, cancel := context.WithCancel(context.Background())

	e := &Engine{
		ctx:           newGameContext(opts.DoctorEnabled),
		broadcaster:   broadcaster,
		reqCh:         make(chan command, opts.QueueSize),
		doneCh:        make(chan struct{}),
		runDone:       make(chan struct{}),
		trivia:        opts.Trivia,
		triviaTimeout: opts.TriviaTimeout,
		lifetime:      lifetime,
		cancel:        cancel,
	}

	if opts.Shuffle != nil {
		e.ctx.shuffle = opts.Shuffle
	}

	e.ctx.onNightStart = e.scheduleTrivia

	return e
}

func (e *Engine) Run() {
	e.running.Store(true)
	defer close(e.runDone)

	zap.L().Info("engine started")

	for {
		select {
		case cmd := <-e.reqCh:
			e.broadcaster.publish(e.process(cmd))
		case <-e.doneCh:
			zap.L().Info("engine stopped")
			return
		}
	}
}

func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.doneCh)
		e.cancel()
	})

	// 等待事件循环退出后才能安全地等待题目协程
	if e.running.Load() {
		<-e.runDone
	}

	e.triviaWG.Wait()
}

// process applies one command and returns the messages it produced.
func (e *Engine) process(cmd command) []delivery {
	e.handle(cmd)
	return e.ctx.flush()
}

// handle applies one command. A rejection is acknowledged to the originating connection
// only and never leaves the worker.
func (e *Engine) handle(cmd command) error {
	var (
		pc  panics.Catcher
		err error
	)

	pc.Try(func() {
		err = e.apply(cmd)
	})

	if r := pc.Recovered(); r != nil {
		zap.L().Error(
			"recovered panic while applying command",
			zap.String("conn_id", cmd.connID),
			zap.String("request_type", cmd.req.ReqType),
			zap.Error(r.AsError()),
		)
		err = fmt.Errorf("%w: %s", ErrInternal, cmd.req.ReqType)
	}

	if err != nil {
		zap.L().Debug(
			"command rejected",
			zap.String("conn_id", cmd.connID),
			zap.String("request_type", cmd.req.ReqType),
			zap.String("phase", string(e.ctx.Phase())),
			zap.Error(err),
		)

		if !isSilent(err) {
			e.ctx.Unicast(e.ctx.conns[cmd.connID], WrapErrResponse(err))
		}
	}

	return err
}

func (e *Engine) apply(cmd command) error {
	ctx := e.ctx
	req := cmd.req

	switch req.ReqType {
	case REQ_CONNECT:
		onConnect(ctx, cmd.connID, req.NativeData.(connectRequest))
		return nil
	case REQ_DISCONNECT:
		onDisconnect(ctx, cmd.connID)
		return nil
	case REQ_TRIVIA_READY:
		onTriviaReady(ctx, req.NativeData.(triviaReady))
		return nil
	case REQ_SNAPSHOT:
		req.NativeData.(snapshotRequest).reply <- ctx.ControlState()
		return nil
	}

	conn, ok := ctx.conns[cmd.connID]
	if !ok {
		return fmt.Errorf("%w: unknown connection %s", ErrNotEntitled, cmd.connID)
	}

	if isControlRequest(req.ReqType) != (conn.Kind == ConnControl) {
		return fmt.Errorf("%w: %s not allowed on %s connection", ErrNotEntitled, req.ReqType, conn.Kind)
	}

	switch req.ReqType {
	case REQ_JOIN_PLAYER:
		return onJoin(ctx, conn, req)
	case REQ_NIGHT_KILL, REQ_NIGHT_SAVE:
		return handleNightAction(ctx, conn, req)
	case REQ_MCQ_ANSWER:
		return onMcqAnswer(ctx, conn, req)
	case REQ_SET_DOCTOR_ENABLED:
		return onSetDoctorEnabled(ctx, req)
	case REQ_START_GAME:
		return onStartGame(ctx)
	case REQ_END_NIGHT:
		return onEndNight(ctx)
	case REQ_START_NEXT_NIGHT:
		return onStartNextNight(ctx)
	case REQ_RESET_GAME:
		return onResetGame(ctx)
	}

	return fmt.Errorf("%w: %q", ErrUnknownRequest, req.ReqType)
}

func (e *Engine) stopped() bool {
	select {
	case <-e.doneCh:
		return true
	default:
		return false
	}
}

// enqueue blocks until the worker accepts the command or the engine stops.
func (e *Engine) enqueue(cmd command) error {
	if e.stopped() {
		return ErrEngineStopped
	}

	select {
	case e.reqCh <- cmd:
		return nil
	case <-e.doneCh:
		return ErrEngineStopped
	}
}

// Connect registers a client connection and returns its id.
func (e *Engine) Connect(kind ConnKind, sink Sink) (string, error) {
	connID := GenShortID()

	err := e.enqueue(command{
		connID: connID,
		req: RequestWrapper{
			ReqType:    REQ_CONNECT,
			NativeData: connectRequest{Kind: kind, Sink: sink},
		},
	})
	if err != nil {
		return "", err
	}

	return connID, nil
}

func (e *Engine) Disconnect(connID string) error {
	return e.enqueue(command{
		connID: connID,
		req:    RequestWrapper{ReqType: REQ_DISCONNECT},
	})
}

// Submit queues a client request without blocking the caller's read loop.
func (e *Engine) Submit(connID string, req RequestWrapper) error {
	if isInternalRequest(req.ReqType) {
		return fmt.Errorf("%w: %q", ErrUnknownRequest, req.ReqType)
	}

	req.NativeData = nil

	if e.stopped() {
		return ErrEngineStopped
	}

	select {
	case e.reqCh <- command{connID: connID, req: req}:
		return nil
	default:
		zap.L().Warn(
			"engine queue full, rejecting request",
			zap.String("conn_id", connID),
			zap.String("request_type", req.ReqType),
		)
		return ErrEngineBusy
	}
}

// Snapshot reads the current control state through the worker.
func (e *Engine) Snapshot(ctx context.Context) (dto.ControlState, error) {
	reply := make(chan dto.ControlState, 1)

	if e.stopped() {
		return dto.ControlState{}, ErrEngineStopped
	}

	select {
	case e.reqCh <- command{req: RequestWrapper{ReqType: REQ_SNAPSHOT, NativeData: snapshotRequest{reply: reply}}}:
	case <-e.doneCh:
		return dto.ControlState{}, ErrEngineStopped
	case <-ctx.Done():
		return dto.ControlState{}, ctx.Err()
	}

	select {
	case state := <-reply:
		return state, nil
	case <-e.doneCh:
		return dto.ControlState{}, ErrEngineStopped
	case <-ctx.Done():
		return dto.ControlState{}, ctx.Err()
	}
}

// scheduleTrivia fetches the round's question off the worker and feeds it back as a command.
func (e *Engine) scheduleTrivia(room *Room) {
	if e.trivia == nil {
		return
	}

	round := room.NightRound
	roomID := room.ID

	if e.lifetime.Err() != nil {
		return
	}

	e.triviaWG.Go(func() {
		ctx, cancel := context.WithTimeout(e.lifetime, e.triviaTimeout)
		defer cancel()

		q, err := e.trivia.Next(ctx, round)
		if err != nil {
			zap.L().Warn(
				"no trivia question for night",
				zap.String("room_id", roomID),
				zap.Int("night_round", round),
				zap.Error(err),
			)
			return
		}

		err = e.enqueue(command{req: RequestWrapper{
			ReqType:    REQ_TRIVIA_READY,
			NativeData: triviaReady{RoomID: roomID, Round: round, Question: q},
		}})
		if err != nil {
			zap.L().Debug("engine stopped before trivia question arrived", zap.Int("night_round", round))
		}
	})
}
