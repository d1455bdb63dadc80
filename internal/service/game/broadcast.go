package game

import (
	"sync"

	"go.uber.org/zap"
)

// Sink is the outbound side of one client connection. Deliver must not block;
// it reports false when the message had to be dropped.
type Sink interface {
	Deliver(resp ResponseWrapper) bool
}

type delivery struct {
	connID string
	sink   Sink
	resp   ResponseWrapper
}

// Broadcaster is the only writer to client sinks. Batches are delivered in the order the
// engine committed them, so a client never sees round N+1 before round N.
type Broadcaster struct {
	batches   chan []delivery
	doneCh    chan struct{}
	closeOnce sync.Once
}

func NewBroadcaster(size int) *Broadcaster {
	return &Broadcaster{
		batches: make(chan []delivery, size),
		doneCh:  make(chan struct{}),
	}
}

func (b *Broadcaster) publish(batch []delivery) {
	if len(batch) == 0 {
		return
	}

	select {
	case b.batches <- batch:
	case <-b.doneCh:
		zap.L().Warn("broadcaster stopped, dropping batch", zap.Int("size", len(batch)))
	}
}

func (b *Broadcaster) Run() {
	for {
		select {
		case batch := <-b.batches:
			deliverBatch(batch)
		case <-b.doneCh:
			// 退出前把已经提交的消息发完
			for {
				select {
				case batch := <-b.batches:
					deliverBatch(batch)
				default:
					return
				}
			}
		}
	}
}

func (b *Broadcaster) Close() {
	b.closeOnce.Do(func() {
		close(b.doneCh)
	})
}

func deliverBatch(batch []delivery) {
	for _, d := range batch {
		if d.sink.Deliver(d.resp) {
			zap.L().Debug(
				"delivered",
				zap.String("conn_id", d.connID),
				zap.Uint64("seq", d.resp.Seq),
				zap.String("response_type", d.resp.RespType),
			)
			continue
		}

		zap.L().Warn(
			"delivery dropped: outbox full",
			zap.String("conn_id", d.connID),
			zap.Uint64("seq", d.resp.Seq),
			zap.String("response_type", d.resp.RespType),
		)
	}
}
