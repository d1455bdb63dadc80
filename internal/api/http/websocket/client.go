package websocket

import (
	"time"

	"godfather-be/internal/service/game"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client is the outbound queue of one socket. The broadcaster never blocks on it: when
// the queue is full the message is dropped and the client catches up from the next
// room_state or control_state snapshot.
type Client struct {
	connID   string
	clientIP string

	respCh chan game.ResponseWrapper
	doneCh chan struct{}
}

func NewClient(outboxSize int, clientIP string) *Client {
	return &Client{
		clientIP: clientIP,
		respCh: make(chan game.ResponseWrapper, outboxSize),
		doneCh: make(chan struct{}),
	}
}

func (c *Client) Deliver(resp game.ResponseWrapper) bool {
	select {
	case <-c.doneCh:
		return false
	default:
	}

	select {
	case c.respCh <- resp:
		return true
	default:
		zap.L().Warn(
			"客户端发送队列已满，丢弃消息",
			zap.String("client_ip", c.clientIP),
			zap.Uint64("seq", resp.Seq),
			zap.String("response_type", resp.RespType),
		)
		return false
	}
}

// close stops the writer. respCh stays open because the broadcaster may still hold
// this sink in an in-flight batch.
func (c *Client) close() {
	close(c.doneCh)
}

// writeLoop 是连接上唯一的写入方，负责发送响应和心跳
func (c *Client) writeLoop(conn *websocket.Conn, heartbeat time.Duration) {
	clientIP := c.clientIP

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-c.doneCh:
			zap.L().Info(
				"WebSocket写入协程退出",
				zap.String("client_ip", clientIP),
				zap.String("conn_id", c.connID),
			)
			return

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Error(
					"发送心跳失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				return
			}

			zap.L().Debug(
				"发送心跳",
				zap.String("client_ip", clientIP),
			)

		case resp := <-c.respCh:
			conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := conn.WriteJSON(resp); err != nil {
				zap.L().Error(
					"发送消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				return
			}

			zap.L().Debug(
				"发送消息",
				zap.String("client_ip", clientIP),
				zap.Uint64("seq", resp.Seq),
				zap.String("response_type", resp.RespType),
			)
		}
	}
}
