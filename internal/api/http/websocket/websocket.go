package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// NOTE: 暂时允许所有来源
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	// 单条入站消息的最大字节数
	MAX_MESSAGE_SIZE = 4096
	// 写超时
	WRITE_TIMEOUT = 10 * time.Second
)

var heartbeatHandler = func(conn *websocket.Conn, timeout time.Duration) func(string) error {
	return func(string) error {
		conn.SetReadDeadline(time.Now().Add(timeout))
		return nil
	}
}
