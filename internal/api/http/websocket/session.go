package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"godfather-be/internal/service/game"
	"godfather-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func PlayerSocket(appState *state.AppState) iris.Handler {
	return serve(appState, game.ConnPlayer)
}

func ControlSocket(appState *state.AppState) iris.Handler {
	return serve(appState, game.ConnControl)
}

func serve(appState *state.AppState, kind game.ConnKind) iris.Handler {
	return func(ctx iris.Context) {
		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer conn.Close()

		wsCfg := appState.Cfg.Websocket
		clientIP := ctx.RemoteAddr()

		conn.SetReadLimit(MAX_MESSAGE_SIZE)
		conn.SetReadDeadline(time.Now().Add(wsCfg.HeartbeatTimeout))
		conn.SetPongHandler(heartbeatHandler(conn, wsCfg.HeartbeatTimeout))

		client := NewClient(appState.Cfg.OutboxSize, clientIP)

		connID, err := appState.SessionSvc.Connect(kind, client)
		if err != nil {
			zap.L().Error(
				"注册连接失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			return
		}

		// 写协程启动前赋值，之后只读
		client.connID = connID

		zap.L().Info(
			"WebSocket连接建立",
			zap.String("client_ip", clientIP),
			zap.String("conn_id", connID),
			zap.String("kind", string(kind)),
		)

		var wg conc.WaitGroup
		wg.Go(func() {
			client.writeLoop(conn, wsCfg.HeartbeatInterval)
		})

		readLoop(appState, conn, client, rate.NewLimiter(rate.Limit(wsCfg.RateLimit), wsCfg.RateBurst), clientIP)

		// 读循环退出，表示客户端断开连接
		appState.SessionSvc.Disconnect(connID)
		client.close()
		wg.Wait()

		zap.L().Info(
			"WebSocket连接处理完成",
			zap.String("client_ip", clientIP),
			zap.String("conn_id", connID),
		)
	}
}

func readLoop(appState *state.AppState, conn *websocket.Conn, client *Client, limiter *rate.Limiter, clientIP string) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure,
			) {
				zap.L().Error(
					"读取消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
			}

			return
		}

		if !limiter.Allow() {
			zap.L().Warn("请求过于频繁", zap.String("conn_id", client.connID))
			client.Deliver(game.WrapErrResponse(game.ErrEngineBusy))
			continue
		}

		var wrapper game.RequestWrapper

		if err := json.Unmarshal(msg, &wrapper); err != nil {
			zap.L().Debug(
				"解析消息失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)

			client.Deliver(game.WrapErrResponse(fmt.Errorf("%w: %v", game.ErrMalformedRequest, err)))
			continue
		}

		if err := appState.SessionSvc.Submit(client.connID, wrapper); err != nil {
			client.Deliver(game.WrapErrResponse(err))
			continue
		}

		zap.L().Debug(
			"发送请求到游戏引擎",
			zap.String("conn_id", client.connID),
			zap.String("request_type", wrapper.ReqType),
		)
	}
}
