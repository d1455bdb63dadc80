package http

import (
	"context"
	"time"

	"godfather-be/internal/api/http/websocket"
	"godfather-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func NewApp(appState *state.AppState) *iris.Application {
	app := iris.Default()

	if dir := appState.Cfg.StaticDir; dir != "" {
		app.HandleDir(
			"/",
			iris.Dir(dir),
			iris.DirOptions{
				IndexName: "index.html",
				SPA:       true,
				Compress:  true,
			},
		)
	}

	api := app.Party("/api/v1")

	api.Get("/health", Health())
	api.Get("/state", GetState(appState))

	api.Get("/ws/player", websocket.PlayerSocket(appState))
	api.Get("/ws/control", websocket.ControlSocket(appState))

	return app
}

func RunServer(appState *state.AppState) {
	app := NewApp(appState)

	iris.RegisterOnInterrupt(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		zap.L().Info("收到中断信号，开始关闭服务")

		if err := app.Shutdown(ctx); err != nil {
			zap.L().Error("关闭 HTTP 服务失败", zap.Error(err))
		}

		appState.SessionSvc.Close()
	})

	addr := appState.Cfg.Addr()

	zap.L().Info("HTTP 服务启动", zap.String("addr", addr))

	if err := app.Listen(addr, iris.WithoutInterruptHandler); err != nil && err != iris.ErrServerClosed {
		zap.L().Fatal("HTTP 服务异常退出", zap.Error(err))
	}
}
