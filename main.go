package main

import (
	"godfather-be/internal/api/http"
	"godfather-be/internal/config"
	"godfather-be/internal/logger"
	"godfather-be/internal/service"
	"godfather-be/internal/state"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel)

	// 启动游戏引擎
	sessionSvc := service.NewSessionService(cfg)
	sessionSvc.Start()

	// 组装应用状态
	appState := state.NewAppState(
		cfg,
		sessionSvc,
	)

	// 启动服务器
	http.RunServer(appState)
}
