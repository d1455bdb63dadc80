package http

import (
	"context"
	"time"

	"godfather-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

const snapshotTimeout = 2 * time.Second

func Health() iris.Handler {
	return func(ctx iris.Context) {
		ctx.JSON(iris.Map{
			"status": "ok",
		})
	}
}

// GetState returns the same snapshot the control surface receives as control_state.
func GetState(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		c, cancel := context.WithTimeout(ctx.Request().Context(), snapshotTimeout)
		defer cancel()

		snapshot, err := appState.SessionSvc.Snapshot(c)
		if err != nil {
			zap.L().Warn("读取游戏状态失败", zap.Error(err))

			ctx.StatusCode(iris.StatusServiceUnavailable)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		ctx.JSON(snapshot)
	}
}
