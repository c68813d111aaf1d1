package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wikirace/internal/api/handlers"
	"wikirace/internal/middleware"
	"wikirace/internal/service"
	"wikirace/internal/utils"
)

func SetupRoutes(r *gin.Engine, services *service.Services, tokens *utils.TokenManager, logger *slog.Logger) {
	// 初始化 handlers
	playerHandler := handlers.NewPlayerHandler(tokens, logger)
	roomHandler := handlers.NewRoomHandler(services.Room, services.Game, logger)
	progressHandler := handlers.NewProgressHandler(services.Room, services.Game, services.Progress, services.Validator, logger)
	wsHandler := handlers.NewWebSocketHandler(services.WebSocket, services.Room, logger)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 公開路由
	{
		api.POST("/players", playerHandler.CreatePlayer)
		api.POST("/validation", progressHandler.ValidatePath)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware(tokens))
	{
		rooms := authorized.Group("/rooms")
		{
			// 房間生命週期
			rooms.POST("", roomHandler.CreateRoom)
			rooms.GET("/:id", roomHandler.GetRoom)
			rooms.DELETE("/:id", roomHandler.DestroyRoom)
			rooms.POST("/:id/join", roomHandler.JoinRoom)
			rooms.POST("/:id/start", roomHandler.StartGame)
			rooms.POST("/:id/end", roomHandler.EndGame)
			rooms.PUT("/:id/articles", roomHandler.SetArticle)

			// 玩家進度與結果
			rooms.POST("/:id/progress", progressHandler.SubmitProgress)
			rooms.GET("/:id/progress", progressHandler.ListProgress)
			rooms.GET("/:id/result", progressHandler.GetResult)

			// WebSocket 連接
			rooms.GET("/:id/ws", wsHandler.HandleWebSocket)
			rooms.GET("/:id/online", wsHandler.OnlineCount)
		}
	}
}
