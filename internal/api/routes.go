package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"team_chat/internal/api/handlers"
	"team_chat/internal/middleware"
	"team_chat/internal/service"
	"team_chat/pkg/config"
)

func SetupRoutes(r *gin.Engine, services *service.Services, cfg *config.Config) {
	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	chatHandler := handlers.NewChatHandler(services.Chat)
	moderationHandler := handlers.NewModerationHandler(services.Moderation)
	wsHandler := handlers.NewWebSocketHandler(services.Chat, cfg.Chat.MaxFrameSize)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 公開路由
	{
		// 用戶認證相關
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		chat := authorized.Group("/chat")
		{
			// 球隊聊天室
			teams := chat.Group("/teams/:teamID")
			{
				teams.GET("/room", chatHandler.GetRoom)                 // 取得（或建立）聊天室
				teams.GET("/participants", chatHandler.GetParticipants) // 成員名單
				teams.GET("/messages", chatHandler.GetMessages)         // 訊息歷史
				teams.GET("/online", chatHandler.GetOnline)             // 在線成員快照

				// 聊天室參與
				teams.POST("/join", chatHandler.JoinRoom)   // 加入聊天室（不開即時連線）
				teams.POST("/leave", chatHandler.LeaveRoom) // 離開聊天室

				// WebSocket 連接
				teams.GET("/ws", wsHandler.HandleWebSocket) // WebSocket 連接點
			}

			// 訊息操作
			messages := chat.Group("/messages/:id")
			{
				messages.PUT("", chatHandler.EditMessage)
				messages.POST("/reactions", chatHandler.AddReaction)
				messages.DELETE("/reactions/:reactionType", chatHandler.RemoveReaction)
			}

			// 管理操作
			chat.POST("/rooms/:roomID/moderation", moderationHandler.ApplyAction)
		}
	}
}
