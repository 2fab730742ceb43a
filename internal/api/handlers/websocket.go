package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"team_chat/internal/models"
	"team_chat/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

const readWait = 60 * time.Second

// ClientFrame 是客戶端送上來的訊框
type ClientFrame struct {
	Type        string `json:"type"` // message / ping / typing
	Content     string `json:"content,omitempty"`
	MessageType string `json:"message_type,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`
	IsTyping    bool   `json:"is_typing,omitempty"`
}

// WebSocketHandler 處理即時聊天連線
type WebSocketHandler struct {
	chatService  *service.ChatService
	maxFrameSize int
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(chatService *service.ChatService, maxFrameSize int) *WebSocketHandler {
	if maxFrameSize <= 0 {
		maxFrameSize = 4096
	}
	return &WebSocketHandler{chatService: chatService, maxFrameSize: maxFrameSize}
}

// HandleWebSocket 處理 WebSocket 連接請求
// 升級、加入聊天室、回放歷史，然後進入讀取迴圈直到連線關閉
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	teamID, err := strconv.ParseUint(c.Param("teamID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的球隊 ID"})
		return
	}

	// 從上下文中獲取用戶 ID
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// 升級 HTTP 連接為 WebSocket 連接
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "升級WebSocket失敗"})
		return
	}
	defer conn.Close()

	// 加入聊天室；被拒絕時帶原因關閉連線
	result, err := h.chatService.JoinRoom(userID.(uint), uint(teamID), conn)
	if err != nil {
		h.closeWithReason(conn, err)
		return
	}

	// 不論連線怎麼結束，離開動作都只會生效一次
	defer func() {
		if err := h.chatService.Leave(result.SessionID); err != nil {
			log.Printf("websocket leave error: %v", err)
		}
	}()

	registry := h.chatService.Registry()

	// 回覆加入結果與歷史訊息
	registry.SendToSession(service.ServerFrame{Type: "joined", Data: gin.H{
		"room_id":             result.RoomID,
		"participant_id":      result.ParticipantID,
		"display_name":        result.DisplayName,
		"role":                result.Role,
		"online_participants": result.OnlineParticipants,
	}}, result.SessionID)
	registry.SendToSession(service.ServerFrame{Type: "chat_history", Data: result.RecentMessages}, result.SessionID)

	h.readLoop(conn, registry, result)
}

// readLoop 依序處理單一連線送上來的訊框
// 解析失敗或業務錯誤只回覆 error 訊框，不關閉連線；讀取錯誤才結束迴圈
func (h *WebSocketHandler) readLoop(conn *websocket.Conn, registry *service.ConnectionRegistry, result *service.JoinResult) {
	conn.SetReadLimit(int64(h.maxFrameSize))
	conn.SetReadDeadline(time.Now().Add(readWait))

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("websocket unexpected close: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readWait))

		var frame ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.sendError(registry, result.SessionID, "無法解析的訊框格式")
			continue
		}

		switch frame.Type {
		case "message":
			messageType := models.MessageType(frame.MessageType)
			if messageType == "" {
				messageType = models.MessageTypeText
			}
			if _, err := h.chatService.SendMessage(result.ParticipantID, result.RoomID, frame.Content, messageType); err != nil {
				h.replyError(registry, result.SessionID, err)
			}

		case "ping":
			// 回傳客戶端附帶的時間戳，讓客戶端量測延遲
			registry.SendToSession(service.ServerFrame{Type: "pong", Data: gin.H{
				"timestamp": frame.Timestamp,
			}}, result.SessionID)

		case "typing":
			// 打字指示器不持久化，也不回送給發送者自己
			registry.BroadcastToRoom(service.ServerFrame{Type: "user_typing", Data: gin.H{
				"participant_id": result.ParticipantID,
				"display_name":   result.DisplayName,
				"is_typing":      frame.IsTyping,
			}}, result.RoomID, result.SessionID)

		default:
			h.sendError(registry, result.SessionID, "未知的訊框類型")
		}
	}
}

func (h *WebSocketHandler) replyError(registry *service.ConnectionRegistry, sessionID string, err error) {
	if chatErr, ok := service.AsChatError(err); ok {
		registry.SendToSession(service.ServerFrame{Type: "error", Data: gin.H{
			"code":    chatErr.Code,
			"message": chatErr.Message,
		}}, sessionID)
		return
	}
	// 持久化失敗只影響這一次操作，連線繼續服務後續的訊框
	log.Printf("websocket message error: %v", err)
	h.sendError(registry, sessionID, "內部伺服器錯誤")
}

func (h *WebSocketHandler) sendError(registry *service.ConnectionRegistry, sessionID, message string) {
	registry.SendToSession(service.ServerFrame{Type: "error", Data: gin.H{"message": message}}, sessionID)
}

// closeWithReason 以 4000 狀態碼關閉被拒絕的連線，原因放在關閉訊框裡
func (h *WebSocketHandler) closeWithReason(conn *websocket.Conn, err error) {
	reason := "Failed to join chat"
	if chatErr, ok := service.AsChatError(err); ok {
		reason = chatErr.Message
	} else {
		log.Printf("websocket join error: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(4000, reason), deadline)
}
