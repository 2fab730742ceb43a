package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"team_chat/internal/service"
)

// ChatHandler 處理聊天室的 REST 查詢介面
// 後台或儀表板可以不開 socket 就讀取聊天狀態，走的是與 WebSocket 相同的服務進入點
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler 創建一個新的 ChatHandler 實例
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// GetRoom 取得球隊聊天室的資訊，不存在時以預設值建立
func (h *ChatHandler) GetRoom(c *gin.Context) {
	teamID, err := parseTeamID(c)
	if err != nil {
		return
	}

	room, err := h.chatService.GetOrCreateRoom(teamID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// GetParticipants 列出聊天室的有效成員
func (h *ChatHandler) GetParticipants(c *gin.Context) {
	teamID, err := parseTeamID(c)
	if err != nil {
		return
	}

	participants, err := h.chatService.ListParticipants(teamID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, participants)
}

// GetMessages 分頁取得訊息歷史，頁內由舊到新
func (h *ChatHandler) GetMessages(c *gin.Context) {
	teamID, err := parseTeamID(c)
	if err != nil {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	room, err := h.chatService.GetOrCreateRoom(teamID)
	if err != nil {
		writeError(c, err)
		return
	}

	messages, err := h.chatService.GetHistory(room.ID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// GetOnline 取得目前在線成員的快照
func (h *ChatHandler) GetOnline(c *gin.Context) {
	teamID, err := parseTeamID(c)
	if err != nil {
		return
	}

	roomID, online, err := h.chatService.Online(teamID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":      roomID,
		"online_count": len(online),
		"participants": online,
	})
}

// JoinRoom 是 REST 版本的加入：建立成員資料但不開即時連線
func (h *ChatHandler) JoinRoom(c *gin.Context) {
	teamID, err := parseTeamID(c)
	if err != nil {
		return
	}
	userID, _ := c.Get("userID")

	result, err := h.chatService.JoinRoom(userID.(uint), teamID, nil)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// LeaveRoom 是 REST 版本的離開：結束該用戶的所有即時連線並標記離線
func (h *ChatHandler) LeaveRoom(c *gin.Context) {
	teamID, err := parseTeamID(c)
	if err != nil {
		return
	}
	userID, _ := c.Get("userID")

	if err := h.chatService.LeaveTeamChat(userID.(uint), teamID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已離開聊天室"})
}

// EditMessageInput 定義編輯訊息的請求結構
type EditMessageInput struct {
	ParticipantID uint   `json:"participant_id" binding:"required"`
	Content       string `json:"content" binding:"required"`
}

// EditMessage 編輯自己的訊息
func (h *ChatHandler) EditMessage(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的訊息 ID"})
		return
	}

	var input EditMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.chatService.EditMessage(input.ParticipantID, uint(messageID), input.Content)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ReactionInput 定義表情回應的請求結構
type ReactionInput struct {
	ParticipantID uint   `json:"participant_id" binding:"required"`
	ReactionType  string `json:"reaction_type" binding:"required"`
	Emoji         string `json:"emoji"`
}

// AddReaction 對訊息加上表情回應
func (h *ChatHandler) AddReaction(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的訊息 ID"})
		return
	}

	var input ReactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reaction, err := h.chatService.AddReaction(input.ParticipantID, uint(messageID), input.ReactionType, input.Emoji)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reaction)
}

// RemoveReaction 取消表情回應
func (h *ChatHandler) RemoveReaction(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的訊息 ID"})
		return
	}

	participantID, err := strconv.ParseUint(c.Query("participant_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的成員 ID"})
		return
	}

	if err := h.chatService.RemoveReaction(uint(participantID), uint(messageID), c.Param("reactionType")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已取消回應"})
}

// parseTeamID 解析路徑中的球隊 ID，失敗時直接回覆 400
func parseTeamID(c *gin.Context) (uint, error) {
	teamID, err := strconv.ParseUint(c.Param("teamID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的球隊 ID"})
		return 0, err
	}
	return uint(teamID), nil
}

// writeError 將服務層錯誤轉成對應的 HTTP 回應
func writeError(c *gin.Context, err error) {
	if chatErr, ok := service.AsChatError(err); ok {
		c.JSON(statusForCode(chatErr.Code), gin.H{"error": chatErr.Message, "code": chatErr.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "內部伺服器錯誤"})
}

func statusForCode(code string) int {
	switch code {
	case service.CodeNotAuthorized, service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeRoomNotFound, service.CodeParticipantNotFound, service.CodeMessageNotFound:
		return http.StatusNotFound
	case service.CodeInvalidContent:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
