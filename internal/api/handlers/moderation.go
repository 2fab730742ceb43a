package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"team_chat/internal/models"
	"team_chat/internal/service"
)

// ModerationHandler 處理聊天室的管理動作
type ModerationHandler struct {
	moderationService *service.ModerationService
}

// NewModerationHandler 創建一個新的 ModerationHandler 實例
func NewModerationHandler(moderationService *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// ModerationInput 定義管理動作的請求結構
type ModerationInput struct {
	ModeratorID         uint   `json:"moderator_id" binding:"required"`
	ActionType          string `json:"action_type" binding:"required"`
	TargetParticipantID *uint  `json:"target_participant_id"`
	TargetMessageID     *uint  `json:"target_message_id"`
	Reason              string `json:"reason"`
	Duration            int    `json:"duration"`
}

// ApplyAction 執行刪除訊息、禁言或封鎖，並留下不可刪改的紀錄
func (h *ModerationHandler) ApplyAction(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("roomID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的聊天室 ID"})
		return
	}

	var input ModerationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.moderationService.ApplyAction(input.ModeratorID, service.ModerationInput{
		RoomID:              uint(roomID),
		ActionType:          models.ModerationAction(input.ActionType),
		TargetParticipantID: input.TargetParticipantID,
		TargetMessageID:     input.TargetMessageID,
		Reason:              input.Reason,
		Duration:            input.Duration,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}
