package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"team_chat/internal/models"
	"team_chat/internal/repository"
)

// ModerationInput 是一次管理操作的參數
type ModerationInput struct {
	RoomID              uint
	ActionType          models.ModerationAction
	TargetParticipantID *uint
	TargetMessageID     *uint
	Reason              string
	Duration            int // 以分鐘為單位，僅供呼叫端排程解除，伺服器不設計時器
}

// ModerationService 處理聊天室的管理操作
// 每次成功的操作都會留下一筆不可變的紀錄；失敗的操作直接拒絕，不留紀錄
type ModerationService struct {
	repos    *repository.Repositories
	registry *ConnectionRegistry
}

func NewModerationService(repos *repository.Repositories, registry *ConnectionRegistry) *ModerationService {
	return &ModerationService{repos: repos, registry: registry}
}

// ApplyAction 執行管理操作，操作者必須是該聊天室的版主
func (s *ModerationService) ApplyAction(moderatorID uint, input ModerationInput) (*models.ChatModerationLog, error) {
	moderator, err := s.repos.Participant.FindByID(moderatorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	if !moderator.IsActive || !moderator.IsModerator {
		return nil, ErrForbidden
	}
	if moderator.RoomID != input.RoomID {
		return nil, ErrForbidden
	}

	switch input.ActionType {
	case models.ModerationDeleteMessage:
		if err := s.deleteMessage(moderator, input); err != nil {
			return nil, err
		}
	case models.ModerationMute:
		if _, err := s.restrictParticipant(moderator, input, false); err != nil {
			return nil, err
		}
	case models.ModerationBan:
		if _, err := s.restrictParticipant(moderator, input, true); err != nil {
			return nil, err
		}
	default:
		return nil, NewInvalidContent("未知的管理操作類型")
	}

	record := &models.ChatModerationLog{
		RoomID:              moderator.RoomID,
		ModeratorID:         moderator.ID,
		TargetParticipantID: input.TargetParticipantID,
		TargetMessageID:     input.TargetMessageID,
		ActionType:          input.ActionType,
		Reason:              input.Reason,
		Duration:            input.Duration,
	}
	if err := s.repos.Moderation.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}

// deleteMessage 軟刪除訊息：之後的歷史查詢不再回傳，但紀錄本身保留供稽核
func (s *ModerationService) deleteMessage(moderator *models.ChatParticipant, input ModerationInput) error {
	if input.TargetMessageID == nil {
		return NewInvalidContent("缺少要刪除的訊息 id")
	}

	message, err := s.repos.Message.FindByID(*input.TargetMessageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMessageNotFound
	}
	if err != nil {
		return err
	}
	if message.RoomID != moderator.RoomID {
		return ErrForbidden
	}

	now := time.Now()
	message.IsDeleted = true
	message.DeletedAtTime = &now
	return s.repos.Message.Update(message)
}

// restrictParticipant 禁言或封鎖成員
// 禁言只收回發言權；封鎖另外切斷所有即時連線並標記離線
func (s *ModerationService) restrictParticipant(moderator *models.ChatParticipant, input ModerationInput, ban bool) (*models.ChatParticipant, error) {
	if input.TargetParticipantID == nil {
		return nil, NewInvalidContent("缺少目標成員 id")
	}

	target, err := s.repos.Participant.FindByID(*input.TargetParticipantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	if target.RoomID != moderator.RoomID {
		return nil, ErrForbidden
	}

	target.CanSendMessages = false
	if ban {
		target.IsOnline = false
		now := time.Now()
		target.LastSeen = &now
	}
	if err := s.repos.Participant.Update(target); err != nil {
		return nil, err
	}

	if ban {
		s.registry.DisconnectParticipant(target.RoomID, target.ID)
	}
	return target, nil
}
