package repository

import (
	"errors"

	"gorm.io/gorm"

	"team_chat/internal/models"
	"team_chat/internal/storage"
)

type ReactionRepository interface {
	Create(reaction *models.ChatReaction) error
	// Find 查詢某成員對某訊息的某種回應，不存在時回傳 (nil, nil)
	Find(messageID, participantID uint, reactionType string) (*models.ChatReaction, error)
	// Delete 實體刪除，取消回應不留紀錄
	Delete(reaction *models.ChatReaction) error
}

type reactionRepository struct {
	db *storage.PostgresDB
}

func NewReactionRepository(db *storage.PostgresDB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Create(reaction *models.ChatReaction) error {
	return r.db.Create(reaction).Error
}

func (r *reactionRepository) Find(messageID, participantID uint, reactionType string) (*models.ChatReaction, error) {
	var reaction models.ChatReaction
	err := r.db.Where("message_id = ? AND participant_id = ? AND reaction_type = ?",
		messageID, participantID, reactionType).First(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *reactionRepository) Delete(reaction *models.ChatReaction) error {
	return r.db.Unscoped().Delete(reaction).Error
}
