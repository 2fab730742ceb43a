package repository

import (
	"team_chat/internal/models"
	"team_chat/internal/storage"
)

type ModerationRepository interface {
	// Create 新增一筆管理操作紀錄，紀錄建立後不再變動
	Create(record *models.ChatModerationLog) error
}

type moderationRepository struct {
	db *storage.PostgresDB
}

func NewModerationRepository(db *storage.PostgresDB) ModerationRepository {
	return &moderationRepository{db: db}
}

func (r *moderationRepository) Create(record *models.ChatModerationLog) error {
	return r.db.Create(record).Error
}
