package repository

import (
	"time"

	"team_chat/internal/models"
	"team_chat/internal/storage"
)

type SessionRepository interface {
	Create(session *models.ChatSession) error
	// Close 將稽核紀錄標記為離線；session 不存在時不視為錯誤
	Close(sessionID string, disconnectedAt time.Time) error
}

type sessionRepository struct {
	db *storage.PostgresDB
}

func NewSessionRepository(db *storage.PostgresDB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *models.ChatSession) error {
	return r.db.Create(session).Error
}

func (r *sessionRepository) Close(sessionID string, disconnectedAt time.Time) error {
	return r.db.Model(&models.ChatSession{}).
		Where("session_id = ? AND is_active = ?", sessionID, true).
		Updates(map[string]interface{}{
			"is_active":       false,
			"disconnected_at": disconnectedAt,
		}).Error
}
