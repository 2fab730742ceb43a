package repository

import (
	"team_chat/internal/models"
	"team_chat/internal/storage"
)

type MessageRepository interface {
	Create(message *models.ChatMessage) error
	FindByID(id uint) (*models.ChatMessage, error)
	// FindVisibleByRoom 查詢未刪除且已核准的訊息，由新到舊分頁
	// 排序鍵為 (created_at, id)，同一時間戳以 id 決定先後
	FindVisibleByRoom(roomID uint, limit, offset int) ([]models.ChatMessage, error)
	Update(message *models.ChatMessage) error
}

type messageRepository struct {
	db *storage.PostgresDB
}

func NewMessageRepository(db *storage.PostgresDB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

func (r *messageRepository) FindByID(id uint) (*models.ChatMessage, error) {
	var message models.ChatMessage
	err := r.db.Preload("Participant").Preload("Reactions").First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) FindVisibleByRoom(roomID uint, limit, offset int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.Preload("Participant").Preload("Reactions").
		Where("room_id = ? AND is_deleted = ? AND is_approved = ?", roomID, false, true).
		Order("created_at desc, id desc").
		Offset(offset).Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) Update(message *models.ChatMessage) error {
	return r.db.Save(message).Error
}
