package repository

import (
	"errors"

	"gorm.io/gorm"

	"team_chat/internal/models"
	"team_chat/internal/storage"
)

type ParticipantRepository interface {
	Create(participant *models.ChatParticipant) error
	FindByID(id uint) (*models.ChatParticipant, error)
	// FindByRoomAndUser 查詢 (room, user) 的成員紀錄，不存在時回傳 (nil, nil)
	FindByRoomAndUser(roomID, userID uint) (*models.ChatParticipant, error)
	FindActiveByRoomID(roomID uint) ([]models.ChatParticipant, error)
	Update(participant *models.ChatParticipant) error
}

type participantRepository struct {
	db *storage.PostgresDB
}

func NewParticipantRepository(db *storage.PostgresDB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) Create(participant *models.ChatParticipant) error {
	return r.db.Create(participant).Error
}

func (r *participantRepository) FindByID(id uint) (*models.ChatParticipant, error) {
	var participant models.ChatParticipant
	err := r.db.Preload("Room").First(&participant, id).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepository) FindByRoomAndUser(roomID, userID uint) (*models.ChatParticipant, error) {
	var participant models.ChatParticipant
	err := r.db.Where("room_id = ? AND user_id = ?", roomID, userID).First(&participant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepository) FindActiveByRoomID(roomID uint) ([]models.ChatParticipant, error) {
	var participants []models.ChatParticipant
	err := r.db.Where("room_id = ? AND is_active = ?", roomID, true).
		Order("created_at asc").Find(&participants).Error
	return participants, err
}

func (r *participantRepository) Update(participant *models.ChatParticipant) error {
	return r.db.Save(participant).Error
}
