package repository

import (
	"errors"

	"gorm.io/gorm"

	"team_chat/internal/models"
	"team_chat/internal/storage"
)

type RoomRepository interface {
	Create(room *models.ChatRoom) error
	FindByID(id uint) (*models.ChatRoom, error)
	// FindActiveByTeamID 查詢球隊目前啟用中的聊天室，不存在時回傳 (nil, nil)
	FindActiveByTeamID(teamID uint) (*models.ChatRoom, error)
	Update(room *models.ChatRoom) error
}

type roomRepository struct {
	db *storage.PostgresDB
}

func NewRoomRepository(db *storage.PostgresDB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(room *models.ChatRoom) error {
	return r.db.Create(room).Error
}

func (r *roomRepository) FindByID(id uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) FindActiveByTeamID(teamID uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.Where("team_id = ? AND is_active = ?", teamID, true).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) Update(room *models.ChatRoom) error {
	return r.db.Save(room).Error
}
