package repository

import (
	"team_chat/internal/models"
	"team_chat/internal/storage"
)

type TeamRepository interface {
	FindByID(id uint) (*models.Team, error)
}

type teamRepository struct {
	db *storage.PostgresDB
}

func NewTeamRepository(db *storage.PostgresDB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) FindByID(id uint) (*models.Team, error) {
	var team models.Team
	err := r.db.Preload("School").First(&team, id).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}
