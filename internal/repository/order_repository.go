package repository

import (
	"team_chat/internal/models"
	"team_chat/internal/storage"
)

type OrderRepository interface {
	// HasSchoolOrders 檢查某個 email 或電話是否曾在指定學校下過訂單
	// 這是支持者身份判定的唯一依據
	HasSchoolOrders(schoolID uint, email, phone string) (bool, error)
}

type orderRepository struct {
	db *storage.PostgresDB
}

func NewOrderRepository(db *storage.PostgresDB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) HasSchoolOrders(schoolID uint, email, phone string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("school_id = ?", schoolID).
		Where("customer_email = ? OR customer_phone = ?", email, phone).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
