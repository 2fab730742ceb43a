package models

import (
	"gorm.io/gorm"
)

// Order 表示一筆募款訂單
// 聊天室核心只用它判斷用戶是否曾在某學校下過訂單（支持者身份的唯一依據）
type Order struct {
	gorm.Model
	SchoolID      uint   `gorm:"not null;index" json:"school_id"`
	CustomerEmail string `gorm:"size:255;index" json:"customer_email"`
	CustomerPhone string `gorm:"size:50;index" json:"customer_phone"`
	TotalAmount   int64  `json:"total_amount"` // 以分為單位
}
