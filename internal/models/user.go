package models

import (
	"gorm.io/gorm"
)

// User 表示系統中的用戶
type User struct {
	gorm.Model          // 內嵌 gorm.Model，提供 ID、CreatedAt、UpdatedAt 和 DeletedAt 字段
	Username   string   `gorm:"uniqueIndex;not null" json:"username"` // 用戶名，必須唯一
	Password   string   `gorm:"not null" json:"-"`                    // 密碼，json 序列化時會被忽略
	Role       UserRole `gorm:"not null" json:"role"`                 // 帳號層級的角色分類
	FirstName  string   `gorm:"size:255" json:"first_name"`
	LastName   string   `gorm:"size:255" json:"last_name"`
	Email      string   `gorm:"size:255;index" json:"email"`
	Phone      string   `gorm:"size:50" json:"phone"`
}

// UserRole 定義帳號角色分類的類型
// 聊天室的 ChatRole 由 RoomResolver 依此分類計算，不在其他地方建構
type UserRole string

const (
	RoleCoach          UserRole = "coach"           // 教練
	RoleAssistantCoach UserRole = "assistant_coach" // 助理教練
	RolePlayer         UserRole = "player"          // 球員
	RoleTeamMember     UserRole = "team_member"     // 隊員
	RoleAdmin          UserRole = "admin"           // 管理員
	RoleStaff          UserRole = "staff"           // 校方人員
	RolePrincipal      UserRole = "principal"       // 校長
	RoleSupporterUser  UserRole = "supporter"       // 一般支持者帳號
)
