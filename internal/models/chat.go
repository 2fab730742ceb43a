package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatRole 定義聊天室參與者的角色
// 只能由 RoomResolver 產生，是一個封閉的集合
type ChatRole string

const (
	ChatRoleTeamMember     ChatRole = "team_member"
	ChatRoleStaff          ChatRole = "staff"
	ChatRoleSupporter      ChatRole = "supporter"
	ChatRoleCoach          ChatRole = "coach"
	ChatRoleAssistantCoach ChatRole = "assistant_coach"
)

// MessageType 定義聊天訊息的類型
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// ModerationAction 定義管理操作的類型
type ModerationAction string

const (
	ModerationDeleteMessage ModerationAction = "delete_message"
	ModerationMute          ModerationAction = "mute"
	ModerationBan           ModerationAction = "ban"
)

// ChatRoom 表示一個球隊聊天室
// 每支球隊最多只有一間啟用中的聊天室，首次有人加入時才建立
// 聊天室不做實體刪除，只透過 IsActive 停用
type ChatRoom struct {
	gorm.Model
	TeamID   uint `gorm:"not null;index" json:"team_id"`
	SchoolID uint `gorm:"not null;index" json:"school_id"`

	Name        string `gorm:"size:255;default:'Team Chat'" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	// 各角色的進入許可
	AllowTeamMembers bool `gorm:"default:true" json:"allow_team_members"`
	AllowStaff       bool `gorm:"default:true" json:"allow_staff"`
	AllowSupporters  bool `gorm:"default:true" json:"allow_supporters"`
	AllowCoaches     bool `gorm:"default:true" json:"allow_coaches"`

	// 審核設定
	RequireApproval  bool `gorm:"default:false" json:"require_approval"`
	MaxMessageLength int  `gorm:"default:1000" json:"max_message_length"`

	Participants []ChatParticipant `gorm:"foreignKey:RoomID" json:"-"`
	Messages     []ChatMessage     `gorm:"foreignKey:RoomID" json:"-"`
}

// ChatParticipant 表示用戶在某間聊天室的長期成員資料
// 同一個 (room, user) 只會有一筆，跨連線存續
type ChatParticipant struct {
	gorm.Model
	RoomID uint `gorm:"not null;index;uniqueIndex:idx_room_user" json:"room_id"`
	UserID uint `gorm:"not null;uniqueIndex:idx_room_user" json:"user_id"`

	DisplayName string   `gorm:"size:255;not null" json:"display_name"` // 名字 + 姓氏首字母
	Role        ChatRole `gorm:"size:50;not null" json:"role"`

	IsActive bool       `gorm:"default:true" json:"is_active"`
	IsOnline bool       `gorm:"default:false" json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`

	// 個別成員的權限
	CanSendMessages bool `gorm:"default:true" json:"can_send_messages"`
	CanSendImages   bool `gorm:"default:true" json:"can_send_images"`
	CanSendFiles    bool `gorm:"default:false" json:"can_send_files"`
	IsModerator     bool `gorm:"default:false" json:"is_moderator"`

	Room ChatRoom `gorm:"foreignKey:RoomID" json:"-"`
}

// ChatMessage 表示一則聊天訊息
// 訊息只做軟刪除，排序依據為 (created_at, id)
type ChatMessage struct {
	gorm.Model
	RoomID        uint `gorm:"not null;index" json:"room_id"`
	ParticipantID uint `gorm:"not null;index" json:"participant_id"`

	MessageType MessageType `gorm:"size:20;default:'text'" json:"message_type"`
	Content     string      `gorm:"type:text;not null" json:"content"`

	// 媒體附件
	MediaURL string `gorm:"size:500" json:"media_url,omitempty"`
	FileName string `gorm:"size:255" json:"file_name,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`

	IsEdited      bool       `gorm:"default:false" json:"is_edited"`
	EditedAt      *time.Time `json:"edited_at,omitempty"`
	IsDeleted     bool       `gorm:"default:false;index" json:"is_deleted"`
	DeletedAtTime *time.Time `gorm:"column:message_deleted_at" json:"deleted_at,omitempty"`

	// 審核狀態
	IsFlagged     bool   `gorm:"default:false" json:"is_flagged"`
	FlaggedReason string `gorm:"size:255" json:"flagged_reason,omitempty"`
	IsApproved    bool   `gorm:"default:true" json:"is_approved"`

	Participant ChatParticipant `gorm:"foreignKey:ParticipantID" json:"-"`
	Reactions   []ChatReaction  `gorm:"foreignKey:MessageID" json:"-"`
}

// ChatReaction 表示對訊息的一個表情回應
// 同一成員對同一訊息的同一種回應只會有一筆，取消時直接實體刪除
type ChatReaction struct {
	gorm.Model
	MessageID     uint   `gorm:"not null;uniqueIndex:idx_msg_participant_type" json:"message_id"`
	ParticipantID uint   `gorm:"not null;uniqueIndex:idx_msg_participant_type" json:"participant_id"`
	ReactionType  string `gorm:"size:50;not null;uniqueIndex:idx_msg_participant_type" json:"reaction_type"`
	Emoji         string `gorm:"size:10" json:"emoji"`
}

// ChatSession 是即時連線的持久化稽核紀錄
// 線上狀態的唯一權威來源是記憶體中的 ConnectionRegistry，這裡只是鏡像
type ChatSession struct {
	gorm.Model
	ParticipantID  uint       `gorm:"not null;index" json:"participant_id"`
	SessionID      string     `gorm:"size:255;uniqueIndex;not null" json:"session_id"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	ConnectedAt    time.Time  `json:"connected_at"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

// ChatModerationLog 是管理操作的紀錄，只增不改
type ChatModerationLog struct {
	gorm.Model
	RoomID              uint             `gorm:"not null;index" json:"room_id"`
	ModeratorID         uint             `gorm:"not null" json:"moderator_id"`
	TargetParticipantID *uint            `json:"target_participant_id,omitempty"`
	TargetMessageID     *uint            `json:"target_message_id,omitempty"`
	ActionType          ModerationAction `gorm:"size:50;not null" json:"action_type"`
	Reason              string           `gorm:"type:text" json:"reason,omitempty"`
	Duration            int              `json:"duration,omitempty"` // 以分鐘為單位，僅供參考，不會自動解除
}
