package service

import (
	"team_chat/internal/repository"
)

type Services struct {
	User       *UserService
	Chat       *ChatService
	Moderation *ModerationService
	Registry   *ConnectionRegistry
}

// NewServices 組裝所有服務
// 註冊表由呼叫端建立並注入，方便測試時換成假的連線
func NewServices(repos *repository.Repositories, registry *ConnectionRegistry, historyPageSize int) *Services {
	resolver := NewRoomResolver(repos.Order)

	userService := NewUserService(repos.User)
	chatService := NewChatService(repos, resolver, registry, historyPageSize)
	moderationService := NewModerationService(repos, registry)
	return &Services{
		User:       userService,
		Chat:       chatService,
		Moderation: moderationService,
		Registry:   registry,
	}
}
