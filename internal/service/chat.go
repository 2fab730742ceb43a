package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"team_chat/internal/models"
	"team_chat/internal/repository"
)

const defaultHistoryLimit = 50

// JoinResult 是成功加入聊天室後回傳給客戶端的資料
type JoinResult struct {
	RoomID             uint                `json:"room_id"`
	ParticipantID      uint                `json:"participant_id"`
	DisplayName        string              `json:"display_name"`
	Role               models.ChatRole     `json:"role"`
	SessionID          string              `json:"session_id,omitempty"`
	RecentMessages     []MessageView       `json:"recent_messages,omitempty"`
	OnlineParticipants []OnlineParticipant `json:"online_participants,omitempty"`
}

// MessageView 是對外呈現的訊息，附上成員當下的顯示名稱與角色
type MessageView struct {
	ID            uint               `json:"id"`
	RoomID        uint               `json:"room_id"`
	ParticipantID uint               `json:"participant_id"`
	DisplayName   string             `json:"display_name"`
	Role          models.ChatRole    `json:"role"`
	Content       string             `json:"content"`
	MessageType   models.MessageType `json:"message_type"`
	CreatedAt     time.Time          `json:"created_at"`
	IsEdited      bool               `json:"is_edited"`
	IsApproved    bool               `json:"is_approved"`
	Reactions     []ReactionCount    `json:"reactions"`
}

// ReactionCount 是同一種表情回應的彙總
type ReactionCount struct {
	ReactionType string `json:"reaction_type"`
	Emoji        string `json:"emoji"`
	Count        int    `json:"count"`
}

// ChatService 負責聊天室與成員的生命週期、訊息驗證與持久化
// 即時廣播全部委派給注入的 ConnectionRegistry
type ChatService struct {
	repos       *repository.Repositories
	resolver    *RoomResolver
	registry    *ConnectionRegistry
	historySize int
}

func NewChatService(repos *repository.Repositories, resolver *RoomResolver, registry *ConnectionRegistry, historySize int) *ChatService {
	if historySize <= 0 {
		historySize = defaultHistoryLimit
	}
	return &ChatService{
		repos:       repos,
		resolver:    resolver,
		registry:    registry,
		historySize: historySize,
	}
}

// GetOrCreateRoom 取得球隊的聊天室，第一次有人加入時才以預設值建立
// 每支球隊最多只有一間啟用中的聊天室
func (s *ChatService) GetOrCreateRoom(teamID uint) (*models.ChatRoom, error) {
	room, err := s.repos.Room.FindActiveByTeamID(teamID)
	if err != nil {
		return nil, err
	}
	if room != nil {
		return room, nil
	}

	team, err := s.repos.Team.FindByID(teamID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	room = &models.ChatRoom{
		TeamID:           teamID,
		SchoolID:         team.SchoolID,
		Name:             fmt.Sprintf("%s Chat", team.Name),
		Description:      fmt.Sprintf("Chat room for %s team members, staff, and supporters", team.Name),
		IsActive:         true,
		AllowTeamMembers: true,
		AllowStaff:       true,
		AllowSupporters:  true,
		AllowCoaches:     true,
		MaxMessageLength: 1000,
	}
	if err := s.repos.Room.Create(room); err != nil {
		return nil, err
	}
	return room, nil
}

// JoinRoom 讓用戶加入球隊聊天室
// conn 為 nil 時代表純 REST 加入：只做持久化的部分，不註冊即時連線
// WebSocket 與 REST 都走這一個進入點，不存在平行的程式路徑
func (s *ChatService) JoinRoom(userID, teamID uint, conn ClientConn) (*JoinResult, error) {
	room, err := s.GetOrCreateRoom(teamID)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.User.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, err
	}

	role, allowed, err := s.resolver.Resolve(user, room)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotAuthorized
	}

	participant, err := s.getOrCreateParticipant(user, room, role, conn != nil)
	if err != nil {
		return nil, err
	}

	result := &JoinResult{
		RoomID:        room.ID,
		ParticipantID: participant.ID,
		DisplayName:   participant.DisplayName,
		Role:          participant.Role,
	}

	if conn == nil {
		return result, nil
	}

	// 產生短命的 session id，寫入稽核紀錄後才掛進註冊表
	sessionID := uuid.NewString()
	if err := s.repos.Session.Create(&models.ChatSession{
		ParticipantID: participant.ID,
		SessionID:     sessionID,
		IsActive:      true,
		ConnectedAt:   time.Now(),
	}); err != nil {
		return nil, err
	}
	s.registry.Connect(conn, room.ID, participant.ID, sessionID)

	recent, err := s.GetHistory(room.ID, s.historySize, 0)
	if err != nil {
		return nil, err
	}

	result.SessionID = sessionID
	result.RecentMessages = recent
	result.OnlineParticipants = s.registry.RoomParticipants(room.ID)
	return result, nil
}

// Leave 結束一條即時連線：標記離線、補上最後上線時間、關閉稽核紀錄
// 冪等：對已離開或不存在的 session 再呼叫是無操作，不是錯誤
func (s *ChatService) Leave(sessionID string) error {
	session := s.registry.remove(sessionID)
	if session == nil {
		return nil
	}

	now := time.Now()
	participant, err := s.repos.Participant.FindByID(session.participantID)
	if err != nil {
		log.Printf("chat: leave: load participant %d failed: %v", session.participantID, err)
	} else if len(s.registry.ParticipantSessions(session.roomID, participant.ID)) == 0 {
		// 同一成員可能還有其他分頁開著，全都斷線才算離線
		participant.IsOnline = false
		participant.LastSeen = &now
		if err := s.repos.Participant.Update(participant); err != nil {
			log.Printf("chat: leave: update participant %d failed: %v", participant.ID, err)
		}
	}

	if err := s.repos.Session.Close(sessionID, now); err != nil {
		log.Printf("chat: leave: close session %s failed: %v", sessionID, err)
	}
	return nil
}

// LeaveTeamChat 是 REST 版本的離開：結束該用戶在聊天室的所有連線並標記離線
func (s *ChatService) LeaveTeamChat(userID, teamID uint) error {
	room, err := s.repos.Room.FindActiveByTeamID(teamID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}

	participant, err := s.repos.Participant.FindByRoomAndUser(room.ID, userID)
	if err != nil {
		return err
	}
	if participant == nil {
		return ErrParticipantNotFound
	}

	for _, sessionID := range s.registry.ParticipantSessions(room.ID, participant.ID) {
		if err := s.Leave(sessionID); err != nil {
			return err
		}
	}

	if participant.IsOnline {
		now := time.Now()
		participant.IsOnline = false
		participant.LastSeen = &now
		return s.repos.Participant.Update(participant)
	}
	return nil
}

// SendMessage 驗證並持久化一則訊息，成功後廣播給聊天室內所有連線
// 發送者自己的連線也會收到廣播，這與打字指示器的排除行為是刻意不同的
func (s *ChatService) SendMessage(participantID, roomID uint, content string, messageType models.MessageType) (*MessageView, error) {
	participant, err := s.repos.Participant.FindByID(participantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}

	if participant.RoomID != roomID || !participant.IsActive || !participant.Room.IsActive {
		return nil, ErrForbidden
	}
	if !participant.CanSendMessages {
		return nil, ErrForbidden
	}
	switch messageType {
	case models.MessageTypeText:
	case models.MessageTypeImage:
		if !participant.CanSendImages {
			return nil, ErrForbidden
		}
	case models.MessageTypeFile:
		if !participant.CanSendFiles {
			return nil, ErrForbidden
		}
	default:
		// system 訊息保留給伺服器，客戶端不能假冒
		return nil, ErrForbidden
	}

	room := &participant.Room
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, NewInvalidContent("訊息內容不能為空")
	}
	if utf8.RuneCountInString(trimmed) > room.MaxMessageLength {
		return nil, NewInvalidContent(fmt.Sprintf("訊息長度超過上限 %d 字", room.MaxMessageLength))
	}

	message := &models.ChatMessage{
		RoomID:        roomID,
		ParticipantID: participantID,
		MessageType:   messageType,
		Content:       trimmed,
		IsApproved:    !room.RequireApproval,
	}
	if err := s.repos.Message.Create(message); err != nil {
		return nil, err
	}

	view := s.buildMessageView(message, participant)

	// 待審核的訊息先入庫，核准前不廣播也不出現在歷史紀錄裡
	if message.IsApproved {
		s.registry.BroadcastToRoom(ServerFrame{Type: "new_message", Data: view}, roomID, "")
	}
	return &view, nil
}

// EditMessage 讓成員編輯自己的文字訊息，重新驗證內容並廣播更新
func (s *ChatService) EditMessage(participantID, messageID uint, content string) (*MessageView, error) {
	message, err := s.repos.Message.FindByID(messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	if message.ParticipantID != participantID || message.IsDeleted || message.MessageType != models.MessageTypeText {
		return nil, ErrForbidden
	}

	room, err := s.repos.Room.FindByID(message.RoomID)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, NewInvalidContent("訊息內容不能為空")
	}
	if utf8.RuneCountInString(trimmed) > room.MaxMessageLength {
		return nil, NewInvalidContent(fmt.Sprintf("訊息長度超過上限 %d 字", room.MaxMessageLength))
	}

	now := time.Now()
	message.Content = trimmed
	message.IsEdited = true
	message.EditedAt = &now
	if err := s.repos.Message.Update(message); err != nil {
		return nil, err
	}

	view := s.buildMessageView(message, &message.Participant)
	if message.IsApproved {
		s.registry.BroadcastToRoom(ServerFrame{Type: "message_edited", Data: view}, message.RoomID, "")
	}
	return &view, nil
}

// GetHistory 回傳未刪除且已核准的訊息，頁內由舊到新
// 純讀取，WebSocket 握手與 REST 端點共用
func (s *ChatService) GetHistory(roomID uint, limit, offset int) ([]MessageView, error) {
	if limit <= 0 {
		limit = s.historySize
	}
	messages, err := s.repos.Message.FindVisibleByRoom(roomID, limit, offset)
	if err != nil {
		return nil, err
	}

	// 查詢由新到舊分頁，這裡反轉成時間順序
	views := make([]MessageView, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		views = append(views, s.buildMessageView(&messages[i], &messages[i].Participant))
	}
	return views, nil
}

// AddReaction 對訊息加上表情回應；同一成員重複加同一種回應是無操作
func (s *ChatService) AddReaction(participantID, messageID uint, reactionType, emoji string) (*models.ChatReaction, error) {
	message, err := s.loadReactionTarget(participantID, messageID)
	if err != nil {
		return nil, err
	}

	reactionType = strings.TrimSpace(reactionType)
	if reactionType == "" {
		return nil, NewInvalidContent("回應類型不能為空")
	}

	existing, err := s.repos.Reaction.Find(messageID, participantID, reactionType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	reaction := &models.ChatReaction{
		MessageID:     messageID,
		ParticipantID: participantID,
		ReactionType:  reactionType,
		Emoji:         emoji,
	}
	if err := s.repos.Reaction.Create(reaction); err != nil {
		return nil, err
	}

	s.registry.BroadcastToRoom(ServerFrame{Type: "reaction_added", Data: map[string]interface{}{
		"message_id":     messageID,
		"participant_id": participantID,
		"reaction_type":  reactionType,
		"emoji":          emoji,
	}}, message.RoomID, "")
	return reaction, nil
}

// RemoveReaction 取消表情回應，實體刪除；不存在時是無操作
func (s *ChatService) RemoveReaction(participantID, messageID uint, reactionType string) error {
	message, err := s.loadReactionTarget(participantID, messageID)
	if err != nil {
		return err
	}

	reaction, err := s.repos.Reaction.Find(messageID, participantID, reactionType)
	if err != nil {
		return err
	}
	if reaction == nil {
		return nil
	}
	if err := s.repos.Reaction.Delete(reaction); err != nil {
		return err
	}

	s.registry.BroadcastToRoom(ServerFrame{Type: "reaction_removed", Data: map[string]interface{}{
		"message_id":     messageID,
		"participant_id": participantID,
		"reaction_type":  reactionType,
	}}, message.RoomID, "")
	return nil
}

// ListParticipants 列出聊天室的有效成員
func (s *ChatService) ListParticipants(teamID uint) ([]models.ChatParticipant, error) {
	room, err := s.repos.Room.FindActiveByTeamID(teamID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return s.repos.Participant.FindActiveByRoomID(room.ID)
}

// Online 回傳聊天室目前在線成員的快照
func (s *ChatService) Online(teamID uint) (uint, []OnlineParticipant, error) {
	room, err := s.repos.Room.FindActiveByTeamID(teamID)
	if err != nil {
		return 0, nil, err
	}
	if room == nil {
		return 0, nil, ErrRoomNotFound
	}
	return room.ID, s.registry.RoomParticipants(room.ID), nil
}

// Registry 讓 handler 存取注入的註冊表（打字指示器等短暫訊框不經過持久化）
func (s *ChatService) Registry() *ConnectionRegistry {
	return s.registry
}

// loadReactionTarget 驗證成員與訊息同屬一間聊天室，訊息未被刪除
func (s *ChatService) loadReactionTarget(participantID, messageID uint) (*models.ChatMessage, error) {
	participant, err := s.repos.Participant.FindByID(participantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}

	message, err := s.repos.Message.FindByID(messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	if message.RoomID != participant.RoomID || message.IsDeleted {
		return nil, ErrForbidden
	}
	return message, nil
}

func (s *ChatService) getOrCreateParticipant(user *models.User, room *models.ChatRoom, role models.ChatRole, online bool) (*models.ChatParticipant, error) {
	displayName := buildDisplayName(user)
	now := time.Now()

	participant, err := s.repos.Participant.FindByRoomAndUser(room.ID, user.ID)
	if err != nil {
		return nil, err
	}

	if participant == nil {
		participant = &models.ChatParticipant{
			RoomID:          room.ID,
			UserID:          user.ID,
			DisplayName:     displayName,
			Role:            role,
			IsActive:        true,
			IsOnline:        online,
			CanSendMessages: true,
			CanSendImages:   true,
			CanSendFiles:    canSendFilesByDefault(role),
		}
		if online {
			participant.LastSeen = &now
		}
		if err := s.repos.Participant.Create(participant); err != nil {
			return nil, err
		}
		return participant, nil
	}

	// 重新加入時更新顯示名稱與角色，兩者在兩次連線之間都可能改變
	participant.DisplayName = displayName
	participant.Role = role
	if online {
		participant.IsOnline = true
		participant.LastSeen = &now
	}
	if err := s.repos.Participant.Update(participant); err != nil {
		return nil, err
	}
	return participant, nil
}

func (s *ChatService) buildMessageView(message *models.ChatMessage, participant *models.ChatParticipant) MessageView {
	return MessageView{
		ID:            message.ID,
		RoomID:        message.RoomID,
		ParticipantID: message.ParticipantID,
		DisplayName:   participant.DisplayName,
		Role:          participant.Role,
		Content:       message.Content,
		MessageType:   message.MessageType,
		CreatedAt:     message.CreatedAt,
		IsEdited:      message.IsEdited,
		IsApproved:    message.IsApproved,
		Reactions:     countReactions(message.Reactions),
	}
}

// buildDisplayName 組出「名字 + 姓氏首字母」的顯示名稱
func buildDisplayName(user *models.User) string {
	if user.LastName == "" {
		return user.FirstName
	}
	initial := strings.ToUpper(string([]rune(user.LastName)[:1]))
	return fmt.Sprintf("%s %s.", user.FirstName, initial)
}

// 預設只有教練、助理教練與校方人員可以傳檔案
func canSendFilesByDefault(role models.ChatRole) bool {
	switch role {
	case models.ChatRoleCoach, models.ChatRoleAssistantCoach, models.ChatRoleStaff:
		return true
	}
	return false
}

func countReactions(reactions []models.ChatReaction) []ReactionCount {
	counts := make([]ReactionCount, 0)
	index := make(map[string]int)
	for _, reaction := range reactions {
		if i, ok := index[reaction.ReactionType]; ok {
			counts[i].Count++
			continue
		}
		index[reaction.ReactionType] = len(counts)
		counts = append(counts, ReactionCount{
			ReactionType: reaction.ReactionType,
			Emoji:        reaction.Emoji,
			Count:        1,
		})
	}
	return counts
}
