package service

import (
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"team_chat/internal/models"
	"team_chat/internal/repository"
)

// fakeConn 模擬一條 WebSocket 連線，記錄收到的訊框
type fakeConn struct {
	mu         sync.Mutex
	frames     []ServerFrame
	failWrites bool
	closed     bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return errors.New("connection reset")
	}
	if frame, ok := v.(ServerFrame); ok {
		c.frames = append(c.frames, frame)
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) frameTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]string, 0, len(c.frames))
	for _, frame := range c.frames {
		types = append(types, frame.Type)
	}
	return types
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) lastFrame() (ServerFrame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return ServerFrame{}, false
	}
	return c.frames[len(c.frames)-1], true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// memStore 是所有假 repository 共用的記憶體資料
// 時間戳隨 id 遞增，讓排序測試有確定的先後
type memStore struct {
	nextID       uint
	baseTime     time.Time
	users        map[uint]*models.User
	teams        map[uint]*models.Team
	orders       []models.Order
	rooms        map[uint]*models.ChatRoom
	participants map[uint]*models.ChatParticipant
	messages     map[uint]*models.ChatMessage
	reactions    []*models.ChatReaction
	sessions     map[string]*models.ChatSession
	records      []*models.ChatModerationLog
}

func newMemStore() *memStore {
	return &memStore{
		baseTime:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		users:        make(map[uint]*models.User),
		teams:        make(map[uint]*models.Team),
		rooms:        make(map[uint]*models.ChatRoom),
		participants: make(map[uint]*models.ChatParticipant),
		messages:     make(map[uint]*models.ChatMessage),
		sessions:     make(map[string]*models.ChatSession),
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) stamp(id uint) time.Time {
	return s.baseTime.Add(time.Duration(id) * time.Second)
}

type fakeUserRepo struct{ store *memStore }

func (r *fakeUserRepo) Create(user *models.User) error {
	user.ID = r.store.id()
	copied := *user
	r.store.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) FindByID(id uint) (*models.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*models.User, error) {
	for _, user := range r.store.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeTeamRepo struct{ store *memStore }

func (r *fakeTeamRepo) FindByID(id uint) (*models.Team, error) {
	team, ok := r.store.teams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *team
	return &copied, nil
}

type fakeOrderRepo struct{ store *memStore }

func (r *fakeOrderRepo) HasSchoolOrders(schoolID uint, email, phone string) (bool, error) {
	for _, order := range r.store.orders {
		if order.SchoolID != schoolID {
			continue
		}
		if (email != "" && order.CustomerEmail == email) ||
			(phone != "" && order.CustomerPhone == phone) {
			return true, nil
		}
	}
	return false, nil
}

type fakeRoomRepo struct{ store *memStore }

func (r *fakeRoomRepo) Create(room *models.ChatRoom) error {
	room.ID = r.store.id()
	room.CreatedAt = r.store.stamp(room.ID)
	copied := *room
	r.store.rooms[room.ID] = &copied
	return nil
}

func (r *fakeRoomRepo) FindByID(id uint) (*models.ChatRoom, error) {
	room, ok := r.store.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *room
	return &copied, nil
}

func (r *fakeRoomRepo) FindActiveByTeamID(teamID uint) (*models.ChatRoom, error) {
	for _, room := range r.store.rooms {
		if room.TeamID == teamID && room.IsActive {
			copied := *room
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRoomRepo) Update(room *models.ChatRoom) error {
	copied := *room
	r.store.rooms[room.ID] = &copied
	return nil
}

type fakeParticipantRepo struct{ store *memStore }

func (r *fakeParticipantRepo) Create(participant *models.ChatParticipant) error {
	participant.ID = r.store.id()
	participant.CreatedAt = r.store.stamp(participant.ID)
	copied := *participant
	copied.Room = models.ChatRoom{}
	r.store.participants[participant.ID] = &copied
	return nil
}

func (r *fakeParticipantRepo) FindByID(id uint) (*models.ChatParticipant, error) {
	participant, ok := r.store.participants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *participant
	if room, ok := r.store.rooms[participant.RoomID]; ok {
		copied.Room = *room
	}
	return &copied, nil
}

func (r *fakeParticipantRepo) FindByRoomAndUser(roomID, userID uint) (*models.ChatParticipant, error) {
	for _, participant := range r.store.participants {
		if participant.RoomID == roomID && participant.UserID == userID {
			copied := *participant
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeParticipantRepo) FindActiveByRoomID(roomID uint) ([]models.ChatParticipant, error) {
	var participants []models.ChatParticipant
	for _, participant := range r.store.participants {
		if participant.RoomID == roomID && participant.IsActive {
			participants = append(participants, *participant)
		}
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].ID < participants[j].ID
	})
	return participants, nil
}

func (r *fakeParticipantRepo) Update(participant *models.ChatParticipant) error {
	copied := *participant
	copied.Room = models.ChatRoom{}
	r.store.participants[participant.ID] = &copied
	return nil
}

type fakeMessageRepo struct{ store *memStore }

func (r *fakeMessageRepo) Create(message *models.ChatMessage) error {
	message.ID = r.store.id()
	message.CreatedAt = r.store.stamp(message.ID)
	copied := *message
	copied.Participant = models.ChatParticipant{}
	copied.Reactions = nil
	r.store.messages[message.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) FindByID(id uint) (*models.ChatMessage, error) {
	message, ok := r.store.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *message
	r.attach(&copied)
	return &copied, nil
}

func (r *fakeMessageRepo) FindVisibleByRoom(roomID uint, limit, offset int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	for _, message := range r.store.messages {
		if message.RoomID == roomID && !message.IsDeleted && message.IsApproved {
			copied := *message
			r.attach(&copied)
			messages = append(messages, copied)
		}
	}
	// 由新到舊；時間戳隨 id 遞增，直接以 id 排序即可
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ID > messages[j].ID
	})
	if offset >= len(messages) {
		return nil, nil
	}
	messages = messages[offset:]
	if limit < len(messages) {
		messages = messages[:limit]
	}
	return messages, nil
}

func (r *fakeMessageRepo) Update(message *models.ChatMessage) error {
	copied := *message
	copied.Participant = models.ChatParticipant{}
	copied.Reactions = nil
	r.store.messages[message.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) attach(message *models.ChatMessage) {
	if participant, ok := r.store.participants[message.ParticipantID]; ok {
		message.Participant = *participant
	}
	for _, reaction := range r.store.reactions {
		if reaction.MessageID == message.ID {
			message.Reactions = append(message.Reactions, *reaction)
		}
	}
}

type fakeReactionRepo struct{ store *memStore }

func (r *fakeReactionRepo) Create(reaction *models.ChatReaction) error {
	reaction.ID = r.store.id()
	copied := *reaction
	r.store.reactions = append(r.store.reactions, &copied)
	return nil
}

func (r *fakeReactionRepo) Find(messageID, participantID uint, reactionType string) (*models.ChatReaction, error) {
	for _, reaction := range r.store.reactions {
		if reaction.MessageID == messageID && reaction.ParticipantID == participantID &&
			reaction.ReactionType == reactionType {
			copied := *reaction
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeReactionRepo) Delete(reaction *models.ChatReaction) error {
	for i, existing := range r.store.reactions {
		if existing.ID == reaction.ID {
			r.store.reactions = append(r.store.reactions[:i], r.store.reactions[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeSessionRepo struct{ store *memStore }

func (r *fakeSessionRepo) Create(session *models.ChatSession) error {
	session.ID = r.store.id()
	copied := *session
	r.store.sessions[session.SessionID] = &copied
	return nil
}

func (r *fakeSessionRepo) Close(sessionID string, disconnectedAt time.Time) error {
	if session, ok := r.store.sessions[sessionID]; ok && session.IsActive {
		session.IsActive = false
		session.DisconnectedAt = &disconnectedAt
	}
	return nil
}

type fakeModerationRepo struct{ store *memStore }

func (r *fakeModerationRepo) Create(record *models.ChatModerationLog) error {
	record.ID = r.store.id()
	copied := *record
	r.store.records = append(r.store.records, &copied)
	return nil
}

// testEnv 組裝一套以記憶體 repository 為後端的服務
type testEnv struct {
	store    *memStore
	registry *ConnectionRegistry
	services *Services
}

func newTestEnv() *testEnv {
	store := newMemStore()
	repos := &repository.Repositories{
		User:        &fakeUserRepo{store: store},
		Team:        &fakeTeamRepo{store: store},
		Order:       &fakeOrderRepo{store: store},
		Room:        &fakeRoomRepo{store: store},
		Participant: &fakeParticipantRepo{store: store},
		Message:     &fakeMessageRepo{store: store},
		Reaction:    &fakeReactionRepo{store: store},
		Session:     &fakeSessionRepo{store: store},
		Moderation:  &fakeModerationRepo{store: store},
	}
	registry := NewConnectionRegistry()
	return &testEnv{
		store:    store,
		registry: registry,
		services: NewServices(repos, registry, 50),
	}
}

func (e *testEnv) seedTeam() *models.Team {
	team := &models.Team{
		SchoolID: e.store.id(),
		Name:     "Eastside Tigers",
	}
	team.ID = e.store.id()
	e.store.teams[team.ID] = team
	return team
}

func (e *testEnv) seedUser(role models.UserRole, firstName, lastName string) *models.User {
	user := &models.User{
		Username:  firstName,
		Role:      role,
		FirstName: firstName,
		LastName:  lastName,
		Email:     firstName + "@example.com",
	}
	user.ID = e.store.id()
	e.store.users[user.ID] = user
	return user
}
