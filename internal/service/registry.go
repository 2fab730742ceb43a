package service

import (
	"log"
	"sync"
	"time"
)

// ClientConn 是註冊表對單一連線的最小依賴，*websocket.Conn 滿足此介面
// 測試時可注入假連線
type ClientConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// ServerFrame 是伺服器推送給客戶端的統一訊框格式
type ServerFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// OnlineParticipant 是在線成員快照中的一筆資料
// 快照回傳後即可能過期，呼叫端不應假設它持續有效
type OnlineParticipant struct {
	ParticipantID uint      `json:"participant_id"`
	ConnectedAt   time.Time `json:"connected_at"`
}

// liveSession 是一條存活中的連線
// 寫入經過 writeMu 序列化，確保同一條 socket 不會被並發寫入
type liveSession struct {
	id            string
	roomID        uint
	participantID uint
	connectedAt   time.Time
	conn          ClientConn

	writeMu sync.Mutex
}

func (s *liveSession) write(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// ConnectionRegistry 是「誰目前在線上」的唯一權威：
// roomID -> sessionID -> 連線 的兩層 map，外加 sessionID 的反查索引
// 狀態只存在於單一行程的記憶體中，行程重啟即清空
// 所有 map 異動都在同一把鎖之下，廣播不會看到更新到一半的房間
type ConnectionRegistry struct {
	mu       sync.RWMutex
	rooms    map[uint]map[string]*liveSession
	sessions map[string]*liveSession
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		rooms:    make(map[uint]map[string]*liveSession),
		sessions: make(map[string]*liveSession),
	}
}

// Connect 將連線註冊到聊天室
// 同一個 session id 重複註冊會取代並關閉舊的連線
func (r *ConnectionRegistry) Connect(conn ClientConn, roomID, participantID uint, sessionID string) {
	r.mu.Lock()
	var replaced ClientConn
	if old, ok := r.sessions[sessionID]; ok {
		r.removeLocked(old)
		replaced = old.conn
	}
	session := &liveSession{
		id:            sessionID,
		roomID:        roomID,
		participantID: participantID,
		connectedAt:   time.Now(),
		conn:          conn,
	}
	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[string]*liveSession)
	}
	r.rooms[roomID][sessionID] = session
	r.sessions[sessionID] = session
	r.mu.Unlock()

	if replaced != nil {
		replaced.Close()
	}
}

// Disconnect 移除 session；房間清空時一併移除，下次連線時再重建
// 對不存在的 session 呼叫是無操作
func (r *ConnectionRegistry) Disconnect(sessionID string) {
	r.remove(sessionID)
}

// remove 原子地取下 session 並回傳它，不存在時回傳 nil
func (r *ConnectionRegistry) remove(sessionID string) *liveSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	r.removeLocked(session)
	return session
}

func (r *ConnectionRegistry) removeLocked(session *liveSession) {
	if room, ok := r.rooms[session.roomID]; ok {
		delete(room, session.id)
		if len(room) == 0 {
			delete(r.rooms, session.roomID)
		}
	}
	delete(r.sessions, session.id)
}

// SessionInfo 回傳 session 所屬的聊天室與成員
func (r *ConnectionRegistry) SessionInfo(sessionID string) (roomID, participantID uint, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return 0, 0, false
	}
	return session.roomID, session.participantID, true
}

// SendToSession 盡力傳送給單一 session
// 傳送失敗視為連線已斷，直接移除該 session，不把錯誤往上傳
func (r *ConnectionRegistry) SendToSession(payload interface{}, sessionID string) {
	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if err := session.write(payload); err != nil {
		log.Printf("chat: send to session %s failed: %v", sessionID, err)
		r.Disconnect(sessionID)
	}
}

// BroadcastToRoom 向聊天室內所有 session 廣播，excludeSession 非空時略過該 session
// 寫入失敗的 session 會在廣播過程中被移除，其餘成員照常收到
// 註冊表就是靠這個機制清掉死連線，不需要額外的心跳掃描
func (r *ConnectionRegistry) BroadcastToRoom(payload interface{}, roomID uint, excludeSession string) {
	r.mu.RLock()
	targets := make([]*liveSession, 0, len(r.rooms[roomID]))
	for sessionID, session := range r.rooms[roomID] {
		if sessionID != excludeSession {
			targets = append(targets, session)
		}
	}
	r.mu.RUnlock()

	for _, session := range targets {
		if err := session.write(payload); err != nil {
			log.Printf("chat: broadcast to session %s failed: %v", session.id, err)
			r.Disconnect(session.id)
		}
	}
}

// RoomParticipants 回傳聊天室目前在線成員的快照
func (r *ConnectionRegistry) RoomParticipants(roomID uint) []OnlineParticipant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	participants := make([]OnlineParticipant, 0, len(r.rooms[roomID]))
	for _, session := range r.rooms[roomID] {
		participants = append(participants, OnlineParticipant{
			ParticipantID: session.participantID,
			ConnectedAt:   session.connectedAt,
		})
	}
	return participants
}

// ParticipantSessions 回傳某成員在聊天室內所有 session id 的快照
func (r *ConnectionRegistry) ParticipantSessions(roomID, participantID uint) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sessionIDs []string
	for sessionID, session := range r.rooms[roomID] {
		if session.participantID == participantID {
			sessionIDs = append(sessionIDs, sessionID)
		}
	}
	return sessionIDs
}

// DisconnectParticipant 切斷某成員的所有連線並關閉 socket，封鎖成員時使用
func (r *ConnectionRegistry) DisconnectParticipant(roomID, participantID uint) []string {
	r.mu.Lock()
	var removed []*liveSession
	for _, session := range r.rooms[roomID] {
		if session.participantID == participantID {
			r.removeLocked(session)
			removed = append(removed, session)
		}
	}
	r.mu.Unlock()

	sessionIDs := make([]string, 0, len(removed))
	for _, session := range removed {
		session.conn.Close()
		sessionIDs = append(sessionIDs, session.id)
	}
	return sessionIDs
}
