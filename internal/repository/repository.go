package repository

import "team_chat/internal/storage"

type Repositories struct {
	User        UserRepository
	Team        TeamRepository
	Order       OrderRepository
	Room        RoomRepository
	Participant ParticipantRepository
	Message     MessageRepository
	Reaction    ReactionRepository
	Session     SessionRepository
	Moderation  ModerationRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Team:        NewTeamRepository(db),
		Order:       NewOrderRepository(db),
		Room:        NewRoomRepository(db),
		Participant: NewParticipantRepository(db),
		Message:     NewMessageRepository(db),
		Reaction:    NewReactionRepository(db),
		Session:     NewSessionRepository(db),
		Moderation:  NewModerationRepository(db),
	}
}
