package service

import (
	"team_chat/internal/models"
	"team_chat/internal/repository"
)

// RoomResolver 根據帳號分類與聊天室的進入許可，決定用戶能否加入以及擔任的角色
// 對輸入而言是純函數：只讀取用戶資料、聊天室旗標與訂單存在與否
type RoomResolver struct {
	orders repository.OrderRepository
}

func NewRoomResolver(orders repository.OrderRepository) *RoomResolver {
	return &RoomResolver{orders: orders}
}

// Resolve 對每個用戶恰好得出一個結果：被拒絕，或恰好一個角色
// 不會出現「允許加入但沒有角色」的狀態
func (r *RoomResolver) Resolve(user *models.User, room *models.ChatRoom) (models.ChatRole, bool, error) {
	var role models.ChatRole
	var allowed bool

	switch user.Role {
	case models.RoleCoach:
		role, allowed = models.ChatRoleCoach, room.AllowCoaches
	case models.RoleAssistantCoach:
		role, allowed = models.ChatRoleAssistantCoach, room.AllowCoaches
	case models.RolePlayer, models.RoleTeamMember:
		role, allowed = models.ChatRoleTeamMember, room.AllowTeamMembers
	case models.RoleAdmin, models.RoleStaff, models.RolePrincipal:
		role, allowed = models.ChatRoleStaff, room.AllowStaff
	default:
		// 其他帳號只有曾在這間學校下過訂單，才算支持者
		hasOrders, err := r.orders.HasSchoolOrders(room.SchoolID, user.Email, user.Phone)
		if err != nil {
			return "", false, err
		}
		if !hasOrders {
			return "", false, nil
		}
		role, allowed = models.ChatRoleSupporter, room.AllowSupporters
	}

	if !allowed {
		return "", false, nil
	}
	return role, true, nil
}
