package service

import "errors"

// 錯誤代碼，對應服務層錯誤分類
const (
	CodeNotAuthorized       = "not_authorized"
	CodeRoomNotFound        = "room_not_found"
	CodeParticipantNotFound = "participant_not_found"
	CodeMessageNotFound     = "message_not_found"
	CodeForbidden           = "forbidden"
	CodeInvalidContent      = "invalid_content"
)

// ChatError 表示預期中的業務錯誤，由服務層的每個進入點以回傳值傳遞
// 授權與驗證失敗只回給當下的呼叫端，不會廣播給其他成員
type ChatError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ChatError) Error() string {
	return e.Message
}

var (
	ErrNotAuthorized       = &ChatError{Code: CodeNotAuthorized, Message: "使用者無權加入此聊天室"}
	ErrRoomNotFound        = &ChatError{Code: CodeRoomNotFound, Message: "聊天室不存在"}
	ErrParticipantNotFound = &ChatError{Code: CodeParticipantNotFound, Message: "聊天室成員不存在"}
	ErrMessageNotFound     = &ChatError{Code: CodeMessageNotFound, Message: "訊息不存在"}
	ErrForbidden           = &ChatError{Code: CodeForbidden, Message: "沒有執行此操作的權限"}
)

// NewInvalidContent 建立一個訊息內容驗證失敗的錯誤
func NewInvalidContent(message string) *ChatError {
	return &ChatError{Code: CodeInvalidContent, Message: message}
}

// AsChatError 從錯誤鏈中取出 ChatError，非業務錯誤回傳 (nil, false)
func AsChatError(err error) (*ChatError, bool) {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr, true
	}
	return nil, false
}
