package requests

import "jan-server/services/chat-ui/internal/domain/chat"

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Messages []chat.Message `json:"messages"`
}

// ToDomain converts the request into the upstream payload.
func (r GenerateRequest) ToDomain() chat.GenerateRequest {
	msgs := r.Messages
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return chat.GenerateRequest{Messages: msgs}
}

// ThemeRequest is the body of POST /api/theme.
type ThemeRequest struct {
	Theme string `json:"theme" binding:"required,oneof=light dark system"`
}
