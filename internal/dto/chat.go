package dto

// ChatTurn is one prior turn supplied by the client.
type ChatTurn struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest carries the conversation so far, oldest turn first.
type ChatRequest struct {
	Messages []ChatTurn `json:"messages" binding:"required,min=1,dive"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}
