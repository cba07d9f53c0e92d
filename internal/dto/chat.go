package dto

// ChatRequest is a message typed into the assistant.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Reply     string  `json:"reply"`
	StudentID *string `json:"student_id,omitempty"`
}
