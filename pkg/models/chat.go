package models

// ImageData carries an image across the wire as base64 with its MIME type
type ImageData struct {
	SerializedImage string `json:"serialized_image"`
	MIMEType        string `json:"mime_type"`
}

// ChatRequest is a single user turn: text plus optional receipt images
type ChatRequest struct {
	Text      string      `json:"text"`
	Files     []ImageData `json:"files,omitempty"`
	SessionID string      `json:"session_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
}

// ApplyDefaults fills the session and user identifiers when the client
// omitted them
func (r *ChatRequest) ApplyDefaults() {
	if r.SessionID == "" {
		r.SessionID = "default_session"
	}
	if r.UserID == "" {
		r.UserID = "default_user"
	}
}

// ChatResponse is the assistant's reply for one turn
type ChatResponse struct {
	Response        string      `json:"response"`
	ThinkingProcess string      `json:"thinking_process"`
	Attachments     []ImageData `json:"attachments,omitempty"`
	Error           string      `json:"error,omitempty"`
}
