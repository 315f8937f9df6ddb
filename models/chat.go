package models

// ChatSource is a citation the model attached to an answer.
type ChatSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// ChatMessage is one turn of the session transcript. Role is "user" or
// "model". Transcripts are append-only and live only in memory.
type ChatMessage struct {
	Role    string       `json:"role"`
	Text    string       `json:"text"`
	Sources []ChatSource `json:"sources,omitempty"`
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)
