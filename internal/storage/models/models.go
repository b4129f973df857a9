package models

// Role of a registered account. Exactly one email maps to RoleAdmin.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is an identity record. Password is only ever populated inside the
// persisted aggregate and is stripped before a user leaves the repository.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	CreatedAt int64  `json:"createdAt,omitempty"`
	Password  string `json:"password,omitempty"`
}

// Stripped returns a copy safe to hand to callers.
func (u User) Stripped() User {
	u.Password = ""
	return u
}

// DocumentType distinguishes pasted text from simulated file uploads.
type DocumentType string

const (
	DocumentText DocumentType = "text"
	DocumentFile DocumentType = "file"
)

// KnowledgeDocument is one unit of retrievable content.
type KnowledgeDocument struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Content         string       `json:"content"`
	Type            DocumentType `json:"type"`
	AuthorSignature string       `json:"authorSignature,omitempty"`
	CreatedAt       int64        `json:"createdAt"`
}

// DocumentUpdate carries a partial-field merge for UpdateDocument. Nil fields
// are left untouched.
type DocumentUpdate struct {
	Title           *string       `json:"title,omitempty"`
	Content         *string       `json:"content,omitempty"`
	Type            *DocumentType `json:"type,omitempty"`
	AuthorSignature *string       `json:"authorSignature,omitempty"`
}

// MessageRole is the author of one chat turn.
type MessageRole string

const (
	MessageUser      MessageRole = "user"
	MessageAssistant MessageRole = "assistant"
)

// Message is one turn in a chat transcript.
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp int64       `json:"timestamp"`
}

// Database is the aggregate root persisted as a single JSON blob. Every
// mutation reads the whole aggregate, modifies a copy and writes the whole
// aggregate back; concurrent writers sharing the same blob are last-write-wins.
type Database struct {
	Users         []User               `json:"users"`
	Documents     []KnowledgeDocument  `json:"documents"`
	ChatHistories map[string][]Message `json:"chatHistories"`
	Initialized   bool                 `json:"initialized"`
}

// Empty returns an unseeded aggregate with allocated collections.
func Empty() *Database {
	return &Database{
		Users:         []User{},
		Documents:     []KnowledgeDocument{},
		ChatHistories: map[string][]Message{},
	}
}
