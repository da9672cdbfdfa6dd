// Package domain defines the persistence models for users, chats, and
// messages. These types are mapped with GORM and form the core data layer
// of the homework-hints application.
package domain

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxHints is the number of hints a chat may receive before it is
// considered completed.
const MaxHints = 2

// User represents an account able to open homework-help chats.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: display name supplied at signup.
//   - Email: unique login identifier.
//   - PasswordHash: bcrypt hash; never serialized to JSON.
//   - ImageURL: optional avatar/profile image.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID           string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name"       gorm:"type:varchar(255);not null"`
	Email        string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string    `json:"-"          gorm:"type:varchar(128);not null"`
	ImageURL     string    `json:"image_url,omitempty" gorm:"type:varchar(512)"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Chat represents one homework-help session owned by a user. A chat is
// created on the first problem submission, accumulates at most MaxHints
// hint exchanges, and may afterwards carry a single resources message.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the chat owner; indexed for efficient retrieval.
//   - Title: human-readable title auto-generated from the first problem.
//   - HintsUsed: number of hints given so far; monotonic, bounded to [0,2].
//   - IsCompleted: true once HintsUsed reaches MaxHints.
//   - HasResources: true once a resources message has been appended.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM; UpdatedAt changes
//     on every mutation.
//
// Deletion is a hard delete: a user-initiated delete removes the row and
// its messages irreversibly, so no soft-delete marker is kept.
type Chat struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string    `json:"user_id"       gorm:"type:char(36);not null;index:idx_user_chats"`
	Title        string    `json:"title"         gorm:"type:varchar(255);not null;default:'New chat'"`
	HintsUsed    int       `json:"hints_used"    gorm:"not null;default:0;check:hints_used BETWEEN 0 AND 2"`
	IsCompleted  bool      `json:"is_completed"  gorm:"not null;default:false"`
	HasResources bool      `json:"has_resources" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Messages is the conversation in insertion order. Loaded explicitly
	// by the repo layer; cascade-deleted with the chat.
	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// Message represents a single utterance within a chat. Messages are
// append-only: once written they are never edited, reordered, or truncated.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ChatID: foreign key to the owning chat (indexed).
//   - Role: "user" or "assistant" (enforced by DB constraint).
//   - Content: full text content, LaTeX delimiters included verbatim.
//   - IsResource: marks the categorized learning-resources message.
//   - CreatedAt: insertion timestamp; exposed to clients as "timestamp".
type Message struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	ChatID     string    `json:"chat_id"     gorm:"type:char(36);not null;index:idx_chat_msgs,priority:1"`
	Role       string    `json:"role"        gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content    string    `json:"content"     gorm:"type:text;not null"`
	IsResource bool      `json:"is_resource" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"timestamp"   gorm:"index:idx_chat_msgs,priority:2"`
	UpdatedAt  time.Time `json:"-"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// HintFeedback records a user's rating of a specific assistant hint.
// A user can leave at most one rating per message (unique index).
type HintFeedback struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	MessageID string    `json:"message_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_feedback_message_user"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index;uniqueIndex:ux_feedback_message_user"`
	Value     int       `json:"value"      gorm:"not null;check:value IN (-1,1)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Message is the rated assistant hint. Feedback is cascade-deleted
	// if the underlying message is removed.
	Message Message `json:"-" gorm:"foreignKey:MessageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for HintFeedback.
func (HintFeedback) TableName() string { return "hint_feedback" }
