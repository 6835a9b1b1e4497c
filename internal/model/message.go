package model

import (
	"time"

	"github.com/google/uuid"
)

// Thread is the conversation between one student and the owner of a listing.
// It is created on first contact and keyed by (listing_id, student_id).
type Thread struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID  uint      `gorm:"not null;uniqueIndex:idx_thread_listing_student,priority:1" json:"listing_id"`
	StudentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_thread_listing_student,priority:2" json:"student_id"`
	Student    User      `gorm:"foreignKey:StudentID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	EmployerID uuid.UUID `gorm:"type:uuid;not null;index" json:"employer_id"`
	CreatedAt  time.Time `json:"created_at"`

	Messages []Message `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"-"`
}

// Message is one entry of a thread. Only IsRead changes after creation.
type Message struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ThreadID   uint      `gorm:"not null;index:idx_message_thread_time,priority:1;<-:create" json:"thread_id"`
	ListingID  uint      `gorm:"not null;index:idx_message_listing_time,priority:1;<-:create" json:"listing_id"`
	StudentID  uuid.UUID `gorm:"type:uuid;not null;index;<-:create" json:"student_id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;<-:create" json:"sender_id"`
	SenderRole string    `gorm:"type:text;not null;<-:create;check:sender_role IN ('student', 'employer')" json:"sender_role"`
	Text       string    `gorm:"type:text;not null;<-:create" json:"text"`
	Timestamp  time.Time `gorm:"type:timestamptz;not null;index:idx_message_thread_time,priority:2;index:idx_message_listing_time,priority:2;<-:create" json:"timestamp"`
	IsRead     bool      `gorm:"not null;default:false" json:"is_read"`
}

// MessageView is a message as seen by one viewer
type MessageView struct {
	Message
	IsMe bool `json:"is_me"`
}

// ViewFor projects the message for viewer. Authorship is decided by account
// id, so two employers never both see the same message as their own.
func (m Message) ViewFor(viewer User) MessageView {
	return MessageView{Message: m, IsMe: m.SenderID == viewer.ID}
}

// ThreadSummary describes one thread of a listing
type ThreadSummary struct {
	ThreadID     uint      `json:"thread_id"`
	ListingID    uint      `json:"listing_id"`
	StudentID    uuid.UUID `json:"student_id"`
	StudentName  string    `json:"student_name"`
	MessageCount int64     `json:"message_count"`
	UnreadCount  int64     `json:"unread_count"`
	LastMessage  *Message  `json:"last_message,omitempty"`
}
