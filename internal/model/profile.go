package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Experience is one entry of a student's work history
type Experience struct {
	Role    string `json:"role"`
	Company string `json:"company"`
	Period  string `json:"period"`
}

// EditableProfileInfo is the part of a profile the student can write
type EditableProfileInfo struct {
	Phone        string                          `gorm:"type:text" json:"phone"`
	University   string                          `gorm:"type:text" json:"university"`
	Degree       string                          `gorm:"type:text" json:"degree"`
	Bio          string                          `gorm:"type:text" json:"bio"`
	Skills       pq.StringArray                  `gorm:"type:text[]" json:"skills"`
	Experience   datatypes.JSONSlice[Experience] `gorm:"type:jsonb" json:"experience"`
	PortfolioURL string                          `gorm:"type:text" json:"portfolio_url"`
	LinkedInURL  string                          `gorm:"type:text" json:"linkedin_url"`
}

// StudentProfile extends a student account. At most one exists per account.
type StudentProfile struct {
	ID     uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;<-:create" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	EditableProfileInfo
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
