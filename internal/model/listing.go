package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Listing status values
const (
	ListingStatusActive = "active"
	ListingStatusClosed = "closed"
)

// EditableListingInfo is the part of a listing its owner can edit
type EditableListingInfo struct {
	Title            string         `gorm:"type:text;not null" json:"title"`
	Company          string         `gorm:"type:text;not null" json:"company"`
	Location         string         `gorm:"type:text;not null" json:"location"`
	SalaryMin        int            `gorm:"not null;check:salary_min >= 0" json:"salary_min"`
	SalaryMax        int            `gorm:"not null;check:salary_max >= salary_min" json:"salary_max"`
	Tags             pq.StringArray `gorm:"type:text[]" json:"tags"`
	Description      string         `gorm:"type:text;not null" json:"description"`
	Responsibilities pq.StringArray `gorm:"type:text[]" json:"responsibilities"`
	Skills           pq.StringArray `gorm:"type:text[]" json:"skills"`
	Deadline         *time.Time     `gorm:"type:timestamp" json:"deadline,omitempty"`
}

// EditableListingColumns are the columns written when a listing is edited.
var EditableListingColumns = []string{
	"title", "company", "location", "salary_min", "salary_max",
	"tags", "description", "responsibilities", "skills", "deadline",
}

// Validate checks required fields and the salary range.
func (e *EditableListingInfo) Validate() error {
	var missing []string
	if strings.TrimSpace(e.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(e.Company) == "" {
		missing = append(missing, "company")
	}
	if strings.TrimSpace(e.Location) == "" {
		missing = append(missing, "location")
	}
	if strings.TrimSpace(e.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return errors.New("missing required field(s): " + strings.Join(missing, ", "))
	}
	if e.SalaryMin < 0 || e.SalaryMax < 0 {
		return errors.New("salary must not be negative")
	}
	if e.SalaryMin > e.SalaryMax {
		return errors.New("salary_min must be less than or equal to salary_max")
	}
	return nil
}

// Listing is a part-time job posted by an employer account
type Listing struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EmployerID uuid.UUID `gorm:"type:uuid;not null;index;<-:create" json:"employer_id"`
	Employer   User      `gorm:"foreignKey:EmployerID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	EditableListingInfo
	Status         string    `gorm:"type:text;not null;index:idx_listing_status_created,priority:1;check:status IN ('active', 'closed')" json:"status"`
	ApplicantCount int64     `gorm:"not null;default:0;check:applicant_count >= 0" json:"applicant_count"`
	CreatedAt      time.Time `gorm:"index:idx_listing_status_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Applications []Application `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"-"`
	Threads      []Thread      `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsOwnedBy reports whether account id owns the listing.
func (l *Listing) IsOwnedBy(id uuid.UUID) bool {
	return l.EmployerID == id
}

// IsActive reports whether the listing accepts applications.
func (l *Listing) IsActive() bool {
	return l.Status == ListingStatusActive
}

// Snapshot projects the listing fields joined into application reads.
func (l *Listing) Snapshot() *ListingSnapshot {
	return &ListingSnapshot{
		ID:        l.ID,
		Title:     l.Title,
		Company:   l.Company,
		Location:  l.Location,
		SalaryMin: l.SalaryMin,
		SalaryMax: l.SalaryMax,
		Status:    l.Status,
	}
}

// ListingSnapshot is the listing data shown next to a student's application
type ListingSnapshot struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Company   string `json:"company"`
	Location  string `json:"location"`
	SalaryMin int    `json:"salary_min"`
	SalaryMax int    `json:"salary_max"`
	Status    string `json:"status"`
}

// ListingResponse is a listing with the caller's application state
type ListingResponse struct {
	Listing
	UserApplied bool `json:"user_applied"`
}
