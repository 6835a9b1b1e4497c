package model

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Application status values. Employers move an application through them,
// a fresh application always starts as ApplicationStatusApplied.
const (
	ApplicationStatusApplied   = "applied"
	ApplicationStatusReview    = "review"
	ApplicationStatusInterview = "interview"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusAccepted  = "accepted"
)

// applicationTransitions lists every allowed (from -> to) pair.
// accepted and rejected are terminal.
var applicationTransitions = map[string][]string{
	ApplicationStatusApplied:   {ApplicationStatusReview, ApplicationStatusInterview, ApplicationStatusRejected},
	ApplicationStatusReview:    {ApplicationStatusInterview, ApplicationStatusRejected},
	ApplicationStatusInterview: {ApplicationStatusAccepted, ApplicationStatusRejected},
}

// ParseApplicationStatus returns an error for unknown status values.
func ParseApplicationStatus(s string) (string, error) {
	switch s {
	case ApplicationStatusApplied, ApplicationStatusReview, ApplicationStatusInterview,
		ApplicationStatusRejected, ApplicationStatusAccepted:
		return s, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsApplicationTransitionAllowed reports whether from -> to is permitted.
func IsApplicationTransitionAllowed(from, to string) bool {
	return slices.Contains(applicationTransitions[from], to)
}

// Application records a student's intent to work a listing.
// The (listing_id, student_id) pair is unique at the storage level.
type Application struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID uint      `gorm:"not null;uniqueIndex:idx_application_listing_student,priority:1;index:idx_application_listing_status,priority:1" json:"listing_id"`
	Listing   Listing   `gorm:"foreignKey:ListingID;references:ID" json:"-"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_application_listing_student,priority:2;index:idx_application_student_applied,priority:1" json:"student_id"`
	Student   User      `gorm:"foreignKey:StudentID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	Status      string    `gorm:"type:text;not null;index:idx_application_listing_status,priority:2" json:"status"`
	CoverLetter string    `gorm:"type:text" json:"cover_letter,omitempty"`
	AppliedAt   time.Time `gorm:"type:timestamptz;not null;index:idx_application_student_applied,priority:2,sort:desc" json:"applied_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ApplicantSnapshot is the applicant data shown to the listing owner
type ApplicantSnapshot struct {
	ID        uuid.UUID       `json:"id"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Profile   *StudentProfile `json:"profile"`
}

// ApplicationResponse is an application joined with the data its reader needs.
// Student reads carry ListingInfo, employer reads carry Applicant.
type ApplicationResponse struct {
	Application
	ListingInfo *ListingSnapshot   `json:"listing,omitempty"`
	Applicant   *ApplicantSnapshot `json:"applicant,omitempty"`
}
