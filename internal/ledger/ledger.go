// Package ledger records applications of students to listings.
//
// The unique (listing_id, student_id) index on applications is the source of
// truth for the one-application-per-listing rule; the existence check done
// before inserting only returns early. The applicant counter on listings is
// derived from the ledger, incremented after each insert and raised by
// ReconcileCounts when an increment was lost.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"StudentShift-backend/internal/apperr"
	"StudentShift-backend/internal/events"
	"StudentShift-backend/internal/guard"
	"StudentShift-backend/internal/model"
)

const tracerName = "StudentShift-backend/internal/ledger"

// uniqueViolation is the postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Ledger is safe for concurrent use.
type Ledger struct {
	db                *gorm.DB
	publisher         events.Publisher
	openApplicantList bool
	now               func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher sets where application events are sent.
func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithOpenApplicantList lets any employer read the applicants of any listing.
func WithOpenApplicantList(open bool) Option {
	return func(l *Ledger) { l.openApplicantList = open }
}

// WithClock overrides time.Now for applied timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New returns a Ledger storing applications in db.
func New(db *gorm.DB, opts ...Option) *Ledger {
	l := &Ledger{
		db:        db,
		publisher: events.NopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

func endSpan(span trace.Span, err error) {
	if err != nil && apperr.KindOf(err) == apperr.KindInternal {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// IsUniqueViolation reports whether err comes from a unique index, either
// translated by gorm or as a raw postgres error.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (l *Ledger) findListing(ctx context.Context, listingID uint) (*model.Listing, error) {
	var listing model.Listing
	err := l.db.WithContext(ctx).First(&listing, listingID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFound("Listing not found")
	case err != nil:
		return nil, apperr.Internal(err, "load listing")
	}
	return &listing, nil
}

// Submit records that student applies to listingID.
// A second submission for the same pair fails with DuplicateApplication, even
// when both race past the existence check.
func (l *Ledger) Submit(ctx context.Context, student model.User, listingID uint, coverLetter string) (_ *model.Application, err error) {
	ctx, span := l.tracer().Start(ctx, "ledger.Submit", trace.WithAttributes(
		attribute.Int64("listing.id", int64(listingID)),
		attribute.String("student.id", student.ID.String()),
	))
	defer func() { endSpan(span, err) }()

	if err := guard.RequireRole(student, model.RoleStudent); err != nil {
		return nil, apperr.Forbidden("Only students can apply to listings")
	}
	if listingID == 0 {
		return nil, apperr.Validation("listing_id is required")
	}

	listing, err := l.findListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsActive() {
		return nil, apperr.Validation("Listing is closed")
	}

	var existing []model.Application
	res := l.db.WithContext(ctx).
		Where("listing_id = ? AND student_id = ?", listingID, student.ID).
		Limit(1).
		Find(&existing)
	if res.Error != nil {
		return nil, apperr.Internal(res.Error, "check existing application")
	}
	if res.RowsAffected > 0 {
		return nil, apperr.DuplicateApplication(nil)
	}

	app := model.Application{
		ListingID:   listingID,
		StudentID:   student.ID,
		Status:      model.ApplicationStatusApplied,
		CoverLetter: coverLetter,
		AppliedAt:   l.now(),
	}
	if err := l.db.WithContext(ctx).Omit(clause.Associations).Create(&app).Error; err != nil {
		if IsUniqueViolation(err) {
			return nil, apperr.DuplicateApplication(err)
		}
		return nil, apperr.Internal(err, "insert application")
	}

	// The counter is advisory. A failed increment is repaired by ReconcileCounts.
	if err := l.db.WithContext(ctx).Model(&model.Listing{}).
		Where("id = ?", listingID).
		UpdateColumn("applicant_count", gorm.Expr("applicant_count + ?", 1)).Error; err != nil {
		slog.WarnContext(ctx, "applicant counter increment failed",
			"listing_id", listingID,
			"application_id", app.ID,
			"err", err,
		)
	}

	l.publisher.Publish(ctx, events.ChannelApplicationSubmitted, events.ApplicationSubmitted{
		ApplicationID: app.ID,
		ListingID:     listingID,
		StudentID:     student.ID,
		EmployerID:    listing.EmployerID,
		AppliedAt:     app.AppliedAt,
	})

	slog.InfoContext(ctx, "application submitted", "application_id", app.ID, "listing_id", listingID)
	return &app, nil
}

// ListForStudent returns the applications of student, newest first, each with
// the current state of its listing.
func (l *Ledger) ListForStudent(ctx context.Context, student model.User) (_ []model.ApplicationResponse, err error) {
	ctx, span := l.tracer().Start(ctx, "ledger.ListForStudent")
	defer func() { endSpan(span, err) }()

	if err := guard.RequireRole(student, model.RoleStudent); err != nil {
		return nil, err
	}

	var apps []model.Application
	if err := l.db.WithContext(ctx).
		Preload("Listing").
		Where("student_id = ?", student.ID).
		Order("applied_at DESC, id DESC").
		Find(&apps).Error; err != nil {
		return nil, apperr.Internal(err, "list student applications")
	}

	out := make([]model.ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, model.ApplicationResponse{
			Application: apps[i],
			ListingInfo: apps[i].Listing.Snapshot(),
		})
	}
	return out, nil
}

// ListApplicants returns the applications to listingID, newest first, each
// with the applicant account and profile. Only the owner may read them unless
// the ledger was built WithOpenApplicantList.
func (l *Ledger) ListApplicants(ctx context.Context, caller model.User, listingID uint) (_ []model.ApplicationResponse, err error) {
	ctx, span := l.tracer().Start(ctx, "ledger.ListApplicants", trace.WithAttributes(
		attribute.Int64("listing.id", int64(listingID)),
	))
	defer func() { endSpan(span, err) }()

	if err := guard.RequireRole(caller, model.RoleEmployer); err != nil {
		return nil, err
	}
	if listingID == 0 {
		return nil, apperr.Validation("listing id is required")
	}

	listing, err := l.findListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !l.openApplicantList {
		if err := guard.RequireListingOwner(listing, caller); err != nil {
			return nil, err
		}
	}

	var apps []model.Application
	if err := l.db.WithContext(ctx).
		Preload("Student").
		Where("listing_id = ?", listingID).
		Order("applied_at DESC, id DESC").
		Find(&apps).Error; err != nil {
		return nil, apperr.Internal(err, "list applicants")
	}

	profiles, err := l.profilesOf(ctx, apps)
	if err != nil {
		return nil, err
	}

	out := make([]model.ApplicationResponse, 0, len(apps))
	for i := range apps {
		s := apps[i].Student
		out = append(out, model.ApplicationResponse{
			Application: apps[i],
			Applicant: &model.ApplicantSnapshot{
				ID:        s.ID,
				Email:     s.Email,
				FirstName: s.FirstName,
				LastName:  s.LastName,
				Profile:   profiles[s.ID],
			},
		})
	}
	return out, nil
}

func (l *Ledger) profilesOf(ctx context.Context, apps []model.Application) (map[uuid.UUID]*model.StudentProfile, error) {
	out := make(map[uuid.UUID]*model.StudentProfile, len(apps))
	if len(apps) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.StudentID)
	}

	var profiles []model.StudentProfile
	if err := l.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, apperr.Internal(err, "load applicant profiles")
	}
	for i := range profiles {
		out[profiles[i].UserID] = &profiles[i]
	}
	return out, nil
}

// UpdateStatus moves an application to status. Only the owner of the listing
// may do it and only along the allowed transitions.
func (l *Ledger) UpdateStatus(ctx context.Context, caller model.User, applicationID uint, status string) (_ *model.Application, err error) {
	ctx, span := l.tracer().Start(ctx, "ledger.UpdateStatus", trace.WithAttributes(
		attribute.Int64("application.id", int64(applicationID)),
		attribute.String("application.status", status),
	))
	defer func() { endSpan(span, err) }()

	if err := guard.RequireRole(caller, model.RoleEmployer); err != nil {
		return nil, err
	}
	to, err := model.ParseApplicationStatus(status)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	var app model.Application
	err = l.db.WithContext(ctx).Preload("Listing").First(&app, applicationID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFound("Application not found")
	case err != nil:
		return nil, apperr.Internal(err, "load application")
	}

	if err := guard.RequireListingOwner(&app.Listing, caller); err != nil {
		return nil, err
	}

	from := app.Status
	if !model.IsApplicationTransitionAllowed(from, to) {
		return nil, apperr.Validation("Cannot move application from %s to %s", from, to)
	}

	res := l.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", app.ID, from).
		Updates(map[string]any{"status": to, "updated_at": l.now()})
	if res.Error != nil {
		return nil, apperr.Internal(res.Error, "update application status")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("Application status was changed by another request")
	}
	app.Status = to

	l.publisher.Publish(ctx, events.ChannelApplicationStatus, events.ApplicationStatusChanged{
		ApplicationID: app.ID,
		ListingID:     app.ListingID,
		StudentID:     app.StudentID,
		From:          from,
		To:            to,
	})
	return &app, nil
}

// AppliedListingIDs reports which of listingIDs studentID has applied to.
func (l *Ledger) AppliedListingIDs(ctx context.Context, studentID uuid.UUID, listingIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(listingIDs))
	if len(listingIDs) == 0 {
		return out, nil
	}

	var applied []uint
	if err := l.db.WithContext(ctx).Model(&model.Application{}).
		Where("student_id = ? AND listing_id IN ?", studentID, listingIDs).
		Pluck("listing_id", &applied).Error; err != nil {
		return nil, apperr.Internal(err, "load applied listings")
	}
	for _, id := range applied {
		out[id] = true
	}
	return out, nil
}

// ReconcileCounts raises every applicant counter that is below the number of
// applications stored for its listing. Counters are never lowered.
// It returns the number of listings repaired.
func (l *Ledger) ReconcileCounts(ctx context.Context) (_ int64, err error) {
	ctx, span := l.tracer().Start(ctx, "ledger.ReconcileCounts")
	defer func() { endSpan(span, err) }()

	res := l.db.WithContext(ctx).Exec(`
		UPDATE listings
		SET applicant_count = GREATEST(listings.applicant_count, c.total)
		FROM (
			SELECT listing_id, COUNT(*) AS total
			FROM applications
			GROUP BY listing_id
		) AS c
		WHERE listings.id = c.listing_id
		  AND listings.applicant_count < c.total`)
	if res.Error != nil {
		return 0, apperr.Internal(res.Error, "reconcile applicant counts")
	}

	span.SetAttributes(attribute.Int64("listings.repaired", res.RowsAffected))
	if res.RowsAffected > 0 {
		slog.InfoContext(ctx, "applicant counters reconciled", "listings", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
