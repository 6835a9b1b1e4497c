// Package thread implements the conversation between a student and the
// owner of a listing.
//
// A thread is keyed by (listing, student). Students always write to and read
// their own thread; employers own the listing and name the student explicitly.
// Messages are append only, the read flag being the only mutable field.
package thread

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
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

const tracerName = "StudentShift-backend/internal/thread"

// Defaults
const (
	DefaultPageSize  = 100
	MaxMessageLength = 4000
)

// Service is safe for concurrent use.
type Service struct {
	db        *gorm.DB
	publisher events.Publisher
	pageSize  int
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where message events are sent.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithPageSize caps the number of messages returned by List.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock overrides time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a Service storing threads in db.
func New(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		publisher: events.NopPublisher{},
		pageSize:  DefaultPageSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PostInput is a message to append. StudentID selects the thread and is
// required for employers.
type PostInput struct {
	ListingID uint
	StudentID *uuid.UUID
	Text      string
}

func (s *Service) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil && apperr.KindOf(err) == apperr.KindInternal {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) findListing(ctx context.Context, listingID uint) (*model.Listing, error) {
	if listingID == 0 {
		return nil, apperr.Validation("listing_id is required")
	}
	var listing model.Listing
	err := s.db.WithContext(ctx).First(&listing, listingID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFound("Listing not found")
	case err != nil:
		return nil, apperr.Internal(err, "load listing")
	}
	return &listing, nil
}

// resolveStudent returns the student of the thread viewer acts on.
// A student may only name itself. An employer must own the listing and, when
// required, name an existing student account.
func (s *Service) resolveStudent(ctx context.Context, viewer model.User, listing *model.Listing, studentID *uuid.UUID, required bool) (*uuid.UUID, error) {
	switch viewer.Role {
	case model.RoleStudent:
		if studentID != nil && *studentID != viewer.ID {
			return nil, apperr.Forbidden("Students can only use their own thread")
		}
		id := viewer.ID
		return &id, nil

	case model.RoleEmployer:
		if err := guard.RequireListingOwner(listing, viewer); err != nil {
			return nil, err
		}
		if studentID == nil || *studentID == uuid.Nil {
			if required {
				return nil, apperr.Validation("student_id is required")
			}
			return nil, nil
		}
		var student model.User
		err := s.db.WithContext(ctx).
			Where("id = ? AND role = ?", *studentID, model.RoleStudent).
			First(&student).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperr.NotFound("Student not found")
		case err != nil:
			return nil, apperr.Internal(err, "load student")
		}
		return studentID, nil
	}
	return nil, apperr.Forbidden("User doesn't have permission to access")
}

// threadFor returns the thread of (listing, student), creating it on first contact.
func (s *Service) threadFor(ctx context.Context, listing *model.Listing, studentID uuid.UUID) (*model.Thread, error) {
	t := model.Thread{
		ListingID:  listing.ID,
		StudentID:  studentID,
		EmployerID: listing.EmployerID,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "listing_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(&t).Error
	if err != nil {
		return nil, apperr.Internal(err, "create thread")
	}
	if t.ID != 0 {
		return &t, nil
	}

	if err := s.db.WithContext(ctx).
		Where("listing_id = ? AND student_id = ?", listing.ID, studentID).
		First(&t).Error; err != nil {
		return nil, apperr.Internal(err, "load thread")
	}
	return &t, nil
}

// Post appends a message written by author.
func (s *Service) Post(ctx context.Context, author model.User, in PostInput) (_ *model.MessageView, err error) {
	ctx, span := s.start(ctx, "thread.Post",
		attribute.Int64("listing.id", int64(in.ListingID)),
		attribute.String("sender.role", author.Role),
	)
	defer func() { endSpan(span, err) }()

	if err := guard.RequireRole(author, model.RoleStudent, model.RoleEmployer); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, apperr.Validation("text is required")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, apperr.Validation("text must be at most %d characters", MaxMessageLength)
	}

	listing, err := s.findListing(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	studentID, err := s.resolveStudent(ctx, author, listing, in.StudentID, true)
	if err != nil {
		return nil, err
	}

	t, err := s.threadFor(ctx, listing, *studentID)
	if err != nil {
		return nil, err
	}

	msg := model.Message{
		ThreadID:   t.ID,
		ListingID:  listing.ID,
		StudentID:  *studentID,
		SenderID:   author.ID,
		SenderRole: author.Role,
		Text:       text,
		Timestamp:  s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&msg).Error; err != nil {
		return nil, apperr.Internal(err, "insert message")
	}

	s.publisher.Publish(ctx, events.ChannelMessagePosted, events.MessagePosted{
		MessageID:  msg.ID,
		ThreadID:   t.ID,
		ListingID:  listing.ID,
		StudentID:  *studentID,
		SenderID:   author.ID,
		SenderRole: author.Role,
		Timestamp:  msg.Timestamp,
	})

	slog.DebugContext(ctx, "message posted", "message_id", msg.ID, "thread_id", t.ID)
	view := msg.ViewFor(author)
	return &view, nil
}

// List returns messages of listingID visible to viewer in ascending time
// order, at most the page size. A student reads its own thread. An employer
// reads the thread of studentID, or every thread of the listing grouped by
// student when studentID is nil.
func (s *Service) List(ctx context.Context, viewer model.User, listingID uint, studentID *uuid.UUID) (_ []model.MessageView, err error) {
	ctx, span := s.start(ctx, "thread.List", attribute.Int64("listing.id", int64(listingID)))
	defer func() { endSpan(span, err) }()

	if err := guard.RequireRole(viewer, model.RoleStudent, model.RoleEmployer); err != nil {
		return nil, err
	}
	listing, err := s.findListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	student, err := s.resolveStudent(ctx, viewer, listing, studentID, false)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("listing_id = ?", listing.ID)
	if student != nil {
		q = q.Where("student_id = ?", *student).Order("timestamp ASC, id ASC")
	} else {
		q = q.Order("student_id ASC, timestamp ASC, id ASC")
	}

	var msgs []model.Message
	if err := q.Limit(s.pageSize).Find(&msgs).Error; err != nil {
		return nil, apperr.Internal(err, "list messages")
	}

	out := make([]model.MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ViewFor(viewer))
	}
	return out, nil
}

type threadStats struct {
	ThreadID uint
	Total    int64
	Unread   int64
	LastID   uint
}

// Threads summarises the threads of listingID visible to viewer, most
// recently active first.
func (s *Service) Threads(ctx context.Context, viewer model.User, listingID uint) (_ []model.ThreadSummary, err error) {
	ctx, span := s.start(ctx, "thread.Threads", attribute.Int64("listing.id", int64(listingID)))
	defer func() { endSpan(span, err) }()

	if err := guard.RequireRole(viewer, model.RoleStudent, model.RoleEmployer); err != nil {
		return nil, err
	}
	listing, err := s.findListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	student, err := s.resolveStudent(ctx, viewer, listing, nil, false)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Preload("Student").Where("listing_id = ?", listing.ID)
	if student != nil {
		q = q.Where("student_id = ?", *student)
	}
	var threads []model.Thread
	if err := q.Find(&threads).Error; err != nil {
		return nil, apperr.Internal(err, "list threads")
	}
	if len(threads) == 0 {
		return []model.ThreadSummary{}, nil
	}

	ids := make([]uint, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
	}

	var stats []threadStats
	if err := s.db.WithContext(ctx).Model(&model.Message{}).
		Select("thread_id, COUNT(*) AS total, COUNT(*) FILTER (WHERE NOT is_read AND sender_id <> ?) AS unread, MAX(id) AS last_id", viewer.ID).
		Where("thread_id IN ?", ids).
		Group("thread_id").
		Scan(&stats).Error; err != nil {
		return nil, apperr.Internal(err, "aggregate threads")
	}

	lastIDs := make([]uint, 0, len(stats))
	byThread := make(map[uint]threadStats, len(stats))
	for _, st := range stats {
		byThread[st.ThreadID] = st
		lastIDs = append(lastIDs, st.LastID)
	}

	last := make(map[uint]*model.Message, len(lastIDs))
	if len(lastIDs) > 0 {
		var msgs []model.Message
		if err := s.db.WithContext(ctx).Where("id IN ?", lastIDs).Find(&msgs).Error; err != nil {
			return nil, apperr.Internal(err, "load last messages")
		}
		for i := range msgs {
			last[msgs[i].ThreadID] = &msgs[i]
		}
	}

	out := make([]model.ThreadSummary, 0, len(threads))
	for _, t := range threads {
		st := byThread[t.ID]
		out = append(out, model.ThreadSummary{
			ThreadID:     t.ID,
			ListingID:    t.ListingID,
			StudentID:    t.StudentID,
			StudentName:  t.Student.FullName(),
			MessageCount: st.Total,
			UnreadCount:  st.Unread,
			LastMessage:  last[t.ID],
		})
	}

	slices.SortStableFunc(out, func(a, b model.ThreadSummary) int {
		switch {
		case a.LastMessage == nil && b.LastMessage == nil:
			return cmp.Compare(a.ThreadID, b.ThreadID)
		case a.LastMessage == nil:
			return 1
		case b.LastMessage == nil:
			return -1
		}
		return b.LastMessage.Timestamp.Compare(a.LastMessage.Timestamp)
	})
	return out, nil
}

// MarkRead flags as read every message of the thread written by the other
// party. It returns the number of messages changed.
func (s *Service) MarkRead(ctx context.Context, viewer model.User, listingID uint, studentID *uuid.UUID) (_ int64, err error) {
	ctx, span := s.start(ctx, "thread.MarkRead", attribute.Int64("listing.id", int64(listingID)))
	defer func() { endSpan(span, err) }()

	if err := guard.RequireRole(viewer, model.RoleStudent, model.RoleEmployer); err != nil {
		return 0, err
	}
	listing, err := s.findListing(ctx, listingID)
	if err != nil {
		return 0, err
	}
	student, err := s.resolveStudent(ctx, viewer, listing, studentID, true)
	if err != nil {
		return 0, err
	}

	res := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("listing_id = ? AND student_id = ? AND sender_id <> ? AND is_read = ?", listing.ID, *student, viewer.ID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, apperr.Internal(res.Error, "mark messages read")
	}
	return res.RowsAffected, nil
}
