package announcement

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync/atomic"
	"time"

	"CampusEvents/internal/auth"
	"CampusEvents/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const mailConcurrency = 4

var (
	ErrAnnouncementNotFound = errors.New("Announcement not found.")
	ErrMessageRequired      = errors.New("Message is required.")
	ErrInvalidExpiry        = errors.New("Expiry date must be after the publish date.")
)

// Recipients lists the addresses announcement emails go to.
type Recipients interface {
	AllEmails(ctx context.Context) ([]string, error)
}

type AnnouncementService struct {
	store  Store
	users  Recipients
	mailer config.Mailer
	logger *zap.Logger
	now    func() time.Time
}

func NewAnnouncementService(store Store, users Recipients, mailer config.Mailer, logger *zap.Logger) *AnnouncementService {
	return &AnnouncementService{store: store, users: users, mailer: mailer, logger: logger, now: time.Now}
}

// Active returns the announcement banners should show, or nil.
func (s *AnnouncementService) Active(ctx context.Context) (*Announcement, error) {
	return s.store.Active(ctx, s.now())
}

// List shows admins every announcement, others only published ones.
func (s *AnnouncementService) List(ctx context.Context, caller auth.Caller) ([]*View, error) {
	if caller.IsAdmin() {
		return s.store.List(ctx, nil)
	}
	now := s.now()
	return s.store.List(ctx, &now)
}

func (s *AnnouncementService) Create(ctx context.Context, caller auth.Caller, req CreateRequest) (*Announcement, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrMessageRequired
	}
	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	publish := s.now()
	if req.PublishDate != nil {
		publish = *req.PublishDate
	}
	if req.ExpiryDate != nil && !req.ExpiryDate.After(publish) {
		return nil, ErrInvalidExpiry
	}
	a := &Announcement{
		Message:     message,
		Priority:    priority,
		Rank:        rank(priority),
		PublishDate: publish,
		ExpiryDate:  req.ExpiryDate,
		Notify:      req.Notify,
		CreatedBy:   caller.ID,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	s.logger.Info("Announcement created",
		zap.String("announcementId", a.ID.Hex()),
		zap.String("priority", priority),
		zap.Bool("notify", a.Notify))
	return a, nil
}

func (s *AnnouncementService) Update(ctx context.Context, id primitive.ObjectID, req UpdateRequest) (*Announcement, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrAnnouncementNotFound
	}

	set, unset := bson.M{}, bson.M{}
	if req.Message != nil {
		message := strings.TrimSpace(*req.Message)
		if message == "" {
			return nil, ErrMessageRequired
		}
		set["message"] = message
	}
	if req.Priority != nil {
		set["priority"] = *req.Priority
		set["rank"] = rank(*req.Priority)
	}
	publish := current.PublishDate
	if req.PublishDate != nil {
		publish = *req.PublishDate
		set["publishDate"] = publish
	}
	expiry := current.ExpiryDate
	switch {
	case req.ClearExpiry:
		expiry = nil
		set["expiryDate"] = nil
	case req.ExpiryDate != nil:
		expiry = req.ExpiryDate
		set["expiryDate"] = *req.ExpiryDate
	}
	if expiry != nil && !expiry.After(publish) {
		return nil, ErrInvalidExpiry
	}
	if req.Notify != nil {
		set["notify"] = *req.Notify
		if *req.Notify && !current.Notify {
			unset["notifiedAt"] = ""
		}
	}

	updated, err := s.store.Update(ctx, id, set, unset)
	if err != nil {
		return nil, fmt.Errorf("update announcement: %w", err)
	}
	if updated == nil {
		return nil, ErrAnnouncementNotFound
	}
	return updated, nil
}

func (s *AnnouncementService) Delete(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrAnnouncementNotFound
	}
	return nil
}

// SendDue emails every due announcement to all users and returns how many
// announcements were sent.
func (s *AnnouncementService) SendDue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.store.DueForNotify(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("load due announcements: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}
	recipients, err := s.users.AllEmails(ctx)
	if err != nil {
		return 0, fmt.Errorf("load recipients: %w", err)
	}

	sent := 0
	for _, a := range due {
		claimed, err := s.store.ClaimNotify(ctx, a.ID, now)
		if err != nil {
			return sent, err
		}
		if !claimed {
			continue
		}
		failed := s.broadcast(ctx, a, recipients)
		s.logger.Info("Announcement emailed",
			zap.String("announcementId", a.ID.Hex()),
			zap.Int("recipients", len(recipients)),
			zap.Int64("failed", failed))
		sent++
	}
	return sent, nil
}

func (s *AnnouncementService) broadcast(ctx context.Context, a *Announcement, recipients []string) int64 {
	subject := fmt.Sprintf("[%s] Campus announcement", a.Priority)
	body := "<p>" + strings.ReplaceAll(html.EscapeString(a.Message), "\n", "<br>") + "</p>"

	var failed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mailConcurrency)
	for _, to := range recipients {
		to := to
		g.Go(func() error {
			if err := s.mailer.Send(gctx, to, subject, body); err != nil {
				atomic.AddInt64(&failed, 1)
				s.logger.Warn("Announcement email failed", zap.String("to", to), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}
