// Package notification stores and lists database notifications addressed to users.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/db/models"
)

// LatestLimit is the number of notifications shared with every page.
const LatestLimit = 20

// TypeUserCreated is the notification type sent when an account registers.
const TypeUserCreated = "user_created"

// RecipientID receives the new account notices.
const RecipientID uint64 = 1

// ErrNotFound is returned when the notification does not exist or belongs to someone else.
var ErrNotFound = errors.New("notification not found")

// Message is the payload of a notification.
type Message struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// View is a notification as shown in the notification menu.
type View struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Time    string `json:"time"`
	Read    bool   `json:"read"`
}

// Service manages notifications.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService creates a Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Notify stores msg for userID.
func (s *Service) Notify(ctx context.Context, userID uint64, kind string, msg Message) (*models.Notification, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification: %w", err)
	}

	n := &models.Notification{
		ID:     uuid.NewString(),
		Type:   kind,
		UserID: userID,
		Data:   datatypes.JSON(data),
	}

	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}

	return n, nil
}

// UserCreated tells the recipient account that u registered. Nothing is sent when u is the
// recipient or the recipient does not exist.
func (s *Service) UserCreated(ctx context.Context, u *models.User) error {
	if u.ID == RecipientID {
		return nil
	}

	var recipient models.User
	if err := s.db.WithContext(ctx).First(&recipient, RecipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Debug().Uint64("user_id", u.ID).Msg("no recipient for new account notice")

			return nil
		}

		return fmt.Errorf("failed to load notification recipient: %w", err)
	}

	_, err := s.Notify(ctx, recipient.ID, TypeUserCreated, Message{
		Type:    "success",
		Title:   u.Name + " has created an account",
		Message: u.Name + " has successfully created an account and joined the platform.",
	})

	return err
}

// Latest returns the newest notifications of userID.
func (s *Service) Latest(ctx context.Context, userID uint64) ([]View, error) {
	var rows []models.Notification

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(LatestLimit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	out := make([]View, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.present(row))
	}

	return out, nil
}

func (s *Service) present(n models.Notification) View {
	msg := Message{Type: "info"}
	if len(n.Data) > 0 {
		if err := json.Unmarshal(n.Data, &msg); err != nil {
			log.Warn().Err(err).Str("notification_id", n.ID).Msg("invalid notification data")
		}
	}

	if msg.Type == "" {
		msg.Type = "info"
	}

	return View{
		ID:      n.ID,
		Type:    msg.Type,
		Title:   msg.Title,
		Message: msg.Message,
		Time:    humanize.RelTime(n.CreatedAt, s.now(), "ago", "from now"),
		Read:    n.ReadAt != nil,
	}
}

// MarkRead marks one notification of userID as read.
func (s *Service) MarkRead(ctx context.Context, userID uint64, id string) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", s.now())
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkAllRead marks every unread notification of userID as read.
func (s *Service) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", s.now())
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// Delete removes one notification of userID.
func (s *Service) Delete(ctx context.Context, userID uint64, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
