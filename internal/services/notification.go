package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/pacebook/internal/models"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
)

type NotificationService struct {
	db DB
}

func NewNotificationService(db DB) *NotificationService {
	return &NotificationService{db: db}
}

// EmitIn inserts a notification through q, which is usually the transaction of
// the state change that produced it.
func (s *NotificationService) EmitIn(ctx context.Context, q Querier, params models.EmitNotificationParams) (*models.Notification, error) {
	n := &models.Notification{
		Type:       params.Type,
		SenderID:   params.SenderID,
		ReceiverID: params.ReceiverID,
		Message:    params.Message,
	}
	err := q.QueryRow(ctx,
		`INSERT INTO notifications (type, sender_id, receiver_id, message)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, is_read, created_at`,
		string(params.Type), params.SenderID, params.ReceiverID, params.Message,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	return n, nil
}

// List returns the receiver's notifications, newest first, with the sender resolved.
func (s *NotificationService) List(ctx context.Context, receiverID uuid.UUID) ([]models.Notification, error) {
	rows, err := s.db.Query(ctx,
		`SELECT n.id, n.type, n.sender_id, n.receiver_id, n.message, n.is_read, n.created_at,
		        u.username, u.profile_picture
		 FROM notifications n
		 JOIN users u ON n.sender_id = u.id
		 WHERE n.receiver_id = $1
		 ORDER BY n.created_at DESC, n.id`,
		receiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		var nType string
		sender := &models.UserSummary{}
		if err := rows.Scan(
			&n.ID,
			&nType,
			&n.SenderID,
			&n.ReceiverID,
			&n.Message,
			&n.IsRead,
			&n.CreatedAt,
			&sender.Username,
			&sender.ProfilePicture,
		); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.Type = models.NotificationType(nType)
		sender.ID = n.SenderID
		n.Sender = sender
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}

	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// ResolveIn deletes the matching notifications. Nothing matching is not an error.
func (s *NotificationService) ResolveIn(ctx context.Context, q Querier, nType models.NotificationType, senderID, receiverID uuid.UUID) error {
	_, err := q.Exec(ctx,
		"DELETE FROM notifications WHERE type = $1 AND sender_id = $2 AND receiver_id = $3",
		string(nType), senderID, receiverID,
	)
	if err != nil {
		return fmt.Errorf("resolving notification: %w", err)
	}
	return nil
}

func (s *NotificationService) MarkRead(ctx context.Context, receiverID, notificationID uuid.UUID) error {
	result, err := s.db.Exec(ctx,
		"UPDATE notifications SET is_read = true WHERE id = $1 AND receiver_id = $2",
		notificationID, receiverID,
	)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
