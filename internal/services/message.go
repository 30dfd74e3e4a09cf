package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/pacebook/internal/models"
)

var (
	ErrEmptyMessage = errors.New("message text is required")
)

// MessageService appends to and reads the message log. It performs no
// membership checks on reads; callers resolve the thread with
// ConversationService.RequireParticipant first.
type MessageService struct {
	db       DB
	recorder Recorder
}

func NewMessageService(db DB) *MessageService {
	return &MessageService{db: db, recorder: noopRecorder{}}
}

func (s *MessageService) SetRecorder(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	s.recorder = r
}

// SendPrivate appends a message to the private conversation between senderID
// and receiverID, creating the conversation if needed.
func (s *MessageService) SendPrivate(ctx context.Context, senderID, receiverID uuid.UUID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if senderID == receiverID {
		return nil, ErrCannotMessageSelf
	}

	var msg *models.Message
	err := withTx(ctx, s.db, func(tx Tx) error {
		if err := requireIdentities(ctx, tx, receiverID, senderID); err != nil {
			return err
		}

		conv, err := findOrCreatePrivate(ctx, tx, senderID, receiverID)
		if err != nil {
			return err
		}

		msg = &models.Message{
			ConversationID:   conv.ID,
			ConversationType: models.ConversationTypePrivate,
			SenderID:         senderID,
			Text:             text,
		}
		if err := tx.QueryRow(ctx,
			`INSERT INTO messages (conversation_id, sender_id, text)
			 VALUES ($1, $2, $3)
			 RETURNING id, created_at`,
			conv.ID, senderID, text,
		).Scan(&msg.ID, &msg.CreatedAt); err != nil {
			return fmt.Errorf("creating message: %w", err)
		}

		if _, err := tx.Exec(ctx,
			"UPDATE conversations SET updated_at = NOW() WHERE id = $1",
			conv.ID,
		); err != nil {
			return fmt.Errorf("touching conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recorder.MessageSent(models.ConversationTypePrivate)
	return msg, nil
}

// SendToGroup appends a message to a group the sender belongs to.
func (s *MessageService) SendToGroup(ctx context.Context, senderID, groupID uuid.UUID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	var msg *models.Message
	err := withTx(ctx, s.db, func(tx Tx) error {
		ref, err := resolveGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if !ref.HasParticipant(senderID) {
			return ErrNotParticipant
		}

		msg = &models.Message{
			ConversationID:   groupID,
			ConversationType: models.ConversationTypeGroup,
			SenderID:         senderID,
			Text:             text,
		}
		if err := tx.QueryRow(ctx,
			`INSERT INTO messages (group_id, sender_id, text)
			 VALUES ($1, $2, $3)
			 RETURNING id, created_at`,
			groupID, senderID, text,
		).Scan(&msg.ID, &msg.CreatedAt); err != nil {
			return fmt.Errorf("creating message: %w", err)
		}

		if _, err := tx.Exec(ctx,
			"UPDATE group_conversations SET updated_at = NOW() WHERE id = $1",
			groupID,
		); err != nil {
			return fmt.Errorf("touching group: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recorder.MessageSent(models.ConversationTypeGroup)
	return msg, nil
}

// List returns the thread's messages oldest first.
func (s *MessageService) List(ctx context.Context, ref *models.ConversationRef) ([]models.Message, error) {
	column := "conversation_id"
	if ref.Type == models.ConversationTypeGroup {
		column = "group_id"
	}

	rows, err := s.db.Query(ctx,
		fmt.Sprintf(
			`SELECT id, sender_id, text, created_at
			 FROM messages
			 WHERE %s = $1
			 ORDER BY created_at, seq`,
			column,
		),
		ref.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		m := models.Message{ConversationID: ref.ID, ConversationType: ref.Type}
		if err := rows.Scan(&m.ID, &m.SenderID, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}
