package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/pacebook/internal/models"
)

var (
	ErrCannotFriendSelf       = errors.New("cannot send friend request to yourself")
	ErrAlreadyFriends         = errors.New("already friends")
	ErrRequestAlreadySent     = errors.New("friend request already sent")
	ErrRequestAlreadyReceived = errors.New("this user already sent you a request")
	ErrFriendshipExists       = errors.New("friendship already exists")
	ErrNoPendingRequest       = errors.New("no friend request from this user")
)

// notificationWriter is the part of NotificationService a relationship
// transition writes through inside its own transaction.
type notificationWriter interface {
	EmitIn(ctx context.Context, q Querier, params models.EmitNotificationParams) (*models.Notification, error)
	ResolveIn(ctx context.Context, q Querier, nType models.NotificationType, senderID, receiverID uuid.UUID) error
}

// FriendService owns the relationship graph. Each pair of identities has at
// most one friend_edges row and every transition rewrites it inside a single
// transaction, together with the notification it produces or resolves.
type FriendService struct {
	db       DB
	notifier notificationWriter
	recorder Recorder
}

func NewFriendService(db DB, notifier notificationWriter) *FriendService {
	return &FriendService{db: db, notifier: notifier, recorder: noopRecorder{}}
}

func (s *FriendService) SetRecorder(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	s.recorder = r
}

func (s *FriendService) SendRequest(ctx context.Context, senderID, receiverID uuid.UUID) error {
	if senderID == receiverID {
		return ErrCannotFriendSelf
	}

	err := withTx(ctx, s.db, func(tx Tx) error {
		if err := requireIdentities(ctx, tx, receiverID, senderID); err != nil {
			return err
		}

		edge, err := lockEdge(ctx, tx, senderID, receiverID)
		if err != nil {
			return err
		}
		switch edge.StateFor(senderID, receiverID) {
		case models.EdgeStateFriends:
			return ErrAlreadyFriends
		case models.EdgeStatePendingAtoB:
			return ErrRequestAlreadySent
		case models.EdgeStatePendingBtoA:
			return ErrRequestAlreadyReceived
		}

		low, high := models.OrderPair(senderID, receiverID)
		result, err := tx.Exec(ctx,
			`INSERT INTO friend_edges (user_low, user_high, state, requested_by)
			 VALUES ($1, $2, 'pending', $3)
			 ON CONFLICT (user_low, user_high) DO NOTHING`,
			low, high, senderID,
		)
		if err != nil {
			return fmt.Errorf("creating friend request: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrFriendshipExists
		}

		_, err = s.notifier.EmitIn(ctx, tx, models.EmitNotificationParams{
			Type:       models.NotificationTypeFriendRequest,
			SenderID:   senderID,
			ReceiverID: receiverID,
		})
		return err
	})
	s.recorder.FriendTransition("send_request", err)
	return err
}

// AcceptRequest turns the pending request from senderID to receiverID into a friendship.
func (s *FriendService) AcceptRequest(ctx context.Context, receiverID, senderID uuid.UUID) error {
	err := withTx(ctx, s.db, func(tx Tx) error {
		if err := requireIdentities(ctx, tx, receiverID, senderID); err != nil {
			return err
		}

		edge, err := lockEdge(ctx, tx, receiverID, senderID)
		if err != nil {
			return err
		}
		if edge.StateFor(receiverID, senderID) != models.EdgeStatePendingBtoA {
			return ErrNoPendingRequest
		}

		if _, err := tx.Exec(ctx,
			`UPDATE friend_edges
			 SET state = 'friends', requested_by = NULL, updated_at = NOW()
			 WHERE user_low = $1 AND user_high = $2`,
			edge.UserLow, edge.UserHigh,
		); err != nil {
			return fmt.Errorf("accepting friend request: %w", err)
		}

		return s.notifier.ResolveIn(ctx, tx, models.NotificationTypeFriendRequest, senderID, receiverID)
	})
	s.recorder.FriendTransition("accept_request", err)
	return err
}

// DeclineRequest drops a pending request from senderID. Anything else is left untouched.
func (s *FriendService) DeclineRequest(ctx context.Context, receiverID, senderID uuid.UUID) error {
	err := s.dropPending(ctx, senderID, receiverID)
	s.recorder.FriendTransition("decline_request", err)
	return err
}

// CancelRequest withdraws a pending request the caller sent to receiverID.
func (s *FriendService) CancelRequest(ctx context.Context, senderID, receiverID uuid.UUID) error {
	err := s.dropPending(ctx, senderID, receiverID)
	s.recorder.FriendTransition("cancel_request", err)
	return err
}

func (s *FriendService) dropPending(ctx context.Context, senderID, receiverID uuid.UUID) error {
	return withTx(ctx, s.db, func(tx Tx) error {
		if err := requireIdentities(ctx, tx, senderID, receiverID); err != nil {
			return err
		}

		low, high := models.OrderPair(senderID, receiverID)
		if _, err := tx.Exec(ctx,
			`DELETE FROM friend_edges
			 WHERE user_low = $1 AND user_high = $2
			   AND state = 'pending' AND requested_by = $3`,
			low, high, senderID,
		); err != nil {
			return fmt.Errorf("removing friend request: %w", err)
		}

		return s.notifier.ResolveIn(ctx, tx, models.NotificationTypeFriendRequest, senderID, receiverID)
	})
}

// AddFriend makes the pair friends immediately, superseding a pending request
// in either direction.
func (s *FriendService) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	if userID == friendID {
		return ErrCannotFriendSelf
	}

	err := withTx(ctx, s.db, func(tx Tx) error {
		if err := requireIdentities(ctx, tx, userID, friendID); err != nil {
			return err
		}

		edge, err := lockEdge(ctx, tx, userID, friendID)
		if err != nil {
			return err
		}
		if edge.StateFor(userID, friendID) == models.EdgeStateFriends {
			return ErrAlreadyFriends
		}

		low, high := models.OrderPair(userID, friendID)
		if _, err := tx.Exec(ctx,
			`INSERT INTO friend_edges (user_low, user_high, state, requested_by)
			 VALUES ($1, $2, 'friends', NULL)
			 ON CONFLICT (user_low, user_high)
			 DO UPDATE SET state = 'friends', requested_by = NULL, updated_at = NOW()`,
			low, high,
		); err != nil {
			return fmt.Errorf("adding friend: %w", err)
		}

		if err := s.notifier.ResolveIn(ctx, tx, models.NotificationTypeFriendRequest, userID, friendID); err != nil {
			return err
		}
		return s.notifier.ResolveIn(ctx, tx, models.NotificationTypeFriendRequest, friendID, userID)
	})
	s.recorder.FriendTransition("add_friend", err)
	return err
}

// RemoveFriend deletes the friendship if there is one. Removing twice is fine.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	err := withTx(ctx, s.db, func(tx Tx) error {
		if err := requireIdentities(ctx, tx, userID, friendID); err != nil {
			return err
		}

		low, high := models.OrderPair(userID, friendID)
		if _, err := tx.Exec(ctx,
			`DELETE FROM friend_edges
			 WHERE user_low = $1 AND user_high = $2 AND state = 'friends'`,
			low, high,
		); err != nil {
			return fmt.Errorf("removing friend: %w", err)
		}
		return nil
	})
	s.recorder.FriendTransition("remove_friend", err)
	return err
}

func (s *FriendService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	exists, err := identityExists(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.username, u.full_name, u.email, u.profile_picture
		 FROM friend_edges e
		 JOIN users u ON u.id = CASE WHEN e.user_low = $1 THEN e.user_high ELSE e.user_low END
		 WHERE (e.user_low = $1 OR e.user_high = $1) AND e.state = 'friends'
		 ORDER BY u.username`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()

	var friends []models.UserSummary
	for rows.Next() {
		var f models.UserSummary
		if err := rows.Scan(&f.ID, &f.Username, &f.FullName, &f.Email, &f.ProfilePicture); err != nil {
			return nil, fmt.Errorf("scanning friend: %w", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friends: %w", err)
	}

	if friends == nil {
		friends = []models.UserSummary{}
	}
	return friends, nil
}

// Relationship reports the state of the pair as seen by userID.
func (s *FriendService) Relationship(ctx context.Context, userID, otherID uuid.UUID) (models.EdgeState, error) {
	if userID == otherID {
		return models.EdgeStateNone, nil
	}
	edge, err := getEdge(ctx, s.db, userID, otherID, false)
	if err != nil {
		return "", err
	}
	return edge.StateFor(userID, otherID), nil
}

// lockEdge loads the pair's edge with a row lock. A nil edge means no row.
func lockEdge(ctx context.Context, q Querier, a, b uuid.UUID) (*models.FriendEdge, error) {
	return getEdge(ctx, q, a, b, true)
}

func getEdge(ctx context.Context, q Querier, a, b uuid.UUID, forUpdate bool) (*models.FriendEdge, error) {
	low, high := models.OrderPair(a, b)
	query := `SELECT user_low, user_high, state, requested_by, created_at, updated_at
		 FROM friend_edges
		 WHERE user_low = $1 AND user_high = $2`
	if forUpdate {
		query += " FOR UPDATE"
	}

	edge := &models.FriendEdge{}
	var state string
	err := q.QueryRow(ctx, query, low, high).Scan(
		&edge.UserLow, &edge.UserHigh, &state, &edge.RequestedBy, &edge.CreatedAt, &edge.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting friend edge: %w", err)
	}
	edge.Status = models.FriendshipStatus(state)
	return edge, nil
}
