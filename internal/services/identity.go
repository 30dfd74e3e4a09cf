package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/pacebook/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

const (
	userSearchLimit = 20
	userListLimit   = 100
)

// IdentityService is a read-only directory over the users table. Relationship
// sets are derived from friend_edges rather than stored on the identity row.
type IdentityService struct {
	db DB
}

func NewIdentityService(db DB) *IdentityService {
	return &IdentityService{db: db}
}

func (s *IdentityService) GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	identity := &models.Identity{}
	var records []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, username, email, full_name, profile_picture, personal_records, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&identity.ID, &identity.Username, &identity.Email, &identity.FullName,
		&identity.ProfilePicture, &records, &identity.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	identity.PersonalRecords = models.DefaultPersonalRecords()
	if len(records) > 0 {
		if err := json.Unmarshal(records, &identity.PersonalRecords); err != nil {
			return nil, fmt.Errorf("decoding personal records: %w", err)
		}
	}

	if err := s.loadRelationships(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *IdentityService) loadRelationships(ctx context.Context, identity *models.Identity) error {
	rows, err := s.db.Query(ctx,
		`SELECT user_low, user_high, state, requested_by
		 FROM friend_edges
		 WHERE user_low = $1 OR user_high = $1`,
		identity.ID,
	)
	if err != nil {
		return fmt.Errorf("loading relationships: %w", err)
	}
	defer rows.Close()

	identity.Friends = []uuid.UUID{}
	identity.RequestsSent = []uuid.UUID{}
	identity.RequestsReceived = []uuid.UUID{}

	for rows.Next() {
		var edge models.FriendEdge
		if err := rows.Scan(&edge.UserLow, &edge.UserHigh, &edge.Status, &edge.RequestedBy); err != nil {
			return fmt.Errorf("scanning relationship: %w", err)
		}
		other := edge.UserHigh
		if other == identity.ID {
			other = edge.UserLow
		}
		switch edge.StateFor(identity.ID, other) {
		case models.EdgeStateFriends:
			identity.Friends = append(identity.Friends, other)
		case models.EdgeStatePendingAtoB:
			identity.RequestsSent = append(identity.RequestsSent, other)
		case models.EdgeStatePendingBtoA:
			identity.RequestsReceived = append(identity.RequestsReceived, other)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating relationships: %w", err)
	}
	return nil
}

// Search matches query as a literal, case-insensitive substring of usernames,
// excluding the caller. An empty query lists everyone; a one-character query
// matches nothing.
func (s *IdentityService) Search(ctx context.Context, currentUserID uuid.UUID, query string) ([]models.UserSummary, error) {
	query = strings.TrimSpace(query)

	var rows Rows
	var err error
	switch {
	case query == "":
		rows, err = s.db.Query(ctx,
			`SELECT id, username, full_name, profile_picture FROM users
			 WHERE id != $1
			 ORDER BY username
			 LIMIT $2`,
			currentUserID, userListLimit,
		)
	case len(query) < 2:
		return []models.UserSummary{}, nil
	default:
		// strpos keeps % and _ literal, unlike LIKE.
		rows, err = s.db.Query(ctx,
			`SELECT id, username, full_name, profile_picture FROM users
			 WHERE id != $1
			   AND strpos(LOWER(username), $2) > 0
			 ORDER BY username
			 LIMIT $3`,
			currentUserID, strings.ToLower(query), userSearchLimit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	defer rows.Close()

	results := []models.UserSummary{}
	for rows.Next() {
		var user models.UserSummary
		if err := rows.Scan(&user.ID, &user.Username, &user.FullName, &user.ProfilePicture); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		results = append(results, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return results, nil
}

func identityExists(ctx context.Context, q Querier, id uuid.UUID) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)",
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking user existence: %w", err)
	}
	return exists, nil
}

// requireIdentities returns ErrUserNotFound when any of ids is missing.
func requireIdentities(ctx context.Context, q Querier, ids ...uuid.UUID) error {
	for _, id := range ids {
		exists, err := identityExists(ctx, q, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
	}
	return nil
}
