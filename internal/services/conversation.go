package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/pacebook/internal/models"
)

var (
	ErrCannotMessageSelf    = errors.New("cannot start a conversation with yourself")
	ErrInvalidGroup         = errors.New("a group needs a name and at least 2 other participants")
	ErrGroupNotFound        = errors.New("group conversation not found")
	ErrNotGroupCreator      = errors.New("only the group creator can do this")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("not a participant in this conversation")
)

type ConversationService struct {
	db DB
}

func NewConversationService(db DB) *ConversationService {
	return &ConversationService{db: db}
}

// FindOrCreatePrivate returns the single private conversation between a and b,
// creating it on first use.
func (s *ConversationService) FindOrCreatePrivate(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	if a == b {
		return nil, ErrCannotMessageSelf
	}
	if err := requireIdentities(ctx, s.db, b, a); err != nil {
		return nil, err
	}
	return findOrCreatePrivate(ctx, s.db, a, b)
}

// findOrCreatePrivate relies on the unique pair key so concurrent callers end
// up sharing one row.
func findOrCreatePrivate(ctx context.Context, q Querier, a, b uuid.UUID) (*models.Conversation, error) {
	low, high := models.OrderPair(a, b)

	conv := &models.Conversation{}
	err := q.QueryRow(ctx,
		`INSERT INTO conversations (participant_low, participant_high)
		 VALUES ($1, $2)
		 ON CONFLICT (participant_low, participant_high) DO NOTHING
		 RETURNING id, participant_low, participant_high, created_at, updated_at`,
		low, high,
	).Scan(&conv.ID, &conv.ParticipantLow, &conv.ParticipantHigh, &conv.CreatedAt, &conv.UpdatedAt)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	err = q.QueryRow(ctx,
		`SELECT id, participant_low, participant_high, created_at, updated_at
		 FROM conversations
		 WHERE participant_low = $1 AND participant_high = $2`,
		low, high,
	).Scan(&conv.ID, &conv.ParticipantLow, &conv.ParticipantHigh, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns every private and group thread userID belongs to,
// most recently active first.
func (s *ConversationService) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT c.id, c.created_at, c.updated_at, u.id, u.username, u.profile_picture
		 FROM conversations c
		 JOIN users u ON u.id = c.participant_low OR u.id = c.participant_high
		 WHERE c.participant_low = $1 OR c.participant_high = $1
		 ORDER BY c.updated_at DESC, c.id, u.username`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	summaries := []models.ConversationSummary{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var summary models.ConversationSummary
		var participant models.UserSummary
		if err := rows.Scan(
			&summary.ID, &summary.CreatedAt, &summary.UpdatedAt,
			&participant.ID, &participant.Username, &participant.ProfilePicture,
		); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		i, ok := index[summary.ID]
		if !ok {
			summary.Type = models.ConversationTypePrivate
			summaries = append(summaries, summary)
			i = len(summaries) - 1
			index[summary.ID] = i
		}
		summaries[i].Participants = append(summaries[i].Participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}

	groups, err := s.ListGroups(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		createdBy := g.CreatedBy
		summaries = append(summaries, models.ConversationSummary{
			ID:           g.ID,
			Type:         models.ConversationTypeGroup,
			Name:         g.Name,
			GroupImage:   g.GroupImage,
			CreatedBy:    &createdBy,
			Participants: g.Participants,
			CreatedAt:    g.CreatedAt,
			UpdatedAt:    g.UpdatedAt,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

func (s *ConversationService) CreateGroup(ctx context.Context, creatorID uuid.UUID, params models.CreateGroupParams) (*models.GroupConversation, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrInvalidGroup
	}

	invitees := make([]uuid.UUID, 0, len(params.Participants))
	seen := map[uuid.UUID]bool{creatorID: true}
	for _, id := range params.Participants {
		if seen[id] {
			continue
		}
		seen[id] = true
		invitees = append(invitees, id)
	}
	if len(invitees) < models.MinGroupInvitees {
		return nil, ErrInvalidGroup
	}

	image := models.DefaultGroupImage
	if params.GroupImage != nil && strings.TrimSpace(*params.GroupImage) != "" {
		image = strings.TrimSpace(*params.GroupImage)
	}

	var group *models.GroupConversation
	err := withTx(ctx, s.db, func(tx Tx) error {
		if err := requireIdentities(ctx, tx, creatorID); err != nil {
			return err
		}
		if err := requireIdentities(ctx, tx, invitees...); err != nil {
			return err
		}

		var groupID uuid.UUID
		if err := tx.QueryRow(ctx,
			`INSERT INTO group_conversations (name, group_image, created_by)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			name, image, creatorID,
		).Scan(&groupID); err != nil {
			return fmt.Errorf("creating group: %w", err)
		}

		members := append([]uuid.UUID{creatorID}, invitees...)
		for _, memberID := range members {
			if _, err := tx.Exec(ctx,
				"INSERT INTO group_participants (group_id, user_id) VALUES ($1, $2)",
				groupID, memberID,
			); err != nil {
				return fmt.Errorf("adding group participant: %w", err)
			}
		}

		var err error
		group, err = getGroup(ctx, tx, groupID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroups returns the groups userID participates in.
func (s *ConversationService) ListGroups(ctx context.Context, userID uuid.UUID) ([]models.GroupConversation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT g.id, g.name, g.group_image, g.created_by, g.created_at, g.updated_at
		 FROM group_conversations g
		 JOIN group_participants gp ON gp.group_id = g.id
		 WHERE gp.user_id = $1
		 ORDER BY g.updated_at DESC, g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	var groups []models.GroupConversation
	var ids []uuid.UUID
	for rows.Next() {
		var g models.GroupConversation
		if err := rows.Scan(&g.ID, &g.Name, &g.GroupImage, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		groups = append(groups, g)
		ids = append(ids, g.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups: %w", err)
	}

	if len(groups) == 0 {
		return []models.GroupConversation{}, nil
	}

	participants, err := loadGroupParticipants(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		groups[i].Participants = participants[groups[i].ID]
		if groups[i].Participants == nil {
			groups[i].Participants = []models.UserSummary{}
		}
	}
	return groups, nil
}

// UpdateGroup applies the non-nil fields of params. Only the creator may update.
func (s *ConversationService) UpdateGroup(ctx context.Context, userID, groupID uuid.UUID, params models.UpdateGroupParams) (*models.GroupConversation, error) {
	var group *models.GroupConversation
	err := withTx(ctx, s.db, func(tx Tx) error {
		if err := lockGroupAsCreator(ctx, tx, userID, groupID); err != nil {
			return err
		}

		setClauses := []string{}
		args := []any{}
		idx := 1

		if params.Name != nil {
			name := strings.TrimSpace(*params.Name)
			if name == "" {
				return ErrInvalidGroup
			}
			setClauses = append(setClauses, fmt.Sprintf("name = $%d", idx))
			args = append(args, name)
			idx++
		}
		if params.GroupImage != nil {
			image := strings.TrimSpace(*params.GroupImage)
			if image == "" {
				image = models.DefaultGroupImage
			}
			setClauses = append(setClauses, fmt.Sprintf("group_image = $%d", idx))
			args = append(args, image)
			idx++
		}

		if len(setClauses) > 0 {
			setClauses = append(setClauses, "updated_at = NOW()")
			args = append(args, groupID)
			query := fmt.Sprintf(
				"UPDATE group_conversations SET %s WHERE id = $%d",
				strings.Join(setClauses, ", "),
				idx,
			)
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("updating group: %w", err)
			}
		}

		var err error
		group, err = getGroup(ctx, tx, groupID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup removes the group and, by cascade, its participants and messages.
func (s *ConversationService) DeleteGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	return withTx(ctx, s.db, func(tx Tx) error {
		if err := lockGroupAsCreator(ctx, tx, userID, groupID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM group_conversations WHERE id = $1", groupID); err != nil {
			return fmt.Errorf("deleting group: %w", err)
		}
		return nil
	})
}

// DeleteConversation removes a private conversation and its messages. Either
// participant may delete it.
func (s *ConversationService) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	return withTx(ctx, s.db, func(tx Tx) error {
		conv := &models.Conversation{}
		err := tx.QueryRow(ctx,
			`SELECT participant_low, participant_high
			 FROM conversations WHERE id = $1
			 FOR UPDATE`,
			conversationID,
		).Scan(&conv.ParticipantLow, &conv.ParticipantHigh)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConversationNotFound
		}
		if err != nil {
			return fmt.Errorf("getting conversation: %w", err)
		}
		if !conv.HasParticipant(userID) {
			return ErrNotParticipant
		}

		if _, err := tx.Exec(ctx, "DELETE FROM conversations WHERE id = $1", conversationID); err != nil {
			return fmt.Errorf("deleting conversation: %w", err)
		}
		return nil
	})
}

// Resolve looks up a private or group thread by id.
func (s *ConversationService) Resolve(ctx context.Context, id uuid.UUID) (*models.ConversationRef, error) {
	conv := &models.Conversation{ID: id}
	err := s.db.QueryRow(ctx,
		"SELECT participant_low, participant_high FROM conversations WHERE id = $1",
		id,
	).Scan(&conv.ParticipantLow, &conv.ParticipantHigh)
	if err == nil {
		return &models.ConversationRef{
			ID:           id,
			Type:         models.ConversationTypePrivate,
			Participants: conv.Participants(),
		}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}

	ref, err := resolveGroup(ctx, s.db, id)
	if errors.Is(err, ErrGroupNotFound) {
		return nil, ErrConversationNotFound
	}
	return ref, err
}

// RequireParticipant resolves id and checks that userID belongs to it.
func (s *ConversationService) RequireParticipant(ctx context.Context, userID, id uuid.UUID) (*models.ConversationRef, error) {
	ref, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ref.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return ref, nil
}

// RequireGroupParticipant is RequireParticipant restricted to group threads.
func (s *ConversationService) RequireGroupParticipant(ctx context.Context, userID, groupID uuid.UUID) (*models.ConversationRef, error) {
	ref, err := resolveGroup(ctx, s.db, groupID)
	if err != nil {
		return nil, err
	}
	if !ref.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return ref, nil
}

func resolveGroup(ctx context.Context, q Querier, groupID uuid.UUID) (*models.ConversationRef, error) {
	var createdBy uuid.UUID
	err := q.QueryRow(ctx,
		"SELECT created_by FROM group_conversations WHERE id = $1",
		groupID,
	).Scan(&createdBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting group: %w", err)
	}

	rows, err := q.Query(ctx,
		"SELECT user_id FROM group_participants WHERE group_id = $1",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing group participants: %w", err)
	}
	defer rows.Close()

	ref := &models.ConversationRef{
		ID:           groupID,
		Type:         models.ConversationTypeGroup,
		CreatedBy:    &createdBy,
		Participants: []uuid.UUID{},
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning group participant: %w", err)
		}
		ref.Participants = append(ref.Participants, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating group participants: %w", err)
	}
	return ref, nil
}

func lockGroupAsCreator(ctx context.Context, q Querier, userID, groupID uuid.UUID) error {
	var createdBy uuid.UUID
	err := q.QueryRow(ctx,
		"SELECT created_by FROM group_conversations WHERE id = $1 FOR UPDATE",
		groupID,
	).Scan(&createdBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrGroupNotFound
	}
	if err != nil {
		return fmt.Errorf("getting group: %w", err)
	}
	if createdBy != userID {
		return ErrNotGroupCreator
	}
	return nil
}

func getGroup(ctx context.Context, q Querier, groupID uuid.UUID) (*models.GroupConversation, error) {
	g := &models.GroupConversation{}
	err := q.QueryRow(ctx,
		`SELECT id, name, group_image, created_by, created_at, updated_at
		 FROM group_conversations WHERE id = $1`,
		groupID,
	).Scan(&g.ID, &g.Name, &g.GroupImage, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting group: %w", err)
	}

	participants, err := loadGroupParticipants(ctx, q, []uuid.UUID{groupID})
	if err != nil {
		return nil, err
	}
	g.Participants = participants[groupID]
	if g.Participants == nil {
		g.Participants = []models.UserSummary{}
	}
	return g, nil
}

func loadGroupParticipants(ctx context.Context, q Querier, groupIDs []uuid.UUID) (map[uuid.UUID][]models.UserSummary, error) {
	rows, err := q.Query(ctx,
		`SELECT gp.group_id, u.id, u.username, u.profile_picture
		 FROM group_participants gp
		 JOIN users u ON u.id = gp.user_id
		 WHERE gp.group_id = ANY($1)
		 ORDER BY gp.joined_at, u.username`,
		groupIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("loading group participants: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]models.UserSummary, len(groupIDs))
	for rows.Next() {
		var groupID uuid.UUID
		var u models.UserSummary
		if err := rows.Scan(&groupID, &u.ID, &u.Username, &u.ProfilePicture); err != nil {
			return nil, fmt.Errorf("scanning group participant: %w", err)
		}
		result[groupID] = append(result[groupID], u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating group participants: %w", err)
	}
	return result, nil
}
