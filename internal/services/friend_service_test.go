package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/pacebook/internal/models"
)

type execCall struct {
	sql  string
	args []any
}

// graphDB scripts the statements FriendService issues. edge is nil when the
// pair has no row.
type graphDB struct {
	*fakeDB
	present        map[uuid.UUID]bool
	edge           []any
	insertAffected int64
	execs          []execCall
	emitted        []execCall
}

func newGraphDB(edge []any, present ...uuid.UUID) *graphDB {
	g := &graphDB{
		present:        map[uuid.UUID]bool{},
		edge:           edge,
		insertAffected: 1,
	}
	for _, id := range present {
		g.present[id] = true
	}
	g.fakeDB = &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			switch {
			case strings.Contains(sql, "FROM users"):
				return rowFromValues(g.present[args[0].(uuid.UUID)])
			case strings.Contains(sql, "FROM friend_edges"):
				if g.edge == nil {
					return errRow(pgx.ErrNoRows)
				}
				return rowFromValues(g.edge...)
			case strings.Contains(sql, "INSERT INTO notifications"):
				g.emitted = append(g.emitted, execCall{sql: sql, args: args})
				return rowFromValues(uuid.New(), false, time.Now())
			}
			return errRow(errors.New("unexpected query: " + sql))
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			g.execs = append(g.execs, execCall{sql: sql, args: args})
			if strings.Contains(sql, "INSERT INTO friend_edges") && strings.Contains(sql, "DO NOTHING") {
				return fakeCommandTag{rowsAffected: g.insertAffected}, nil
			}
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	return g
}

func (g *graphDB) execsMatching(fragment string) []execCall {
	var out []execCall
	for _, e := range g.execs {
		if strings.Contains(e.sql, fragment) {
			out = append(out, e)
		}
	}
	return out
}

func edgeValues(a, b uuid.UUID, status models.FriendshipStatus, requestedBy *uuid.UUID) []any {
	low, high := models.OrderPair(a, b)
	return []any{low, high, string(status), requestedBy, time.Now(), time.Now()}
}

type recordingRecorder struct {
	transitions []string
	messages    []models.ConversationType
}

func (r *recordingRecorder) FriendTransition(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.transitions = append(r.transitions, op+":"+outcome)
}

func (r *recordingRecorder) MessageSent(kind models.ConversationType) {
	r.messages = append(r.messages, kind)
}

func newFriendServiceFor(db DB) *FriendService {
	return NewFriendService(db, NewNotificationService(db))
}

func TestFriendService_SendRequest_Self(t *testing.T) {
	db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) {
		t.Fatal("self request should not open a transaction")
		return nil, nil
	}}
	svc := newFriendServiceFor(db)
	userID := uuid.New()
	if err := svc.SendRequest(context.Background(), userID, userID); !errors.Is(err, ErrCannotFriendSelf) {
		t.Fatalf("expected ErrCannotFriendSelf, got %v", err)
	}
}

func TestFriendService_SendRequest_ReceiverMissing(t *testing.T) {
	sender := uuid.New()
	db := newGraphDB(nil, sender)

	svc := newFriendServiceFor(db)
	err := svc.SendRequest(context.Background(), sender, uuid.New())
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	tx := db.lastTx()
	if tx == nil || !tx.rolledBack || tx.committed {
		t.Fatal("expected transaction to be rolled back")
	}
}

func TestFriendService_SendRequest_Success(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	db := newGraphDB(nil, sender, receiver)

	svc := newFriendServiceFor(db)
	if err := svc.SendRequest(context.Background(), sender, receiver); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inserts := db.execsMatching("INSERT INTO friend_edges")
	if len(inserts) != 1 {
		t.Fatalf("expected one edge insert, got %d", len(inserts))
	}
	low, high := models.OrderPair(sender, receiver)
	args := inserts[0].args
	if args[0] != low || args[1] != high || args[2] != sender {
		t.Fatalf("unexpected edge insert args: %v", args)
	}
	if !strings.Contains(inserts[0].sql, "'pending'") {
		t.Fatalf("expected pending edge, got %s", inserts[0].sql)
	}

	if len(db.emitted) != 1 {
		t.Fatalf("expected one notification, got %d", len(db.emitted))
	}
	n := db.emitted[0].args
	if n[0] != string(models.NotificationTypeFriendRequest) || n[1] != sender || n[2] != receiver {
		t.Fatalf("unexpected notification args: %v", n)
	}
	if tx := db.lastTx(); !tx.committed {
		t.Fatal("expected commit")
	}
}

func TestFriendService_SendRequest_Conflicts(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	tests := []struct {
		name string
		edge []any
		want error
	}{
		{"already friends", edgeValues(sender, receiver, models.FriendshipStatusFriends, nil), ErrAlreadyFriends},
		{"already sent", edgeValues(sender, receiver, models.FriendshipStatusPending, &sender), ErrRequestAlreadySent},
		{"already received", edgeValues(sender, receiver, models.FriendshipStatusPending, &receiver), ErrRequestAlreadyReceived},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newGraphDB(tt.edge, sender, receiver)
			svc := newFriendServiceFor(db)
			err := svc.SendRequest(context.Background(), sender, receiver)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(db.emitted) != 0 {
				t.Fatal("conflict should not emit a notification")
			}
			if db.lastTx().committed {
				t.Fatal("conflict should not commit")
			}
		})
	}
}

func TestFriendService_SendRequest_LostInsertRace(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	db := newGraphDB(nil, sender, receiver)
	db.insertAffected = 0

	svc := newFriendServiceFor(db)
	err := svc.SendRequest(context.Background(), sender, receiver)
	if !errors.Is(err, ErrFriendshipExists) {
		t.Fatalf("expected ErrFriendshipExists, got %v", err)
	}
	if len(db.emitted) != 0 {
		t.Fatal("lost race should not emit a notification")
	}
}

func TestFriendService_SendRequest_CommitFailure(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	g := newGraphDB(nil, sender, receiver)
	commitErr := errors.New("connection reset")
	g.BeginFunc = func(ctx context.Context) (Tx, error) {
		return &fakeTx{db: g.fakeDB, CommitFunc: func(ctx context.Context) error { return commitErr }}, nil
	}

	svc := newFriendServiceFor(g)
	err := svc.SendRequest(context.Background(), sender, receiver)
	if !errors.Is(err, commitErr) {
		t.Fatalf("expected commit error, got %v", err)
	}
}

func TestFriendService_AcceptRequest_Success(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	db := newGraphDB(edgeValues(sender, receiver, models.FriendshipStatusPending, &sender), sender, receiver)

	svc := newFriendServiceFor(db)
	if err := svc.AcceptRequest(context.Background(), receiver, sender); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updates := db.execsMatching("UPDATE friend_edges")
	if len(updates) != 1 || !strings.Contains(updates[0].sql, "state = 'friends'") {
		t.Fatalf("expected edge to become friends, got %+v", updates)
	}

	resolved := db.execsMatching("DELETE FROM notifications")
	if len(resolved) != 1 {
		t.Fatalf("expected notification to be resolved, got %d deletes", len(resolved))
	}
	args := resolved[0].args
	if args[0] != string(models.NotificationTypeFriendRequest) || args[1] != sender || args[2] != receiver {
		t.Fatalf("unexpected resolve args: %v", args)
	}
	if !db.lastTx().committed {
		t.Fatal("expected commit")
	}
}

func TestFriendService_AcceptRequest_NoPending(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	tests := []struct {
		name string
		edge []any
	}{
		{"no edge", nil},
		{"caller is the sender", edgeValues(sender, receiver, models.FriendshipStatusPending, &receiver)},
		{"already friends", edgeValues(sender, receiver, models.FriendshipStatusFriends, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newGraphDB(tt.edge, sender, receiver)
			svc := newFriendServiceFor(db)
			err := svc.AcceptRequest(context.Background(), receiver, sender)
			if !errors.Is(err, ErrNoPendingRequest) {
				t.Fatalf("expected ErrNoPendingRequest, got %v", err)
			}
			if len(db.execs) != 0 {
				t.Fatalf("expected no writes, got %+v", db.execs)
			}
		})
	}
}

func TestFriendService_AcceptRequest_SenderMissing(t *testing.T) {
	receiver := uuid.New()
	db := newGraphDB(nil, receiver)

	svc := newFriendServiceFor(db)
	if err := svc.AcceptRequest(context.Background(), receiver, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFriendService_DeclineRequest_RemovesOnlyPending(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	db := newGraphDB(nil, sender, receiver)

	svc := newFriendServiceFor(db)
	if err := svc.DeclineRequest(context.Background(), receiver, sender); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deletes := db.execsMatching("DELETE FROM friend_edges")
	if len(deletes) != 1 {
		t.Fatalf("expected one edge delete, got %d", len(deletes))
	}
	if !strings.Contains(deletes[0].sql, "state = 'pending'") {
		t.Fatalf("decline must only remove pending edges: %s", deletes[0].sql)
	}
	if deletes[0].args[2] != sender {
		t.Fatalf("expected requested_by to be the sender, got %v", deletes[0].args[2])
	}

	resolved := db.execsMatching("DELETE FROM notifications")
	if len(resolved) != 1 || resolved[0].args[1] != sender || resolved[0].args[2] != receiver {
		t.Fatalf("unexpected notification resolution: %+v", resolved)
	}
}

func TestFriendService_CancelRequest(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	db := newGraphDB(nil, sender, receiver)
	rec := &recordingRecorder{}

	svc := newFriendServiceFor(db)
	svc.SetRecorder(rec)
	if err := svc.CancelRequest(context.Background(), sender, receiver); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deletes := db.execsMatching("DELETE FROM friend_edges")
	if len(deletes) != 1 || deletes[0].args[2] != sender {
		t.Fatalf("unexpected cancel delete: %+v", deletes)
	}
	if len(rec.transitions) != 1 || rec.transitions[0] != "cancel_request:ok" {
		t.Fatalf("unexpected transitions: %v", rec.transitions)
	}
}

func TestFriendService_CancelRequest_ReceiverMissing(t *testing.T) {
	sender := uuid.New()
	db := newGraphDB(nil, sender)

	svc := newFriendServiceFor(db)
	if err := svc.CancelRequest(context.Background(), sender, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFriendService_AddFriend(t *testing.T) {
	userID, friendID := uuid.New(), uuid.New()

	t.Run("self", func(t *testing.T) {
		svc := newFriendServiceFor(&fakeDB{})
		if err := svc.AddFriend(context.Background(), userID, userID); !errors.Is(err, ErrCannotFriendSelf) {
			t.Fatalf("expected ErrCannotFriendSelf, got %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		db := newGraphDB(nil, userID)
		svc := newFriendServiceFor(db)
		if err := svc.AddFriend(context.Background(), userID, friendID); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("already friends", func(t *testing.T) {
		db := newGraphDB(edgeValues(userID, friendID, models.FriendshipStatusFriends, nil), userID, friendID)
		svc := newFriendServiceFor(db)
		if err := svc.AddFriend(context.Background(), userID, friendID); !errors.Is(err, ErrAlreadyFriends) {
			t.Fatalf("expected ErrAlreadyFriends, got %v", err)
		}
	})

	t.Run("supersedes pending request", func(t *testing.T) {
		db := newGraphDB(edgeValues(userID, friendID, models.FriendshipStatusPending, &friendID), userID, friendID)
		svc := newFriendServiceFor(db)
		if err := svc.AddFriend(context.Background(), userID, friendID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		upserts := db.execsMatching("DO UPDATE SET state = 'friends'")
		if len(upserts) != 1 {
			t.Fatalf("expected friends upsert, got %+v", db.execs)
		}
		if resolved := db.execsMatching("DELETE FROM notifications"); len(resolved) != 2 {
			t.Fatalf("expected both directions resolved, got %d", len(resolved))
		}
	})
}

func TestFriendService_RemoveFriend_Idempotent(t *testing.T) {
	userID, friendID := uuid.New(), uuid.New()
	db := newGraphDB(nil, userID, friendID)
	db.ExecFunc = func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
		db.execs = append(db.execs, execCall{sql: sql, args: args})
		return fakeCommandTag{rowsAffected: 0}, nil
	}

	svc := newFriendServiceFor(db)
	for i := 0; i < 2; i++ {
		if err := svc.RemoveFriend(context.Background(), userID, friendID); err != nil {
			t.Fatalf("remove #%d: unexpected error: %v", i+1, err)
		}
	}
	deletes := db.execsMatching("DELETE FROM friend_edges")
	if len(deletes) != 2 || !strings.Contains(deletes[0].sql, "state = 'friends'") {
		t.Fatalf("unexpected deletes: %+v", deletes)
	}
}

func TestFriendService_RemoveFriend_Missing(t *testing.T) {
	userID := uuid.New()
	db := newGraphDB(nil, userID)

	svc := newFriendServiceFor(db)
	if err := svc.RemoveFriend(context.Background(), userID, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFriendService_ListFriends(t *testing.T) {
	userID := uuid.New()
	friendID := uuid.New()
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(true)
		},
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			if !strings.Contains(sql, "e.state = 'friends'") {
				t.Fatalf("expected friends-only query, got %s", sql)
			}
			return &fakeRows{rows: [][]any{{friendID, "bob", "Bob Runner", "bob@example.com", models.DefaultProfilePicture}}}, nil
		},
	}

	svc := newFriendServiceFor(db)
	friends, err := svc.ListFriends(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(friends) != 1 || friends[0].ID != friendID || friends[0].Username != "bob" {
		t.Fatalf("unexpected friends: %+v", friends)
	}
}

func TestFriendService_ListFriends_EmptyAndMissing(t *testing.T) {
	exists := true
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(exists)
		},
	}
	svc := newFriendServiceFor(db)

	friends, err := svc.ListFriends(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if friends == nil || len(friends) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", friends)
	}

	exists = false
	if _, err := svc.ListFriends(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFriendService_Relationship(t *testing.T) {
	userID, otherID := uuid.New(), uuid.New()
	tests := []struct {
		name string
		edge []any
		want models.EdgeState
	}{
		{"none", nil, models.EdgeStateNone},
		{"sent", edgeValues(userID, otherID, models.FriendshipStatusPending, &userID), models.EdgeStatePendingAtoB},
		{"received", edgeValues(userID, otherID, models.FriendshipStatusPending, &otherID), models.EdgeStatePendingBtoA},
		{"friends", edgeValues(userID, otherID, models.FriendshipStatusFriends, nil), models.EdgeStateFriends},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newGraphDB(tt.edge, userID, otherID)
			db.QueryRowFunc = func(ctx context.Context, sql string, args ...any) Row {
				if strings.Contains(sql, "FOR UPDATE") {
					t.Fatal("relationship lookup should not lock")
				}
				if tt.edge == nil {
					return errRow(pgx.ErrNoRows)
				}
				return rowFromValues(tt.edge...)
			}
			svc := newFriendServiceFor(db)
			got, err := svc.Relationship(context.Background(), userID, otherID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestFriendService_RecordsFailedTransitions(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	db := newGraphDB(edgeValues(sender, receiver, models.FriendshipStatusPending, &sender), sender, receiver)
	rec := &recordingRecorder{}

	svc := newFriendServiceFor(db)
	svc.SetRecorder(rec)
	_ = svc.SendRequest(context.Background(), sender, receiver)

	if len(rec.transitions) != 1 || rec.transitions[0] != "send_request:error" {
		t.Fatalf("unexpected transitions: %v", rec.transitions)
	}
}
