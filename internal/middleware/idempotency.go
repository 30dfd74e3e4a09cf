package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HammerMeetNail/pacebook/internal/handlers"
	"github.com/HammerMeetNail/pacebook/internal/logging"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"

	maxIdempotencyKeyLength = 255
)

var ErrIdempotencyStoreUnavailable = errors.New("idempotency store unavailable")

// StoredResponse is the outcome of the first request carrying a key. Pending
// is set while that request is still being handled.
type StoredResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// IdempotencyStore reserves keys and remembers the response stored under them.
type IdempotencyStore interface {
	// Reserve marks key as in flight. It returns false when the key already exists.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Load returns the stored entry, or nil when there is none.
	Load(ctx context.Context, key string) (*StoredResponse, error)
	Save(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// IdempotencyObserver is told the outcome of every keyed request.
type IdempotencyObserver interface {
	IdempotencyOutcome(outcome string)
}

type RedisIdempotencyStore struct {
	redis  redis.Cmdable
	prefix string
}

func NewRedisIdempotencyStore(client redis.Cmdable, prefix string) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{redis: client, prefix: prefix}
}

func (s *RedisIdempotencyStore) key(key string) string {
	return s.prefix + key
}

func (s *RedisIdempotencyStore) available() bool {
	if s == nil || s.redis == nil {
		return false
	}
	if c, ok := s.redis.(*redis.Client); ok && c == nil {
		return false
	}
	return true
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !s.available() {
		return false, ErrIdempotencyStoreUnavailable
	}
	pending, err := json.Marshal(StoredResponse{Pending: true})
	if err != nil {
		return false, err
	}
	ok, err := s.redis.SetNX(ctx, s.key(key), pending, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserving idempotency key: %w", err)
	}
	return ok, nil
}

func (s *RedisIdempotencyStore) Load(ctx context.Context, key string) (*StoredResponse, error) {
	if !s.available() {
		return nil, ErrIdempotencyStoreUnavailable
	}
	raw, err := s.redis.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading idempotency key: %w", err)
	}
	var resp StoredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding idempotency entry: %w", err)
	}
	return &resp, nil
}

func (s *RedisIdempotencyStore) Save(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error {
	if !s.available() {
		return ErrIdempotencyStoreUnavailable
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("saving idempotency entry: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if !s.available() {
		return ErrIdempotencyStoreUnavailable
	}
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("releasing idempotency key: %w", err)
	}
	return nil
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// mutating requests. Keys are scoped to the caller, method, and path. A key
// whose first request is still running gets 409. Store failures fail open.
//
// The in-flight marker lives for pendingTTL only, so a request that never
// finishes blocks its key briefly. Finished responses are kept for ttl.
type Idempotency struct {
	store      IdempotencyStore
	ttl        time.Duration
	pendingTTL time.Duration
	observer   IdempotencyObserver
}

func NewIdempotency(store IdempotencyStore, ttl, pendingTTL time.Duration, observer IdempotencyObserver) *Idempotency {
	if pendingTTL <= 0 || pendingTTL > ttl {
		pendingTTL = ttl
	}
	return &Idempotency{store: store, ttl: ttl, pendingTTL: pendingTTL, observer: observer}
}

func (i *Idempotency) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(IdempotencyHeader)
		if key == "" || !isMutating(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			writeError(w, http.StatusBadRequest, "Idempotency-Key is too long")
			return
		}

		scoped := scopedIdempotencyKey(r, key)
		ctx := r.Context()

		reserved, err := i.store.Reserve(ctx, scoped, i.pendingTTL)
		if err != nil {
			i.failOpen(w, r, next, err)
			return
		}

		if !reserved {
			stored, err := i.store.Load(ctx, scoped)
			if err != nil {
				i.failOpen(w, r, next, err)
				return
			}
			if stored == nil {
				// Expired between reserve and load; run the request unguarded.
				next.ServeHTTP(w, r)
				return
			}
			if stored.Pending {
				i.observe("in_flight")
				writeError(w, http.StatusConflict, "A request with this Idempotency-Key is still in progress")
				return
			}
			i.observe("replayed")
			replay(w, stored)
			return
		}

		// A panicking handler must not leave the key reserved.
		defer func() {
			if p := recover(); p != nil {
				i.release(ctx, scoped)
				panic(p)
			}
		}()

		capture := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(capture, r)

		// Server errors are not remembered so the client can retry with the same key.
		if capture.status >= http.StatusInternalServerError {
			i.release(ctx, scoped)
			return
		}

		resp := StoredResponse{
			Status:      capture.status,
			ContentType: capture.Header().Get("Content-Type"),
			Body:        capture.body.Bytes(),
		}
		if err := i.store.Save(context.WithoutCancel(ctx), scoped, resp, i.ttl); err != nil {
			logging.Warn("Failed to store idempotent response", map[string]interface{}{"error": err.Error()})
			return
		}
		i.observe("stored")
	})
}

func (i *Idempotency) release(ctx context.Context, key string) {
	if err := i.store.Release(context.WithoutCancel(ctx), key); err != nil {
		logging.Warn("Failed to release idempotency key", map[string]interface{}{"error": err.Error()})
	}
}

func (i *Idempotency) failOpen(w http.ResponseWriter, r *http.Request, next http.Handler, err error) {
	if !errors.Is(err, ErrIdempotencyStoreUnavailable) {
		logging.Warn("Idempotency store error, continuing without it", map[string]interface{}{
			"error": err.Error(),
			"path":  r.URL.Path,
		})
	}
	i.observe("unavailable")
	next.ServeHTTP(w, r)
}

func (i *Idempotency) observe(outcome string) {
	if i.observer != nil {
		i.observer.IdempotencyOutcome(outcome)
	}
}

func replay(w http.ResponseWriter, stored *StoredResponse) {
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

func scopedIdempotencyKey(r *http.Request, key string) string {
	caller := "anonymous"
	if userID, ok := handlers.GetUserIDFromContext(r.Context()); ok {
		caller = userID.String()
	}
	return fmt.Sprintf("%s:%s:%s:%s", caller, r.Method, r.URL.Path, key)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// captureWriter passes the response through while keeping a copy of it.
type captureWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (c *captureWriter) WriteHeader(status int) {
	if !c.wroteHeader {
		c.status = status
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(status)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	c.wroteHeader = true
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
