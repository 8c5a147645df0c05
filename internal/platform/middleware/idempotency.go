package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotencyReplayedHeader = "Idempotency-Replayed"

	DefaultIdempotencyTTL = 24 * time.Hour
	maxIdempotencyKeyLen  = 255
)

// IdempotencyRecord is a stored write response. StatusCode 0 marks a
// request that is still executing.
type IdempotencyRecord struct {
	Method      string    `json:"method"`
	Path        string    `json:"path"`
	Fingerprint string    `json:"fingerprint"`
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *IdempotencyRecord) pending() bool { return r.StatusCode == 0 }

// IdempotencyStore persists records. Implementations must be safe for
// concurrent use.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*IdempotencyRecord, bool, error)
	// Reserve stores rec only if key is unused and reports whether it did.
	Reserve(ctx context.Context, key string, rec *IdempotencyRecord, ttl time.Duration) (bool, error)
	Save(ctx context.Context, key string, rec *IdempotencyRecord, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Idempotency replays the stored response when a POST, PUT or PATCH is
// resubmitted with the same Idempotency-Key, so a client that lost the
// response to an admission or booking can retry without applying it twice.
//
//   - same key, different method, path or body: 422
//   - same key while the first request is still running: 409
//   - handler error: nothing is stored, the key can be retried
func Idempotency(store IdempotencyStore, ttl time.Duration, logger zerolog.Logger) echo.MiddlewareFunc {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				return next(c)
			}
			key := req.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				return next(c)
			}
			if len(key) > maxIdempotencyKeyLen {
				return echo.NewHTTPError(http.StatusBadRequest, "Idempotency-Key is too long")
			}

			body, err := io.ReadAll(req.Body)
			if err != nil {
				return err
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			ctx := req.Context()
			rec := &IdempotencyRecord{
				Method:      req.Method,
				Path:        req.URL.Path,
				Fingerprint: fingerprintOf(body),
				CreatedAt:   time.Now().UTC(),
			}

			reserved, err := store.Reserve(ctx, key, rec, ttl)
			if err != nil {
				// The store is an optimization; fall through to normal execution.
				logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency store unavailable")
				return next(c)
			}
			if !reserved {
				return replay(c, store, key, rec)
			}

			w := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = w
			err = next(c)
			c.Response().Writer = w.ResponseWriter

			saveCtx := context.WithoutCancel(ctx)
			if err != nil || w.status >= http.StatusInternalServerError {
				if derr := store.Delete(saveCtx, key); derr != nil {
					logger.Warn().Err(derr).Str("idempotency_key", key).Msg("release idempotency key")
				}
				return err
			}

			rec.StatusCode = w.status
			rec.ContentType = w.Header().Get(echo.HeaderContentType)
			rec.Body = w.buf.Bytes()
			if serr := store.Save(saveCtx, key, rec, ttl); serr != nil {
				logger.Warn().Err(serr).Str("idempotency_key", key).Msg("store idempotent response")
			}
			return nil
		}
	}
}

func replay(c echo.Context, store IdempotencyStore, key string, want *IdempotencyRecord) error {
	got, ok, err := store.Get(c.Request().Context(), key)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "idempotency store unavailable").SetInternal(err)
	}
	if !ok {
		// Expired or released between Reserve and Get.
		return echo.NewHTTPError(http.StatusConflict, "request with this Idempotency-Key is in progress, retry")
	}
	if got.Method != want.Method || got.Path != want.Path || got.Fingerprint != want.Fingerprint {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Idempotency-Key was already used for a different request")
	}
	if got.pending() {
		return echo.NewHTTPError(http.StatusConflict, "request with this Idempotency-Key is in progress, retry")
	}

	h := c.Response().Header()
	if got.ContentType != "" {
		h.Set(echo.HeaderContentType, got.ContentType)
	}
	h.Set(IdempotencyReplayedHeader, "true")
	return c.Blob(got.StatusCode, got.ContentType, got.Body)
}

// teeWriter passes the response through while keeping a copy.
type teeWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// MemoryIdempotencyStore keeps records in process. Suitable for a single
// instance; use RedisIdempotencyStore when running several.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	rec       IdempotencyRecord
	expiresAt time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryIdempotencyStore) Get(_ context.Context, key string) (*IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return nil, false, nil
	}
	rec := e.rec
	rec.Body = append([]byte(nil), e.rec.Body...)
	return &rec, true, nil
}

func (s *MemoryIdempotencyStore) Reserve(_ context.Context, key string, rec *IdempotencyRecord, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.put(key, rec, ttl)
	return true, nil
}

func (s *MemoryIdempotencyStore) Save(_ context.Context, key string, rec *IdempotencyRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(key, rec, ttl)
	return nil
}

func (s *MemoryIdempotencyStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// live returns the unexpired entry for key, evicting it if stale. Callers hold mu.
func (s *MemoryIdempotencyStore) live(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryIdempotencyStore) put(key string, rec *IdempotencyRecord, ttl time.Duration) {
	cp := *rec
	cp.Body = append([]byte(nil), rec.Body...)
	s.entries[key] = memoryEntry{rec: cp, expiresAt: s.now().Add(ttl)}
}

func fingerprintOf(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
