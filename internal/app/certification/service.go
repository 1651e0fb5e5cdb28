// Package certification hosts certificate drafts per session: it applies
// edits, keeps derived metrics current, embeds assets and runs exports.
package certification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"restoree/internal/domain/certificate"
	"restoree/internal/infra/assets"
	"restoree/internal/infra/draftstore"
	"restoree/internal/observability"
	"restoree/internal/shared/logging"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheSize = 256
	// MaxActivityLines bounds the per-session activity log.
	MaxActivityLines = 200
	subscriberBuffer = 8
)

var ErrInvalidSession = errors.New("invalid session key")

// Snapshot is the full observable state of one session.
type Snapshot struct {
	SessionID  string              `json:"session_id"`
	Version    uint64              `json:"version"`
	Draft      *certificate.Draft  `json:"draft"`
	Summary    certificate.Summary `json:"summary"`
	LogoStatus string              `json:"logo_status"`
	Activity   []string            `json:"activity"`
	// TagOptions is the checkbox grid of each tag group.
	TagOptions map[certificate.TagGroup][]certificate.TagOption `json:"tag_options"`
}

type session struct {
	mu          sync.Mutex
	key         string
	draft       *certificate.Draft
	logoStatus  string
	activity    []string
	version     uint64
	subscribers map[int]chan Snapshot
	nextSubID   int
	closed      bool
}

// Service owns the live sessions.
type Service struct {
	store       DraftStore
	rasterizer  Rasterizer
	embedder    LogoEmbedder
	readPhotos  PhotoReader
	ids         *certificate.IDGenerator
	metrics     *observability.MetricsCollector
	logger      logging.Logger
	now         func() time.Time
	newKey      func() string
	maxPhotoLen int64
	cacheSize   int

	mu       sync.Mutex
	sessions *lru.Cache[string, *session]
	loads    singleflight.Group
}

// Option customises a Service.
type Option func(*Service)

func WithLogger(logger logging.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(logger) }
}

func WithMetrics(m *observability.MetricsCollector) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces time.Now for activity timestamps, generation times and
// export filenames.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(gen *certificate.IDGenerator) Option {
	return func(s *Service) {
		if gen != nil {
			s.ids = gen
		}
	}
}

func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.cacheSize = size
		}
	}
}

func WithPhotoReader(read PhotoReader, maxBytes int64) Option {
	return func(s *Service) {
		if read != nil {
			s.readPhotos = read
		}
		s.maxPhotoLen = maxBytes
	}
}

// WithKeyGenerator replaces the ksuid session key source.
func WithKeyGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newKey = gen
		}
	}
}

// NewService wires the service. store may be nil, in which case drafts live
// only in memory.
func NewService(store DraftStore, rasterizer Rasterizer, embedder LogoEmbedder, opts ...Option) (*Service, error) {
	if store == nil {
		store = draftstore.NewMemoryStore()
	}
	s := &Service{
		store:      store,
		rasterizer: rasterizer,
		embedder:   embedder,
		readPhotos: assets.ReadPhotos,
		logger:     logging.NewComponentLogger("Certification"),
		now:        time.Now,
		newKey:     func() string { return ksuid.New().String() },
		cacheSize:  defaultCacheSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.ids == nil {
		s.ids = &certificate.IDGenerator{Now: s.now}
	}

	cache, err := lru.NewWithEvict(s.cacheSize, func(_ string, sess *session) {
		sess.close()
		s.metrics.DecrementActiveSessions(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	s.sessions = cache
	return s, nil
}

// NewSession allocates a fresh session key with an empty draft.
func (s *Service) NewSession(ctx context.Context) (Snapshot, error) {
	key := s.newKey()
	sess, err := s.acquire(ctx, key)
	if err != nil {
		return Snapshot{}, err
	}
	defer sess.mu.Unlock()
	s.persist(ctx, sess, "create")
	return sess.snapshot(), nil
}

// Snapshot returns the current state, hydrating the session on first use.
func (s *Service) Snapshot(ctx context.Context, key string) (Snapshot, error) {
	sess, err := s.acquire(ctx, key)
	if err != nil {
		return Snapshot{}, err
	}
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// Reset discards the stored draft and starts the session over.
func (s *Service) Reset(ctx context.Context, key string) (Snapshot, error) {
	return s.mutate(ctx, key, "reset", func(sess *session) (bool, error) {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to delete stored draft %s: %v", key, err)
			s.metrics.RecordStoreFailure(ctx, "delete")
		}
		sess.draft = certificate.NewDraft()
		sess.logoStatus = ""
		sess.activity = nil
		s.log(sess, "Draft cleared")
		return false, nil
	})
}

// Update applies a partial edit of the free-form fields.
func (s *Service) Update(ctx context.Context, key string, patch DraftPatch) (Snapshot, error) {
	return s.mutate(ctx, key, "update", func(sess *session) (bool, error) {
		return patch.Apply(sess.draft), nil
	})
}

// MetricInput carries a before and/or after value for one dimension.
type MetricInput struct {
	Before *string `json:"before,omitempty"`
	After  *string `json:"after,omitempty"`
}

// SetMetric edits one tracked dimension and recomputes the derived values
// once for the whole edit.
func (s *Service) SetMetric(ctx context.Context, key string, dim certificate.Dimension, in MetricInput) (Snapshot, error) {
	var updates []certificate.MetricUpdate
	if in.Before != nil {
		updates = append(updates, certificate.MetricUpdate{Dimension: dim, Side: certificate.SideBefore, Value: *in.Before})
	}
	if in.After != nil {
		updates = append(updates, certificate.MetricUpdate{Dimension: dim, Side: certificate.SideAfter, Value: *in.After})
	}
	return s.SetMetrics(ctx, key, updates)
}

// SetMetrics applies several metric edits as one batch.
func (s *Service) SetMetrics(ctx context.Context, key string, updates []certificate.MetricUpdate) (Snapshot, error) {
	return s.mutate(ctx, key, "set_metric", func(sess *session) (bool, error) {
		before := sess.draft.Clone()
		if err := sess.draft.SetMetrics(updates); err != nil {
			return false, err
		}
		return !metricsEqual(before, sess.draft), nil
	})
}

// ToggleTag flips a tag in one group.
func (s *Service) ToggleTag(ctx context.Context, key string, group certificate.TagGroup, tag string) (Snapshot, error) {
	return s.mutate(ctx, key, "toggle_tag", func(sess *session) (bool, error) {
		if _, err := sess.draft.ToggleTag(group, tag); err != nil {
			return false, err
		}
		return true, nil
	})
}

// AddTag appends a free-form tag; blank text is ignored.
func (s *Service) AddTag(ctx context.Context, key string, group certificate.TagGroup, text string) (Snapshot, error) {
	return s.mutate(ctx, key, "add_tag", func(sess *session) (bool, error) {
		return sess.draft.AddTag(group, text)
	})
}

// NewCertificateID forces a fresh certificate ID.
func (s *Service) NewCertificateID(ctx context.Context, key string) (Snapshot, error) {
	return s.mutate(ctx, key, "new_certificate_id", func(sess *session) (bool, error) {
		id := sess.draft.RegenerateCertificateID(s.ids)
		s.log(sess, "New certificate ID "+id)
		return true, nil
	})
}

// SetPhotos replaces one side's photos with the selection, read in parallel.
// Reading happens outside the session lock.
func (s *Service) SetPhotos(ctx context.Context, key string, side certificate.Side, files []assets.PhotoFile) (Snapshot, error) {
	if _, err := certificate.ParseSide(string(side)); err != nil {
		return Snapshot{}, err
	}
	if _, err := s.session(ctx, key); err != nil {
		return Snapshot{}, err
	}
	uris, err := s.readPhotos(ctx, files, s.maxPhotoLen)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read photos: %w", err)
	}
	return s.mutate(ctx, key, "set_photos", func(sess *session) (bool, error) {
		if err := sess.draft.SetImages(side, uris); err != nil {
			return false, err
		}
		s.log(sess, fmt.Sprintf("%s photos loaded (%d)", sideLabel(side), len(sess.draft.ImagesFor(side))))
		return true, nil
	})
}

// Subscribe streams a snapshot after every change to the session. The
// channel is closed when cancel is called or the session is evicted.
func (s *Service) Subscribe(ctx context.Context, key string) (<-chan Snapshot, func(), error) {
	sess, err := s.acquire(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	defer sess.mu.Unlock()

	ch := make(chan Snapshot, subscriberBuffer)
	id := sess.nextSubID
	sess.nextSubID++
	sess.subscribers[id] = ch
	ch <- sess.snapshot()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			sess.mu.Lock()
			defer sess.mu.Unlock()
			if sub, ok := sess.subscribers[id]; ok {
				delete(sess.subscribers, id)
				close(sub)
			}
		})
	}
	return ch, cancel, nil
}

// ActiveSessions reports how many sessions are cached.
func (s *Service) ActiveSessions() int {
	return s.sessions.Len()
}

// mutate runs fn under the session lock and, when fn reports a change,
// bumps the version, persists and notifies subscribers.
func (s *Service) mutate(ctx context.Context, key, op string, fn func(*session) (bool, error)) (Snapshot, error) {
	sess, err := s.acquire(ctx, key)
	if err != nil {
		return Snapshot{}, err
	}
	defer sess.mu.Unlock()

	changed, err := fn(sess)
	if err != nil {
		return Snapshot{}, err
	}
	s.metrics.RecordMutation(ctx, op)
	s.commit(ctx, sess, op, changed)
	return sess.snapshot(), nil
}

// commit must be called with sess.mu held.
func (s *Service) commit(ctx context.Context, sess *session, op string, persist bool) {
	sess.version++
	if persist {
		s.persist(ctx, sess, op)
	}
	sess.publish()
}

// persist saves best-effort; failures are logged and counted, never returned.
func (s *Service) persist(ctx context.Context, sess *session, op string) {
	if err := s.store.Save(ctx, sess.key, sess.draft); err != nil {
		s.logger.Warn("Failed to persist draft %s after %s: %v", sess.key, op, err)
		s.metrics.RecordStoreFailure(ctx, "save")
	}
}

// acquire returns the live session for key with sess.mu held. A session
// evicted while the caller waited for its lock is dropped and the key is
// resolved again, so edits never land on a closed copy.
func (s *Service) acquire(ctx context.Context, key string) (*session, error) {
	for {
		sess, err := s.session(ctx, key)
		if err != nil {
			return nil, err
		}
		sess.mu.Lock()
		if !sess.closed {
			return sess, nil
		}
		sess.mu.Unlock()
	}
}

// session returns the cached session for key, hydrating it from the store
// on a miss. Loads run outside s.mu so a slow store only delays callers of
// the same key; concurrent misses for one key share a single Load.
func (s *Service) session(ctx context.Context, key string) (*session, error) {
	if !draftstore.ValidKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSession, key)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess, ok := s.sessions.Get(key)
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	v, err, _ := s.loads.Do(key, func() (any, error) {
		s.mu.Lock()
		cached, ok := s.sessions.Get(key)
		s.mu.Unlock()
		if ok {
			return cached, nil
		}

		// The load is shared, so one caller's cancellation must not fail the rest.
		draft := s.load(context.WithoutCancel(ctx), key)

		s.mu.Lock()
		defer s.mu.Unlock()
		if cached, ok := s.sessions.Get(key); ok {
			return cached, nil
		}
		fresh := &session{key: key, draft: draft, subscribers: make(map[int]chan Snapshot)}
		s.sessions.Add(key, fresh)
		s.metrics.IncrementActiveSessions(ctx)
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*session), nil
}

// load never fails: a missing, corrupt or unreadable draft starts empty.
func (s *Service) load(ctx context.Context, key string) *certificate.Draft {
	draft, err := s.store.Load(ctx, key)
	switch {
	case err == nil:
		return draft
	case errors.Is(err, draftstore.ErrDraftNotFound):
	case errors.Is(err, draftstore.ErrCorruptDraft):
		s.logger.Warn("Discarding corrupt draft %s: %v", key, err)
	default:
		s.logger.Warn("Failed to load draft %s, starting empty: %v", key, err)
		s.metrics.RecordStoreFailure(ctx, "load")
	}
	return certificate.NewDraft()
}

// log prepends a timestamped activity line; must hold sess.mu.
func (s *Service) log(sess *session, msg string) {
	line := s.now().Format("15:04:05") + ": " + msg
	sess.activity = append([]string{line}, sess.activity...)
	if len(sess.activity) > MaxActivityLines {
		sess.activity = sess.activity[:MaxActivityLines]
	}
}

func (sess *session) snapshot() Snapshot {
	draft := sess.draft.Clone()
	return Snapshot{
		SessionID:  sess.key,
		Version:    sess.version,
		Draft:      draft,
		Summary:    certificate.Summarize(draft),
		LogoStatus: sess.logoStatus,
		Activity:   append([]string{}, sess.activity...),
		TagOptions: tagOptions(draft),
	}
}

func tagOptions(d *certificate.Draft) map[certificate.TagGroup][]certificate.TagOption {
	out := make(map[certificate.TagGroup][]certificate.TagOption, len(certificate.TagGroups))
	for _, group := range certificate.TagGroups {
		if opts, err := d.TagOptions(group); err == nil {
			out[group] = opts
		}
	}
	return out
}

// publish delivers the latest snapshot to every subscriber. A slow
// subscriber loses its oldest pending snapshot rather than blocking edits.
func (sess *session) publish() {
	if len(sess.subscribers) == 0 {
		return
	}
	snap := sess.snapshot()
	for _, ch := range sess.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (sess *session) close() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.closed = true
	for id, ch := range sess.subscribers {
		delete(sess.subscribers, id)
		close(ch)
	}
}

func metricsEqual(a, b *certificate.Draft) bool {
	if a.ImprovementPercent != b.ImprovementPercent {
		return false
	}
	for _, dim := range certificate.AllDimensions() {
		if a.Reading(dim) != b.Reading(dim) {
			return false
		}
	}
	return true
}

func sideLabel(side certificate.Side) string {
	if side == certificate.SideAfter {
		return "After"
	}
	return "Before"
}
