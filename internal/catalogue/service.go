package catalogue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"odil-be/internal/logger"
	"odil-be/internal/metrics"
	"odil-be/internal/product"
	"odil-be/internal/utils"

	"go.uber.org/zap"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
	maxResubscribeDelay  = 30 * time.Second
	snapshotTimeout      = 5 * time.Second
)

// SnapshotCache persists the owner records between runs.
type SnapshotCache interface {
	SaveRecords(ctx context.Context, records []product.Product) error
	LoadRecords(ctx context.Context) ([]product.Product, time.Time, error)
}

type Options struct {
	// Base is the built-in catalogue; nil means Base().
	Base  []product.Product
	Cache SnapshotCache

	RetryAttempts int
	RetryDelay    time.Duration

	Metrics *metrics.Registry
	Now     func() time.Time
	Sleep   func(ctx context.Context, d time.Duration) error
}

// WriteResult reports an owner write. Persisted is false when the record is
// only held locally and still waits for the remote store.
type WriteResult struct {
	Product   product.Product `json:"product"`
	Persisted bool            `json:"persisted"`
}

type Service interface {
	Load(ctx context.Context) error
	Run(ctx context.Context) error
	SyncPending(ctx context.Context) int

	Products(ctx context.Context) []product.Product
	Get(ctx context.Context, id string) (product.Product, bool)
	Config(ctx context.Context) Config
	OwnerRecords() []product.Product

	Add(ctx context.Context, d Draft) (*WriteResult, error)
	SaveEdit(ctx context.Context, id string, edited product.Product) (*WriteResult, error)
	Hide(ctx context.Context, id string) (*WriteResult, error)
	Delete(ctx context.Context, id string) error
	SaveConfig(ctx context.Context, cfg Config) (*WriteResult, error)

	OnChange(fn func())
}

type service struct {
	repo  product.Repository
	store *Store
	opts  Options

	baseByID map[string]product.Product

	mu      sync.Mutex
	built   bool
	version uint64
	merged  []product.Product
	cfg     Config
}

func NewService(repo product.Repository, opts Options) Service {
	if opts.Base == nil {
		opts.Base = Base()
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = defaultRetryAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Default
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}

	s := &service{
		repo:     repo,
		store:    NewStore(),
		opts:     opts,
		baseByID: make(map[string]product.Product, len(opts.Base)),
	}
	for _, p := range opts.Base {
		s.baseByID[p.ID] = p
	}
	if opts.Cache != nil {
		s.store.OnChange(func(st State) { s.saveSnapshot(st.Records) })
	}
	return s
}

/* ---------- LOADING ---------- */

// Load replaces the owner records with the remote set. Records written
// locally but not yet confirmed survive the reload. When the remote store is
// unreachable the last cached snapshot is used instead.
func (s *service) Load(ctx context.Context) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Load"),
	)

	timer := metrics.StartTimer()
	records, err := s.repo.List(ctx)
	if err != nil {
		log.Warn("failed to load owner records", zap.Error(err))
		return s.loadSnapshot(ctx, log, err)
	}

	records = s.withPending(records)
	s.store.Replace(records)
	s.opts.Metrics.Counter(metrics.CatalogueLoads).Inc()

	log.Info("owner records loaded",
		zap.Int("count", len(records)),
		zap.Duration("duration", timer.Duration()),
	)
	return nil
}

func (s *service) loadSnapshot(ctx context.Context, log *zap.Logger, cause error) error {
	if s.opts.Cache == nil {
		return fmt.Errorf("%w: %v", ErrCatalogueUnavailable, cause)
	}

	records, savedAt, err := s.opts.Cache.LoadRecords(ctx)
	if err != nil {
		log.Warn("no usable owner record snapshot", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrCatalogueUnavailable, cause)
	}

	s.store.Replace(s.withPending(records))
	s.opts.Metrics.Counter(metrics.CatalogueCacheLoads).Inc()

	log.Warn("serving cached owner records",
		zap.Int("count", len(records)),
		zap.Time("saved_at", savedAt),
	)
	return nil
}

// withPending merges the local pending records into a reloaded set. A
// pending record the remote set lacks is kept in front; one the remote set
// holds keeps its local copy unless the remote row is newer.
func (s *service) withPending(remote []product.Product) []product.Product {
	pending := make(map[string]product.Product)
	var order []string
	for _, r := range s.store.Records() {
		if r.Pending {
			pending[r.ID] = r
			order = append(order, r.ID)
		}
	}
	if len(pending) == 0 {
		return remote
	}

	merged := make([]product.Product, len(remote))
	for i, r := range remote {
		merged[i] = r
		if held, ok := pending[r.ID]; ok {
			if !supersedes(r, held) {
				merged[i] = held
			}
			delete(pending, r.ID)
		}
	}

	var out []product.Product
	for _, id := range order {
		if held, ok := pending[id]; ok {
			out = append(out, held)
		}
	}
	return append(out, merged...)
}

func (s *service) saveSnapshot(records []product.Product) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	if err := s.opts.Cache.SaveRecords(ctx, records); err != nil {
		logger.L().Warn("failed to save owner record snapshot",
			zap.String("layer", "service"),
			zap.Error(err),
		)
	}
}

// Run follows the remote change feed until ctx is done. A failed subscription
// is retried with a growing delay; every successful subscription and every
// resync reloads the full record set and pushes pending writes.
func (s *service) Run(ctx context.Context) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Run"),
	)

	handle := func(ev product.Event) {
		s.opts.Metrics.Counter(metrics.ChangeEvents).Inc()
		if ev.Type == product.EventResync {
			log.Info("change feed reconnected, reloading")
			s.reload(ctx)
			return
		}
		s.store.Apply(ev)
	}

	for attempt := 1; ; attempt++ {
		sub, err := s.repo.Subscribe(ctx, handle)
		if err != nil {
			delay := min(s.opts.RetryDelay*time.Duration(attempt), maxResubscribeDelay)
			log.Warn("failed to subscribe to owner record changes",
				zap.Int("attempt", attempt),
				zap.Duration("retry_in", delay),
				zap.Error(err),
			)
			if err := s.opts.Sleep(ctx, delay); err != nil {
				return nil
			}
			continue
		}

		s.reload(ctx)
		<-ctx.Done()
		return sub.Close()
	}
}

func (s *service) reload(ctx context.Context) {
	if err := s.Load(ctx); err != nil {
		return
	}
	s.SyncPending(ctx)
}

// SyncPending retries every pending record once and returns how many the
// remote store confirmed.
func (s *service) SyncPending(ctx context.Context) int {
	confirmed := 0
	for _, r := range s.store.Records() {
		if !r.Pending {
			continue
		}
		if s.write(ctx, r).Persisted {
			confirmed++
		}
	}
	return confirmed
}

/* ---------- READS ---------- */

// Products returns the merged catalogue. The slice is fresh but the products
// are shared; callers must not modify them.
func (s *service) Products(ctx context.Context) []product.Product {
	products, _ := s.view(ctx)
	return slices.Clone(products)
}

func (s *service) Get(ctx context.Context, id string) (product.Product, bool) {
	products, _ := s.view(ctx)
	for _, p := range products {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return product.Product{}, false
}

func (s *service) Config(ctx context.Context) Config {
	_, cfg := s.view(ctx)
	return cfg
}

func (s *service) OwnerRecords() []product.Product {
	return s.store.Records()
}

func (s *service) OnChange(fn func()) {
	s.store.OnChange(func(State) { fn() })
}

// view rebuilds the merged catalogue when the owner records changed.
func (s *service) view(ctx context.Context) ([]product.Product, Config) {
	records, version := s.store.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.built && s.version == version {
		return s.merged, s.cfg
	}

	res := Merge(s.opts.Base, records)
	s.merged = res.Products
	s.cfg = ConfigFromRecords(records)
	s.version = version
	s.built = true

	// Owner writes never produce these; they point at rows edited outside
	// the service. Reported once per record-set version.
	if len(res.Violations) > 0 {
		log := logger.FromCtx(ctx).With(
			zap.String("layer", "service"),
			zap.String("method", "Products"),
		)
		s.opts.Metrics.Counter(metrics.MergeViolations).Add(uint64(len(res.Violations)))
		for _, v := range res.Violations {
			log.DPanic("catalogue merge invariant violated",
				zap.String("kind", string(v.Kind)),
				zap.String("product_id", v.ID),
				zap.String("source_id", v.SourceID),
			)
		}
	}
	return s.merged, s.cfg
}

/* ---------- WRITES ---------- */

func (s *service) Add(ctx context.Context, d Draft) (*WriteResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Add"),
		zap.String("category", d.Category),
	)

	if err := ValidateDraft(d); err != nil {
		log.Info("product draft rejected", zap.Error(err))
		return nil, err
	}
	p, err := BuildProduct(d)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	p.ID = utils.NewRecordID("owner")
	if p.SKU == "" {
		p.SKU = utils.GenerateSKU()
	}
	p.CreatedAt, p.UpdatedAt = now, now

	return s.write(ctx, p), nil
}

// SaveEdit stores an edited product. Editing an owner record updates it in
// place; editing a base product creates or reuses its override, turning a
// hide record back into a visible override.
func (s *service) SaveEdit(ctx context.Context, id string, edited product.Product) (*WriteResult, error) {
	if id == SentinelID {
		return nil, ErrSentinelRecord
	}
	if edited.Price < 0 {
		return nil, product.ErrInvalidPrice
	}

	now := s.opts.Now()
	rec := edited.Clone()
	rec.Hidden = false
	rec.UpdatedAt = now
	rec.PriceOverrides = product.SanitizePrices(rec.PriceOverrides)
	rec.Inventory = product.SanitizeInventory(rec.Inventory)

	if held, ok := s.store.Get(id); ok {
		rec.ID, rec.SourceID, rec.CreatedAt = held.ID, held.SourceID, held.CreatedAt
		return s.write(ctx, rec), nil
	}

	if _, ok := s.baseByID[id]; !ok {
		return nil, product.ErrProductNotFound
	}
	rec.SourceID = id
	if held, ok := s.sourceRecord(id); ok {
		// A hidden base product comes back as the edited override.
		rec.ID, rec.CreatedAt = held.ID, held.CreatedAt
	} else {
		rec.ID, rec.CreatedAt = utils.NewRecordID("owner"), now
	}
	return s.write(ctx, rec), nil
}

// Hide removes a product from the visible catalogue. Owner records are
// flagged hidden; a base product gets a hide record.
func (s *service) Hide(ctx context.Context, id string) (*WriteResult, error) {
	if id == SentinelID {
		return nil, ErrSentinelRecord
	}

	now := s.opts.Now()
	if held, ok := s.store.Get(id); ok {
		held.Hidden = true
		held.UpdatedAt = now
		return s.write(ctx, held), nil
	}

	if _, ok := s.baseByID[id]; !ok {
		return nil, product.ErrProductNotFound
	}
	if held, ok := s.sourceRecord(id); ok {
		held.Hidden = true
		held.UpdatedAt = now
		return s.write(ctx, held), nil
	}

	rec := product.Product{
		ID:        utils.NewRecordID("owner-hide"),
		SourceID:  id,
		Hidden:    true,
		Category:  AllLabel,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.write(ctx, rec), nil
}

// Delete removes an owner record. The local copy is only dropped once the
// remote store accepted the delete.
func (s *service) Delete(ctx context.Context, id string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Delete"),
		zap.String("product_id", id),
	)

	if id == SentinelID {
		return ErrSentinelRecord
	}
	held, ok := s.store.Get(id)
	if !ok {
		if _, isBase := s.baseByID[id]; isBase {
			return ErrNotOwnerRecord
		}
		return product.ErrProductNotFound
	}

	var found bool
	err := s.retry(ctx, log, func() error {
		var err error
		found, err = s.repo.Delete(ctx, id)
		return err
	})
	if err != nil {
		log.Warn("owner record delete failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDeleteNotPersisted, err)
	}
	if !found && !held.Pending {
		log.Info("owner record was already gone remotely")
	}

	s.store.Remove(id)
	return nil
}

func (s *service) SaveConfig(ctx context.Context, cfg Config) (*WriteResult, error) {
	now := s.opts.Now()
	rec := cfg.Record()
	rec.CreatedAt, rec.UpdatedAt = now, now
	if held, ok := s.store.Get(SentinelID); ok && !held.CreatedAt.IsZero() {
		rec.CreatedAt = held.CreatedAt
	}
	return s.write(ctx, rec), nil
}

// write applies rec locally at once, then persists it. A write the remote
// store did not confirm stays in place marked pending.
func (s *service) write(ctx context.Context, rec product.Product) *WriteResult {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "write"),
		zap.String("product_id", rec.ID),
	)

	rec.Pending = true
	s.store.Put(rec)
	s.opts.Metrics.Counter(metrics.OwnerWrites).Inc()

	var saved *product.Product
	err := s.retry(ctx, log, func() error {
		var err error
		saved, err = s.repo.Upsert(ctx, rec)
		return err
	})
	if err != nil || saved == nil {
		s.opts.Metrics.Counter(metrics.OwnerWritesPending).Inc()
		log.Warn("owner record saved locally, sync pending", zap.Error(err))
		return &WriteResult{Product: rec, Persisted: false}
	}

	confirmed := saved.Clone()
	confirmed.Pending = false
	s.store.Put(confirmed)
	return &WriteResult{Product: confirmed, Persisted: true}
}

// retry runs op up to RetryAttempts times, waiting RetryDelay*attempt
// between tries.
func (s *service) retry(ctx context.Context, log *zap.Logger, op func() error) error {
	var err error
	for attempt := 1; attempt <= s.opts.RetryAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if errors.Is(err, product.ErrMissingID) || attempt == s.opts.RetryAttempts {
			break
		}

		s.opts.Metrics.Counter(metrics.OwnerWriteRetries).Inc()
		log.Warn("remote write failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.opts.RetryAttempts),
			zap.Error(err),
		)
		if serr := s.opts.Sleep(ctx, s.opts.RetryDelay*time.Duration(attempt)); serr != nil {
			return serr
		}
	}
	return err
}

// sourceRecord returns the newest owner record standing in for a base
// product, hide records included. Edits and hides reuse it so a base product
// never carries both a hide and an override.
func (s *service) sourceRecord(sourceID string) (product.Product, bool) {
	var (
		best  product.Product
		found bool
	)
	for _, r := range s.store.Records() {
		if r.SourceID != sourceID {
			continue
		}
		if !found || r.UpdatedAt.After(best.UpdatedAt) {
			best, found = r, true
		}
	}
	return best, found
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
