package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"airtracker/panel/internal/imaging"
	"airtracker/panel/internal/logging"
)

// Invalidator is told when a slot's renderable content changes.
type Invalidator interface {
	Mark()
}

// Options configures a Manager. Zero values fall back to the package defaults.
type Options struct {
	Specs    map[Kind]Spec
	Fetcher  *Fetcher
	Cache    BlobCache
	CacheTTL time.Duration
	// Store is nil when nothing is persisted.
	Store *DiskStore
	// Limiter paces network fetches; nil means unpaced.
	Limiter *rate.Limiter
	Dirty   Invalidator
	Now     func() time.Time
}

// Stats counts what Ensure has done since start.
type Stats struct {
	NetworkFetches int64 `json:"network_fetches"`
	CacheHits      int64 `json:"cache_hits"`
	Failures       int64 `json:"failures"`
	Restored       int64 `json:"restored"`
}

// Snapshot is a copy of both slots. Image buffers are shared but never written after
// they are published.
type Snapshot struct {
	Logo  Record `json:"logo"`
	Photo Record `json:"photo"`
}

// Get returns the record for kind.
func (s Snapshot) Get(kind Kind) Record {
	if kind == KindPhoto {
		return s.Photo
	}
	return s.Logo
}

// Manager keeps one decoded image per slot, fetching only when the referenced URL
// differs from the one already cached.
type Manager struct {
	opts  Options
	group singleflight.Group

	mu      sync.RWMutex
	records [2]Record
	pending [2]string

	networkFetches atomic.Int64
	cacheHits      atomic.Int64
	failures       atomic.Int64
	restored       atomic.Int64
}

func NewManager(opts Options) *Manager {
	if opts.Specs == nil {
		opts.Specs = DefaultSpecs
	}
	if opts.Fetcher == nil {
		opts.Fetcher = NewFetcher(10*time.Second, false)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Manager{opts: opts}
	for _, k := range Kinds {
		m.records[k].Kind = k
	}
	return m
}

// Ensure brings the slot for kind in line with url.
//
// An empty url clears the slot. A url equal to the cached one returns Unchanged without
// any I/O. Anything else is loaded from the blob cache or the network, decoded into the
// slot's box and only then published; on any failure the slot keeps its previous image
// and the same url will be tried again on the next call.
func (m *Manager) Ensure(ctx context.Context, kind Kind, url string) (Outcome, error) {
	spec, ok := m.opts.Specs[kind]
	if !ok {
		return Failed, fmt.Errorf("no spec for asset kind %s", kind)
	}

	m.mu.Lock()
	rec := &m.records[kind]
	if url == "" {
		hadContent := rec.Image != nil || rec.CachedURL != ""
		*rec = Record{Kind: kind}
		m.pending[kind] = ""
		m.mu.Unlock()

		if m.opts.Store != nil {
			if err := m.opts.Store.Remove(kind); err != nil {
				logging.Warn("Failed to remove persisted asset", "asset_kind", kind.String(), "error", err)
			}
		}
		if hadContent {
			m.markDirty()
		}
		return Unchanged, nil
	}
	if url == rec.CachedURL {
		m.mu.Unlock()
		return Unchanged, nil
	}
	m.pending[kind] = url
	m.mu.Unlock()

	log := logging.WithAsset(kind.String(), url)

	body, fromNetwork, err := m.load(ctx, kind, url, spec.MaxBytes)
	if err != nil {
		m.fail(kind, url, err)
		log.Warnw("Asset fetch failed", "error", err)
		return Failed, err
	}

	res, err := imaging.Decoder{MaxInput: spec.MaxBytes}.Decode(body, spec.MaxW, spec.MaxH)
	if err != nil {
		err = fmt.Errorf("decode %s: %w", kind, err)
		m.fail(kind, url, err)
		if !fromNetwork && m.opts.Cache != nil {
			m.opts.Cache.Delete(url)
		}
		log.Warnw("Asset decode failed", "error", err, "bytes", len(body))
		return Failed, err
	}

	m.mu.Lock()
	if m.pending[kind] != url {
		// A newer Ensure for this slot started while we were loading.
		m.mu.Unlock()
		log.Debugw("Discarding superseded asset")
		return Unchanged, nil
	}
	m.records[kind] = newRecord(kind, url, res, len(body), m.opts.Now())
	m.pending[kind] = ""
	m.mu.Unlock()

	if fromNetwork && m.opts.Cache != nil {
		m.opts.Cache.Set(url, body, m.opts.CacheTTL)
	}
	if m.opts.Store != nil {
		if err := m.opts.Store.Save(kind, url, body); err != nil {
			log.Warnw("Failed to persist asset", "error", err)
		}
	}
	m.markDirty()

	log.Infow("Asset cached",
		"format", res.Format.String(),
		"src", strconv.Itoa(res.SrcW)+"x"+strconv.Itoa(res.SrcH),
		"scale", res.Scale,
		"bytes", len(body),
		"from_network", fromNetwork,
	)
	return Fetched, nil
}

// load returns the body for url from the blob cache or the network. Concurrent loads
// of the same url and cap share one request.
func (m *Manager) load(ctx context.Context, kind Kind, url string, maxBytes int) ([]byte, bool, error) {
	type loaded struct {
		body        []byte
		fromNetwork bool
	}

	key := url + "#" + strconv.Itoa(maxBytes)
	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		if m.opts.Cache != nil {
			if body, ok := m.opts.Cache.Get(url); ok && len(body) <= maxBytes {
				m.cacheHits.Add(1)
				return loaded{body: body}, nil
			}
		}
		if m.opts.Limiter != nil {
			if err := m.opts.Limiter.Wait(ctx); err != nil {
				return nil, &FetchError{Kind: kind, URL: url, Err: err}
			}
		}
		m.networkFetches.Add(1)
		body, err := m.opts.Fetcher.Get(ctx, kind, url, maxBytes)
		if err != nil {
			return nil, err
		}
		return loaded{body: body, fromNetwork: true}, nil
	})
	if err != nil {
		return nil, false, err
	}
	l := v.(loaded)
	return l.body, l.fromNetwork, nil
}

func (m *Manager) fail(kind Kind, url string, err error) {
	m.failures.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := &m.records[kind]
	rec.LastURL = url
	rec.LastError = err.Error()
	rec.Failures++
	if m.pending[kind] == url {
		m.pending[kind] = ""
	}
}

// Restore loads persisted bodies from the disk store, as if they had just been fetched.
// Files that no longer decode are removed.
func (m *Manager) Restore(ctx context.Context) error {
	if m.opts.Store == nil {
		return nil
	}

	var errs []error
	for _, kind := range Kinds {
		if err := ctx.Err(); err != nil {
			return err
		}
		url, body, err := m.opts.Store.Load(kind)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("load persisted %s: %w", kind, err))
			continue
		}

		spec := m.opts.Specs[kind]
		res, err := imaging.Decoder{MaxInput: spec.MaxBytes}.Decode(body, spec.MaxW, spec.MaxH)
		if err != nil || url == "" {
			logging.Warn("Discarding persisted asset", "asset_kind", kind.String(), "url", url, "error", err)
			if rmErr := m.opts.Store.Remove(kind); rmErr != nil {
				errs = append(errs, rmErr)
			}
			continue
		}

		m.mu.Lock()
		m.records[kind] = newRecord(kind, url, res, len(body), m.opts.Now())
		m.mu.Unlock()
		if m.opts.Cache != nil {
			m.opts.Cache.Set(url, body, m.opts.CacheTTL)
		}
		m.restored.Add(1)
		m.markDirty()
		logging.Info("Restored persisted asset", "asset_kind", kind.String(), "url", url)
	}
	return errors.Join(errs...)
}

// Snapshot copies both slots.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{Logo: m.records[KindLogo], Photo: m.records[KindPhoto]}
}

func (m *Manager) Stats() Stats {
	return Stats{
		NetworkFetches: m.networkFetches.Load(),
		CacheHits:      m.cacheHits.Load(),
		Failures:       m.failures.Load(),
		Restored:       m.restored.Load(),
	}
}

func (m *Manager) markDirty() {
	if m.opts.Dirty != nil {
		m.opts.Dirty.Mark()
	}
}

func newRecord(kind Kind, url string, res *imaging.Result, n int, now time.Time) Record {
	return Record{
		Kind:      kind,
		RemoteURL: url,
		CachedURL: url,
		Image:     res.Buffer,
		Format:    res.Format.String(),
		SrcW:      res.SrcW,
		SrcH:      res.SrcH,
		Scale:     res.Scale,
		Bytes:     n,
		UpdatedAt: now,
	}
}
