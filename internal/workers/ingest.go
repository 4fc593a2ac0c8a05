package workers

import (
	"context"
	"errors"
	"time"

	"airtracker/panel/internal/assets"
	"airtracker/panel/internal/document"
	"airtracker/panel/internal/flight"
	"airtracker/panel/internal/logging"
	"airtracker/panel/internal/metrics"
	"airtracker/panel/internal/scheduler"
	"airtracker/panel/internal/transport"
)

// AssetEnsurer is the part of assets.Manager the worker drives.
type AssetEnsurer interface {
	Ensure(ctx context.Context, kind assets.Kind, url string) (assets.Outcome, error)
	Snapshot() assets.Snapshot
}

// Notifier receives scheduler events.
type Notifier interface {
	Notify(e scheduler.Event)
}

// IngestWorker is the single writer of flight state and asset records: it takes the
// latest payload from the inbox, merges it, then brings both asset slots in line
// with the URLs the merged state references.
type IngestWorker struct {
	inbox    *transport.Inbox
	store    *flight.Store
	assets   AssetEnsurer
	notifier Notifier
	metrics  *metrics.MetricsRegistry
}

// NewIngestWorker wires the worker. metrics may be nil.
func NewIngestWorker(inbox *transport.Inbox, store *flight.Store, a AssetEnsurer, n Notifier, m *metrics.MetricsRegistry) *IngestWorker {
	return &IngestWorker{inbox: inbox, store: store, assets: a, notifier: n, metrics: m}
}

// Start processes payloads until ctx is done.
func (w *IngestWorker) Start(ctx context.Context) error {
	logging.Info("[IngestWorker] Starting")
	for {
		msg, err := w.inbox.Take(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logging.Info("[IngestWorker] Shutting down")
				return nil
			}
			return err
		}
		w.Process(ctx, msg)
	}
}

// Process handles one payload. A payload that does not parse is dropped and leaves the
// state as it was.
func (w *IngestWorker) Process(ctx context.Context, msg transport.Message) {
	start := time.Now()
	doc, err := document.Parse(msg.Payload)
	if err != nil {
		logging.Warn("Dropping unparseable telemetry", "source", msg.Source, "bytes", len(msg.Payload), "error", err)
		w.countMessage(msg.Source, "parse_error")
		return
	}

	changed := w.store.Apply(doc)
	if w.metrics != nil {
		w.metrics.MergeDuration.Observe(time.Since(start).Seconds())
		if changed {
			w.metrics.StateChanges.Inc()
		}
	}
	if changed {
		w.countMessage(msg.Source, "changed")
		w.notifier.Notify(scheduler.EventIngested)
	} else {
		w.countMessage(msg.Source, "unchanged")
	}

	st := w.store.Snapshot()
	w.ensure(ctx, assets.KindLogo, st.LogoURL)
	w.ensure(ctx, assets.KindPhoto, st.PhotoURL)
}

func (w *IngestWorker) ensure(ctx context.Context, kind assets.Kind, url string) {
	start := time.Now()
	outcome, err := w.assets.Ensure(ctx, kind, url)

	if w.metrics != nil {
		w.metrics.AssetEnsureTotal.WithLabelValues(kind.String(), outcome.String()).Inc()
		if outcome != assets.Unchanged {
			w.metrics.AssetFetchDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
		}
	}

	switch outcome {
	case assets.Fetched:
		if w.metrics != nil {
			w.metrics.AssetBytes.WithLabelValues(kind.String()).Set(float64(w.assets.Snapshot().Get(kind).Bytes))
		}
		w.notifier.Notify(scheduler.EventFetchComplete)
	case assets.Unchanged:
		if url == "" && w.metrics != nil {
			w.metrics.AssetBytes.WithLabelValues(kind.String()).Set(0)
		}
	case assets.Failed:
		// Already logged with full context by the manager; the same URL is retried next time.
		logging.Debug("Asset not updated", "asset_kind", kind.String(), "error", err)
	}
}

func (w *IngestWorker) countMessage(source, result string) {
	if w.metrics != nil {
		w.metrics.MessagesTotal.WithLabelValues(source, result).Inc()
	}
}
