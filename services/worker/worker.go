package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"mkarlsen/rentscout/internal/pipeline"
	"mkarlsen/rentscout/logger"
	"mkarlsen/rentscout/services/notify"
	"mkarlsen/rentscout/services/publisher"
)

// Worker drives the scheduled scrape cycle: run the pipeline across all
// sites once a day, publish every new listing to the stream, and send the
// operator digest. On-demand triggers reuse the same entry points, so the
// pipeline's per-site locks cover both paths.
type Worker struct {
	orch      *pipeline.Orchestrator
	publisher publisher.Publisher
	notifier  notify.Notifier
	dailyAt   string
	log       *logger.Logger

	mu      sync.Mutex
	lastRun time.Time
}

// NewWorker creates a new worker
func NewWorker(orch *pipeline.Orchestrator, pub publisher.Publisher, n notify.Notifier, dailyAt string) *Worker {
	return &Worker{
		orch:      orch,
		publisher: pub,
		notifier:  n,
		dailyAt:   dailyAt,
		log:       logger.ForWorker(),
	}
}

// Start runs the daily schedule until the context is cancelled
func (w *Worker) Start(ctx context.Context) error {
	for {
		next := nextRun(time.Now(), w.dailyAt)
		w.log.Info().Time("next_run", next).Msg("Scheduled next scrape")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}

		start := time.Now()
		w.ScrapeAndNotify(ctx)
		w.log.Info().Dur("elapsed", time.Since(start)).Msg("Scheduled scrape finished")
	}
}

// ScrapeAndNotify runs all sites, publishes new listings, and sends the
// digest message.
func (w *Worker) ScrapeAndNotify(ctx context.Context) map[string]pipeline.Result {
	results := w.orch.RunAll(ctx)
	w.markRun()

	w.publishNew(results)

	if err := w.notifier.Send(ctx, notify.FormatRunSummary(results)); err != nil {
		w.log.Error().Err(err).Msg("Failed to send run summary")
	}

	return results
}

// ScrapeSite runs one named site, publishing its new listings
func (w *Worker) ScrapeSite(ctx context.Context, name string) pipeline.Result {
	res := w.orch.RunSite(ctx, name)
	if res.Err == nil {
		w.markRun()
		w.publishNew(map[string]pipeline.Result{res.Site: res})
	}
	return res
}

// LastRun reports when a scrape last completed; zero when never
func (w *Worker) LastRun() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRun
}

func (w *Worker) markRun() {
	w.mu.Lock()
	w.lastRun = time.Now()
	w.mu.Unlock()
}

// publishNew pushes every new listing onto the stream and trims afterwards
func (w *Worker) publishNew(results map[string]pipeline.Result) {
	if w.publisher == nil {
		return
	}

	published := 0
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for _, l := range res.Diff.New {
			data, err := json.Marshal(l)
			if err != nil {
				w.log.Error().Err(err).Str("site", res.Site).Msg("Failed to marshal listing")
				continue
			}
			if err := w.publisher.Publish(res.Site, data); err != nil {
				w.log.Error().Err(err).Str("site", res.Site).Msg("Failed to publish listing")
				continue
			}
			published++
		}
	}

	if published > 0 {
		if err := w.publisher.TrimStreams(); err != nil {
			w.log.Error().Err(err).Msg("Failed to trim streams")
		}
	}
}

// nextRun returns the next occurrence of the HH:MM wall-clock time strictly
// after now. A malformed schedule falls back to 24 hours out.
func nextRun(now time.Time, hhmm string) time.Time {
	t, err := time.ParseInLocation("15:04", hhmm, now.Location())
	if err != nil {
		return now.Add(24 * time.Hour)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
