// internal/historian/historian.go
package historian

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Queue yields action records. cache.ActionQueue implements it.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (*cache.ActionRecord, error)
}

// Archive persists action records. database.Store implements it.
type Archive interface {
	InsertActions(ctx context.Context, records []cache.ActionRecord) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

// Options tunes batching and abandonment.
type Options struct {
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity is how long a game may go without actions before it is
	// marked abandoned. Zero disables the check.
	Inactivity time.Duration
	// PopTimeout bounds each blocking read so cancellation is noticed.
	PopTimeout time.Duration
	// SweepInterval is how often idle games are checked.
	SweepInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.FlushDelay <= 0 {
		o.FlushDelay = 500 * time.Millisecond
	}
	if o.PopTimeout <= 0 {
		o.PopTimeout = 3 * time.Second
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = time.Minute
	}
	return o
}

// Service drains the action queue into the archive in batches and marks games
// abandoned when their action stream goes quiet.
type Service struct {
	queue   Queue
	archive Archive
	opts    Options
	log     *logrus.Entry
	now     func() time.Time

	batchMu sync.Mutex
	batch   []cache.ActionRecord

	activityMu   sync.Mutex
	lastActivity map[uuid.UUID]time.Time
}

// New builds a historian over the given queue and archive.
func New(queue Queue, archive Archive, opts Options, log *logrus.Entry) *Service {
	opts = opts.withDefaults()
	return &Service{
		queue:        queue,
		archive:      archive,
		opts:         opts,
		log:          log,
		now:          time.Now,
		batch:        make([]cache.ActionRecord, 0, opts.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
	}
}

// Run processes the queue until ctx ends, then flushes what is buffered.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info("historian started")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readLoop(ctx) })
	g.Go(func() error { return s.flushLoop(ctx) })
	if s.opts.Inactivity > 0 {
		g.Go(func() error { return s.inactivityLoop(ctx) })
	}
	err := g.Wait()

	// The run context is gone; give the final flush its own deadline.
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.log.Info("historian stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Service) readLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := s.queue.Pop(ctx, s.opts.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Errorf("pop action: %v", err)
			continue
		}
		if rec == nil {
			continue
		}
		s.Add(ctx, *rec)
	}
}

func (s *Service) flushLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

func (s *Service) inactivityLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.SweepInactive(ctx)
		}
	}
}

// Add buffers one record and flushes once the batch is full. A game_end
// record stops inactivity tracking for its game.
func (s *Service) Add(ctx context.Context, rec cache.ActionRecord) {
	s.activityMu.Lock()
	if rec.ActionType == "game_end" {
		delete(s.lastActivity, rec.GameID)
	} else {
		s.lastActivity[rec.GameID] = s.now()
	}
	s.activityMu.Unlock()

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.opts.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the buffered records in one transaction. On failure the records
// go back to the front of the buffer and are retried on the next flush.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	pending := make([]cache.ActionRecord, len(s.batch))
	copy(pending, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.archive.InsertActions(ctx, pending); err != nil {
		s.log.Errorf("flush %d actions: %v", len(pending), err)
		s.batchMu.Lock()
		s.batch = append(pending, s.batch...)
		s.batchMu.Unlock()
		return
	}
	s.log.Debugf("flushed %d actions", len(pending))
}

// Pending is the number of buffered records.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

// SweepInactive marks every game idle for longer than the inactivity window
// as abandoned and stops tracking it.
func (s *Service) SweepInactive(ctx context.Context) {
	if s.opts.Inactivity <= 0 {
		return
	}
	now := s.now()
	var idle []uuid.UUID
	s.activityMu.Lock()
	for id, last := range s.lastActivity {
		if now.Sub(last) > s.opts.Inactivity {
			idle = append(idle, id)
			delete(s.lastActivity, id)
		}
	}
	s.activityMu.Unlock()

	if len(idle) == 0 {
		return
	}
	// Rows for idle games may still sit in the buffer.
	s.Flush(ctx)
	for _, id := range idle {
		changed, err := s.archive.MarkAbandoned(ctx, id)
		if err != nil {
			s.log.Errorf("failed to mark game %v abandoned: %v", id, err)
			continue
		}
		if changed {
			s.log.Infof("marked game %v abandoned after inactivity", id)
		}
	}
}
