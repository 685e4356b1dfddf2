package audit

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/edvin/credgate/internal/model"
)

// Appender persists one audit record. *core.AuditService satisfies it.
type Appender interface {
	Append(ctx context.Context, rec *model.AuditRecord) error
}

var droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "audit_records_dropped_total",
	Help: "Audit records dropped because the sink buffer was full",
})

var writeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "audit_write_failures_total",
	Help: "Audit record writes that failed against the store",
})

// writeTimeout bounds each store write so a slow store cannot back the
// drain goroutine up indefinitely.
const writeTimeout = 2 * time.Second

// Sink is an asynchronous append-only audit writer. Record never blocks
// the request path: entries go through a buffered channel and overflow is
// dropped with a local warning. A sink failure is never a reason to deny
// a request; the drop and failure counters make its absence alertable.
type Sink struct {
	appender  Appender
	archivers []Archiver
	logger    zerolog.Logger
	ch        chan *model.AuditRecord
	wg        sync.WaitGroup
}

// Archiver receives every successfully handled record for long-term
// retention.
type Archiver interface {
	Archive(rec *model.AuditRecord)
}

// NewSink creates a Sink and starts its drain goroutine.
func NewSink(appender Appender, logger zerolog.Logger, archivers ...Archiver) *Sink {
	s := &Sink{
		appender:  appender,
		archivers: archivers,
		logger:    logger.With().Str("component", "audit-sink").Logger(),
		ch:        make(chan *model.AuditRecord, 1024),
	}
	s.wg.Add(1)
	go s.drain()
	return s
}

// Record enqueues an audit record without blocking.
func (s *Sink) Record(rec *model.AuditRecord) {
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now()
	}
	select {
	case s.ch <- rec:
	default:
		droppedTotal.Inc()
		s.logger.Warn().Str("event", rec.Event).Msg("audit buffer full, dropping record")
	}
}

// Close drains remaining records and stops the sink.
func (s *Sink) Close() {
	close(s.ch)
	s.wg.Wait()
}

func (s *Sink) drain() {
	defer s.wg.Done()
	for rec := range s.ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := s.appender.Append(ctx, rec)
		cancel()
		if err != nil {
			writeFailuresTotal.Inc()
			s.logger.Error().Err(err).Str("event", rec.Event).Msg("failed to write audit record")
			continue
		}
		for _, a := range s.archivers {
			a.Archive(rec)
		}
	}
}
