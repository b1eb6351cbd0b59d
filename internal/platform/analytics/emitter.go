package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Emitter records pipeline events. Implementations must never fail the
// triggering operation: sink errors are logged and swallowed.
type Emitter interface {
	Emit(ctx context.Context, eventType EventType, data map[string]interface{})
}

// ---------------------------------------------------------------------------
// In-memory buffer
// ---------------------------------------------------------------------------

// Buffer holds emitted events in memory. Used in tests and when no
// database is configured.
type Buffer struct {
	mu     sync.Mutex
	events []Event
	log    zerolog.Logger
}

func NewBuffer(log zerolog.Logger) *Buffer {
	return &Buffer{log: log}
}

func (b *Buffer) Emit(_ context.Context, eventType EventType, data map[string]interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Event{
		ID:        uuid.New(),
		EventType: eventType,
		EventData: data,
		CreatedAt: time.Now().UTC(),
	})
	b.log.Info().Str("event_type", string(eventType)).Msg("analytics event buffered")
}

// Pending returns a snapshot of buffered events without clearing them.
func (b *Buffer) Pending() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Flush returns all buffered events and clears the buffer.
func (b *Buffer) Flush() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.events
	b.events = nil
	return out
}

// ---------------------------------------------------------------------------
// Postgres recorder
// ---------------------------------------------------------------------------

// Recorder persists events to the analytics_event table. Writes happen on
// the caller's goroutine; wrap in Async for fire-and-forget dispatch.
type Recorder struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewRecorder(pool *pgxpool.Pool, log zerolog.Logger) *Recorder {
	return &Recorder{pool: pool, log: log}
}

func (r *Recorder) Emit(ctx context.Context, eventType EventType, data map[string]interface{}) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO analytics_event (id, event_type, event_data, created_at)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), string(eventType), data, time.Now().UTC())
	if err != nil {
		r.log.Error().Err(err).Str("event_type", string(eventType)).
			Msg("failed to persist analytics event")
		return
	}
	r.log.Info().Str("event_type", string(eventType)).Msg("analytics event persisted")
}

// ---------------------------------------------------------------------------
// Async wrapper
// ---------------------------------------------------------------------------

// Async dispatches each event on its own goroutine so slow sinks never
// block the prescription pipeline. Emit detaches from the caller's
// context; a bounded timeout caps each write.
type Async struct {
	next    Emitter
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(next Emitter) *Async {
	return &Async{next: next, timeout: 5 * time.Second}
}

func (a *Async) Emit(_ context.Context, eventType EventType, data map[string]interface{}) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		a.next.Emit(ctx, eventType, data)
	}()
}

// Wait blocks until all in-flight emissions complete. Used in shutdown
// and tests.
func (a *Async) Wait() {
	a.wg.Wait()
}
