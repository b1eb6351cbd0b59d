package analytics

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestBuffer_EmitAndPending(t *testing.T) {
	b := NewBuffer(zerolog.Nop())
	b.Emit(context.Background(), EventOptionBlocked, map[string]interface{}{
		"visitId":    "v1",
		"medication": "Amoxicillin",
		"reason":     "Patient allergic to Amoxicillin",
	})
	b.Emit(context.Background(), EventRecommendationGenerated, map[string]interface{}{
		"visitId":      "v1",
		"totalOptions": 3,
	})

	pending := b.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending events, got %d", len(pending))
	}
	if pending[0].EventType != EventOptionBlocked {
		t.Errorf("expected OPTION_BLOCKED first, got %s", pending[0].EventType)
	}
	if pending[0].ID == pending[1].ID {
		t.Error("events must get distinct ids")
	}
	if pending[0].CreatedAt.IsZero() {
		t.Error("created_at must be set")
	}

	// Pending is non-destructive.
	if len(b.Pending()) != 2 {
		t.Error("Pending must not clear the buffer")
	}
}

func TestBuffer_Flush(t *testing.T) {
	b := NewBuffer(zerolog.Nop())
	b.Emit(context.Background(), EventOptionApproved, map[string]interface{}{"prescriptionId": "p1"})

	flushed := b.Flush()
	if len(flushed) != 1 {
		t.Fatalf("expected 1 flushed event, got %d", len(flushed))
	}
	if len(b.Pending()) != 0 {
		t.Error("Flush must clear the buffer")
	}
}

func TestAsync_WaitsForInFlightEmits(t *testing.T) {
	b := NewBuffer(zerolog.Nop())
	a := NewAsync(b)

	for i := 0; i < 10; i++ {
		a.Emit(context.Background(), EventOptionRejected, map[string]interface{}{"i": i})
	}
	a.Wait()

	if got := len(b.Pending()); got != 10 {
		t.Errorf("expected 10 events after Wait, got %d", got)
	}
}
