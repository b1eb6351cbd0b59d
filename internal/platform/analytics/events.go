// Package analytics captures de-identified prescription-pipeline events.
// Events carry aggregate identifiers (visit, prescription) and never
// patient demographics.
package analytics

import (
	"time"

	"github.com/google/uuid"
)

// EventType names one prescription-pipeline event kind.
type EventType string

const (
	EventRecommendationGenerated EventType = "RECOMMENDATION_GENERATED"
	EventOptionBlocked           EventType = "OPTION_BLOCKED"
	EventOptionApproved          EventType = "OPTION_APPROVED"
	EventOptionRejected          EventType = "OPTION_REJECTED"
	EventVoicePackGenerated      EventType = "VOICE_PACK_GENERATED"
	EventPatientPackViewed       EventType = "PATIENT_PACK_VIEWED"
)

// Event is one captured pipeline event.
type Event struct {
	ID        uuid.UUID              `db:"id" json:"id"`
	EventType EventType              `db:"event_type" json:"event_type"`
	EventData map[string]interface{} `db:"event_data" json:"event_data"`
	UserID    *uuid.UUID             `db:"user_id" json:"user_id,omitempty"`
	SessionID string                 `db:"session_id" json:"session_id,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}
