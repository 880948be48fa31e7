package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/kataru/pkg/boundary"
	"github.com/papercomputeco/kataru/pkg/value"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeSessionOpened is emitted after a hosted session is initialized.
	EventTypeSessionOpened = "kataru.session.opened"

	// EventTypeSessionClosed is emitted after a hosted session is dropped.
	EventTypeSessionClosed = "kataru.session.closed"

	// EventTypeLineAdvanced is emitted after every successful advance.
	EventTypeLineAdvanced = "kataru.line.advanced"

	// EventTypePassageEntered is emitted after an explicit goto.
	EventTypePassageEntered = "kataru.passage.entered"

	// EventTypeVariableSet is emitted after a host writes a variable.
	EventTypeVariableSet = "kataru.variable.set"

	// EventTypeSnapshotSaved is emitted after a snapshot is taken.
	EventTypeSnapshotSaved = "kataru.snapshot.saved"

	// EventTypeSnapshotRestored is emitted after a snapshot is loaded.
	EventTypeSnapshotRestored = "kataru.snapshot.restored"
)

// SessionEvent is a transport-neutral event payload for a change to a
// hosted session.
type SessionEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`

	// SessionID is the host handle of the session. Publishers use it as the
	// partition key so one session's events stay ordered.
	SessionID string `json:"session_id"`

	// State is the position and current line after the change.
	State boundary.Record `json:"state"`

	// Input is the host input of an advance.
	Input string `json:"input,omitempty"`

	// Label is the snapshot label for snapshot events.
	Label string `json:"label,omitempty"`

	// Variable is set for variable events.
	Variable *VariableChange `json:"variable,omitempty"`
}

// EventSource identifies where the event originated.
type EventSource struct {
	Host  string `json:"host,omitempty"`
	Story string `json:"story,omitempty"`
}

// VariableChange is the key and new value of a written variable.
type VariableChange struct {
	Key   string      `json:"key"`
	Value value.Value `json:"value"`
}

// NewSessionEvent returns an event with schema version, id and emit time set.
func NewSessionEvent(eventType, sessionID string, state boundary.Record) *SessionEvent {
	return &SessionEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		SessionID:     sessionID,
		State:         state,
	}
}
