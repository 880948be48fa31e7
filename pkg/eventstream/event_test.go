package eventstream_test

import (
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/kataru/pkg/boundary"
	"github.com/papercomputeco/kataru/pkg/eventstream"
	"github.com/papercomputeco/kataru/pkg/value"
)

var _ = Describe("Event", func() {
	state := boundary.Record{
		Namespace: "Room1",
		Passage:   "Start",
		Line:      1,
		Tag:       "choices",
		Captions:  []string{"Yes", "No"},
		Timeout:   5,
	}

	It("fills the envelope", func() {
		event := eventstream.NewSessionEvent(eventstream.EventTypeLineAdvanced, "session-1", state)
		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeLineAdvanced))
		Expect(strings.HasPrefix(event.EventID, "evt_")).To(BeTrue())
		Expect(event.EmittedAt).NotTo(BeZero())
		Expect(event.SessionID).To(Equal("session-1"))
	})

	It("issues unique ids", func() {
		a := eventstream.NewSessionEvent(eventstream.EventTypeLineAdvanced, "s", state)
		b := eventstream.NewSessionEvent(eventstream.EventTypeLineAdvanced, "s", state)
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})

	It("marshals with expected top-level keys", func() {
		event := eventstream.NewSessionEvent(eventstream.EventTypeVariableSet, "session-1", state)
		event.Variable = &eventstream.VariableChange{Key: "var", Value: value.Bool(true)}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("session_id"))
		Expect(got).To(HaveKey("state"))
		Expect(got).NotTo(HaveKey("label"))
		Expect(got["variable"]).To(Equal(map[string]any{"key": "var", "value": true}))
		Expect(got["state"]).To(HaveKeyWithValue("captions", []any{"Yes", "No"}))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeLineAdvanced).To(Equal("kataru.line.advanced"))
		Expect(eventstream.EventTypeSnapshotSaved).To(Equal("kataru.snapshot.saved"))
	})

	It("provides ErrNilEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilEvent).To(MatchError("nil session event"))
	})
})
