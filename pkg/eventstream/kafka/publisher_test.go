package kafka

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/kataru/pkg/boundary"
	"github.com/papercomputeco/kataru/pkg/eventstream"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("NewPublisher", func() {
	It("requires brokers", func() {
		_, err := NewPublisher(Config{Topic: "kataru.events"})
		Expect(err).To(MatchError(ContainSubstring("brokers")))
	})

	It("requires a topic", func() {
		_, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}})
		Expect(err).To(MatchError(ContainSubstring("topic")))
	})

	It("builds a writer without connecting", func() {
		p, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "kataru.events"})
		Expect(err).NotTo(HaveOccurred())
		w, ok := p.writer.(*kafkago.Writer)
		Expect(ok).To(BeTrue())
		Expect(w.Topic).To(Equal("kataru.events"))
	})
})

var _ = Describe("Publisher", func() {
	var (
		w     *fakeWriter
		p     *Publisher
		event *eventstream.SessionEvent
	)

	BeforeEach(func() {
		w = &fakeWriter{}
		p = newPublisher(w, "kataru.events")
		event = eventstream.NewSessionEvent(eventstream.EventTypeSnapshotSaved, "session-1",
			boundary.Record{Namespace: "global", Passage: "Gate", Tag: "dialogue"})
		event.Label = "before"
	})

	It("rejects nil events", func() {
		Expect(p.Publish(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
		Expect(w.messages).To(BeEmpty())
	})

	It("keys messages by session and encodes the event as JSON", func() {
		Expect(p.Publish(context.Background(), event)).To(Succeed())
		Expect(w.messages).To(HaveLen(1))

		msg := w.messages[0]
		Expect(string(msg.Key)).To(Equal("session-1"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte("kataru.snapshot.saved")}))

		var got eventstream.SessionEvent
		Expect(json.Unmarshal(msg.Value, &got)).To(Succeed())
		Expect(got.EventID).To(Equal(event.EventID))
		Expect(got.Label).To(Equal("before"))
		Expect(got.State.Passage).To(Equal("Gate"))
	})

	It("wraps writer failures", func() {
		w.err = errors.New("broker down")
		err := p.Publish(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("broker down")))
		Expect(err).To(MatchError(ContainSubstring("kataru.events")))
	})

	It("closes the writer", func() {
		Expect(p.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})
})
