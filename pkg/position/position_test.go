package position_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/kataru/pkg/position"
)

var _ = Describe("Tracker", func() {
	var t *position.Tracker

	BeforeEach(func() {
		t = position.New(position.Position{Namespace: "global", Passage: "Main", Line: 2})
	})

	It("pushes the next line as the return point on Call", func() {
		t.Call("Room1", "Intro")
		Expect(t.Current).To(Equal(position.Position{Namespace: "Room1", Passage: "Intro"}))
		Expect(t.Stack).To(Equal([]position.Position{{Namespace: "global", Passage: "Main", Line: 3}}))
	})

	It("pops back on Return", func() {
		t.Call("Room1", "Intro")
		Expect(t.Return()).To(BeTrue())
		Expect(t.Current).To(Equal(position.Position{Namespace: "global", Passage: "Main", Line: 3}))
		Expect(t.Depth()).To(BeZero())
	})

	It("reports false returning from an empty stack", func() {
		before := t.Current
		Expect(t.Return()).To(BeFalse())
		Expect(t.Current).To(Equal(before))
	})

	DescribeTable("Goto resets line and clears any call stack",
		func(depth, line int) {
			for range depth {
				t.Call("Room1", "Intro")
			}
			t.SetLine(line)

			t.Goto("Room2", "Start")
			Expect(t.Current).To(Equal(position.Position{Namespace: "Room2", Passage: "Start", Line: 0}))
			Expect(t.Stack).To(BeEmpty())
		},
		Entry("empty stack", 0, 0),
		Entry("one frame", 1, 4),
		Entry("deep stack", 5, 17),
	)

	It("keeps the stack on Jump", func() {
		t.Call("Room1", "Intro")
		t.Jump("Room1", "Other")
		Expect(t.Depth()).To(Equal(1))
		Expect(t.Current.Line).To(BeZero())
	})

	It("clones without aliasing the stack", func() {
		t.Call("Room1", "Intro")
		clone := t.Clone()
		Expect(clone.Equal(t)).To(BeTrue())

		t.Return()
		Expect(clone.Depth()).To(Equal(1))
		Expect(clone.Equal(t)).To(BeFalse())
	})

	It("treats nil and empty stacks as equal", func() {
		a := &position.Tracker{Current: t.Current}
		b := &position.Tracker{Current: t.Current, Stack: []position.Position{}}
		Expect(a.Equal(b)).To(BeTrue())
	})

	It("detects past-end positions", func() {
		Expect(position.Position{Line: 3}.PastEnd(3)).To(BeTrue())
		Expect(position.Position{Line: 2}.PastEnd(3)).To(BeFalse())
	})
})
