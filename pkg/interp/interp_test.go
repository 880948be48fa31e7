package interp_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	kerrors "github.com/papercomputeco/kataru/pkg/errors"
	"github.com/papercomputeco/kataru/pkg/interp"
	"github.com/papercomputeco/kataru/pkg/line"
	"github.com/papercomputeco/kataru/pkg/position"
	"github.com/papercomputeco/kataru/pkg/scope"
	"github.com/papercomputeco/kataru/pkg/story"
	"github.com/papercomputeco/kataru/pkg/value"
)

const doc = `
namespaces:
  global:
    state:
      coins: 0
      name: Alice
    commands:
      wait:
        duration: 1
    passages:
      Shop:
        - Shopkeep: Welcome ${name}!
        - set:
            - {var: coins, op: "+=", value: 2}
        - return
  Room1:
    state:
      agreed: false
      coins: 10
    commands:
      give:
        amount: 0
        item: coin
    passages:
      Start:
        - Alice: Hello <b>there</b><pause/> friend
        - command:
            name: give
            params:
              amount: 1.0
              note: $agreed
        - command: {name: wait}
        - choices:
            timeout: 5
            default: Timeout
            options:
              - {caption: "Yes", target: Agree}
              - {caption: "No", target: Refuse}
              - {caption: "Rich", target: Agree, if: "coins > 100"}
      Agree:
        - set:
            - {var: agreed, value: true}
        - branch: {if: "agreed", then: Shop}
        - Narration after the shop.
        - end
      Refuse:
        - goto: Agree
      Timeout:
        - return
      Broken:
        - goto: Nowhere
      Loop:
        - goto: Loop
`

var _ = Describe("Machine", func() {
	var (
		m  *interp.Machine
		st *interp.State
	)

	BeforeEach(func() {
		s, err := story.Parse([]byte(doc))
		Expect(err).NotTo(HaveOccurred())
		m = interp.New(interp.WithMaxSteps(100))
		st = &interp.State{
			Story:   s,
			Tracker: position.New(position.Position{Namespace: "Room1", Passage: "Start"}),
			Scope:   scope.FromStory(s),
		}
	})

	advance := func(input string) line.Line {
		GinkgoHelper()
		l, err := m.Advance(st, input)
		Expect(err).NotTo(HaveOccurred())
		return l
	}

	It("fails without state", func() {
		_, err := m.Advance(nil, "")
		Expect(errors.Is(err, kerrors.ErrNotInitialized)).To(BeTrue())
	})

	It("yields dialogue with markup stripped into attributes", func() {
		d, ok := advance("").(line.Dialogue)
		Expect(ok).To(BeTrue())
		Expect(d.Speaker).To(Equal("Alice"))
		Expect(d.Text).To(Equal("Hello there friend"))
		Expect(d.Attributes).To(Equal([]line.Attribute{
			{Name: "b", Positions: []int{6, 11}},
			{Name: "pause", Positions: []int{11}},
		}))
		Expect(st.Tracker.Current.Line).To(Equal(1))
	})

	It("keeps markup in interpolated values as text and shifts attributes past them", func() {
		Expect(st.Scope.Set("Room1", "name", value.String("<i>Bob</i>"))).To(Succeed())
		st.Story.Namespaces["Room1"].Passages["Greet"] = story.Passage{
			{Dialogue: &story.Dialogue{Speaker: "Alice", Text: "<b>${name}</b> waves<wave/>"}},
		}
		st.Tracker.Goto("Room1", "Greet")

		d, ok := advance("").(line.Dialogue)
		Expect(ok).To(BeTrue())
		Expect(d.Text).To(Equal("<i>Bob</i> waves"))
		Expect(d.Attributes).To(Equal([]line.Attribute{
			{Name: "b", Positions: []int{0, 10}},
			{Name: "wave", Positions: []int{16}},
		}))
	})

	It("merges declared command params with given ones", func() {
		advance("")
		c, ok := advance("").(line.Command)
		Expect(ok).To(BeTrue())
		Expect(c.Name).To(Equal("give"))
		Expect(c.Params).To(HaveLen(3))
		Expect(c.Params[0].Name).To(Equal("amount"))
		Expect(c.Params[0].Value.Equal(value.Number(1))).To(BeTrue())
		Expect(c.Params[1].Name).To(Equal("item"))
		Expect(c.Params[1].Value.Equal(value.String("coin"))).To(BeTrue())
		Expect(c.Params[2].Name).To(Equal("note"))
		Expect(c.Params[2].Value.Equal(value.Bool(false))).To(BeTrue())

		w, ok := advance("").(line.Command)
		Expect(ok).To(BeTrue())
		Expect(w.Params).To(HaveLen(1))
		Expect(w.Params[0].Value.Equal(value.Number(1))).To(BeTrue())
	})

	Describe("choices", func() {
		BeforeEach(func() {
			st.Tracker.SetLine(3)
		})

		It("presents visible captions in order and holds position", func() {
			c, ok := advance("").(line.Choices)
			Expect(ok).To(BeTrue())
			Expect(c.Captions).To(Equal([]string{"Yes", "No"}))
			Expect(c.Timeout).To(Equal(5.0))
			Expect(st.Tracker.Current.Line).To(Equal(3))
			Expect(m.Pending()).To(BeTrue())
		})

		It("reports invalid input without moving", func() {
			advance("")
			l := advance("Maybe")
			Expect(l).To(Equal(line.InvalidChoice{Input: "Maybe"}))
			Expect(st.Tracker.Current.Line).To(Equal(3))
			Expect(m.Pending()).To(BeTrue())
		})

		It("follows the chosen target and keeps running", func() {
			advance("")
			d, ok := advance("Yes").(line.Dialogue)
			Expect(ok).To(BeTrue())
			Expect(d.Text).To(Equal("Welcome Alice!"))
			Expect(st.Tracker.Current.Passage).To(Equal("Shop"))
			Expect(st.Tracker.Depth()).To(Equal(1))

			v, err := st.Scope.Get("Room1", "agreed")
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Equal(value.Bool(true))).To(BeTrue())
		})

		It("takes the default target on empty input", func() {
			advance("")
			Expect(advance("")).To(Equal(line.End{}))
			Expect(st.Tracker.Current.Passage).To(Equal("Timeout"))
		})

		It("forgets presented choices on Reset", func() {
			advance("")
			m.Reset()
			_, ok := advance("Yes").(line.Choices)
			Expect(ok).To(BeTrue())
		})

		It("resumes presented choices from a checkpoint", func() {
			advance("")
			saved := m.Checkpoint()
			Expect(saved.Pending()).To(BeTrue())
			Expect(saved.At).To(Equal(st.Tracker.Current))

			m.Reset()
			Expect(m.Checkpoint().Pending()).To(BeFalse())
			m.Resume(saved)
			Expect(advance("")).To(Equal(line.End{}))
			Expect(st.Tracker.Current.Passage).To(Equal("Timeout"))
		})

		It("hides guarded options until the guard holds", func() {
			Expect(st.Scope.Set("Room1", "coins", value.Number(500))).To(Succeed())
			c, _ := advance("").(line.Choices)
			Expect(c.Captions).To(Equal([]string{"Yes", "No", "Rich"}))
		})
	})

	It("returns from a call with the callee's namespace scoping", func() {
		st.Tracker.Goto("Room1", "Agree")
		advance("")
		d, ok := advance("").(line.Dialogue)
		Expect(ok).To(BeTrue())
		Expect(d.Text).To(Equal("Narration after the shop."))
		Expect(st.Tracker.Depth()).To(BeZero())

		local, _ := st.Scope.Get("Room1", "coins")
		global, _ := st.Scope.Get("Room1", "global:coins")
		Expect(local.Equal(value.Number(10))).To(BeTrue())
		Expect(global.Equal(value.Number(2))).To(BeTrue())

		Expect(advance("")).To(Equal(line.End{}))
		Expect(advance("")).To(Equal(line.End{}))
	})

	It("ends past the last line with an empty stack", func() {
		st.Tracker.Goto("Room1", "Timeout")
		Expect(advance("")).To(Equal(line.End{}))
		Expect(st.Tracker.Current.Line).To(Equal(1))
	})

	It("wraps unknown targets as navigation errors", func() {
		st.Tracker.Goto("Room1", "Broken")
		_, err := m.Advance(st, "")
		Expect(errors.Is(err, kerrors.ErrNavigation)).To(BeTrue())
		Expect(errors.Is(err, kerrors.ErrUnknownPassage)).To(BeTrue())
	})

	It("gives up on silent loops", func() {
		st.Tracker.Goto("Room1", "Loop")
		_, err := m.Advance(st, "")
		Expect(kerrors.CodeOf(err)).To(Equal(kerrors.CodeNavigation))
	})
})
