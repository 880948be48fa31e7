package line_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/kataru/pkg/line"
	"github.com/papercomputeco/kataru/pkg/value"
)

var _ = Describe("accessors", func() {
	choices := line.Choices{Captions: []string{"Yes", "No"}, Timeout: 5}
	dialogue := line.Dialogue{Speaker: "Alice", Text: "Hi", Attributes: []line.Attribute{{Name: "b", Positions: []int{0, 2}}}}
	command := line.Command{Name: "give", Params: []line.Param{{Name: "amount", Value: value.Number(1)}}}

	It("reads Choices in original order", func() {
		captions, ok := line.Captions(choices)
		Expect(ok).To(BeTrue())
		Expect(captions).To(Equal([]string{"Yes", "No"}))

		timeout, ok := line.Timeout(choices)
		Expect(ok).To(BeTrue())
		Expect(timeout).To(Equal(5.0))
	})

	It("reports not-applicable for the wrong variant", func() {
		captions, ok := line.Captions(dialogue)
		Expect(ok).To(BeFalse())
		Expect(captions).To(BeEmpty())

		_, ok = line.Speaker(command)
		Expect(ok).To(BeFalse())

		_, ok = line.Params(line.End{})
		Expect(ok).To(BeFalse())
	})

	It("collapses to zero values with Or", func() {
		Expect(line.Or(line.Captions(dialogue))).To(BeEmpty())
		Expect(line.Or(line.Timeout(dialogue))).To(BeZero())
		Expect(line.Or(line.CommandName(nil))).To(BeEmpty())
		Expect(line.Or(line.Speaker(dialogue))).To(Equal("Alice"))
	})

	It("reads command params in order", func() {
		name, _ := line.CommandName(command)
		params, _ := line.Params(command)
		Expect(name).To(Equal("give"))
		Expect(params).To(HaveLen(1))
		Expect(params[0].Name).To(Equal("amount"))
		Expect(params[0].Value.Equal(value.Number(1))).To(BeTrue())
	})
})

var _ = Describe("TagOf", func() {
	It("returns none for nil", func() {
		Expect(line.TagOf(nil)).To(Equal(line.TagNone))
	})

	It("returns the variant tag", func() {
		Expect(line.TagOf(line.End{})).To(Equal(line.TagEnd))
		Expect(line.TagOf(line.InvalidChoice{Input: "x"})).To(Equal(line.TagInvalidChoice))
		Expect(line.TagEnd.String()).To(Equal("end"))
	})
})

var _ = Describe("Clone", func() {
	It("does not share slices", func() {
		orig := line.Dialogue{Text: "Hi", Attributes: []line.Attribute{{Name: "b", Positions: []int{0, 2}}}}
		clone := line.Clone(orig).(line.Dialogue)
		clone.Attributes[0].Positions[0] = 9
		Expect(orig.Attributes[0].Positions[0]).To(Equal(0))
	})
})
