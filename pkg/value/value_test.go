package value_test

import (
	"encoding/json"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/papercomputeco/kataru/pkg/value"
)

var _ = Describe("Value", func() {
	Describe("accessors", func() {
		It("returns the payload for the matching kind", func() {
			n, ok := value.Number(1.5).AsNumber()
			Expect(ok).To(BeTrue())
			Expect(n).To(Equal(1.5))
		})

		It("returns the zero payload for the wrong kind", func() {
			s, ok := value.Number(1.5).AsString()
			Expect(ok).To(BeFalse())
			Expect(s).To(BeEmpty())

			b, ok := value.String("true").AsBool()
			Expect(ok).To(BeFalse())
			Expect(b).To(BeFalse())
		})

		It("treats the zero value as None", func() {
			var v value.Value
			Expect(v.IsNone()).To(BeTrue())
			Expect(v.Kind()).To(Equal(value.KindNone))
		})
	})

	Describe("Equal", func() {
		It("compares by kind and payload", func() {
			Expect(value.Number(1).Equal(value.Number(1))).To(BeTrue())
			Expect(value.Number(1).Equal(value.String("1"))).To(BeFalse())
			Expect(value.Bool(false).Equal(value.None())).To(BeFalse())
			Expect(value.None().Equal(value.None())).To(BeTrue())
		})

		It("is reflexive for NaN", func() {
			nan := value.Number(math.NaN())
			Expect(nan.Equal(nan)).To(BeTrue())
		})
	})

	Describe("Parse", func() {
		DescribeTable("infers the kind from text",
			func(text string, expected value.Value) {
				Expect(value.Parse(text).Equal(expected)).To(BeTrue())
			},
			Entry("bool", "true", value.Bool(true)),
			Entry("number", "2.5", value.Number(2.5)),
			Entry("none", "~", value.None()),
			Entry("string", "hello", value.String("hello")),
			Entry("infinity stays text", "inf", value.String("inf")),
			Entry("spelled infinity stays text", "-Infinity", value.String("-Infinity")),
			Entry("nan stays text", "NaN", value.String("NaN")),
			Entry("overflow stays text", "1e400", value.String("1e400")),
		)

		It("always yields JSON-encodable values", func() {
			for _, text := range []string{"inf", "nan", "+Inf", "1e400", "3"} {
				_, err := json.Marshal(value.Parse(text))
				Expect(err).NotTo(HaveOccurred(), text)
			}
		})
	})

	Describe("Text", func() {
		It("renders numbers without trailing zeros", func() {
			Expect(value.Number(3).Text()).To(Equal("3"))
			Expect(value.Number(0.25).Text()).To(Equal("0.25"))
		})
	})

	Describe("YAML codec", func() {
		It("decodes scalars by tag", func() {
			var state map[string]value.Value
			err := yaml.Unmarshal([]byte("a: 1\nb: true\nc: \"true\"\nd: ~\ne: hi\n"), &state)
			Expect(err).NotTo(HaveOccurred())
			Expect(state["a"].Equal(value.Number(1))).To(BeTrue())
			Expect(state["b"].Equal(value.Bool(true))).To(BeTrue())
			Expect(state["c"].Equal(value.String("true"))).To(BeTrue())
			Expect(state["d"].IsNone()).To(BeTrue())
			Expect(state["e"].Equal(value.String("hi"))).To(BeTrue())
		})

		It("rejects collections", func() {
			var v value.Value
			err := yaml.Unmarshal([]byte("[1, 2]"), &v)
			Expect(err).To(HaveOccurred())
		})

		It("keeps string payloads that look like other kinds", func() {
			out, err := yaml.Marshal(map[string]value.Value{"s": value.String("false")})
			Expect(err).NotTo(HaveOccurred())

			var back map[string]value.Value
			Expect(yaml.Unmarshal(out, &back)).To(Succeed())
			Expect(back["s"].Equal(value.String("false"))).To(BeTrue())
		})
	})

	Describe("JSON codec", func() {
		It("encodes bare scalars", func() {
			data, err := json.Marshal([]value.Value{value.None(), value.Number(1), value.Bool(true), value.String("x")})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(`[null,1,true,"x"]`))
		})

		It("decodes bare scalars", func() {
			var vs []value.Value
			Expect(json.Unmarshal([]byte(`[null,1,true,"x"]`), &vs)).To(Succeed())
			Expect(vs[1].Equal(value.Number(1))).To(BeTrue())
			Expect(vs[2].Equal(value.Bool(true))).To(BeTrue())
		})
	})
})
