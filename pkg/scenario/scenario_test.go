package scenario_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/kataru/pkg/scenario"
	"github.com/papercomputeco/kataru/pkg/session"
	"github.com/papercomputeco/kataru/pkg/story"
	"github.com/papercomputeco/kataru/pkg/value"
)

const doc = `
start: Room1:Start
namespaces:
  Room1:
    state:
      var: false
    passages:
      Start:
        - command:
            name: give
            params:
              amount: 1.0
        - choices:
            timeout: 5
            options:
              - {caption: "Yes", target: Agree}
              - {caption: "No", target: Refuse}
      Agree:
        - Alice: Thanks <b>friend</b>
        - end
      Refuse:
        - end
`

var _ = Describe("Run", func() {
	var (
		s   *session.Session
		ctx context.Context
		cfg scenario.Config
	)

	BeforeEach(func() {
		st, err := story.Parse([]byte(doc))
		Expect(err).NotTo(HaveOccurred())
		s, err = session.New(st, nil, true)
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		cfg = scenario.Config{MaxAdvances: 100, Snapshot: "scenario"}
	})

	It("drives the session and checks expectations", func() {
		res, err := scenario.RunString(ctx, s, "play", `
local c = kataru.next()
kataru.expect(c.tag == "command", "command first")
kataru.expect(c.name == "give" and c.params.amount == 1, "gives one")

kataru.set("var", true)
kataru.expect(kataru.get("var") == true, "var is set")

local ch = kataru.next()
kataru.expect(ch.tag == "choices" and #ch.captions == 2 and ch.timeout == 5, "two choices")
kataru.snapshot()

local lines = kataru.run("Yes")
kataru.expect(#lines == 2, "dialogue then end")
kataru.expect(lines[1].text == "Thanks friend", "markup stripped")
kataru.expect(lines[1].attributes.b[2] == 13, "span closes after friend")

kataru.restore()
local ns, passage, line = kataru.line()
kataru.expect(ns == "Room1" and passage == "Start" and line == 1, "restored")

kataru.go("Refuse")
kataru.expect(kataru.next().tag == "end", "refused")
`, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Failures).To(BeEmpty())
		Expect(res.Passed()).To(BeTrue())
		Expect(res.Expectations).To(Equal(9))
		Expect(res.Advances).To(Equal(5))

		v, err := s.Get("var")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Equal(value.Bool(true))).To(BeTrue())
	})

	It("records failed expectations", func() {
		res, err := scenario.RunString(ctx, s, "failing", `
kataru.expect(false, "nope")
kataru.expect(true)
`, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Passed()).To(BeFalse())
		Expect(res.Failures).To(HaveLen(1))
		Expect(res.Failures[0]).To(ContainSubstring("nope"))
		Expect(res.Expectations).To(Equal(2))
	})

	It("stops at the first failure when fail fast", func() {
		cfg.FailFast = true
		res, err := scenario.RunString(ctx, s, "failing", `
kataru.expect(false, "first")
kataru.expect(false, "second")
`, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Failures).To(HaveLen(1))
	})

	It("surfaces session errors as script errors", func() {
		_, err := scenario.RunString(ctx, s, "bad", `kataru.get("nonexistent")`, cfg)
		Expect(err).To(MatchError(ContainSubstring("nonexistent")))
	})

	It("caps the number of advances", func() {
		cfg.MaxAdvances = 3
		_, err := scenario.RunString(ctx, s, "loop", `for i = 1, 10 do kataru.next() end`, cfg)
		Expect(err).To(MatchError(ContainSubstring("exceeded 3 advances")))
	})

	It("stops when the context is canceled", func() {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := scenario.RunString(canceled, s, "canceled", `kataru.next()`, cfg)
		Expect(err).To(MatchError(ContainSubstring("context canceled")))
	})

	It("runs script files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "play.lua")
		Expect(os.WriteFile(path, []byte(`kataru.expect(kataru.next().tag == "command")`), 0o644)).To(Succeed())

		res, err := scenario.Run(ctx, s, path, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Passed()).To(BeTrue())
		Expect(res.Name).To(Equal(path))
	})

	It("reports syntax errors", func() {
		_, err := scenario.RunString(ctx, s, "broken", `kataru.next(`, cfg)
		Expect(err).To(MatchError(ContainSubstring("load lua")))
	})
})

var _ = Describe("ConfigFromEnv", func() {
	It("applies defaults", func() {
		cfg, err := scenario.ConfigFromEnv()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.MaxAdvances).To(Equal(1000))
		Expect(cfg.Snapshot).To(Equal("scenario"))
		Expect(cfg.FailFast).To(BeFalse())
	})

	It("reads overrides", func() {
		GinkgoT().Setenv("KATARU_SCENARIO_MAX_ADVANCES", "7")
		GinkgoT().Setenv("KATARU_SCENARIO_FAIL_FAST", "true")
		cfg, err := scenario.ConfigFromEnv()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.MaxAdvances).To(Equal(7))
		Expect(cfg.FailFast).To(BeTrue())
	})

	It("rejects malformed values", func() {
		GinkgoT().Setenv("KATARU_SCENARIO_MAX_ADVANCES", "many")
		_, err := scenario.ConfigFromEnv()
		Expect(err).To(HaveOccurred())
	})
})
