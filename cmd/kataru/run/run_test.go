package runcmder_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	runcmder "github.com/papercomputeco/kataru/cmd/kataru/run"
	"github.com/papercomputeco/kataru/pkg/bookmark"
	"github.com/papercomputeco/kataru/pkg/dotdir"
	"github.com/papercomputeco/kataru/pkg/storage/sqlite"
)

const tale = `start: Gate
namespaces:
  global:
    state:
      gold: 0
    passages:
      Gate:
        - Guard: Halt!
        - choices:
            default: Wait
            options:
              - {caption: "Pay", target: Pay}
              - {caption: "Wait", target: Wait}
      Pay:
        - set: [{var: gold, op: "+=", value: 5}]
        - command:
            name: coin
        - Guard: Go on.
        - end
      Wait:
        - Guard: Still here?
        - goto: Gate
`

var _ = Describe("run command", func() {
	var (
		dir       string
		configDir string
		storyPath string
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		configDir = filepath.Join(dir, ".kataru")
		storyPath = filepath.Join(dir, "tale.yml")
		Expect(os.WriteFile(storyPath, []byte(tale), 0o644)).To(Succeed())
	})

	run := func(input string, args ...string) (string, error) {
		cmd := runcmder.NewRunCmd()
		cmd.Flags().String("config-dir", configDir, "")
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetIn(strings.NewReader(input))
		cmd.SetArgs(append([]string{"--story", storyPath}, args...))
		err := cmd.Execute()
		return out.String(), err
	}

	slot := func(name string) *bookmark.Bookmark {
		GinkgoHelper()
		b, err := dotdir.NewManager().LoadSlot(name, configDir)
		Expect(err).NotTo(HaveOccurred())
		return b
	}

	It("plays to the end and clears the save slot", func() {
		out, err := run("1\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Halt!"))
		Expect(out).To(ContainSubstring("1) Pay"))
		Expect(out).To(ContainSubstring("[coin ]"))
		Expect(out).To(ContainSubstring("Go on."))
		Expect(out).To(ContainSubstring("(end)"))
		Expect(slot("autosave")).To(BeNil())
	})

	It("saves the slot when input runs out and resumes from it", func() {
		out, err := run("Wait\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Still here?"))

		saved := slot("autosave")
		Expect(saved).NotTo(BeNil())
		Expect(saved.Passage).To(Equal("Gate"))

		out, err = run("Pay\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Go on."))
	})

	It("takes the default on an empty answer", func() {
		out, err := run("\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Still here?"))
	})

	It("re-prompts after an invalid choice", func() {
		out, err := run("Dance\n2\n:quit\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("invalid choice"))
		Expect(out).To(ContainSubstring("Still here?"))
	})

	It("uses a named slot", func() {
		_, err := run(":quit\n", "--slot", "two")
		Expect(err).NotTo(HaveOccurred())
		Expect(slot("two")).NotTo(BeNil())
		Expect(slot("autosave")).To(BeNil())
	})

	It("writes an explicit bookmark file", func() {
		path := filepath.Join(dir, "save.yml")
		_, err := run(":quit\n", "--bookmark", path)
		Expect(err).NotTo(HaveOccurred())

		b, err := bookmark.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Passage).To(Equal("Gate"))
		Expect(b.Line).To(Equal(1))
	})

	It("starts over with --new", func() {
		_, err := run("2\n")
		Expect(err).NotTo(HaveOccurred())

		out, err := run(":quit\n", "--new")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Halt!"))
	})

	Describe("session commands", func() {
		It("reads variables and jumps", func() {
			out, err := run(":get gold\n:goto Pay\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("gold = Number(0)"))
			Expect(out).To(ContainSubstring("Go on."))
		})

		It("saves snapshots to the archive and loads them back", func() {
			db := filepath.Join(dir, "snaps.db")
			out, err := run(":save gate\n:snapshots\n1\n", "--sqlite", db)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("saved gate"))

			driver, err := sqlite.NewSQLiteDriver(db)
			Expect(err).NotTo(HaveOccurred())
			rec, err := driver.Get(context.Background(), "gate")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.State.Passage).To(Equal("Gate"))
			Expect(driver.Close()).To(Succeed())

			out, err = run(":load gate\n:get gold\n:quit\n", "--sqlite", db, "--new")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("loaded gate"))
			Expect(out).To(ContainSubstring("gold = Number(0)"))
		})

		It("reports bad commands and keeps going", func() {
			out, err := run(":dance\n:goto Nowhere\n:get\n:quit\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("unknown command :dance"))
			Expect(out).To(ContainSubstring(`unknown passage "Nowhere"`))
			Expect(out).To(ContainSubstring("usage"))
		})
	})

	It("fails on a missing story", func() {
		Expect(os.Remove(storyPath)).To(Succeed())
		_, err := run("")
		Expect(err).To(MatchError(ContainSubstring("loading story")))
	})
})
