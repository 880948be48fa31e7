package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/kataru/pkg/bookmark"
	"github.com/papercomputeco/kataru/pkg/dotdir"
	"github.com/papercomputeco/kataru/pkg/value"
)

var _ = Describe("save slots", func() {
	var (
		tmpDir string
		m      *dotdir.Manager
		b      *bookmark.Bookmark
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-slots-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { os.RemoveAll(tmpDir) })

		m = dotdir.NewManager()
		b = &bookmark.Bookmark{
			Namespace: "town",
			Passage:   "Square",
			Line:      2,
			State: map[string]map[string]value.Value{
				"": {"coins": value.Number(3)},
			},
		}
	})

	Describe("SlotPath", func() {
		It("places slots under saves/", func() {
			path, err := m.SlotPath("one", tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(tmpDir, "saves", "one.yml")))
		})

		It("rejects empty and path-like names", func() {
			for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
				_, err := m.SlotPath(name, tmpDir)
				Expect(err).To(HaveOccurred(), name)
			}
		})
	})

	Describe("SaveSlot", func() {
		It("persists the bookmark to disk", func() {
			Expect(m.SaveSlot(b, dotdir.DefaultSlot, tmpDir)).To(Succeed())
			Expect(filepath.Join(tmpDir, "saves", "autosave.yml")).To(BeARegularFile())
		})

		It("returns error for nil bookmark", func() {
			Expect(m.SaveSlot(nil, "one", tmpDir)).To(MatchError(ContainSubstring("nil bookmark")))
		})

		It("overwrites an existing slot", func() {
			Expect(m.SaveSlot(b, "one", tmpDir)).To(Succeed())
			b.Passage = "Gate"
			Expect(m.SaveSlot(b, "one", tmpDir)).To(Succeed())

			loaded, err := m.LoadSlot("one", tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Passage).To(Equal("Gate"))
		})
	})

	Describe("LoadSlot", func() {
		It("returns nil for an empty slot", func() {
			loaded, err := m.LoadSlot("missing", tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeNil())
		})

		It("saves and loads a bookmark correctly", func() {
			Expect(m.SaveSlot(b, "one", tmpDir)).To(Succeed())

			loaded, err := m.LoadSlot("one", tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Equal(b)).To(BeTrue())
		})

		It("reports malformed slot files", func() {
			path, err := m.SlotPath("bad", tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
			Expect(os.WriteFile(path, []byte("line: -4\n"), 0o644)).To(Succeed())

			_, err = m.LoadSlot("bad", tmpDir)
			Expect(err).To(MatchError(ContainSubstring("loading slot bad")))
		})
	})

	Describe("ClearSlot", func() {
		It("removes the slot file", func() {
			Expect(m.SaveSlot(b, "one", tmpDir)).To(Succeed())
			Expect(m.ClearSlot("one", tmpDir)).To(Succeed())

			loaded, err := m.LoadSlot("one", tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeNil())
		})

		It("succeeds when no slot exists", func() {
			Expect(m.ClearSlot("one", tmpDir)).To(Succeed())
		})
	})

	Describe("Slots", func() {
		It("is empty before anything is saved", func() {
			names, err := m.Slots(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(BeEmpty())
		})

		It("lists saved slots sorted", func() {
			Expect(m.SaveSlot(b, "zeta", tmpDir)).To(Succeed())
			Expect(m.SaveSlot(b, "alpha", tmpDir)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(tmpDir, "saves", "notes.txt"), []byte("x"), 0o644)).To(Succeed())

			names, err := m.Slots(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{"alpha", "zeta"}))
		})
	})
})
