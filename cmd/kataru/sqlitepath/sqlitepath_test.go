package sqlitepath

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveSQLitePath", func() {
	var homeDir, cwd string

	BeforeEach(func() {
		var err error
		homeDir, err = os.MkdirTemp("", "kataru-home-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = os.RemoveAll(homeDir) })

		cwd, err = os.MkdirTemp("", "kataru-cwd-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = os.RemoveAll(cwd) })

		// Resolve symlinks so paths match os.Getwd results.
		cwd, err = filepath.EvalSymlinks(cwd)
		Expect(err).NotTo(HaveOccurred())

		origCwd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(cwd)).To(Succeed())
		DeferCleanup(func() { _ = os.Chdir(origCwd) })

		GinkgoT().Setenv("HOME", homeDir)
		GinkgoT().Setenv("XDG_DATA_HOME", "")
		GinkgoT().Setenv("KATARU_SQLITE", "")
		GinkgoT().Setenv("KATARU_DB", "")
	})

	It("returns the override first", func() {
		GinkgoT().Setenv("KATARU_SQLITE", "/tmp/env.db")

		path, err := ResolveSQLitePath("/tmp/flag.db")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/flag.db"))
	})

	It("prefers KATARU_SQLITE over KATARU_DB", func() {
		GinkgoT().Setenv("KATARU_SQLITE", "/tmp/custom.db")
		GinkgoT().Setenv("KATARU_DB", "/tmp/other.db")

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.db"))
	})

	It("uses KATARU_DB when KATARU_SQLITE is unset", func() {
		GinkgoT().Setenv("KATARU_DB", "/tmp/other.db")

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/other.db"))
	})

	It("resolves a local .kataru/snapshots.db before the home one", func() {
		local := filepath.Join(".kataru", "snapshots.db")
		Expect(os.MkdirAll(".kataru", 0o755)).To(Succeed())
		Expect(os.WriteFile(local, []byte("test"), 0o644)).To(Succeed())

		home := filepath.Join(homeDir, ".kataru", "snapshots.db")
		Expect(os.MkdirAll(filepath.Dir(home), 0o755)).To(Succeed())
		Expect(os.WriteFile(home, []byte("test"), 0o644)).To(Succeed())

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(local))
	})

	It("resolves ~/.kataru/snapshots.db when present", func() {
		dbPath := filepath.Join(homeDir, ".kataru", "snapshots.db")
		Expect(os.MkdirAll(filepath.Dir(dbPath), 0o755)).To(Succeed())
		Expect(os.WriteFile(dbPath, []byte("test"), 0o644)).To(Succeed())

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(dbPath))
	})

	It("fails when nothing exists", func() {
		_, err := ResolveSQLitePath("")
		Expect(err).To(MatchError(ErrNotFound))
	})

	Describe("ResolveOrDefault", func() {
		It("falls back to snapshots.db in the config dir", func() {
			dir := filepath.Join(cwd, "conf")

			path, err := ResolveOrDefault("", dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(dir, "snapshots.db")))
		})
	})
})
