package katarucmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	katarucmder "github.com/papercomputeco/kataru/cmd/kataru"
)

var _ = Describe("NewKataruCmd", func() {
	It("registers every subcommand", func() {
		cmd := katarucmder.NewKataruCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("init", "config", "validate", "run", "script", "status", "snapshot", "serve", "version"))
	})

	It("registers the global flags", func() {
		cmd := katarucmder.NewKataruCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("json")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("passes --config-dir through to subcommands", func() {
		dir := GinkgoT().TempDir()
		configDir := filepath.Join(dir, ".kataru")
		storyPath := filepath.Join(dir, "tale.yml")
		Expect(os.WriteFile(storyPath, []byte(`start: Gate
namespaces:
  global:
    passages:
      Gate:
        - Guard: Halt!
        - end
`), 0o644)).To(Succeed())

		cmd := katarucmder.NewKataruCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetIn(&bytes.Buffer{})
		cmd.SetArgs([]string{"--config-dir", configDir, "validate", "--story", storyPath})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("1 namespace(s), 1 passage(s)"))
	})
})
