package settings_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/kataru/cmd/kataru/settings"
	"github.com/papercomputeco/kataru/pkg/config"
)

var _ = Describe("settings", func() {
	var (
		dir string
		cmd *cobra.Command
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		cmd = &cobra.Command{Use: "test"}
		cmd.Flags().String("config-dir", dir, "")
		var story string
		var debug bool
		config.AddStringFlag(cmd, config.KataruFlags, config.FlagStory, &story)
		config.AddBoolFlag(cmd, config.KataruFlags, config.FlagDebug, &debug)
	})

	It("layers flags over the config file", func() {
		data := "[story]\npath = \"from-file\"\n\n[log]\npretty = false\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := settings.Load(cmd, config.FlagStory)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("story.path")).To(Equal("from-file"))

		Expect(cmd.Flags().Set("story", "from-flag")).To(Succeed())
		v, err = settings.Load(cmd, config.FlagStory)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("story.path")).To(Equal("from-flag"))
	})

	It("builds a logger honoring log.debug", func() {
		Expect(cmd.Flags().Set("debug", "true")).To(Succeed())
		v, err := settings.Load(cmd)
		Expect(err).NotTo(HaveOccurred())
		v.Set("log.pretty", false)

		var buf bytes.Buffer
		settings.Logger(v, &buf).Debug("hello")
		Expect(buf.String()).To(ContainSubstring("hello"))
	})
})
