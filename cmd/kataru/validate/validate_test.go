package validatecmder_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	validatecmder "github.com/papercomputeco/kataru/cmd/kataru/validate"
)

const good = `start: Main
namespaces:
  global:
    passages:
      Main:
        - Alice: hi
        - end
`

const bad = `start: Main
namespaces:
  global:
    passages:
      Main:
        - goto: Nowhere
        - set: [{var: ghost, value: 1}]
`

var _ = Describe("validate command", func() {
	var (
		dir  string
		path string
		out  *bytes.Buffer
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		path = filepath.Join(dir, "story.yml")
		out = &bytes.Buffer{}
	})

	runTo := func(ctx context.Context, w io.Writer, args ...string) error {
		cmd := validatecmder.NewValidateCmd()
		cmd.Flags().String("config-dir", filepath.Join(dir, ".kataru"), "")
		cmd.SetOut(w)
		cmd.SetErr(w)
		cmd.SetArgs(append([]string{"--story", path}, args...))
		return cmd.ExecuteContext(ctx)
	}

	run := func(ctx context.Context, args ...string) error {
		return runTo(ctx, out, args...)
	}

	It("reports a valid story", func() {
		Expect(os.WriteFile(path, []byte(good), 0o644)).To(Succeed())

		Expect(run(context.Background())).To(Succeed())
		Expect(out.String()).To(ContainSubstring("1 namespace(s), 1 passage(s)"))
	})

	It("lists every issue of an invalid story", func() {
		Expect(os.WriteFile(path, []byte(bad), 0o644)).To(Succeed())

		err := run(context.Background())
		Expect(err).To(MatchError(validatecmder.ErrInvalid))
		Expect(out.String()).To(ContainSubstring("2 issue(s)"))
		Expect(out.String()).To(ContainSubstring(`passage "Nowhere" not found`))
		Expect(out.String()).To(ContainSubstring(`variable "ghost" is not declared`))
	})

	It("fails on a missing story", func() {
		err := run(context.Background())
		Expect(err).To(MatchError(ContainSubstring("loading story")))
	})

	It("re-validates on change when watching", func() {
		Expect(os.WriteFile(path, []byte(bad), 0o644)).To(Succeed())

		buf := gbytes.NewBuffer()
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- runTo(ctx, buf, "--watch")
		}()

		Eventually(buf).Should(gbytes.Say(`2 issue\(s\)`))
		Eventually(buf).Should(gbytes.Say("watching story"))
		time.Sleep(200 * time.Millisecond)
		Expect(os.WriteFile(path, []byte(good), 0o644)).To(Succeed())
		Eventually(buf, 5*time.Second).Should(gbytes.Say(`1 passage\(s\)`))

		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
	})
})
