package errors_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	kerrors "github.com/papercomputeco/kataru/pkg/errors"
)

var _ = Describe("Error", func() {
	It("matches sentinels by code", func() {
		err := kerrors.UnknownVariable("coins")
		Expect(errors.Is(err, kerrors.ErrUnknownVariable)).To(BeTrue())
		Expect(errors.Is(err, kerrors.ErrUnknownPassage)).To(BeFalse())
	})

	It("matches through fmt wrapping", func() {
		err := fmt.Errorf("setting state: %w", kerrors.UnknownVariable("coins"))
		Expect(errors.Is(err, kerrors.ErrUnknownVariable)).To(BeTrue())
		Expect(kerrors.CodeOf(err)).To(Equal(kerrors.CodeUnknownVariable))
	})

	It("includes the key and cause in the message", func() {
		cause := errors.New("permission denied")
		err := kerrors.Wrap(kerrors.CodePersistence, "saving bookmark", "/tmp/save.yml", cause)
		Expect(err.Error()).To(Equal(`saving bookmark "/tmp/save.yml": permission denied`))
		Expect(errors.Is(err, cause)).To(BeTrue())
	})

	Describe("CodeOf", func() {
		It("returns empty for nil", func() {
			Expect(kerrors.CodeOf(nil)).To(BeEmpty())
		})

		It("returns unknown for foreign errors", func() {
			Expect(kerrors.CodeOf(errors.New("boom"))).To(Equal(kerrors.CodeUnknown))
		})
	})
})
