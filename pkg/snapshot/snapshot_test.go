package snapshot_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	kerrors "github.com/papercomputeco/kataru/pkg/errors"
	"github.com/papercomputeco/kataru/pkg/interp"
	"github.com/papercomputeco/kataru/pkg/line"
	"github.com/papercomputeco/kataru/pkg/position"
	"github.com/papercomputeco/kataru/pkg/scope"
	"github.com/papercomputeco/kataru/pkg/snapshot"
	"github.com/papercomputeco/kataru/pkg/story"
	"github.com/papercomputeco/kataru/pkg/value"
)

var _ = Describe("Store", func() {
	var (
		store *snapshot.Store
		tr    *position.Tracker
		sc    *scope.Store
	)

	BeforeEach(func() {
		store = snapshot.NewStore()
		tr = position.New(position.Position{Namespace: "Room1", Passage: "Start", Line: 2})
		tr.Call("global", "Intro")
		sc = scope.New()
		sc.Declare("global", "coins", value.Number(1))
		sc.Declare("Room1", "var", value.Bool(false))
	})

	It("round trips position, stack and scopes", func() {
		want := tr.Clone()
		wantScope := sc.Clone()
		store.Save("x", tr, sc)

		tr.Goto("Room1", "Elsewhere")
		Expect(sc.Set("Room1", "var", value.Bool(true))).To(Succeed())

		gotTr, gotSc, err := store.Load("x")
		Expect(err).NotTo(HaveOccurred())
		Expect(gotTr.Equal(want)).To(BeTrue())
		Expect(gotSc.Equal(wantScope)).To(BeTrue())
	})

	It("isolates the stored copy from live mutation after save", func() {
		store.Save("x", tr, sc)
		tr.Step()
		Expect(sc.Set("global", "coins", value.Number(99))).To(Succeed())

		snap, err := store.Get("x")
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Tracker.Current.Line).To(Equal(0))
		coins, _ := snap.Scope.Get("global", "coins")
		Expect(coins.Equal(value.Number(1))).To(BeTrue())
	})

	It("isolates the stored copy from mutation after load", func() {
		store.Save("x", tr, sc)
		gotTr, gotSc, err := store.Load("x")
		Expect(err).NotTo(HaveOccurred())
		gotTr.Return()
		Expect(gotSc.Set("Room1", "var", value.Bool(true))).To(Succeed())

		againTr, againSc, err := store.Load("x")
		Expect(err).NotTo(HaveOccurred())
		Expect(againTr.Depth()).To(Equal(1))
		v, _ := againSc.Get("Room1", "var")
		Expect(v.Equal(value.Bool(false))).To(BeTrue())
	})

	It("overwrites an existing label", func() {
		store.Save("x", tr, sc)
		tr.Goto("Room1", "Other")
		store.Save("x", tr, sc)

		gotTr, _, err := store.Load("x")
		Expect(err).NotTo(HaveOccurred())
		Expect(gotTr.Current.Passage).To(Equal("Other"))
		Expect(store.Len()).To(Equal(1))
	})

	It("fails with SnapshotNotFound for unknown labels", func() {
		_, _, err := store.Load("missing")
		Expect(errors.Is(err, kerrors.ErrSnapshotNotFound)).To(BeTrue())
		_, err = store.Get("missing")
		Expect(kerrors.CodeOf(err)).To(Equal(kerrors.CodeSnapshotMissing))
	})

	It("lists, deletes and clears labels", func() {
		store.Save("b", tr, sc)
		store.Save("a", tr, sc)
		Expect(store.Labels()).To(Equal([]string{"a", "b"}))
		Expect(store.Has("a")).To(BeTrue())

		Expect(store.Delete("a")).To(BeTrue())
		Expect(store.Delete("a")).To(BeFalse())
		Expect(store.Labels()).To(Equal([]string{"b"}))

		store.Clear()
		Expect(store.Len()).To(BeZero())
	})

	It("stores a copy on Put", func() {
		snap := &snapshot.Snapshot{Label: "p", Tracker: tr, Scope: sc}
		store.Put(snap)
		tr.Step()

		got, err := store.Get("p")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Tracker.Current.Line).To(Equal(0))
	})

	It("keeps the shown line and pending choices and stamps the time on Put", func() {
		choices := &story.Choices{Options: []story.Choice{{Caption: "Yes", Target: "Agree"}}}
		at := position.Position{Namespace: "Room1", Passage: "Start", Line: 1}
		store.Put(&snapshot.Snapshot{
			Label:   "c",
			Tracker: tr,
			Scope:   sc,
			Current: line.Choices{Captions: []string{"Yes"}},
			Pending: interp.Checkpoint{Choices: choices, At: at},
		})

		got, err := store.Get("c")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.TakenAt).NotTo(BeZero())
		Expect(got.Current).To(Equal(line.Choices{Captions: []string{"Yes"}}))
		Expect(got.Pending.Pending()).To(BeTrue())
		Expect(got.Pending.Choices).To(BeIdenticalTo(choices))
		Expect(got.Pending.At).To(Equal(at))
	})
})
