package stem_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stem-remixer/src/shared/remix/stem"
	. "github.com/veedubyou/stem-remixer/src/shared/testing"
)

var _ = Describe("Stem", func() {
	Describe("Parse", func() {
		It("accepts every canonical stem", func() {
			for _, name := range stem.All {
				Expect(ExpectSuccess(stem.Parse(string(name)))).To(Equal(name))
			}
		})

		It("ignores case and surrounding whitespace", func() {
			Expect(ExpectSuccess(stem.Parse("  VoCaLs "))).To(Equal(stem.Vocals))
		})

		It("rejects anything outside the set", func() {
			_, err := stem.Parse("guitar")
			Expect(err).To(MatchError(stem.ErrInvalid))
		})
	})

	Describe("Suggest", func() {
		It("finds the stem a typo was aiming for", func() {
			name, ok := stem.Suggest("vocal")
			Expect(ok).To(BeTrue())
			Expect(name).To(Equal(stem.Vocals))

			name, ok = stem.Suggest("Drum")
			Expect(ok).To(BeTrue())
			Expect(name).To(Equal(stem.Drums))
		})

		It("stays quiet for names that are nowhere close", func() {
			_, ok := stem.Suggest("kazoo")
			Expect(ok).To(BeFalse())
			_, ok = stem.Suggest("")
			Expect(ok).To(BeFalse())
		})
	})

	It("keeps the mixer input order", func() {
		Expect(stem.All).To(Equal([]stem.Name{stem.Bass, stem.Drums, stem.Vocals, stem.Other}))
		Expect(stem.Bass.Index()).To(Equal(0))
		Expect(stem.Other.Index()).To(Equal(3))
		Expect(stem.Name("kazoo").Index()).To(Equal(-1))
	})

	It("names the separated file and the title", func() {
		Expect(stem.Drums.FileName()).To(Equal("drums.wav"))
		Expect(stem.Drums.Title()).To(Equal("Drums"))
	})
})
