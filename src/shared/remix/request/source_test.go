package request_test

import (
	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
	"github.com/veedubyou/stem-remixer/src/shared/remix/request"
)

var _ = Describe("CheckSource", func() {
	It("accepts web sources everywhere", func() {
		Expect(request.CheckSource("https://storage.googleapis.com/bucket/halo.mp3", false)).To(Succeed())
		Expect(request.CheckSource("http://example.com/halo.mp3", false)).To(Succeed())
	})

	It("turns local files away unless they're allowed", func() {
		err := request.CheckSource("file:///etc/passwd", false)
		Expect(markers.Is(err, remixerr.ValidationMark)).To(BeTrue())
		Expect(remixerr.UserMessage(err)).To(Equal(request.LocalSourceMessage))

		Expect(request.CheckSource("file:///music/halo.mp3", true)).To(Succeed())
	})

	It("rejects other schemes", func() {
		err := request.CheckSource("ftp://example.com/halo.mp3", true)
		Expect(remixerr.UserMessage(err)).To(Equal(request.SourceSchemeMessage))
	})
})
