package store_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/cloud_storage/store"
)

var _ = Describe("SplitURL", func() {
	const host = "https://storage.googleapis.com"

	It("splits bucket and object", func() {
		bucket, object, err := store.SplitURL(host, host+"/remix-bucket/remixes/job-1/Kind of Blue (Bass Boost).mp3")
		Expect(err).NotTo(HaveOccurred())
		Expect(bucket).To(Equal("remix-bucket"))
		Expect(object).To(Equal("remixes/job-1/Kind of Blue (Bass Boost).mp3"))
	})

	It("unescapes the object name", func() {
		_, object, err := store.SplitURL(host+"/", host+"/b/sources/Kind%20of%20Blue.mp3")
		Expect(err).NotTo(HaveOccurred())
		Expect(object).To(Equal("sources/Kind of Blue.mp3"))
	})

	It("rejects URLs from another host", func() {
		_, _, err := store.SplitURL(host, "https://example.com/b/o.mp3")
		Expect(err).To(HaveOccurred())
	})

	It("rejects URLs without an object", func() {
		_, _, err := store.SplitURL(host, host+"/bucket-only")
		Expect(err).To(HaveOccurred())
	})
})
