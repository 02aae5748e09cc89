package cerr_test

import (
	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
)

var _ = Describe("Cerr", func() {
	It("builds a plain error", func() {
		err := cerr.Error("Workspace is busy")
		Expect(err).To(MatchError("Workspace is busy"))
		Expect(cerr.CollectFields(err)).To(BeEmpty())
	})

	It("wraps a cause with context", func() {
		cause := errors.New("exit status 1")
		err := cerr.Wrap(cause).Error("Failed to run demucs")
		Expect(err).To(MatchError("Failed to run demucs: exit status 1"))
		Expect(errors.Is(err, cause)).To(BeTrue())
	})

	It("collects fields across layers with the outermost winning", func() {
		inner := cerr.Field("job_id", "inner").Field("stem", "bass").Error("inner failure")
		outer := cerr.Field("job_id", "outer").Wrap(inner).Error("outer failure")

		Expect(cerr.CollectFields(outer)).To(Equal(log.Fields{
			"job_id": "outer",
			"stem":   "bass",
		}))
	})

	It("doesn't share fields between derived contexts", func() {
		base := cerr.Field("job_id", "1")
		withStem := base.Field("stem", "drums")

		Expect(cerr.CollectFields(base.Error("a"))).To(Equal(log.Fields{"job_id": "1"}))
		Expect(cerr.CollectFields(withStem.Error("b"))).To(HaveLen(2))
	})

	It("keeps marks visible through field layers", func() {
		marked := errors.Mark(errors.New("bad codec"), remixerr.SeparationMark)
		err := cerr.Field("job_id", "1").Wrap(marked).Error("Failed to separate")
		Expect(markers.Is(err, remixerr.SeparationMark)).To(BeTrue())
	})
})
