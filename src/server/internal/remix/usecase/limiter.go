package remixusecase

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SubmissionLimit is how often one requester may start a remix.
// The zero value doesn't limit.
type SubmissionLimit struct {
	Every time.Duration
	Burst int
}

// submissionLimiter hands every requester their own token bucket.
type submissionLimiter struct {
	limit SubmissionLimit

	mutex    sync.Mutex
	limiters map[string]*rate.Limiter
}

func newSubmissionLimiter(limit SubmissionLimit) *submissionLimiter {
	return &submissionLimiter{
		limit:    limit,
		limiters: map[string]*rate.Limiter{},
	}
}

func (s *submissionLimiter) Allow(requester string) bool {
	if s.limit.Every <= 0 {
		return true
	}

	s.mutex.Lock()
	limiter, ok := s.limiters[requester]
	if !ok {
		burst := s.limit.Burst
		if burst < 1 {
			burst = 1
		}

		limiter = rate.NewLimiter(rate.Every(s.limit.Every), burst)
		s.limiters[requester] = limiter
	}
	s.mutex.Unlock()

	return limiter.Allow()
}
