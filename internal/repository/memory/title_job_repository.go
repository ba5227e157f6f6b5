package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// TitleJobRepository tracks in-flight title generation per thread so a
// thread gets at most one job and deleting a thread can cancel its job.
type TitleJobRepository struct {
	cache *cache.Cache
}

type titleJob struct {
	cancel context.CancelFunc
}

func NewTitleJobRepository(ttl time.Duration) *TitleJobRepository {
	// Entries outlive any realistic job; expiry only reclaims leaked ones
	c := cache.New(ttl, 2*ttl)
	return &TitleJobRepository{
		cache: c,
	}
}

// Claim registers a job for the thread. It returns false if one is
// already running.
func (r *TitleJobRepository) Claim(threadId uuid.UUID, cancel context.CancelFunc) bool {
	return r.cache.Add(threadId.String(), &titleJob{cancel: cancel}, cache.DefaultExpiration) == nil
}

func (r *TitleJobRepository) Running(threadId uuid.UUID) bool {
	_, found := r.cache.Get(threadId.String())
	return found
}

// Release drops the entry without cancelling.
func (r *TitleJobRepository) Release(threadId uuid.UUID) {
	r.cache.Delete(threadId.String())
}

// Cancel stops a running job for the thread, if any.
func (r *TitleJobRepository) Cancel(threadId uuid.UUID) bool {
	x, found := r.cache.Get(threadId.String())
	if !found {
		return false
	}
	r.cache.Delete(threadId.String())
	if job, ok := x.(*titleJob); ok && job.cancel != nil {
		job.cancel()
	}
	return true
}
