package services

import (
	"sync"
	"time"
)

// UserConcurrencyConfig defines sync job limits per user
type UserConcurrencyConfig struct {
	MaxConcurrentJobs int           // Max concurrent sync jobs per user
	JobTimeout        time.Duration // Max duration for a single job
}

// DefaultConcurrencyConfig returns production-ready defaults
func DefaultConcurrencyConfig() *UserConcurrencyConfig {
	return &UserConcurrencyConfig{
		MaxConcurrentJobs: 3,
		JobTimeout:        10 * time.Minute,
	}
}

// UserSemaphore caps how many cross-list or inventory-sync jobs a single
// user can run at once, so one user's bulk operation cannot starve the
// provider rate limits shared with everyone else
type UserSemaphore struct {
	mu         sync.RWMutex
	userSems   map[string]chan struct{}
	activeJobs map[string]int
	config     *UserConcurrencyConfig
}

// NewUserSemaphore creates a new per-user semaphore manager
func NewUserSemaphore(config *UserConcurrencyConfig) *UserSemaphore {
	if config == nil {
		config = DefaultConcurrencyConfig()
	}
	return &UserSemaphore{
		userSems:   make(map[string]chan struct{}),
		activeJobs: make(map[string]int),
		config:     config,
	}
}

func (us *UserSemaphore) getOrCreateSem(userID string) chan struct{} {
	us.mu.Lock()
	defer us.mu.Unlock()

	if sem, exists := us.userSems[userID]; exists {
		return sem
	}

	sem := make(chan struct{}, us.config.MaxConcurrentJobs)
	us.userSems[userID] = sem
	return sem
}

// TryAcquire attempts to claim a job slot without blocking. Returns a release
// function that must be called when the job finishes.
func (us *UserSemaphore) TryAcquire(userID string) (func(), bool) {
	sem := us.getOrCreateSem(userID)
	select {
	case sem <- struct{}{}:
	default:
		return nil, false
	}

	us.mu.Lock()
	us.activeJobs[userID]++
	us.mu.Unlock()

	release := func() {
		us.mu.Lock()
		us.activeJobs[userID]--
		us.mu.Unlock()

		<-sem
	}
	return release, true
}

// ActiveJobs returns the number of running jobs for a user
func (us *UserSemaphore) ActiveJobs(userID string) int {
	us.mu.RLock()
	defer us.mu.RUnlock()
	return us.activeJobs[userID]
}

// Cleanup removes semaphores for users with no active jobs
func (us *UserSemaphore) Cleanup() {
	us.mu.Lock()
	defer us.mu.Unlock()

	for userID, count := range us.activeJobs {
		if count == 0 {
			if sem, exists := us.userSems[userID]; exists {
				close(sem)
				delete(us.userSems, userID)
			}
			delete(us.activeJobs, userID)
		}
	}
}
