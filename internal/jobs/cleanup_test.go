package jobs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turfbook/turfbook-backend/internal/services"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

func newTestJob() *CleanupJob {
	store := storage.NewMemoryStore()
	otpService := services.NewOTPService(store, nil)
	return NewCleanupJob(store, otpService, nil, nil)
}

func TestCleanupJobStartStop(t *testing.T) {
	job := newTestJob()

	require.False(t, job.isRunning.Load())
	job.Start()
	assert.True(t, job.isRunning.Load())

	// A second Start must not spawn another set of loops
	job.Start()
	assert.True(t, job.isRunning.Load())

	job.Stop()
	assert.False(t, job.isRunning.Load())
}

func TestCleanupJobConcurrentStart(t *testing.T) {
	job := newTestJob()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.Start()
		}()
	}
	wg.Wait()

	assert.True(t, job.isRunning.Load())
	job.Stop()
}
