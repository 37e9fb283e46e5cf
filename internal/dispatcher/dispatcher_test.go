package dispatcher

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kayros-web/kayros/config"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Dispatcher {
	return config.Dispatcher{WorkerPoolSize: 2, DrainInterval: 5 * time.Millisecond}
}

func TestPostRunsOnWorkerPool(t *testing.T) {
	d := New(testConfig())

	var done sync.WaitGroup
	done.Add(1)
	var ran atomic.Bool
	d.Post(func() {
		ran.Store(true)
		done.Done()
	})

	done.Wait()
	require.True(t, ran.Load())
	d.Stop()
}

func TestRunDrainsAllThreeQueues(t *testing.T) {
	d := New(testConfig())
	go d.Run()
	defer d.Stop()

	var mu sync.Mutex
	var seen []string

	d.PostAccept(func() { mu.Lock(); seen = append(seen, "accept"); mu.Unlock() })
	d.PostParser(func() { mu.Lock(); seen = append(seen, "parser"); mu.Unlock() })
	d.PostSession(func() { mu.Lock(); seen = append(seen, "session"); mu.Unlock() })

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 5*time.Millisecond)
}

func TestStopWaitsForPostedTasks(t *testing.T) {
	d := New(testConfig())

	var finished atomic.Bool
	d.Post(func() {
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})

	d.Stop()
	require.True(t, finished.Load())
}
