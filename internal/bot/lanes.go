package bot

import "sync"

// lanes runs jobs serially per key and concurrently across keys. A key's
// goroutine exists only while it has queued work.
type lanes struct {
	mu      sync.Mutex
	pending map[int64][]func()
	wg      sync.WaitGroup
}

func newLanes() *lanes {
	return &lanes{pending: make(map[int64][]func())}
}

func (l *lanes) Submit(key int64, job func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	queue, running := l.pending[key]
	l.pending[key] = append(queue, job)
	if running {
		return
	}
	l.wg.Add(1)
	go l.drain(key)
}

func (l *lanes) drain(key int64) {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		queue := l.pending[key]
		if len(queue) == 0 {
			delete(l.pending, key)
			l.mu.Unlock()
			return
		}
		job := queue[0]
		l.pending[key] = queue[1:]
		l.mu.Unlock()

		job()
	}
}

// Wait blocks until every submitted job has finished.
func (l *lanes) Wait() {
	l.wg.Wait()
}
