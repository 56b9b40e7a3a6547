package booking

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestUserLocks_SerializeSameUser(t *testing.T) {
	t.Parallel()

	locks := newUserLocks()
	var active, maxActive int32
	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("u1")
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("expected at most 1 holder, saw %d", maxActive)
	}
	if locks.size() != 0 {
		t.Errorf("expected empty lock table, got %d", locks.size())
	}
}

func TestUserLocks_DifferentUsersDoNotBlock(t *testing.T) {
	t.Parallel()

	locks := newUserLocks()
	unlockA := locks.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for b blocked behind a")
	}
}
