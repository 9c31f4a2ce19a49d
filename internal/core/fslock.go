package core

import (
	"time"

	"github.com/rogpeppe/go-internal/lockedfile"
)

// lockTimeout bounds how long a mutating operation waits for another cpm
// process to release a scope's file lock.
const lockTimeout = 10 * time.Second

// acquireLock takes the advisory lock at path, waiting at most lockTimeout.
// The returned function releases the lock and must be called on all exit
// paths. Returns a LockError on timeout.
func acquireLock(path string) (func(), error) {
	mu := lockedfile.MutexAt(path)

	type outcome struct {
		unlock func()
		err    error
	}
	ch := make(chan outcome, 1)
	go func() {
		unlock, err := mu.Lock()
		ch <- outcome{unlock, err}
	}()

	select {
	case o := <-ch:
		return o.unlock, o.err
	case <-time.After(lockTimeout):
		// If the blocked Lock eventually succeeds, release it so the lock
		// is not held by an abandoned goroutine.
		go func() {
			if o := <-ch; o.unlock != nil {
				o.unlock()
			}
		}()
		return nil, &LockError{Path: path}
	}
}
