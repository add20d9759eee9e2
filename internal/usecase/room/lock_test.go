package usecase_room

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoomLocks_SerialisesSameCode(t *testing.T) {
	locks := newRoomLocks()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("AAAAAA")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, locks.size())
}

func TestRoomLocks_DifferentCodesDoNotBlock(t *testing.T) {
	locks := newRoomLocks()

	unlockA := locks.lock("AAAAAA")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.lock("BBBBBB")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another room blocked")
	}
	assert.Equal(t, 1, locks.size())
}

func TestBuildRoomCode(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code := buildRoomCode()
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'), code)
		}
	}
}

func TestClampFloat(t *testing.T) {
	assert.Equal(t, 0.0, clampFloat(-5, MaxWPM))
	assert.Equal(t, MaxWPM, clampFloat(1e9, MaxWPM))
	assert.Equal(t, 42.5, clampFloat(42.5, MaxWPM))
}

func TestClampProgress(t *testing.T) {
	assert.Equal(t, 0, clampProgress(-1, 10))
	assert.Equal(t, 10, clampProgress(11, 10))
	assert.Equal(t, 7, clampProgress(7, 10))
	assert.Equal(t, 500, clampProgress(500, 0))
}
