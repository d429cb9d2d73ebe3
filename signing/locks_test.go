package signing

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentLocks(t *testing.T) {
	locks := NewDocumentLocks()

	unlock := locks.Lock(1)
	assert.Equal(t, 1, locks.Len())

	// a different document is not blocked
	unlockOther := locks.Lock(2)
	assert.Equal(t, 2, locks.Len())
	unlockOther()

	unlock()
	unlock()
	assert.Zero(t, locks.Len())
}

func TestDocumentLocks_Exclusive(t *testing.T) {
	locks := NewDocumentLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(7)
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Zero(t, locks.Len())
}
