package latch_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alromeros/meteoserver/internal/latch"
)

func TestNewStartsEnabled(t *testing.T) {
	l := latch.New()
	assert.True(t, l.Has(latch.Enabled))
	assert.False(t, l.Has(latch.USR1Pending))
	assert.False(t, l.Has(latch.TermPending))
}

func TestSetAndClearAreIndependentBits(t *testing.T) {
	l := latch.New()
	l.Set(latch.USR1Pending)
	assert.True(t, l.Has(latch.Enabled))
	assert.True(t, l.Has(latch.USR1Pending))

	l.Clear(latch.USR1Pending)
	assert.True(t, l.Has(latch.Enabled))
	assert.False(t, l.Has(latch.USR1Pending))
}

func TestClearEnabledLeavesOtherBitsAlone(t *testing.T) {
	l := latch.New()
	l.Set(latch.TermPending)
	l.Clear(latch.Enabled)

	assert.False(t, l.Has(latch.Enabled))
	assert.True(t, l.Has(latch.TermPending))
}

func TestHasRequiresAllBitsInMask(t *testing.T) {
	l := latch.New()
	l.Set(latch.TermPending)
	assert.False(t, l.Has(latch.Enabled|latch.USR1Pending))
	assert.True(t, l.Has(latch.Enabled|latch.TermPending))
}

func TestConcurrentSetClearNeverLosesUpdates(t *testing.T) {
	l := latch.New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Set(latch.USR1Pending)
			l.Clear(latch.USR1Pending)
		}()
	}
	wg.Wait()
	assert.True(t, l.Has(latch.Enabled))
}
