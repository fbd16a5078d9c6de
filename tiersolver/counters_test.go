package tiersolver

import (
	"sync"
	"testing"

	"github.com/matryer/is"
)

func TestCountersSetAndGet(t *testing.T) {
	is := is.New(t)
	c := newCounters(4)
	c.set(0, 3)
	c.set(1, 0)
	is.Equal(c.get(0), uint32(3))
	is.Equal(c.get(1), uint32(0))
}

func TestCountersIllegal(t *testing.T) {
	is := is.New(t)
	c := newCounters(2)
	is.True(!c.isIllegal(0))
	c.setIllegal(0)
	is.True(c.isIllegal(0))
}

func TestDecrementIfNonZeroReachesExactlyOneZeroTransition(t *testing.T) {
	is := is.New(t)
	c := newCounters(1)
	c.set(0, 1)

	prev := c.decrementIfNonZero(0)
	is.Equal(prev, uint32(1))
	is.Equal(c.get(0), uint32(0))

	prev = c.decrementIfNonZero(0)
	is.Equal(prev, uint32(0))
}

func TestDecrementIfNonZeroConcurrentSingleWinner(t *testing.T) {
	is := is.New(t)
	const n = 64
	c := newCounters(1)
	c.set(0, n)

	var wg sync.WaitGroup
	wins := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev := c.decrementIfNonZero(0)
			wins <- prev == 1
		}()
	}
	wg.Wait()
	close(wins)

	transitions := 0
	for w := range wins {
		if w {
			transitions++
		}
	}
	is.Equal(transitions, 1)
	is.Equal(c.get(0), uint32(0))
}

func TestExchangeToZero(t *testing.T) {
	is := is.New(t)
	c := newCounters(1)
	c.set(0, 5)
	prev := c.exchangeToZero(0)
	is.Equal(prev, uint32(5))
	is.Equal(c.get(0), uint32(0))

	prev = c.exchangeToZero(0)
	is.Equal(prev, uint32(0))
}
