package tester

import (
	"testing"

	"github.com/matryer/is"
)

func TestMT19937_64IsDeterministicForASeed(t *testing.T) {
	is := is.New(t)
	a := newMT19937_64(42)
	b := newMT19937_64(42)

	for i := 0; i < 1000; i++ {
		is.Equal(a.uint64(), b.uint64())
	}
}

func TestMT19937_64DistinctSeedsDiverge(t *testing.T) {
	is := is.New(t)
	a := newMT19937_64(1)
	b := newMT19937_64(2)

	diverged := false
	for i := 0; i < 16; i++ {
		if a.uint64() != b.uint64() {
			diverged = true
			break
		}
	}
	is.True(diverged)
}

func TestMT19937_64Int63IsNonNegative(t *testing.T) {
	is := is.New(t)
	m := newMT19937_64(7)
	for i := 0; i < 1000; i++ {
		is.True(m.int63() >= 0)
	}
}

func TestMT19937_64IntnStaysInRange(t *testing.T) {
	is := is.New(t)
	m := newMT19937_64(1234567)
	const n = 17
	for i := 0; i < 1000; i++ {
		v := m.intn(n)
		is.True(v >= 0)
		is.True(v < n)
	}
}

func TestMT19937_64GenerateRefillsAfterNNDraws(t *testing.T) {
	is := is.New(t)
	m := newMT19937_64(99)
	for i := 0; i < nn; i++ {
		m.uint64()
	}
	is.Equal(m.index, nn)

	m.uint64()
	is.Equal(m.index, 1)
}
