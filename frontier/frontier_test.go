package frontier

import (
	"testing"

	"github.com/matryer/is"

	"github.com/tiergraph/solver/gameapi"
)

func TestAddAndBucketSize(t *testing.T) {
	is := is.New(t)
	f := New(3, 0, gameapi.RemotenessMax)

	is.NoErr(f.Add(10, 2, 0))
	is.NoErr(f.Add(11, 2, 1))
	is.NoErr(f.Add(12, 2, 1))
	is.NoErr(f.Add(20, 5, 2))

	is.Equal(f.BucketSize(2), int64(3))
	is.Equal(f.BucketSize(5), int64(1))
	is.Equal(f.BucketSize(0), int64(0))
}

func TestAddRejectsOutOfRangeRemoteness(t *testing.T) {
	is := is.New(t)
	f := New(1, 0, gameapi.RemotenessMax)
	err := f.Add(1, gameapi.RemotenessMax+1, 0)
	is.True(err != nil)
}

func TestAddRejectsRemotenessBeyondConfiguredMax(t *testing.T) {
	is := is.New(t)
	f := New(1, 0, 5)
	is.NoErr(f.Add(1, 5, 0))
	err := f.Add(1, 6, 0)
	is.True(err != nil)
}

func TestAddRejectsOutOfRangeChildIndex(t *testing.T) {
	is := is.New(t)
	f := New(1, 0, gameapi.RemotenessMax)
	err := f.Add(1, 0, 1)
	is.True(err != nil)
}

func TestAccumulateDividersPrefixSum(t *testing.T) {
	is := is.New(t)
	f := New(3, 0, gameapi.RemotenessMax)
	is.NoErr(f.Add(1, 4, 0))
	is.NoErr(f.Add(2, 4, 0))
	is.NoErr(f.Add(3, 4, 1))
	is.NoErr(f.Add(4, 4, 2))
	is.NoErr(f.Add(5, 4, 2))
	is.NoErr(f.Add(6, 4, 2))

	f.AccumulateDividers()
	dividers := f.Dividers(4)
	is.Equal(dividers, []int64{2, 3, 6})
}

func TestGetPositionReadsInInsertOrder(t *testing.T) {
	is := is.New(t)
	f := New(1, 0, gameapi.RemotenessMax)
	is.NoErr(f.Add(100, 1, 0))
	is.NoErr(f.Add(200, 1, 0))
	is.Equal(f.GetPosition(1, 0), gameapi.Position(100))
	is.Equal(f.GetPosition(1, 1), gameapi.Position(200))
}

func TestFreeRemotenessClearsBucket(t *testing.T) {
	is := is.New(t)
	f := New(1, 0, gameapi.RemotenessMax)
	is.NoErr(f.Add(1, 3, 0))
	f.FreeRemoteness(3)
	is.Equal(f.BucketSize(3), int64(0))
}
