package prefstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clienterrors "github.com/Adam14b/recsys-project/client/internal/errors"
	"github.com/Adam14b/recsys-project/client/internal/types"
)

func records(pairs ...int) []types.PreferenceRecord {
	out := make([]types.PreferenceRecord, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.PreferenceRecord{MovieID: types.MovieID(pairs[i]), Value: types.Preference(pairs[i+1])})
	}
	return out
}

func staticSource(recs []types.PreferenceRecord, err error) Source {
	return SourceFunc(func(context.Context) ([]types.PreferenceRecord, error) { return recs, err })
}

func TestHydrate_LoadsRemoteMapping(t *testing.T) {
	s := New()
	snap := s.Hydrate(context.Background(), staticSource(records(603, 1, 13, -1), nil))

	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, types.Like, s.Get(603))
	assert.Equal(t, types.Dislike, s.Get(13))
	assert.Equal(t, types.None, s.Get(99))
	assert.True(t, s.Hydrated())
}

func TestHydrate_FailureDegradesToEmpty(t *testing.T) {
	for _, err := range []error{
		clienterrors.NewHTTPError(401, "", "list preferences"),
		clienterrors.NewHTTPError(500, "", "list preferences"),
		fmt.Errorf("dial tcp: refused"),
	} {
		s := New()
		snap := s.Hydrate(context.Background(), staticSource(nil, err))
		assert.Equal(t, 0, snap.Len(), "err=%v", err)
		assert.True(t, s.Hydrated())
	}
}

func TestHydrate_SkipsInvalidRecords(t *testing.T) {
	s := New()
	snap := s.Hydrate(context.Background(), staticSource(records(0, 1, 5, 3, 7, -1), nil))
	require.Equal(t, 1, snap.Len())
	assert.Equal(t, types.Dislike, snap.Get(7))
}

func TestHydrate_KeepsValuesAppliedWhileInFlight(t *testing.T) {
	s := New()
	release := make(chan struct{})
	src := SourceFunc(func(context.Context) ([]types.PreferenceRecord, error) {
		<-release
		return records(1, 1, 2, 1, 3, -1), nil
	})

	done := make(chan Snapshot)
	go func() { done <- s.Hydrate(context.Background(), src) }()

	s.Apply(1, types.Dislike)
	s.Apply(2, types.None)
	s.Apply(4, types.Like)
	close(release)
	snap := <-done

	assert.Equal(t, types.Dislike, snap.Get(1))
	assert.Equal(t, types.None, snap.Get(2))
	assert.Equal(t, types.Dislike, snap.Get(3))
	assert.Equal(t, types.Like, snap.Get(4))
}

func TestHydrate_ReportsServerValuesOfKeptIDs(t *testing.T) {
	var kept []types.PreferenceRecord
	s := New(WithOnLocalKept(func(server []types.PreferenceRecord) { kept = server }))
	s.Apply(2, types.None)
	s.Apply(1, types.Dislike)
	s.Apply(4, types.Like)

	s.Hydrate(context.Background(), staticSource(records(1, 1, 2, 1, 3, -1), nil))

	// Id 4 has no server record, so its server value is None.
	assert.Equal(t, records(1, 1, 2, 1, 4, 0), kept)
	assert.Equal(t, types.Dislike, s.Get(1))

	kept = nil
	s.Apply(5, types.Like)
	s.Hydrate(context.Background(), staticSource(records(5, -1), nil))
	assert.Nil(t, kept, "only ids touched before the first hydration are reported")
}

func TestApply_NoneDeletesAndVersionBumps(t *testing.T) {
	s := New()
	v0 := s.Snapshot().Version()

	s.Apply(10, types.Like)
	s.Apply(10, types.Like)
	v1 := s.Snapshot().Version()
	assert.Equal(t, v0+1, v1, "re-applying the same value is not a change")

	s.Apply(10, types.None)
	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Len())
	assert.Equal(t, v1+1, snap.Version())
}

func TestApply_OnChangeHook(t *testing.T) {
	var mu sync.Mutex
	var seen []uint64
	s := New(WithOnChange(func(sn Snapshot) {
		mu.Lock()
		seen = append(seen, sn.Version())
		mu.Unlock()
	}))
	s.Apply(1, types.Like)
	s.Apply(2, types.Dislike)
	s.Apply(2, types.Dislike)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{1, 2}, seen)
}

func TestSnapshot_IsImmutable(t *testing.T) {
	s := New()
	s.Apply(1, types.Like)
	snap := s.Snapshot()
	s.Apply(1, types.Dislike)
	s.Apply(2, types.Like)

	assert.Equal(t, types.Like, snap.Get(1))
	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, []types.PreferenceRecord{{MovieID: 1, Value: types.Dislike}, {MovieID: 2, Value: types.Like}}, s.Snapshot().Records())
}

func TestDiscard_IgnoresLateWrites(t *testing.T) {
	s := New()
	s.Apply(1, types.Like)
	s.Discard()

	s.Apply(1, types.Dislike)
	snap := s.Hydrate(context.Background(), staticSource(records(2, 1), nil))

	assert.Equal(t, types.Like, s.Get(1))
	assert.Equal(t, types.None, snap.Get(2))
}

func TestApply_ConcurrentSameID(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Apply(7, types.Like)
			} else {
				s.Apply(7, types.Dislike)
			}
		}(i)
	}
	wg.Wait()
	v := s.Get(7)
	assert.True(t, v == types.Like || v == types.Dislike)
	assert.Equal(t, 1, s.Snapshot().Len())
}
