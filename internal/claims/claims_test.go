package claims

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClaimer_OnlyFirstWins(t *testing.T) {
	m := NewMemoryClaimer(time.Hour)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.Claim(context.Background(), "c1")
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins)
}

func TestMemoryClaimer_Expires(t *testing.T) {
	m := NewMemoryClaimer(time.Minute)
	now := time.Now()
	m.now = func() time.Time { return now }

	ok, _ := m.Claim(context.Background(), "c1")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = m.Claim(context.Background(), "c1")
	assert.True(t, ok)
}

func TestRedisClaimer(t *testing.T) {
	s := miniredis.RunT(t)

	r, err := NewRedisClaimer("redis://"+s.Addr(), time.Hour)
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	ok, err := r.Claim(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Claim(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Claim(ctx, "c2")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, s.Exists("confessions:analysis:c1"))
	s.FastForward(2 * time.Hour)
	ok, err = r.Claim(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRedisClaimer_BadURL(t *testing.T) {
	_, err := NewRedisClaimer("://nope", time.Hour)
	assert.Error(t, err)
}
