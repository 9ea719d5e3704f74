package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestPer(t *testing.T) {
	assert.Equal(t, rate.Limit(2), Per(2, time.Second))
	assert.Equal(t, rate.Limit(0.5), Per(1, 2*time.Second))
}

func TestMultiLimitIsStrictest(t *testing.T) {
	fast := rate.NewLimiter(Per(10, time.Second), 1)
	slow := rate.NewLimiter(Per(1, time.Second), 1)

	m := Multi(fast, slow)
	assert.Equal(t, slow.Limit(), m.Limit())
}

func TestMultiEmpty(t *testing.T) {
	m := Multi()
	assert.Equal(t, rate.Inf, m.Limit())
	assert.NoError(t, m.Wait(context.Background()))
}

func TestMultiWaitHonoursContext(t *testing.T) {
	l := rate.NewLimiter(Per(1, time.Hour), 1)
	m := Multi(l)

	require.NoError(t, m.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, m.Wait(ctx))
}
