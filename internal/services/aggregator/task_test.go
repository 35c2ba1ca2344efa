package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_SucceedKeepsContextUntilDone(t *testing.T) {
	var tk task
	ctx, gen := tk.begin(context.Background())

	require.True(t, tk.succeed(gen, time.Now(), nil))
	assert.NoError(t, ctx.Err())
	assert.True(t, tk.snapshot().Completed)

	tk.done(gen)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestTask_DoneOfSupersededGenerationKeepsNewer(t *testing.T) {
	var tk task
	oldCtx, oldGen := tk.begin(context.Background())
	newCtx, newGen := tk.begin(context.Background())

	assert.ErrorIs(t, oldCtx.Err(), context.Canceled)
	assert.False(t, tk.succeed(oldGen, time.Now(), nil))

	tk.done(oldGen)
	assert.NoError(t, newCtx.Err())

	tk.done(newGen)
	assert.ErrorIs(t, newCtx.Err(), context.Canceled)
}
