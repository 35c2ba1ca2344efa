package journal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/internal/store"
	"go.uber.org/zap"
)

func TestWALStore_AppendAndRead(t *testing.T) {
	j, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, j.Close())
	}()

	s := store.New(j, zap.NewNop())
	s.Dispatch(store.SetStreaks{Streaks: map[string]domain.Streak{"w": {Days: 4}}})
	s.Dispatch(store.MergeStamps{Counts: map[string]domain.StampCount{"a": {Total: 2}}})

	records, err := j.RecordsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.DomainStreaks, records[0].Domain)
	assert.Equal(t, uint64(1), records[0].Seq)
	assert.Equal(t, domain.DomainStamps, records[1].Domain)

	var payload store.SetStreaks
	require.NoError(t, json.Unmarshal(records[0].Payload, &payload))
	assert.Equal(t, int64(4), payload.Streaks["w"].Days)

	after, err := j.RecordsAfter(records[0].Index)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, domain.DomainStamps, after[0].Domain)

	none, err := j.RecordsAfter(j.CurrentIndex())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWALStore_RejectsMissingDomain(t *testing.T) {
	j, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	err = j.Append(store.Applied{Seq: 1, Time: time.Now()})
	assert.Error(t, err)
}

func TestWALStore_NilStore(t *testing.T) {
	var j *WALStore
	assert.Error(t, j.Append(store.Applied{Domain: domain.DomainMarket}))
	_, err := j.RecordsAfter(0)
	assert.Error(t, err)
	assert.Equal(t, uint64(0), j.CurrentIndex())
}
