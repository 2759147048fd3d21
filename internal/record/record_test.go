package record

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	got []RoundResult
	err error
}

func (f *fakeSink) Record(_ context.Context, r RoundResult) error {
	f.got = append(f.got, r)
	return f.err
}

func (f *fakeSink) Close() error { return f.err }

func TestRoundResult_Encode(t *testing.T) {
	r := RoundResult{ID: "x", RoomID: 2, Winner: "ann", Deltas: map[string]int{"ann": 12, "bob": -12}}
	data, err := r.Encode()
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "ann", back["winner"])
	assert.EqualValues(t, 2, back["roomId"])
}

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	a, b := &fakeSink{}, &fakeSink{err: boom}
	m := Multi{a, b, Nop{}}

	err := m.Record(context.Background(), RoundResult{ID: "r1"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
	assert.ErrorIs(t, m.Close(), boom)
	assert.NoError(t, Multi{a}.Record(context.Background(), RoundResult{}))
}

func TestNewSinks_Unreachable(t *testing.T) {
	_, err := NewNATSSink("nats://127.0.0.1:1", "")
	assert.Error(t, err)

	_, err = NewRedisSink(context.Background(), RedisConf{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
