package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateListRemove(t *testing.T) {
	m := NewManager(DefaultRules())
	defer m.Close()

	alpha := m.Create("alpha")
	beta := m.Create("be|ta;x")
	assert.Equal(t, 0, alpha.ID)
	assert.Equal(t, 1, beta.ID)
	assert.Equal(t, "be ta x", beta.Name)

	require.NoError(t, alpha.Join(newPeer("ann")))
	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, "0,alpha,1;1,be ta x,0", EncodeRoomList(list))

	got, err := m.Get(0)
	require.NoError(t, err)
	assert.Same(t, alpha, got)

	require.NoError(t, alpha.Leave("ann"))
	_, err = m.Get(0)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, 1, m.Len())
	assert.ErrorIs(t, alpha.Join(newPeer("bob")), ErrRoomNotFound)

	// ids are never reused
	assert.Equal(t, 2, m.Create("gamma").ID)
}

func TestManager_PassesOptions(t *testing.T) {
	sink := &recSink{}
	rules := DefaultRules()
	rules.MaxPlayers = 2
	m := NewManager(rules, stacked(t, handA, handB), WithSink(sink))
	r := m.Create("t")
	require.NoError(t, r.Join(newPeer("A")))
	require.NoError(t, r.Join(newPeer("B")))

	assert.Equal(t, Active, r.State())
	assert.Equal(t, 0, r.PoolSize())
	require.NoError(t, r.Leave("B"))
	assert.Len(t, sink.got, 1)
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "a b c", CleanName(" a,b;c \n"))
}
