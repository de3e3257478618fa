package save

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"UnitCoinMiner/internal/game"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func putRaw(t *testing.T, s *Store, roomID string, data []byte) {
	t.Helper()
	require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(roomID), data)
	}))
}

// TestSaveLoadRoundTrip saves a played room and restores it elsewhere.
func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	room := game.NewRoom("alpha", game.RoomConfig{Rand: fixedRand(0.5)})
	require.NoError(t, room.Connect(
		game.Endpoint{Node: game.PowerSourceID, Connector: game.ConnPowerOut},
		game.Endpoint{Node: "pc-1", Connector: game.ConnPowerIn},
	))
	room.Tick()
	require.NoError(t, s.Save(ctx, "alpha", room.Snapshot()))

	snap, found, err := s.Load(ctx, "alpha")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, room.Snapshot(), snap)

	var env Envelope
	require.NoError(t, s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey("alpha"))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &env) })
	}))
	assert.Equal(t, CurrentVersion, env.Version)
	assert.Equal(t, 2026, env.SavedAt.Year())
}

// TestLoadMissingRoom reports not-found without an error.
func TestLoadMissingRoom(t *testing.T) {
	s := openTestStore(t)
	_, found, err := s.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

// TestDeleteAndList covers the reset path and room enumeration.
func TestDeleteAndList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	snap := game.NewRoom("x", game.RoomConfig{Rand: fixedRand(0.5)}).Snapshot()
	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, s.Save(ctx, id, snap))
	}

	ids, err := s.Rooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	require.NoError(t, s.Delete(ctx, "b"))
	_, found, err := s.Load(ctx, "b")
	require.NoError(t, err)
	assert.False(t, found)

	ids, err = s.Rooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids)
}

// TestLoadMigratesBrowserSave feeds an unversioned save in the old browser
// layout through the whole migration chain.
func TestLoadMigratesBrowserSave(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	putRaw(t, s, "legacy", []byte(`{
		"version": 1,
		"gameState": {"money": 12.5, "unitCoin": 3, "unitCoinPrice": 1.2, "priceHistory": [1, 1.1, 1.2]},
		"nodes": {
			"pc-1": {"type": "pc", "cpu": "cpu-2", "gpu": "gpu-10", "ram": ["ram-8", null, "ram-16", null],
			         "cooling": null, "os": "trader-os", "cpuOC": 20, "gpuOC": 0, "ramOC": 10,
			         "isOverheated": false, "currentTemp": 48},
			"power-grid": {"type": "power-grid"},
			"transformer-small-2": {"type": "transformer", "transformerType": "transformer-small"},
			"cpuburner-3": {"type": "program", "programType": "cpuburner"},
			"interface-1": {"type": "interface"}
		},
		"connections": [
			{"from": "power-grid:power-out", "to": "transformer-small-2:power-in", "color": "#ff0"},
			{"from": "transformer-small-2:power-out", "to": "pc-1:power-in"},
			{"from": "pc-1:display-out", "to": "interface-1:display-in"},
			{"from": "pc-1:program-out-0", "to": "cpuburner-3:program-in"}
		],
		"nodeCounter": 4
	}`))

	snap, found, err := s.Load(ctx, "legacy")
	require.NoError(t, err)
	require.True(t, found)

	require.Len(t, snap.Nodes, 5)
	assert.Equal(t, game.NodeID(game.PowerSourceID), snap.Nodes[0].ID)
	assert.Equal(t, 4, snap.NodeCounter)
	assert.Equal(t, 12.5, snap.Wallet.Money)
	assert.Equal(t, 1.2, snap.Market.Price)
	assert.Len(t, snap.Market.History, 3)

	require.Len(t, snap.Connections, 4)
	assert.Equal(t, game.ClassPower, snap.Connections[0].Class)
	assert.Equal(t, game.ClassSignal, snap.Connections[2].Class)
	assert.Equal(t, game.ClassProgram, snap.Connections[3].Class)
	assert.Equal(t, game.Endpoint{Node: "cpuburner-3", Connector: game.ConnProgramIn}, snap.Connections[3].To)

	room := game.NewRoom("legacy", game.RoomConfig{Rand: fixedRand(0.5)})
	require.NoError(t, room.Restore(snap))
	p := room.Project()
	var pc *game.NodeView
	for i := range p.Nodes {
		if p.Nodes[i].ID == "pc-1" {
			pc = &p.Nodes[i]
		}
	}
	require.NotNil(t, pc)
	assert.True(t, pc.Powered)
	assert.Equal(t, [game.RAMSlots]string{"ram-8", "", "ram-16", ""}, pc.Compute.RAM)
	assert.Equal(t, 20, pc.Overclock.CPU)
	assert.Equal(t, game.NodeID("cpuburner-3"), p.Interfaces[0].Program)
}

// TestLoadRejectsBadData covers corrupt values and saves from the future.
func TestLoadRejectsBadData(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	putRaw(t, s, "junk", []byte("not json"))
	_, _, err := s.Load(ctx, "junk")
	assert.ErrorIs(t, err, ErrCorruptSave)

	putRaw(t, s, "future", []byte(`{"version": 99, "payload": {}}`))
	_, _, err = s.Load(ctx, "future")
	assert.ErrorIs(t, err, ErrFutureVersion)

	putRaw(t, s, "badwire", []byte(`{"version": 1, "payload": {"nodes": [], "connections": [{"from": "nocolon", "to": "x:y"}]}}`))
	_, _, err = s.Load(ctx, "badwire")
	assert.ErrorIs(t, err, ErrCorruptSave)
}

// TestCancelledContext stops before touching the database.
func TestCancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Save(ctx, "a", game.Snapshot{}), context.Canceled)
	_, _, err := s.Load(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
