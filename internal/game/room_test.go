package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	return NewRoom("test", RoomConfig{Rand: fixedRand(0.5)})
}

func powerPC(t *testing.T, r *Room) {
	t.Helper()
	require.NoError(t, r.Connect(ep(PowerSourceID, ConnPowerOut), ep("pc-1", ConnPowerIn)))
}

// TestRoomStartingLayout verifies the fresh-session state.
func TestRoomStartingLayout(t *testing.T) {
	r := newTestRoom(t)
	p := r.Project()

	require.Len(t, p.Nodes, 3)
	assert.Equal(t, NodeID(PowerSourceID), p.Nodes[0].ID)
	assert.Equal(t, NodeID("pc-1"), p.Nodes[1].ID)
	assert.Equal(t, NodeID("interface-1"), p.Nodes[2].ID)
	assert.Empty(t, p.Connections)
	assert.Equal(t, StartingMoney, p.Global.Money)
	assert.Equal(t, StartingPrice, p.Global.Price)
	assert.Equal(t, BaseWattage, p.Global.TotalWattageBudget)

	pc := p.Nodes[1].Compute
	require.NotNil(t, pc)
	assert.Equal(t, "trader-os", pc.OS)
	assert.Equal(t, [RAMSlots]string{"ram-8", "ram-8", "", ""}, pc.RAM)

	id, err := r.AddNode("miner")
	require.NoError(t, err)
	assert.Equal(t, NodeID("miner-2"), id)
}

// TestConnectRejectionsLeaveGraphUnchanged walks through each rejection.
func TestConnectRejectionsLeaveGraphUnchanged(t *testing.T) {
	r := newTestRoom(t)
	miner, err := r.AddNode("miner")
	require.NoError(t, err)

	cases := []struct {
		name     string
		from, to Endpoint
		want     error
	}{
		{"unknown node", ep("ghost", ConnPowerOut), ep("pc-1", ConnPowerIn), ErrUnknownNode},
		{"unknown connector", ep(PowerSourceID, "power-out-9"), ep("pc-1", ConnPowerIn), ErrUnknownConnector},
		{"consumer cannot relay", ep(miner, ConnDisplayOut), ep("pc-1", ConnPowerIn), ErrInvalidConnection},
		{"sink to sink", ep("pc-1", ConnPowerIn), ep(miner, ConnPowerIn), ErrInvalidConnection},
		{"signal into power", ep("pc-1", ConnDisplayOut), ep(miner, ConnPowerIn), ErrInvalidConnection},
		{"second program slot on trader os", ep("pc-1", ProgramOutput(1)), ep(miner, ConnPowerIn), ErrUnknownConnector},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := r.Connect(tc.from, tc.to)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, r.Project().Connections)
		})
	}
}

// TestConnectReplacesOccupiedSink verifies single-attach through the command.
func TestConnectReplacesOccupiedSink(t *testing.T) {
	r := newTestRoom(t)
	miner, err := r.AddNode("miner")
	require.NoError(t, err)

	require.NoError(t, r.Connect(ep("pc-1", ConnDisplayOut), ep("interface-1", ConnDisplayIn)))
	require.NoError(t, r.Connect(ep(miner, ConnDisplayOut), ep("interface-1", ConnDisplayIn)))

	conns := r.Project().Connections
	require.Len(t, conns, 1)
	assert.Equal(t, miner, conns[0].From.Node)
	assert.Equal(t, ClassSignal, conns[0].Class)

	require.NoError(t, r.Disconnect(ep("interface-1", ConnDisplayIn)))
	require.NoError(t, r.Disconnect(ep("interface-1", ConnDisplayIn)))
	assert.Empty(t, r.Project().Connections)
	assert.ErrorIs(t, r.Disconnect(ep("interface-1", "bogus")), ErrUnknownConnector)
}

// TestInstallComponent covers each slot and the mismatch rules.
func TestInstallComponent(t *testing.T) {
	r := newTestRoom(t)

	require.NoError(t, r.InstallComponent("pc-1", SlotCPU, "cpu-3"))
	require.NoError(t, r.InstallComponent("pc-1", SlotGPU, "gpu-14"))
	require.NoError(t, r.InstallComponent("pc-1", RAMSlot(3), "ram-32-p"))
	require.NoError(t, r.InstallComponent("pc-1", SlotCooling, "aio"))
	require.NoError(t, r.InstallComponent("pc-1", SlotOS, "miner-os"))
	require.NoError(t, r.InstallComponent("pc-1", RAMSlot(0), ""))

	assert.ErrorIs(t, r.InstallComponent("pc-1", "ram-4", "ram-8"), ErrUnknownComponentSlot)
	assert.ErrorIs(t, r.InstallComponent("pc-1", "psu", "ram-8"), ErrUnknownComponentSlot)
	assert.ErrorIs(t, r.InstallComponent("pc-1", SlotCPU, "gpu-8"), ErrComponentSlotMismatch)
	assert.ErrorIs(t, r.InstallComponent("pc-1", SlotCPU, "cpu-99"), ErrUnknownCatalogItem)
	assert.ErrorIs(t, r.InstallComponent("interface-1", SlotCPU, "cpu-1"), ErrUnknownComponentSlot)
	assert.ErrorIs(t, r.InstallComponent("ghost", SlotCPU, "cpu-1"), ErrUnknownNode)

	cs := r.Snapshot().Nodes[1].Compute
	assert.Equal(t, "cpu-3", cs.CPU)
	assert.Equal(t, "gpu-14", cs.GPU)
	assert.Equal(t, [RAMSlots]string{"", "ram-8", "", "ram-32-p"}, cs.RAM)
	assert.Equal(t, "aio", cs.Cooling)
	assert.Equal(t, "miner-os", cs.OS)
}

// TestOSDowngradeKeepsWires verifies wires on program slots above the new OS
// limit survive and still resolve.
func TestOSDowngradeKeepsWires(t *testing.T) {
	r := newTestRoom(t)
	require.NoError(t, r.InstallComponent("pc-1", SlotOS, "miner-os"))
	prog, err := r.AddNode("bitwatcher")
	require.NoError(t, err)
	require.NoError(t, r.Connect(ep("pc-1", ProgramOutput(2)), ep(prog, ConnProgramIn)))
	require.NoError(t, r.Connect(ep("pc-1", ConnDisplayOut), ep("interface-1", ConnDisplayIn)))

	require.NoError(t, r.InstallComponent("pc-1", SlotOS, "trader-os"))
	p := r.Project()
	require.Len(t, p.Connections, 2)
	require.Len(t, p.Interfaces, 1)
	assert.Equal(t, prog, p.Interfaces[0].Program)

	require.NoError(t, r.Disconnect(ep(prog, ConnProgramIn)))
	assert.Len(t, r.Project().Connections, 1)
}

// TestSetOverclockRules covers range, target and overheat refusals.
func TestSetOverclockRules(t *testing.T) {
	r := newTestRoom(t)
	require.NoError(t, r.SetOverclock("pc-1", TargetGPU, 50))
	require.NoError(t, r.SetOverclock("pc-1", TargetCPU, 0))

	assert.ErrorIs(t, r.SetOverclock("pc-1", TargetRAM, 51), ErrOverclockOutOfRange)
	assert.ErrorIs(t, r.SetOverclock("pc-1", TargetRAM, -1), ErrOverclockOutOfRange)
	assert.ErrorIs(t, r.SetOverclock("pc-1", TargetDisplay, 10), ErrUnknownComponentSlot)
	assert.ErrorIs(t, r.SetOverclock("interface-1", TargetCPU, 10), ErrWrongNodeKind)

	r.store.UpdateNode("pc-1", func(n *Node) { n.Compute.Overheated = true })
	assert.ErrorIs(t, r.SetOverclock("pc-1", TargetCPU, 10), ErrOverclockWhileOverheated)

	p := r.Project()
	assert.Equal(t, OverclockView{GPU: 50}, *p.Nodes[1].Overclock)
}

// TestAddNodeKinds verifies catalog ids map to the right node kinds.
func TestAddNodeKinds(t *testing.T) {
	r := newTestRoom(t)
	cases := []struct {
		catalog string
		id      NodeID
		kind    NodeKind
	}{
		{"power-strip", "power-strip-2", KindPowerStrip},
		{"transformer-large", "transformer-large-3", KindTransformer},
		{"ramburner", "ramburner-4", KindProgram},
		{"interface-hub", "interface-hub-5", KindInterfaceHub},
		{"pc", "pc-6", KindCompute},
	}
	for _, tc := range cases {
		id, err := r.AddNode(tc.catalog)
		require.NoError(t, err, tc.catalog)
		assert.Equal(t, tc.id, id)
		n, ok := r.store.Node(id)
		require.True(t, ok)
		assert.Equal(t, tc.kind, n.Kind)
	}

	_, err := r.AddNode("cpu-1")
	assert.ErrorIs(t, err, ErrComponentSlotMismatch)
	_, err = r.AddNode("nope")
	assert.ErrorIs(t, err, ErrUnknownCatalogItem)

	id, err := r.AddNode("miner")
	require.NoError(t, err)
	assert.Equal(t, NodeID("miner-7"), id, "failed purchases do not consume ids")
}

// TestRoomTickCreditsWallet powers the starting PC and a transformer-fed
// miner, then checks one tick of income and fees.
func TestRoomTickCreditsWallet(t *testing.T) {
	r := newTestRoom(t)
	powerPC(t, r)
	tr, err := r.AddNode("transformer-small")
	require.NoError(t, err)
	miner, err := r.AddNode("miner")
	require.NoError(t, err)
	require.NoError(t, r.Connect(ep(PowerSourceID, ConnPowerOut), ep(tr, ConnPowerIn)))
	require.NoError(t, r.Connect(ep(tr, ConnPowerOut), ep(miner, ConnPowerIn)))

	rep := r.Tick()
	pcRate := ComputeRate(r.cat, &ComputeState{CPU: "cpu-1", GPU: "gpu-8", RAM: [RAMSlots]string{"ram-8", "ram-8"}})
	assert.InDelta(t, pcRate+1, rep.Production, 1e-12)

	p := r.Project()
	assert.InDelta(t, (pcRate+1)/60, p.Global.Coins, 1e-12)
	assert.InDelta(t, StartingMoney-0.01, p.Global.Money, 1e-12)
	assert.InDelta(t, pcRate+1, p.Global.TotalProductionRate, 1e-12)
	assert.Equal(t, BaseWattage+500, p.Global.TotalWattageBudget)
	assert.Equal(t, uint64(1), p.Global.Tick)
	assert.True(t, r.TakeDirty())
	assert.False(t, r.TakeDirty())
}

// TestRoomOverheatCycle runs the full hysteresis through the room: trip,
// refuse overclocks while hot, then accept them again after recovery.
func TestRoomOverheatCycle(t *testing.T) {
	r := newTestRoom(t)
	powerPC(t, r)
	require.NoError(t, r.InstallComponent("pc-1", SlotCPU, "cpu-4"))
	require.NoError(t, r.InstallComponent("pc-1", SlotGPU, "gpu-24"))
	require.NoError(t, r.InstallComponent("pc-1", RAMSlot(0), ""))
	require.NoError(t, r.InstallComponent("pc-1", RAMSlot(1), ""))

	r.Tick()
	require.False(t, r.Project().Nodes[1].Overheated)

	for _, target := range []ProgramTarget{TargetCPU, TargetGPU, TargetRAM} {
		require.NoError(t, r.SetOverclock("pc-1", target, 50))
	}
	rep := r.Tick()
	require.Equal(t, []NodeID{"pc-1"}, rep.Overheated)

	view := r.Project().Nodes[1]
	assert.True(t, view.Overheated)
	assert.Equal(t, OverclockView{}, *view.Overclock)
	assert.Zero(t, view.ProductionRate)
	assert.ErrorIs(t, r.SetOverclock("pc-1", TargetCPU, 10), ErrOverclockWhileOverheated)

	for i := 0; i < 200 && r.Project().Nodes[1].Overheated; i++ {
		r.Tick()
	}
	assert.False(t, r.Project().Nodes[1].Overheated)
	assert.NoError(t, r.SetOverclock("pc-1", TargetCPU, 10))
}

// TestTradingNeedsContext verifies interfaces only trade with a signal from a
// PC running an OS or from a miner.
func TestTradingNeedsContext(t *testing.T) {
	r := newTestRoom(t)
	assert.ErrorIs(t, r.Buy("interface-1", 1), ErrTradingUnavailable)
	assert.ErrorIs(t, r.Buy("pc-1", 1), ErrWrongNodeKind)

	require.NoError(t, r.Connect(ep("pc-1", ConnDisplayOut), ep("interface-1", ConnDisplayIn)))
	require.NoError(t, r.Buy("interface-1", 10))
	assert.ErrorIs(t, r.Buy("interface-1", 1000), ErrInsufficientFunds)
	require.NoError(t, r.Sell("interface-1", 4))
	sold, err := r.SellAll("interface-1")
	require.NoError(t, err)
	assert.InDelta(t, 6.0, sold, 1e-12)
	assert.InDelta(t, StartingMoney, r.Project().Global.Money, 1e-9)

	require.NoError(t, r.InstallComponent("pc-1", SlotOS, ""))
	assert.ErrorIs(t, r.Sell("interface-1", 1), ErrTradingUnavailable)
	iface := r.Project().Interfaces[0]
	assert.True(t, iface.SignalPresent)
	assert.False(t, iface.CanTrade)
	assert.Equal(t, KindCompute, iface.ResolvedDeviceKind)
}

// TestTerminalOverclock drives a cpuburner program through its commands.
func TestTerminalOverclock(t *testing.T) {
	r := newTestRoom(t)
	prog, err := r.AddNode("cpuburner")
	require.NoError(t, err)

	res, err := r.Terminal(prog, "oc cpu get")
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, LineError, res.Lines[0].Kind)
	assert.Equal(t, "ERROR: No PC connected", res.Lines[0].Text)

	require.NoError(t, r.Connect(ep("pc-1", ProgramOutput(0)), ep(prog, ConnProgramIn)))

	res, err = r.Terminal(prog, "OC CPU burn 30")
	require.NoError(t, err)
	assert.Equal(t, "CPU OC set to 30%", res.Lines[0].Text)
	assert.Equal(t, 30, r.Snapshot().Nodes[1].Compute.CPUOC)

	res, _ = r.Terminal(prog, "oc cpu burn 80")
	assert.Equal(t, "ERROR: Value must be 0-50", res.Lines[0].Text)
	res, _ = r.Terminal(prog, "oc cpu burn lots")
	assert.Equal(t, LineError, res.Lines[0].Kind)
	assert.Equal(t, 30, r.Snapshot().Nodes[1].Compute.CPUOC)

	res, _ = r.Terminal(prog, "oc cpu get")
	assert.Equal(t, "CPU Overclock: 30%", res.Lines[0].Text)

	res, _ = r.Terminal(prog, "oc cpu info")
	assert.Equal(t, "CPU: Qnit 1000", res.Lines[0].Text)

	res, _ = r.Terminal(prog, "oc gpu get")
	assert.Equal(t, "This is CPUBurner. Use: oc cpu <cmd>", res.Lines[0].Text)

	res, _ = r.Terminal(prog, "oc status")
	assert.Equal(t, "=== PC STATUS ===", res.Lines[0].Text)
	assert.Equal(t, "CPU OC: 30%", res.Lines[2].Text)

	res, _ = r.Terminal(prog, "oc cpu reset")
	assert.Equal(t, "CPU OC reset to 0%", res.Lines[0].Text)

	res, _ = r.Terminal(prog, "clear")
	assert.True(t, res.Clear)
	res, _ = r.Terminal(prog, "dance")
	assert.Equal(t, "Unknown command: dance", res.Lines[0].Text)
	res, _ = r.Terminal(prog, "   ")
	assert.Empty(t, res.Lines)

	_, err = r.Terminal("pc-1", "oc help")
	assert.ErrorIs(t, err, ErrWrongNodeKind)
}

// TestSnapshotRestore round-trips a room through JSON into a fresh room.
func TestSnapshotRestore(t *testing.T) {
	r := newTestRoom(t)
	powerPC(t, r)
	strip, err := r.AddNode("power-strip")
	require.NoError(t, err)
	require.NoError(t, r.Connect(ep(PowerSourceID, ConnPowerOut), ep(strip, ConnPowerIn)))
	require.NoError(t, r.SetOverclock("pc-1", TargetGPU, 25))
	r.Tick()
	r.StepMarket()

	data, err := json.Marshal(r.Snapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	other := NewRoom("other", RoomConfig{Rand: fixedRand(0.5)})
	require.NoError(t, other.Restore(snap))

	want, got := r.Project(), other.Project()
	want.Room, got.Room = "", ""
	assert.Equal(t, want, got)

	id, err := other.AddNode("miner")
	require.NoError(t, err)
	assert.Equal(t, NodeID("miner-3"), id)
}

// TestRestoreRejectsDanglingWires leaves the room untouched on bad input.
func TestRestoreRejectsDanglingWires(t *testing.T) {
	r := newTestRoom(t)
	snap := r.Snapshot()
	snap.Connections = append(snap.Connections, Connection{
		From: ep("ghost", ConnPowerOut), To: ep("pc-1", ConnPowerIn), Class: ClassPower,
	})
	assert.ErrorIs(t, r.Restore(snap), ErrBadSnapshot)

	assert.ErrorIs(t, r.Restore(Snapshot{}), ErrBadSnapshot)
	assert.Len(t, r.Project().Nodes, 3)
}

// TestResetRestoresStartingLayout verifies reset wipes nodes and wallet.
func TestResetRestoresStartingLayout(t *testing.T) {
	r := newTestRoom(t)
	powerPC(t, r)
	_, err := r.AddNode("miner")
	require.NoError(t, err)
	r.Tick()

	r.Reset()
	p := r.Project()
	assert.Len(t, p.Nodes, 3)
	assert.Empty(t, p.Connections)
	assert.Equal(t, StartingMoney, p.Global.Money)
	assert.Zero(t, p.Global.Coins)
	assert.Zero(t, p.Global.Tick)

	id, err := r.AddNode("miner")
	require.NoError(t, err)
	assert.Equal(t, NodeID("miner-2"), id)
}

// TestHubGetRoom verifies rooms are created once and listed by id.
func TestHubGetRoom(t *testing.T) {
	h := NewHub(RoomConfig{Rand: fixedRand(0.5)})
	a, created := h.GetRoom("b-room")
	assert.True(t, created)
	again, created := h.GetRoom("b-room")
	assert.False(t, created)
	assert.Same(t, a, again)

	h.GetRoom("a-room")
	rooms := h.List()
	require.Len(t, rooms, 2)
	assert.Equal(t, "a-room", rooms[0].ID)

	_, ok := h.Lookup("missing")
	assert.False(t, ok)
}
