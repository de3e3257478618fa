package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidConnection is returned when the two ports may not be wired together.
	ErrInvalidConnection = errors.New("game: invalid connection")
	// ErrOverclockOutOfRange is returned for overclock values outside 0..MaxOverclock.
	ErrOverclockOutOfRange = errors.New("game: overclock out of range")
	// ErrOverclockWhileOverheated is returned when overclocking a PC that is cooling down.
	ErrOverclockWhileOverheated = errors.New("game: pc is overheated")
	// ErrUnknownComponentSlot is returned when an install targets a slot the node does not have.
	ErrUnknownComponentSlot = errors.New("game: unknown component slot")
	// ErrUnknownNode is returned when a command names a node that does not exist.
	ErrUnknownNode = errors.New("game: unknown node")
	// ErrWrongNodeKind is returned when a command targets a node of the wrong kind.
	ErrWrongNodeKind = errors.New("game: wrong node kind")
	// ErrUnknownConnector is returned when a node has no connector with the given name.
	ErrUnknownConnector = errors.New("game: unknown connector")
	// ErrUnknownCatalogItem is returned for ids missing from the catalog.
	ErrUnknownCatalogItem = errors.New("game: unknown catalog item")
	// ErrComponentSlotMismatch is returned when a part is installed into a slot of another type.
	ErrComponentSlotMismatch = errors.New("game: component does not fit slot")
	// ErrInsufficientFunds is returned when a purchase costs more than the wallet holds.
	ErrInsufficientFunds = errors.New("game: insufficient funds")
	// ErrInsufficientCoins is returned when selling more UnitCoin than the wallet holds.
	ErrInsufficientCoins = errors.New("game: insufficient coins")
	// ErrInvalidAmount is returned for non-positive trade amounts.
	ErrInvalidAmount = errors.New("game: invalid amount")
	// ErrTradingUnavailable is returned when an interface has nothing to trade through.
	ErrTradingUnavailable = errors.New("game: trading unavailable")
)

// Component slot names accepted by InstallComponent.
const (
	SlotCPU     = "cpu"
	SlotGPU     = "gpu"
	SlotCooling = "cooling"
	SlotOS      = "os"
	slotRAM     = "ram-"
)

func RAMSlot(i int) string { return slotRAM + strconv.Itoa(i) }

// Connect wires from to to after checking both connectors exist and the
// pair is allowed. An occupied sink is silently taken over.
func (r *Room) Connect(from, to Endpoint) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	src, ok := r.store.Node(from.Node)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from.Node)
	}
	dst, ok := r.store.Node(to.Node)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, to.Node)
	}
	srcSpec, ok := LookupConnector(r.cat, src, from.Connector)
	if !ok {
		return fmt.Errorf("%w: %s:%s", ErrUnknownConnector, from.Node, from.Connector)
	}
	dstSpec, ok := LookupConnector(r.cat, dst, to.Connector)
	if !ok {
		return fmt.Errorf("%w: %s:%s", ErrUnknownConnector, to.Node, to.Connector)
	}
	if !CanConnect(srcSpec.Port(src.Kind), dstSpec.Port(dst.Kind)) {
		return fmt.Errorf("%w: %s:%s -> %s:%s", ErrInvalidConnection, from.Node, from.Connector, to.Node, to.Connector)
	}

	r.store.SetConnection(from, to, srcSpec.Class)
	r.dirty = true
	return nil
}

// Disconnect removes whatever is wired into sink. An empty sink is left as is.
func (r *Room) Disconnect(sink Endpoint) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	n, ok := r.store.Node(sink.Node)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, sink.Node)
	}
	// Wires are never re-validated, so a program-out above the current OS
	// limit may still hold one; only existing wires matter here.
	if _, ok := LookupConnector(r.cat, n, sink.Connector); !ok {
		if _, wired := r.store.Incoming(sink); !wired {
			return fmt.Errorf("%w: %s:%s", ErrUnknownConnector, sink.Node, sink.Connector)
		}
	}
	if r.store.RemoveConnection(sink) {
		r.dirty = true
	}
	return nil
}

// AddNode places a new node built from a catalog entry and returns its id.
func (r *Room) AddNode(catalogID string) (NodeID, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	n := &Node{ID: NodeID(fmt.Sprintf("%s-%d", catalogID, r.nextNode))}
	kind, ok := r.cat.Kind(catalogID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCatalogItem, catalogID)
	}
	switch kind {
	case CatalogNode:
		n.Kind = r.cat.Nodes[catalogID]
		if n.Kind == KindCompute {
			n.Compute = &ComputeState{Temp: r.sim.Params().Ambient}
		}
	case CatalogTransformer:
		n.Kind = KindTransformer
		n.Model = catalogID
	case CatalogProgram:
		n.Kind = KindProgram
		n.Model = catalogID
	default:
		return "", fmt.Errorf("%w: %s is a %s component", ErrComponentSlotMismatch, catalogID, kind)
	}
	if !r.store.AddNode(n) {
		return "", fmt.Errorf("game: node id %s already taken", n.ID)
	}
	r.nextNode++
	r.dirty = true
	return n.ID, nil
}

// InstallComponent puts a catalog part into one of a PC's slots. An empty
// itemID clears the slot. Wires are left untouched even when the new OS
// offers fewer program outputs.
func (r *Room) InstallComponent(nodeID NodeID, slot, itemID string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	n, ok := r.store.Node(nodeID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}
	if n.Kind != KindCompute || n.Compute == nil {
		return fmt.Errorf("%w: %s has no component slots", ErrUnknownComponentSlot, nodeID)
	}

	want, ramIndex, err := slotKind(slot)
	if err != nil {
		return err
	}
	if itemID != "" {
		got, ok := r.cat.Kind(itemID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCatalogItem, itemID)
		}
		if got != want {
			return fmt.Errorf("%w: %s into %s", ErrComponentSlotMismatch, itemID, slot)
		}
	}

	r.store.UpdateNode(nodeID, func(n *Node) {
		switch want {
		case CatalogCPU:
			n.Compute.CPU = itemID
		case CatalogGPU:
			n.Compute.GPU = itemID
		case CatalogRAM:
			n.Compute.RAM[ramIndex] = itemID
		case CatalogCooling:
			n.Compute.Cooling = itemID
		case CatalogOS:
			n.Compute.OS = itemID
		}
	})
	r.dirty = true
	return nil
}

func slotKind(slot string) (CatalogKind, int, error) {
	switch slot {
	case SlotCPU:
		return CatalogCPU, -1, nil
	case SlotGPU:
		return CatalogGPU, -1, nil
	case SlotCooling:
		return CatalogCooling, -1, nil
	case SlotOS:
		return CatalogOS, -1, nil
	}
	if rest, ok := strings.CutPrefix(slot, slotRAM); ok {
		if i, err := strconv.Atoi(rest); err == nil && i >= 0 && i < RAMSlots && strconv.Itoa(i) == rest {
			return CatalogRAM, i, nil
		}
	}
	return "", 0, fmt.Errorf("%w: %q", ErrUnknownComponentSlot, slot)
}

// SetOverclock sets one of a PC's overclock percentages.
func (r *Room) SetOverclock(nodeID NodeID, target ProgramTarget, pct int) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.setOverclockLocked(nodeID, target, pct)
}

func (r *Room) setOverclockLocked(nodeID NodeID, target ProgramTarget, pct int) error {
	n, ok := r.store.Node(nodeID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}
	if n.Kind != KindCompute || n.Compute == nil {
		return fmt.Errorf("%w: %s is not a pc", ErrWrongNodeKind, nodeID)
	}
	switch target {
	case TargetCPU, TargetGPU, TargetRAM:
	default:
		return fmt.Errorf("%w: overclock target %q", ErrUnknownComponentSlot, target)
	}
	if pct < 0 || pct > MaxOverclock {
		return fmt.Errorf("%w: %d", ErrOverclockOutOfRange, pct)
	}
	if n.Compute.Overheated {
		return fmt.Errorf("%w: %s", ErrOverclockWhileOverheated, nodeID)
	}

	r.store.UpdateNode(nodeID, func(n *Node) {
		switch target {
		case TargetCPU:
			n.Compute.CPUOC = pct
		case TargetGPU:
			n.Compute.GPUOC = pct
		case TargetRAM:
			n.Compute.RAMOC = pct
		}
	})
	r.dirty = true
	return nil
}

// Reset discards the whole session and restores the starting layout.
func (r *Room) Reset() {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.resetLocked()
	r.log.Info("room reset")
}

// canTradeLocked reports whether an interface has a trading context: a
// signal and either a PC running an OS or a miner on the line.
func (r *Room) canTradeLocked(ifaceID NodeID) bool {
	engine := NewEngine(r.store)
	dev, ok := engine.ResolveDisplaySource(ifaceID)
	if ok && dev.Kind == KindCompute && dev.Compute != nil && dev.Compute.OS != "" {
		return true
	}
	return engine.HasMinerConnected(ifaceID)
}

func (r *Room) tradingInterface(ifaceID NodeID) error {
	n, ok := r.store.Node(ifaceID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, ifaceID)
	}
	if n.Kind != KindInterface {
		return fmt.Errorf("%w: %s is not an interface", ErrWrongNodeKind, ifaceID)
	}
	if !r.canTradeLocked(ifaceID) {
		return fmt.Errorf("%w: %s", ErrTradingUnavailable, ifaceID)
	}
	return nil
}

// Buy purchases coins at the current price through an interface.
func (r *Room) Buy(ifaceID NodeID, coins float64) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if err := r.tradingInterface(ifaceID); err != nil {
		return err
	}
	if err := r.wallet.Buy(coins, r.market.Price); err != nil {
		return err
	}
	r.dirty = true
	return nil
}

// Sell sells coins at the current price through an interface.
func (r *Room) Sell(ifaceID NodeID, coins float64) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if err := r.tradingInterface(ifaceID); err != nil {
		return err
	}
	if err := r.wallet.Sell(coins, r.market.Price); err != nil {
		return err
	}
	r.dirty = true
	return nil
}

// SellAll liquidates every coin through an interface and returns the amount sold.
func (r *Room) SellAll(ifaceID NodeID) (float64, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if err := r.tradingInterface(ifaceID); err != nil {
		return 0, err
	}
	sold, err := r.wallet.SellAll(r.market.Price)
	if err != nil {
		return 0, err
	}
	r.dirty = true
	return sold, nil
}
