package game

import (
	"errors"
	"fmt"
)

// Snapshot is the persistable state of a room.
type Snapshot struct {
	Nodes       []*Node      `json:"nodes"`
	Connections []Connection `json:"connections"`
	Wallet      Wallet       `json:"wallet"`
	Market      Market       `json:"market"`
	NodeCounter int          `json:"nodeCounter"`
	Ticks       uint64       `json:"ticks"`
}

// ErrBadSnapshot is returned when a snapshot cannot be restored.
var ErrBadSnapshot = errors.New("game: bad snapshot")

// Snapshot copies the room's state.
func (r *Room) Snapshot() Snapshot {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	s := Snapshot{
		Connections: r.store.Connections(),
		Wallet:      *r.wallet,
		Market: Market{
			Price:   r.market.Price,
			History: append([]float64(nil), r.market.History...),
		},
		NodeCounter: r.nextNode,
		Ticks:       r.Ticks,
	}
	for _, n := range r.store.Nodes() {
		s.Nodes = append(s.Nodes, n.clone())
	}
	return s
}

// Restore replaces the room's state with s. Wires are replayed in their
// saved order; a wire naming a missing node fails the whole restore and
// leaves the room untouched.
func (r *Room) Restore(s Snapshot) error {
	store := NewStore()
	for _, n := range s.Nodes {
		if n == nil {
			continue
		}
		if n.Kind == KindCompute && n.Compute == nil {
			n = n.clone()
			n.Compute = &ComputeState{Temp: AmbientTemp}
		}
		if !store.AddNode(n) {
			return fmt.Errorf("%w: duplicate node %s", ErrBadSnapshot, n.ID)
		}
	}
	if _, ok := store.Node(PowerSourceID); !ok {
		return fmt.Errorf("%w: missing %s", ErrBadSnapshot, PowerSourceID)
	}
	for _, c := range s.Connections {
		if _, ok := store.Node(c.From.Node); !ok {
			return fmt.Errorf("%w: wire from unknown node %s", ErrBadSnapshot, c.From.Node)
		}
		if _, ok := store.Node(c.To.Node); !ok {
			return fmt.Errorf("%w: wire to unknown node %s", ErrBadSnapshot, c.To.Node)
		}
		store.SetConnection(c.From, c.To, c.Class)
	}

	wallet := s.Wallet
	market := Market{Price: s.Market.Price, History: append([]float64(nil), s.Market.History...)}
	if !(market.Price >= MinPrice) {
		market.Price = StartingPrice
	}
	if len(market.History) == 0 {
		market.History = []float64{market.Price}
	}
	counter := max(s.NodeCounter, 2)

	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.store = store
	r.wallet = &wallet
	r.market = &market
	r.nextNode = counter
	r.Ticks = s.Ticks
	r.dirty = false
	return nil
}
