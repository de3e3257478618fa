package game

// Ledger receives the aggregate result of a tick.
type Ledger interface {
	ApplyTickDelta(commodity, fees float64)
}

// TickReport summarizes one simulator tick.
type TickReport struct {
	Production float64 // UnitCoin per minute across every producing node
	Commodity  float64 // UnitCoin credited this tick
	Fees       float64 // currency charged this tick
	Overheated []NodeID
	Recovered  []NodeID
}

// Simulator advances thermal state and aggregates production for a store.
type Simulator struct {
	cat    *Catalog
	params ThermalParams
	rng    Rand
}

func NewSimulator(cat *Catalog, params ThermalParams, rng Rand) *Simulator {
	return &Simulator{cat: cat, params: SanitizeThermalParams(params), rng: rng}
}

func (s *Simulator) Params() ThermalParams { return s.params }

// Tick runs one simulation step. Power is resolved for every node before any
// state changes, so the order nodes are visited in cannot leak into the result.
// The ledger sees exactly one delta per tick.
func (s *Simulator) Tick(store *Store, ledger Ledger) TickReport {
	engine := NewEngine(store)
	nodes := store.Nodes()
	powered := make(map[NodeID]bool, len(nodes))
	for _, n := range nodes {
		powered[n.ID] = engine.IsPowered(n.ID)
	}

	var rep TickReport
	for _, n := range nodes {
		switch n.Kind {
		case KindCompute:
			if n.Compute == nil {
				continue
			}
			var res ThermalResult
			store.UpdateNode(n.ID, func(node *Node) {
				res = AdvanceThermal(s.cat, node.Compute, powered[n.ID], s.params, s.rng)
			})
			if res.EnteredOverheat {
				rep.Overheated = append(rep.Overheated, n.ID)
			}
			if res.RecoveredNow {
				rep.Recovered = append(rep.Recovered, n.ID)
			}
			if powered[n.ID] && !res.Overheated {
				rep.Production += ComputeRate(s.cat, n.Compute)
			}
		case KindMiner:
			if powered[n.ID] {
				rep.Production += MinerRatePerMinute
			}
		case KindTransformer:
			if powered[n.ID] {
				rep.Fees += s.cat.Transformers[n.Model].TickFee
			}
		}
	}

	rep.Commodity = rep.Production / 60
	if ledger != nil {
		ledger.ApplyTickDelta(rep.Commodity, rep.Fees)
	}
	return rep
}

// TotalWattageBudget is the base allowance plus the rating of every powered
// transformer.
func (e *Engine) TotalWattageBudget(cat *Catalog) int {
	total := BaseWattage
	for _, n := range e.graph.Nodes() {
		if n.Kind != KindTransformer || !e.IsPowered(n.ID) {
			continue
		}
		total += cat.Transformers[n.Model].Wattage
	}
	return total
}

// ProductionRate is the instantaneous rate of a single node, matching what a
// tick would credit for it.
func (e *Engine) ProductionRate(cat *Catalog, n *Node) float64 {
	switch n.Kind {
	case KindCompute:
		if n.Compute == nil || n.Compute.Overheated || !e.IsPowered(n.ID) {
			return 0
		}
		return ComputeRate(cat, n.Compute)
	case KindMiner:
		if e.IsPowered(n.ID) {
			return MinerRatePerMinute
		}
	}
	return 0
}
