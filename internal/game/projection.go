package game

// OverclockView groups a PC's three overclock percentages.
type OverclockView struct {
	CPU int `json:"cpu"`
	GPU int `json:"gpu"`
	RAM int `json:"ram"`
}

// NodeView is the per-node projection pushed to clients.
type NodeView struct {
	ID             NodeID         `json:"id"`
	Kind           NodeKind       `json:"type"`
	Model          string         `json:"model,omitempty"`
	Powered        bool           `json:"powered"`
	HasSignal      bool           `json:"hasSignal"`
	Temperature    float64        `json:"temperature"`
	Overheated     bool           `json:"overheated"`
	ProductionRate float64        `json:"productionRate"`
	PowerDraw      int            `json:"powerDraw"`
	Overclock      *OverclockView `json:"overclock,omitempty"`
	Compute        *ComputeState  `json:"compute,omitempty"`
}

// InterfaceView describes what an interface node currently sees.
type InterfaceView struct {
	ID                 NodeID   `json:"id"`
	SignalPresent      bool     `json:"signalPresent"`
	ResolvedDevice     NodeID   `json:"resolvedDevice,omitempty"`
	ResolvedDeviceKind NodeKind `json:"resolvedDeviceKind,omitempty"`
	HasMiner           bool     `json:"hasMiner"`
	CanTrade           bool     `json:"canTrade"`
	OS                 string   `json:"os,omitempty"`
	Program            NodeID   `json:"program,omitempty"`
	ProgramModel       string   `json:"programModel,omitempty"`
}

// GlobalView is the room-wide summary.
type GlobalView struct {
	TotalProductionRate float64   `json:"totalProductionRate"`
	TotalWattageBudget  int       `json:"totalWattageBudget"`
	Money               float64   `json:"money"`
	Coins               float64   `json:"unitCoin"`
	Price               float64   `json:"price"`
	PriceHistory        []float64 `json:"priceHistory"`
	PriceUp             bool      `json:"priceUp"`
	Tick                uint64    `json:"tick"`
}

// Projection is a read-only picture of a room at one instant.
type Projection struct {
	Room        string          `json:"room"`
	Nodes       []NodeView      `json:"nodes"`
	Interfaces  []InterfaceView `json:"interfaces"`
	Connections []Connection    `json:"connections"`
	Global      GlobalView      `json:"global"`
}

// Project builds the current projection. Everything is computed from the
// live graph; nothing is cached between calls.
func (r *Room) Project() Projection {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	engine := NewEngine(r.store)
	p := Projection{
		Room:        r.ID,
		Nodes:       []NodeView{},
		Interfaces:  []InterfaceView{},
		Connections: r.store.Connections(),
	}

	var total float64
	for _, n := range r.store.Nodes() {
		v := NodeView{
			ID:        n.ID,
			Kind:      n.Kind,
			Model:     n.Model,
			Powered:   engine.IsPowered(n.ID),
			HasSignal: engine.HasSignal(n.ID),
		}
		v.ProductionRate = engine.ProductionRate(r.cat, n)
		total += v.ProductionRate
		if n.Compute != nil {
			cs := *n.Compute
			v.Compute = &cs
			v.Temperature = cs.Temp
			v.Overheated = cs.Overheated
			v.PowerDraw = PowerDraw(r.cat, &cs)
			v.Overclock = &OverclockView{CPU: cs.CPUOC, GPU: cs.GPUOC, RAM: cs.RAMOC}
		}
		p.Nodes = append(p.Nodes, v)

		if n.Kind == KindInterface {
			p.Interfaces = append(p.Interfaces, r.interfaceViewLocked(engine, n.ID))
		}
	}

	p.Global = GlobalView{
		TotalProductionRate: total,
		TotalWattageBudget:  engine.TotalWattageBudget(r.cat),
		Money:               r.wallet.Money,
		Coins:               r.wallet.Coins,
		Price:               r.market.Price,
		PriceHistory:        append([]float64(nil), r.market.History...),
		PriceUp:             r.market.Trend(),
		Tick:                r.Ticks,
	}
	return p
}

func (r *Room) interfaceViewLocked(engine *Engine, id NodeID) InterfaceView {
	_, signal := r.store.Incoming(Endpoint{Node: id, Connector: ConnDisplayIn})
	v := InterfaceView{
		ID:            id,
		SignalPresent: signal,
		HasMiner:      engine.HasMinerConnected(id),
		CanTrade:      r.canTradeLocked(id),
	}
	if dev, ok := engine.ResolveDisplaySource(id); ok {
		v.ResolvedDevice = dev.ID
		v.ResolvedDeviceKind = dev.Kind
		if dev.Compute != nil {
			v.OS = dev.Compute.OS
		}
	}
	if prog, ok := engine.InterfaceProgram(id); ok {
		v.Program = prog.ID
		v.ProgramModel = prog.Model
	}
	return v
}
