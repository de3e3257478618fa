package game

import "github.com/zyedidia/generic/mapset"

// GraphReader is the read side of the graph store that propagation needs.
type GraphReader interface {
	Node(id NodeID) (*Node, bool)
	Nodes() []*Node
	Incoming(sink Endpoint) (Connection, bool)
	Outgoing(source Endpoint) []Connection
}

// Engine answers reachability questions over a graph. It keeps no state
// between calls, so every answer reflects the graph as it is right now.
type Engine struct {
	graph GraphReader
}

func NewEngine(g GraphReader) *Engine {
	return &Engine{graph: g}
}

// IsPowered walks power-in wires upstream until it reaches the grid. Only
// transformers and power strips relay; a revisited node means the path is a
// loop with no grid at its root, which counts as unpowered.
func (e *Engine) IsPowered(id NodeID) bool {
	visited := mapset.New[NodeID]()
	current := id
	for {
		if visited.Has(current) {
			return false
		}
		visited.Put(current)

		conn, ok := e.graph.Incoming(Endpoint{Node: current, Connector: ConnPowerIn})
		if !ok {
			return false
		}
		src, ok := e.graph.Node(conn.From.Node)
		if !ok {
			return false
		}
		switch src.Kind {
		case KindPowerSource:
			return true
		case KindTransformer, KindPowerStrip:
			current = src.ID
		default:
			return false
		}
	}
}

// HasSignal reports whether anything is wired to the node's display or hub output.
func (e *Engine) HasSignal(id NodeID) bool {
	if len(e.graph.Outgoing(Endpoint{Node: id, Connector: ConnDisplayOut})) > 0 {
		return true
	}
	return len(e.graph.Outgoing(Endpoint{Node: id, Connector: ConnSignalOut})) > 0
}

// displayFeed returns the node wired into an interface's display input.
func (e *Engine) displayFeed(interfaceID NodeID) (*Node, bool) {
	conn, ok := e.graph.Incoming(Endpoint{Node: interfaceID, Connector: ConnDisplayIn})
	if !ok {
		return nil, false
	}
	return e.graph.Node(conn.From.Node)
}

// hubDevices returns the devices on a hub's inputs, indexed by slot; empty
// slots are nil.
func (e *Engine) hubDevices(hubID NodeID) [HubInputs]*Node {
	var out [HubInputs]*Node
	for i := range HubInputs {
		conn, ok := e.graph.Incoming(Endpoint{Node: hubID, Connector: HubInput(i)})
		if !ok {
			continue
		}
		if n, ok := e.graph.Node(conn.From.Node); ok {
			out[i] = n
		}
	}
	return out
}

// ResolveDisplaySource finds the device an interface shows. A PC or miner
// wired directly is returned as-is. Through a hub, the first slot holding a
// PC wins and the rest are ignored.
func (e *Engine) ResolveDisplaySource(interfaceID NodeID) (*Node, bool) {
	src, ok := e.displayFeed(interfaceID)
	if !ok {
		return nil, false
	}
	switch src.Kind {
	case KindCompute, KindMiner:
		return src, true
	case KindInterfaceHub:
		for _, dev := range e.hubDevices(src.ID) {
			if dev != nil && dev.Kind == KindCompute {
				return dev, true
			}
		}
	}
	return nil, false
}

// HasMinerConnected reports whether a miner feeds the interface directly or
// through any hub slot.
func (e *Engine) HasMinerConnected(interfaceID NodeID) bool {
	src, ok := e.displayFeed(interfaceID)
	if !ok {
		return false
	}
	switch src.Kind {
	case KindMiner:
		return true
	case KindInterfaceHub:
		for _, dev := range e.hubDevices(src.ID) {
			if dev != nil && dev.Kind == KindMiner {
				return true
			}
		}
	}
	return false
}

// ResolveProgramsForCompute lists the programs on a PC's outputs in slot order.
// Wires on slots above the current OS limit still count.
func (e *Engine) ResolveProgramsForCompute(computeID NodeID) []*Node {
	var programs []*Node
	for i := range MaxProgramSlots {
		for _, conn := range e.graph.Outgoing(Endpoint{Node: computeID, Connector: ProgramOutput(i)}) {
			if n, ok := e.graph.Node(conn.To.Node); ok && n.Kind == KindProgram {
				programs = append(programs, n)
			}
		}
	}
	return programs
}

// InterfaceProgram is the program context an interface runs: the first
// program attached to the PC it displays.
func (e *Engine) InterfaceProgram(interfaceID NodeID) (*Node, bool) {
	dev, ok := e.ResolveDisplaySource(interfaceID)
	if !ok || dev.Kind != KindCompute {
		return nil, false
	}
	programs := e.ResolveProgramsForCompute(dev.ID)
	if len(programs) == 0 {
		return nil, false
	}
	return programs[0], true
}

// ComputeForProgram returns the PC a program node is attached to.
func (e *Engine) ComputeForProgram(programID NodeID) (*Node, bool) {
	conn, ok := e.graph.Incoming(Endpoint{Node: programID, Connector: ConnProgramIn})
	if !ok {
		return nil, false
	}
	n, ok := e.graph.Node(conn.From.Node)
	if !ok || n.Kind != KindCompute {
		return nil, false
	}
	return n, true
}
