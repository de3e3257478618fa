package game

import "sort"

// NodeID identifies a node for its whole lifetime.
type NodeID string

// NodeKind is the variant tag of a node.
type NodeKind string

const (
	KindPowerSource  NodeKind = "power-grid"
	KindTransformer  NodeKind = "transformer"
	KindPowerStrip   NodeKind = "power-strip"
	KindCompute      NodeKind = "pc"
	KindMiner        NodeKind = "miner"
	KindInterfaceHub NodeKind = "interface-hub"
	KindInterface    NodeKind = "interface"
	KindProgram      NodeKind = "program"
)

// PowerSourceID is the id of the singleton grid node.
const PowerSourceID NodeID = "power-grid"

// ComputeState is the per-PC hardware and thermal state.
type ComputeState struct {
	CPU        string           `json:"cpu,omitempty"`
	GPU        string           `json:"gpu,omitempty"`
	RAM        [RAMSlots]string `json:"ram"`
	Cooling    string           `json:"cooling,omitempty"`
	OS         string           `json:"os,omitempty"`
	CPUOC      int              `json:"cpuOC"`
	GPUOC      int              `json:"gpuOC"`
	RAMOC      int              `json:"ramOC"`
	Temp       float64          `json:"currentTemp"`
	Overheated bool             `json:"isOverheated"`
}

// Node is a tagged variant: Kind selects which of the optional fields apply.
// Model carries the catalog id for transformers and programs.
type Node struct {
	ID      NodeID        `json:"id"`
	Kind    NodeKind      `json:"type"`
	Model   string        `json:"model,omitempty"`
	Compute *ComputeState `json:"compute,omitempty"`
}

func (n *Node) clone() *Node {
	cp := *n
	if n.Compute != nil {
		c := *n.Compute
		cp.Compute = &c
	}
	return &cp
}

// Endpoint is one end of a wire: a connector on a node.
type Endpoint struct {
	Node      NodeID    `json:"node"`
	Connector Connector `json:"connector"`
}

// Connection is a directed wire from a source connector to a sink connector.
type Connection struct {
	From  Endpoint  `json:"from"`
	To    Endpoint  `json:"to"`
	Class ConnClass `json:"class"`
}

type link struct {
	Connection
	seq uint64
}

// Store owns the authoritative node set and wiring. It applies no rules of its
// own; callers validate before mutating.
type Store struct {
	nodes  map[NodeID]*Node
	order  []NodeID
	bySink map[Endpoint]link
	seq    uint64
}

func NewStore() *Store {
	return &Store{
		nodes:  map[NodeID]*Node{},
		bySink: map[Endpoint]link{},
	}
}

// AddNode inserts n. It returns false if the id is already taken.
func (s *Store) AddNode(n *Node) bool {
	if n == nil {
		return false
	}
	if _, exists := s.nodes[n.ID]; exists {
		return false
	}
	s.nodes[n.ID] = n.clone()
	s.order = append(s.order, n.ID)
	return true
}

func (s *Store) RemoveAllNodes() {
	s.nodes = map[NodeID]*Node{}
	s.order = nil
	s.bySink = map[Endpoint]link{}
}

// SetConnection wires from -> to, evicting whatever was attached to the sink.
func (s *Store) SetConnection(from, to Endpoint, class ConnClass) {
	s.seq++
	s.bySink[to] = link{
		Connection: Connection{From: from, To: to, Class: class},
		seq:        s.seq,
	}
}

// RemoveConnection detaches the wire on sink, reporting whether one existed.
func (s *Store) RemoveConnection(sink Endpoint) bool {
	if _, ok := s.bySink[sink]; !ok {
		return false
	}
	delete(s.bySink, sink)
	return true
}

// UpdateNode applies patch to the stored node in place.
func (s *Store) UpdateNode(id NodeID, patch func(*Node)) bool {
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	patch(n)
	return true
}

// Node returns the stored node. Callers must treat it as read-only.
func (s *Store) Node(id NodeID) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns every node in insertion order.
func (s *Store) Nodes() []*Node {
	out := make([]*Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

func (s *Store) NodeCount() int { return len(s.order) }

func (s *Store) Incoming(sink Endpoint) (Connection, bool) {
	l, ok := s.bySink[sink]
	return l.Connection, ok
}

func (s *Store) Outgoing(source Endpoint) []Connection {
	var out []Connection
	for _, l := range s.sortedLinks() {
		if l.From == source {
			out = append(out, l.Connection)
		}
	}
	return out
}

// Connections returns every wire in creation order.
func (s *Store) Connections() []Connection {
	links := s.sortedLinks()
	out := make([]Connection, 0, len(links))
	for _, l := range links {
		out = append(out, l.Connection)
	}
	return out
}

func (s *Store) sortedLinks() []link {
	links := make([]link, 0, len(s.bySink))
	for _, l := range s.bySink {
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].seq < links[j].seq })
	return links
}
