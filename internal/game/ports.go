package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Connector names a port on a node.
type Connector string

const (
	ConnPowerIn    Connector = "power-in"
	ConnPowerOut   Connector = "power-out"
	ConnDisplayOut Connector = "display-out"
	ConnDisplayIn  Connector = "display-in"
	ConnSignalOut  Connector = "signal-out"
	ConnProgramIn  Connector = "program-in"

	stripOutPrefix   = "power-out-"
	hubInPrefix      = "display-in-"
	programOutPrefix = "program-out-"
)

func StripOutput(i int) Connector   { return Connector(fmt.Sprintf("%s%d", stripOutPrefix, i)) }
func HubInput(i int) Connector      { return Connector(fmt.Sprintf("%s%d", hubInPrefix, i)) }
func ProgramOutput(i int) Connector { return Connector(fmt.Sprintf("%s%d", programOutPrefix, i)) }

type Direction string

const (
	DirSource Direction = "source"
	DirSink   Direction = "sink"
)

// ConnClass is the capability a wire carries.
type ConnClass string

const (
	ClassPower   ConnClass = "power"
	ClassSignal  ConnClass = "signal"
	ClassProgram ConnClass = "program-link"
)

// Port describes one side of a proposed wire for the compatibility check.
type Port struct {
	Kind      NodeKind
	Direction Direction
	Class     ConnClass
}

// ConnectorSpec is what a connector name resolves to on a given node.
type ConnectorSpec struct {
	Direction Direction
	Class     ConnClass
	Index     int // slot index for indexed connectors, -1 otherwise
}

func (s ConnectorSpec) Port(kind NodeKind) Port {
	return Port{Kind: kind, Direction: s.Direction, Class: s.Class}
}

// compatibility lists, per class, which source kinds may feed which sink kinds.
var compatibility = map[ConnClass]map[NodeKind]map[NodeKind]bool{
	ClassPower: {
		KindPowerSource: {KindCompute: true, KindPowerStrip: true, KindMiner: true, KindTransformer: true},
		KindTransformer: {KindCompute: true, KindPowerStrip: true, KindMiner: true},
		KindPowerStrip:  {KindCompute: true, KindMiner: true},
	},
	ClassSignal: {
		KindCompute:      {KindInterface: true, KindInterfaceHub: true},
		KindMiner:        {KindInterface: true, KindInterfaceHub: true},
		KindInterfaceHub: {KindInterface: true},
	},
	ClassProgram: {
		KindCompute: {KindProgram: true},
	},
}

// CanConnect reports whether a wire from source to sink is legal. It is a pure
// lookup in the fixed compatibility table.
func CanConnect(source, sink Port) bool {
	if source.Direction != DirSource || sink.Direction != DirSink {
		return false
	}
	if source.Class != sink.Class {
		return false
	}
	return compatibility[source.Class][source.Kind][sink.Kind]
}

// LookupConnector resolves a connector name against a node. Program outputs on
// a PC exist only below the slot count of its installed OS.
func LookupConnector(cat *Catalog, n *Node, c Connector) (ConnectorSpec, bool) {
	if n == nil {
		return ConnectorSpec{}, false
	}
	fixed := func(dir Direction, class ConnClass) (ConnectorSpec, bool) {
		return ConnectorSpec{Direction: dir, Class: class, Index: -1}, true
	}
	switch n.Kind {
	case KindPowerSource:
		if c == ConnPowerOut {
			return fixed(DirSource, ClassPower)
		}
	case KindTransformer:
		switch c {
		case ConnPowerIn:
			return fixed(DirSink, ClassPower)
		case ConnPowerOut:
			return fixed(DirSource, ClassPower)
		}
	case KindPowerStrip:
		if c == ConnPowerIn {
			return fixed(DirSink, ClassPower)
		}
		if i, ok := connectorIndex(c, stripOutPrefix, StripOutputs); ok {
			return ConnectorSpec{Direction: DirSource, Class: ClassPower, Index: i}, true
		}
	case KindCompute:
		switch c {
		case ConnPowerIn:
			return fixed(DirSink, ClassPower)
		case ConnDisplayOut:
			return fixed(DirSource, ClassSignal)
		}
		slots := 1
		if n.Compute != nil && cat != nil {
			slots = cat.ProgramSlots(n.Compute.OS)
		}
		if i, ok := connectorIndex(c, programOutPrefix, slots); ok {
			return ConnectorSpec{Direction: DirSource, Class: ClassProgram, Index: i}, true
		}
	case KindMiner:
		switch c {
		case ConnPowerIn:
			return fixed(DirSink, ClassPower)
		case ConnDisplayOut:
			return fixed(DirSource, ClassSignal)
		}
	case KindInterfaceHub:
		if c == ConnSignalOut {
			return fixed(DirSource, ClassSignal)
		}
		if i, ok := connectorIndex(c, hubInPrefix, HubInputs); ok {
			return ConnectorSpec{Direction: DirSink, Class: ClassSignal, Index: i}, true
		}
	case KindInterface:
		if c == ConnDisplayIn {
			return fixed(DirSink, ClassSignal)
		}
	case KindProgram:
		if c == ConnProgramIn {
			return fixed(DirSink, ClassProgram)
		}
	}
	return ConnectorSpec{}, false
}

func connectorIndex(c Connector, prefix string, limit int) (int, bool) {
	rest, ok := strings.CutPrefix(string(c), prefix)
	if !ok || rest == "" {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 || i >= limit || strconv.Itoa(i) != rest {
		return 0, false
	}
	return i, true
}
