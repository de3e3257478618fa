package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// CurrentVersion is the schema version new saves are written with.
//
//	0: unversioned browser save: nodes keyed by id, wires as "node:connector" strings
//	1: nodes as an ordered list, wallet and market split out, wires still strings
//	2: wires as endpoint objects tagged with their class
const CurrentVersion = 2

var (
	// ErrCorruptSave is returned when a stored value cannot be decoded.
	ErrCorruptSave = errors.New("save: corrupt save")
	// ErrFutureVersion is returned for saves written by a newer build.
	ErrFutureVersion = errors.New("save: save is newer than this build")
)

type document = map[string]any

// migrations[v] upgrades a version v document to version v+1.
var migrations = map[int]func(document) (document, error){
	0: migrateV0,
	1: migrateV1,
}

// Migrate upgrades payload from version to CurrentVersion.
func Migrate(version int, payload json.RawMessage) (json.RawMessage, error) {
	if version > CurrentVersion {
		return nil, fmt.Errorf("%w: version %d", ErrFutureVersion, version)
	}
	if version == CurrentVersion {
		return payload, nil
	}
	if version < 0 {
		return nil, fmt.Errorf("%w: negative version %d", ErrCorruptSave, version)
	}

	var doc document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	for v := version; v < CurrentVersion; v++ {
		step, ok := migrations[v]
		if !ok {
			continue
		}
		next, err := step(doc)
		if err != nil {
			return nil, fmt.Errorf("migrate v%d to v%d: %w", v, v+1, err)
		}
		doc = next
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("save: encode migrated payload: %w", err)
	}
	return out, nil
}

// migrateV0 turns the browser layout into an ordered node list. Node ids are
// sorted with the grid first so the rebuilt store has a stable order.
func migrateV0(doc document) (document, error) {
	rawNodes, _ := doc["nodes"].(map[string]any)
	if rawNodes == nil {
		return nil, fmt.Errorf("%w: no nodes", ErrCorruptSave)
	}
	ids := make([]string, 0, len(rawNodes))
	for id := range rawNodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if (ids[i] == "power-grid") != (ids[j] == "power-grid") {
			return ids[i] == "power-grid"
		}
		return ids[i] < ids[j]
	})

	nodes := make([]any, 0, len(ids))
	for _, id := range ids {
		old, _ := rawNodes[id].(map[string]any)
		if old == nil {
			continue
		}
		kind, _ := old["type"].(string)
		n := document{"id": id, "type": kind}
		switch kind {
		case "transformer":
			n["model"] = old["transformerType"]
		case "program":
			n["model"] = old["programType"]
		case "pc":
			n["compute"] = legacyCompute(old)
		}
		nodes = append(nodes, n)
	}

	state, _ := doc["gameState"].(map[string]any)
	price := numberOr(state["unitCoinPrice"], 1)
	history, _ := state["priceHistory"].([]any)
	if len(history) == 0 {
		history = []any{price}
	}

	return document{
		"nodes":       nodes,
		"connections": doc["connections"],
		"wallet": document{
			"money":    numberOr(state["money"], 0),
			"unitCoin": numberOr(state["unitCoin"], 0),
		},
		"market":      document{"price": price, "history": history},
		"nodeCounter": numberOr(doc["nodeCounter"], 2),
	}, nil
}

func legacyCompute(old document) document {
	ram := []any{"", "", "", ""}
	if slots, ok := old["ram"].([]any); ok {
		for i := 0; i < len(slots) && i < len(ram); i++ {
			if s, ok := slots[i].(string); ok {
				ram[i] = s
			}
		}
	}
	str := func(k string) string {
		s, _ := old[k].(string)
		return s
	}
	return document{
		"cpu":          str("cpu"),
		"gpu":          str("gpu"),
		"ram":          ram,
		"cooling":      str("cooling"),
		"os":           str("os"),
		"cpuOC":        numberOr(old["cpuOC"], 0),
		"gpuOC":        numberOr(old["gpuOC"], 0),
		"ramOC":        numberOr(old["ramOC"], 0),
		"currentTemp":  numberOr(old["currentTemp"], 25),
		"isOverheated": old["isOverheated"] == true,
	}
}

// migrateV1 splits "node:connector" wire ends into objects and tags each wire
// with the class implied by its source connector.
func migrateV1(doc document) (document, error) {
	raw, _ := doc["connections"].([]any)
	conns := make([]any, 0, len(raw))
	for _, c := range raw {
		wire, _ := c.(map[string]any)
		from, okFrom := wire["from"].(string)
		to, okTo := wire["to"].(string)
		if !okFrom || !okTo {
			return nil, fmt.Errorf("%w: malformed wire %v", ErrCorruptSave, c)
		}
		fromEnd, err := splitEnd(from)
		if err != nil {
			return nil, err
		}
		toEnd, err := splitEnd(to)
		if err != nil {
			return nil, err
		}
		conns = append(conns, document{
			"from":  fromEnd,
			"to":    toEnd,
			"class": classFor(fromEnd["connector"].(string)),
		})
	}
	doc["connections"] = conns
	return doc, nil
}

func splitEnd(s string) (document, error) {
	node, conn, ok := strings.Cut(s, ":")
	if !ok || node == "" || conn == "" {
		return nil, fmt.Errorf("%w: wire end %q", ErrCorruptSave, s)
	}
	return document{"node": node, "connector": conn}, nil
}

func classFor(connector string) string {
	switch {
	case strings.HasPrefix(connector, "power"):
		return "power"
	case strings.HasPrefix(connector, "program"):
		return "program-link"
	}
	return "signal"
}

func numberOr(v any, fallback float64) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return fallback
}
