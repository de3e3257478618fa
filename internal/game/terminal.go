package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LineKind styles a terminal line.
type LineKind string

const (
	LineOutput  LineKind = "output"
	LineError   LineKind = "error"
	LineWarning LineKind = "warning"
	LineSuccess LineKind = "success"
	LineSystem  LineKind = "system"
)

type TerminalLine struct {
	Kind LineKind `json:"type"`
	Text string   `json:"text"`
}

// TerminalResult is the response to one command line. Clear asks the client
// to wipe its scrollback before printing Lines.
type TerminalResult struct {
	Clear bool           `json:"clear,omitempty"`
	Lines []TerminalLine `json:"lines"`
}

func (t *TerminalResult) add(kind LineKind, format string, args ...any) {
	t.Lines = append(t.Lines, TerminalLine{Kind: kind, Text: fmt.Sprintf(format, args...)})
}

// Terminal runs a command line against a program node. Overclock manager
// programs understand the `oc` family; every program understands help and
// clear.
func (r *Room) Terminal(programID NodeID, line string) (TerminalResult, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	n, ok := r.store.Node(programID)
	if !ok {
		return TerminalResult{}, fmt.Errorf("%w: %s", ErrUnknownNode, programID)
	}
	if n.Kind != KindProgram {
		return TerminalResult{}, fmt.Errorf("%w: %s is not a program", ErrWrongNodeKind, programID)
	}
	prog, ok := r.cat.Programs[n.Model]
	if !ok {
		return TerminalResult{}, fmt.Errorf("%w: %s", ErrUnknownCatalogItem, n.Model)
	}

	var out TerminalResult
	parts := strings.Fields(strings.ToLower(line))
	if len(parts) == 0 {
		return out, nil
	}

	switch parts[0] {
	case "clear":
		out.Clear = true
		out.add(LineSystem, "%s v1.0", prog.Name)
	case "help":
		out.add(LineOutput, `Type "oc help" for overclock commands`)
	case "oc":
		r.overclockCommand(&out, programID, prog, parts[1:])
	default:
		out.add(LineError, "Unknown command: %s", parts[0])
	}
	return out, nil
}

func (r *Room) overclockCommand(out *TerminalResult, programID NodeID, prog ProgramSpec, args []string) {
	target := prog.Target
	name := strings.ToUpper(string(target))
	sub := ""
	if len(args) > 0 {
		sub = args[0]
	}

	pc, connected := NewEngine(r.store).ComputeForProgram(programID)

	switch {
	case sub == "help":
		out.add(LineOutput, "=== OC COMMANDS ===")
		out.add(LineOutput, "oc %s get    - Get current OC %%", target)
		out.add(LineOutput, "oc %s burn X - Set OC to X%%", target)
		out.add(LineOutput, "oc %s reset  - Reset OC to 0%%", target)
		out.add(LineOutput, "oc %s info   - Show component info", target)
		out.add(LineOutput, "oc status          - Show PC status")
		out.add(LineOutput, "clear              - Clear terminal")

	case sub == "status":
		if !connected {
			out.add(LineError, "ERROR: No PC connected")
			return
		}
		cs := pc.Compute
		out.add(LineOutput, "=== PC STATUS ===")
		out.add(LineOutput, "Temp: %s°C", formatTemp(cs.Temp))
		out.add(LineOutput, "CPU OC: %d%%", cs.CPUOC)
		out.add(LineOutput, "GPU OC: %d%%", cs.GPUOC)
		out.add(LineOutput, "RAM OC: %d%%", cs.RAMOC)
		if cs.Overheated {
			out.add(LineOutput, "Status: OVERHEATED")
		} else {
			out.add(LineOutput, "Status: Normal")
		}

	case sub == string(target) && isOverclockTarget(target):
		if !connected {
			out.add(LineError, "ERROR: No PC connected")
			return
		}
		if pc.Compute.Overheated {
			out.add(LineError, "ERROR: PC overheated - cannot modify OC")
			return
		}
		verb := ""
		if len(args) > 1 {
			verb = args[1]
		}
		switch verb {
		case "get":
			out.add(LineOutput, "%s Overclock: %d%%", name, currentOC(pc.Compute, target))
		case "burn":
			value := -1
			if len(args) > 2 {
				if v, err := strconv.Atoi(args[2]); err == nil {
					value = v
				}
			}
			if err := r.setOverclockLocked(pc.ID, target, value); err != nil {
				out.add(LineError, "ERROR: %s", terminalError(err))
				return
			}
			out.add(LineSuccess, "%s OC set to %d%%", name, value)
			out.add(LineWarning, "Warning: Higher OC = Higher temps")
		case "reset":
			if err := r.setOverclockLocked(pc.ID, target, 0); err != nil {
				out.add(LineError, "ERROR: %s", terminalError(err))
				return
			}
			out.add(LineSuccess, "%s OC reset to 0%%", name)
		case "info":
			r.componentInfo(out, pc.Compute, target, name)
		default:
			out.add(LineError, "Unknown command. Try: oc %s get/burn/reset/info", target)
		}

	default:
		out.add(LineError, "This is %s. Use: oc %s <cmd>", prog.Name, target)
	}
}

func (r *Room) componentInfo(out *TerminalResult, cs *ComputeState, target ProgramTarget, name string) {
	switch target {
	case TargetCPU:
		cpu, ok := r.cat.CPUs[cs.CPU]
		if !ok {
			out.add(LineError, "No %s installed", name)
			return
		}
		out.add(LineOutput, "%s: %s", name, cpu.Name)
		out.add(LineOutput, "Cores: %d", cpu.Cores)
		out.add(LineOutput, "Speed: %gGHz", cpu.Speed)
		out.add(LineOutput, "Base Temp: %g°C", cpu.Temp)
	case TargetGPU:
		gpu, ok := r.cat.GPUs[cs.GPU]
		if !ok {
			out.add(LineError, "No %s installed", name)
			return
		}
		out.add(LineOutput, "%s: %s", name, gpu.Name)
		out.add(LineOutput, "VRAM: %dGB", gpu.VRAM)
		out.add(LineOutput, "Hash Rate: %g", gpu.HashRate)
		out.add(LineOutput, "Base Temp: %g°C", gpu.Temp)
	case TargetRAM:
		out.add(LineOutput, "%s: %dGB Total", name, TotalRAMGB(r.cat, cs))
	}
	out.add(LineOutput, "Current OC: %d%%", currentOC(cs, target))
}

func isOverclockTarget(t ProgramTarget) bool {
	return t == TargetCPU || t == TargetGPU || t == TargetRAM
}

func currentOC(cs *ComputeState, t ProgramTarget) int {
	switch t {
	case TargetCPU:
		return cs.CPUOC
	case TargetGPU:
		return cs.GPUOC
	case TargetRAM:
		return cs.RAMOC
	}
	return 0
}

func terminalError(err error) string {
	switch {
	case errors.Is(err, ErrOverclockOutOfRange):
		return fmt.Sprintf("Value must be 0-%d", MaxOverclock)
	case errors.Is(err, ErrOverclockWhileOverheated):
		return "PC overheated - cannot modify OC"
	}
	return err.Error()
}

func formatTemp(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
