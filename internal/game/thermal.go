package game

import "math"

// ThermalParams defines the parameters for the PC thermal system.
// Temperature follows the installed hardware while the PC is healthy and
// drains at a fixed rate once it has overheated.
type ThermalParams struct {
	Ambient         float64 // Floor temperature and the unpowered target (e.g., 25)
	OverheatAt      float64 // Entering this temperature trips the overheat state (e.g., 95)
	RecoverAt       float64 // Cooling to this temperature clears the overheat state (e.g., 50)
	PassiveCooldown float64 // Degrees shed per tick while overheated (e.g., 0.5)
	Jitter          float64 // Half-width of the uniform noise added to each sample (e.g., 1)
}

// Rand is the random source used for thermal jitter. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// ThermalResult is the outcome of advancing one PC by one tick.
type ThermalResult struct {
	Temp            float64
	Overheated      bool
	EnteredOverheat bool
	RecoveredNow    bool
}

// ThermalSample computes the instantaneous temperature of a powered PC.
//
// Formula:
//
//	contribution(cpu) = temp + cpuOC*0.6
//	contribution(gpu) = temp + gpuOC*0.5
//	contribution(ram) = temp + ramOC*0.2   (per module)
//	sample = round(max(ambient, 0.6*avg + 0.4*max - cooling) + jitter)
func ThermalSample(cat *Catalog, cs *ComputeState, p ThermalParams, rng Rand) float64 {
	var temps []float64
	if cpu, ok := cat.CPUs[cs.CPU]; ok {
		temps = append(temps, cpu.Temp+float64(cs.CPUOC)*0.6)
	}
	if gpu, ok := cat.GPUs[cs.GPU]; ok {
		temps = append(temps, gpu.Temp+float64(cs.GPUOC)*0.5)
	}
	for _, id := range cs.RAM {
		if ram, ok := cat.RAM[id]; ok {
			temps = append(temps, ram.Temp+float64(cs.RAMOC)*0.2)
		}
	}
	if len(temps) == 0 {
		return p.Ambient
	}

	var sum, hottest float64
	for i, t := range temps {
		sum += t
		if i == 0 || t > hottest {
			hottest = t
		}
	}
	base := 0.6*(sum/float64(len(temps))) + 0.4*hottest
	if cooler, ok := cat.Cooling[cs.Cooling]; ok {
		base -= cooler.TempReduction
	}
	base = math.Max(p.Ambient, base)

	var noise float64
	if rng != nil && p.Jitter > 0 {
		noise = (rng.Float64()*2 - 1) * p.Jitter
	}
	return math.Round(base + noise)
}

// AdvanceThermal steps the overheat state machine for one PC and writes the
// new temperature and flags back into cs. Entering the overheated state
// clears every overclock; the player has to set them again after recovery.
//
// While overheated the sample is ignored and the PC sheds PassiveCooldown per
// tick whether or not it still has power. The cooled value is kept unrounded
// so a half-degree step can never round back up to the threshold.
func AdvanceThermal(cat *Catalog, cs *ComputeState, powered bool, p ThermalParams, rng Rand) ThermalResult {
	if cs.Overheated {
		cs.Temp = math.Max(p.Ambient, cs.Temp-p.PassiveCooldown)
		res := ThermalResult{Temp: cs.Temp, Overheated: true}
		if cs.Temp <= p.RecoverAt {
			cs.Overheated = false
			res.Overheated = false
			res.RecoveredNow = true
		}
		return res
	}

	next := p.Ambient
	if powered {
		next = ThermalSample(cat, cs, p, rng)
	}
	cs.Temp = next

	if next >= p.OverheatAt {
		cs.Overheated = true
		cs.CPUOC, cs.GPUOC, cs.RAMOC = 0, 0, 0
		return ThermalResult{Temp: next, Overheated: true, EnteredOverheat: true}
	}
	return ThermalResult{Temp: next}
}

// SanitizeThermalParams clamps and normalizes thermal parameters to safe defaults.
func SanitizeThermalParams(p ThermalParams) ThermalParams {
	defaults := ThermalParams{
		Ambient:         AmbientTemp,
		OverheatAt:      OverheatAt,
		RecoverAt:       RecoverAt,
		PassiveCooldown: PassiveCooldown,
		Jitter:          ThermalJitter,
	}

	if !(p.Ambient > 0) || math.IsInf(p.Ambient, 0) {
		p.Ambient = defaults.Ambient
	}
	if !(p.OverheatAt > p.Ambient) || math.IsInf(p.OverheatAt, 0) {
		p.OverheatAt = math.Max(defaults.OverheatAt, p.Ambient+1)
	}
	// Recovery has to sit strictly between ambient and the trip point or the
	// state machine can never leave (or never stay in) the overheated state.
	if !(p.RecoverAt > p.Ambient && p.RecoverAt < p.OverheatAt) {
		p.RecoverAt = defaults.RecoverAt
		if !(p.RecoverAt > p.Ambient && p.RecoverAt < p.OverheatAt) {
			p.RecoverAt = (p.Ambient + p.OverheatAt) / 2
		}
	}
	if !(p.PassiveCooldown > 0) || math.IsInf(p.PassiveCooldown, 0) {
		p.PassiveCooldown = defaults.PassiveCooldown
	}
	if !(p.Jitter >= 0) || math.IsInf(p.Jitter, 0) {
		p.Jitter = defaults.Jitter
	}
	return p
}

// DefaultThermalParams returns the stock thermal tuning.
func DefaultThermalParams() ThermalParams {
	return SanitizeThermalParams(ThermalParams{
		Ambient:         AmbientTemp,
		OverheatAt:      OverheatAt,
		RecoverAt:       RecoverAt,
		PassiveCooldown: PassiveCooldown,
		Jitter:          ThermalJitter,
	})
}
