package game

import "math"

// ComputeRate returns a PC's production in UnitCoin per minute. A PC needs
// both a CPU and a GPU to produce anything.
//
//	rate = hashRate*gpuMult * cores*speed*cpuMult * ramFactor*ramOCMult * ddr5Mult / 100
//	ramFactor = log2(totalRamGB+1) / 4
func ComputeRate(cat *Catalog, cs *ComputeState) float64 {
	cpu, okCPU := cat.CPUs[cs.CPU]
	gpu, okGPU := cat.GPUs[cs.GPU]
	if !okCPU || !okGPU {
		return 0
	}

	totalGB := 0
	ddr5 := 1.0
	for _, id := range cs.RAM {
		ram, ok := cat.RAM[id]
		if !ok {
			continue
		}
		totalGB += ram.SizeGB
		if ram.Multiplier > ddr5 {
			ddr5 = ram.Multiplier
		}
	}
	ramFactor := math.Log2(float64(totalGB)+1) / 4

	cpuMult := 1 + float64(cs.CPUOC)/100
	gpuMult := 1 + float64(cs.GPUOC)/100
	ramOCMult := 1 + float64(cs.RAMOC)/200

	return gpu.HashRate * gpuMult * float64(cpu.Cores) * cpu.Speed * cpuMult * ramFactor * ramOCMult * ddr5 / 100
}

// PowerDraw is the informational wattage of a PC. It never throttles anything.
func PowerDraw(cat *Catalog, cs *ComputeState) int {
	var total float64
	if cpu, ok := cat.CPUs[cs.CPU]; ok {
		total += cpu.Power * (1 + float64(cs.CPUOC)/200)
	}
	if gpu, ok := cat.GPUs[cs.GPU]; ok {
		total += gpu.Power * (1 + float64(cs.GPUOC)/150)
	}
	for _, id := range cs.RAM {
		if ram, ok := cat.RAM[id]; ok {
			total += ram.Power * (1 + float64(cs.RAMOC)/300)
		}
	}
	if cooler, ok := cat.Cooling[cs.Cooling]; ok {
		total += cooler.Power
	}
	return int(math.Round(total))
}

// TotalRAMGB sums the capacity of every installed module.
func TotalRAMGB(cat *Catalog, cs *ComputeState) int {
	total := 0
	for _, id := range cs.RAM {
		if ram, ok := cat.RAM[id]; ok {
			total += ram.SizeGB
		}
	}
	return total
}
