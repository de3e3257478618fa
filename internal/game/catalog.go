package game

// CatalogKind groups catalog items by the slot or node they fill.
type CatalogKind string

const (
	CatalogCPU         CatalogKind = "cpu"
	CatalogGPU         CatalogKind = "gpu"
	CatalogRAM         CatalogKind = "ram"
	CatalogOS          CatalogKind = "os"
	CatalogCooling     CatalogKind = "cooling"
	CatalogProgram     CatalogKind = "program"
	CatalogTransformer CatalogKind = "transformer"
	CatalogNode        CatalogKind = "node"
)

type CPUSpec struct {
	Name  string
	Cores int
	Speed float64
	Power float64
	Temp  float64
}

type GPUSpec struct {
	Name     string
	VRAM     int
	HashRate float64
	Power    float64
	Temp     float64
}

type RAMSpec struct {
	Name       string
	SizeGB     int
	SpeedMHz   int
	Power      float64
	Temp       float64
	Multiplier float64 // DDR5 production bonus; 1 for plain modules
}

type OSSpec struct {
	Name         string
	Features     []string
	ProgramSlots int
	RAMReqGB     int
}

type CoolingSpec struct {
	Name          string
	TempReduction float64
	Power         float64
}

// ProgramTarget selects what a program node controls.
type ProgramTarget string

const (
	TargetCPU     ProgramTarget = "cpu"
	TargetGPU     ProgramTarget = "gpu"
	TargetRAM     ProgramTarget = "ram"
	TargetDisplay ProgramTarget = "display"
	TargetBrowser ProgramTarget = "browser"
)

type ProgramSpec struct {
	Name        string
	Description string
	Target      ProgramTarget
	RAMReqGB    int
}

type TransformerSpec struct {
	Name    string
	Wattage int
	TickFee float64
}

// Catalog is the read-only component table consulted by the simulator.
type Catalog struct {
	CPUs         map[string]CPUSpec
	GPUs         map[string]GPUSpec
	RAM          map[string]RAMSpec
	OS           map[string]OSSpec
	Cooling      map[string]CoolingSpec
	Programs     map[string]ProgramSpec
	Transformers map[string]TransformerSpec
	Nodes        map[string]NodeKind // plain node purchases keyed by catalog id
}

// DefaultCatalog returns the stock hardware table.
func DefaultCatalog() *Catalog {
	return &Catalog{
		CPUs: map[string]CPUSpec{
			"cpu-1": {Name: "Qnit 1000", Cores: 1, Speed: 3, Power: 65, Temp: 45},
			"cpu-2": {Name: "Qnit 2000", Cores: 2, Speed: 3.5, Power: 95, Temp: 55},
			"cpu-3": {Name: "Qnit 3000", Cores: 3, Speed: 3.8, Power: 110, Temp: 60},
			"cpu-4": {Name: "Qnit 4000", Cores: 4, Speed: 4.2, Power: 125, Temp: 65},
		},
		GPUs: map[string]GPUSpec{
			"gpu-8":  {Name: "nWOLF 550", VRAM: 8, HashRate: 10, Power: 75, Temp: 50},
			"gpu-10": {Name: "nWOLF 550ti", VRAM: 10, HashRate: 15, Power: 95, Temp: 55},
			"gpu-12": {Name: "nWOLF 1010", VRAM: 12, HashRate: 25, Power: 150, Temp: 62},
			"gpu-14": {Name: "nWOLF 1010ti", VRAM: 14, HashRate: 40, Power: 200, Temp: 70},
			"gpu-24": {Name: "nWOLF Quantum Research", VRAM: 24, HashRate: 80, Power: 320, Temp: 78},
		},
		RAM: map[string]RAMSpec{
			"ram-8":    {Name: "aDEP 8GB DDR4", SizeGB: 8, SpeedMHz: 3200, Power: 5, Temp: 35, Multiplier: 1},
			"ram-16":   {Name: "aDEP 16GB DDR4", SizeGB: 16, SpeedMHz: 3600, Power: 8, Temp: 38, Multiplier: 1},
			"ram-32":   {Name: "aDEP 32GB DDR4", SizeGB: 32, SpeedMHz: 3600, Power: 12, Temp: 42, Multiplier: 1},
			"ram-8-p":  {Name: "aDEP 8GB PERF DDR5", SizeGB: 8, SpeedMHz: 4800, Power: 6, Temp: 32, Multiplier: 1.15},
			"ram-16-p": {Name: "aDEP 16GB PERF DDR5", SizeGB: 16, SpeedMHz: 5200, Power: 10, Temp: 35, Multiplier: 1.2},
			"ram-32-p": {Name: "aDEP 32GB PERF DDR5", SizeGB: 32, SpeedMHz: 5600, Power: 14, Temp: 38, Multiplier: 1.25},
		},
		OS: map[string]OSSpec{
			"trader-os":   {Name: "TraderOS v1", Features: []string{"buy", "sell"}, ProgramSlots: 1},
			"trader-os-2": {Name: "TraderOS v2", Features: []string{"buy", "sell"}, ProgramSlots: 2, RAMReqGB: 16},
			"miner-os":    {Name: "MinerOS Pro", Features: []string{"buy", "sell", "automine"}, ProgramSlots: 3, RAMReqGB: 32},
			"miner-os-2":  {Name: "MinerOS Ultra", Features: []string{"buy", "sell", "automine", "boost"}, ProgramSlots: 4, RAMReqGB: 64},
		},
		Cooling: map[string]CoolingSpec{
			"fan-1": {Name: "OnlyFans Case Fan", TempReduction: 8, Power: 5},
			"fan-2": {Name: "OnlyFans Case Duo", TempReduction: 15, Power: 10},
			"aio":   {Name: "OnlyAIO Fan + Radiator", TempReduction: 25, Power: 15},
			"loop":  {Name: "gUNIT Tundra Loop", TempReduction: 40, Power: 20},
		},
		Programs: map[string]ProgramSpec{
			"cpuburner":  {Name: "CPUBurner", Description: "CPU Overclock Manager", Target: TargetCPU, RAMReqGB: 4},
			"gpuburner":  {Name: "GPUBurner", Description: "GPU Overclock Manager", Target: TargetGPU, RAMReqGB: 4},
			"ramburner":  {Name: "RAMBurner", Description: "RAM Overclock Manager", Target: TargetRAM, RAMReqGB: 2},
			"bitwatcher": {Name: "BitWatcher", Description: "Mining Progress Visualizer", Target: TargetDisplay, RAMReqGB: 8},
			"uhrome":     {Name: "Uhrome Browser", Description: "Web Browser", Target: TargetBrowser, RAMReqGB: 6},
		},
		Transformers: map[string]TransformerSpec{
			"transformer-small":  {Name: "gUnit 500W Battery", Wattage: 500, TickFee: 0.01},
			"transformer-medium": {Name: "gUnit 1000W Battery", Wattage: 1000, TickFee: 0.03},
			"transformer-large":  {Name: "gUnit Pro Zenith 2500W", Wattage: 2500, TickFee: 0.08},
		},
		Nodes: map[string]NodeKind{
			"pc":            KindCompute,
			"power-strip":   KindPowerStrip,
			"miner":         KindMiner,
			"interface-hub": KindInterfaceHub,
			"interface":     KindInterface,
		},
	}
}

// Kind reports which catalog table holds id.
func (c *Catalog) Kind(id string) (CatalogKind, bool) {
	if _, ok := c.CPUs[id]; ok {
		return CatalogCPU, true
	}
	if _, ok := c.GPUs[id]; ok {
		return CatalogGPU, true
	}
	if _, ok := c.RAM[id]; ok {
		return CatalogRAM, true
	}
	if _, ok := c.OS[id]; ok {
		return CatalogOS, true
	}
	if _, ok := c.Cooling[id]; ok {
		return CatalogCooling, true
	}
	if _, ok := c.Programs[id]; ok {
		return CatalogProgram, true
	}
	if _, ok := c.Transformers[id]; ok {
		return CatalogTransformer, true
	}
	if _, ok := c.Nodes[id]; ok {
		return CatalogNode, true
	}
	return "", false
}

// ProgramSlots returns how many program outputs an OS exposes. A PC without an
// OS still has one slot.
func (c *Catalog) ProgramSlots(osID string) int {
	if os, ok := c.OS[osID]; ok && os.ProgramSlots > 0 {
		return min(os.ProgramSlots, MaxProgramSlots)
	}
	return 1
}
