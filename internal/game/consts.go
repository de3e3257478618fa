package game

const (
	TickHz             = 1.0 // simulation ticks per second
	UpdateRateHz       = 2.0 // per-client WS projection pushes
	MarketStepSeconds  = 2.0 // price walk period
	AmbientTemp        = 25.0
	OverheatAt         = 95.0
	RecoverAt          = 50.0
	PassiveCooldown    = 0.5 // degrees per tick while overheated
	ThermalJitter      = 1.0 // symmetric +/- noise on each powered sample
	MaxOverclock       = 50
	RAMSlots           = 4
	MaxProgramSlots    = 4
	HubInputs          = 4
	StripOutputs       = 4
	BaseWattage        = 1200
	MinerRatePerMinute = 1.0
	StartingMoney      = 50.0
	StartingPrice      = 1.00
	MinPrice           = 0.1
	PriceHistoryLen    = 21
	MinSellAll         = 0.01
)
