package game

import (
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"
)

// RoomConfig carries the tunables a room is built with.
type RoomConfig struct {
	Catalog *Catalog
	Thermal ThermalParams
	Rand    Rand
	// Seed, when non-zero and Rand is nil, makes each room's source
	// deterministic per room id.
	Seed   uint64
	Logger *slog.Logger
}

// Room is one game session. Mu spans every command and every tick so a tick
// never observes a half-applied change.
type Room struct {
	ID    string
	Ticks uint64
	Mu    sync.Mutex

	cat      *Catalog
	store    *Store
	sim      *Simulator
	wallet   *Wallet
	market   *Market
	rng      Rand
	nextNode int
	dirty    bool
	log      *slog.Logger
}

func NewRoom(id string, cfg RoomConfig) *Room {
	if cfg.Catalog == nil {
		cfg.Catalog = DefaultCatalog()
	}
	if cfg.Rand == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		cfg.Rand = rand.New(rand.NewPCG(seed, roomSeed(id)))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := &Room{
		ID:  id,
		cat: cfg.Catalog,
		sim: NewSimulator(cfg.Catalog, cfg.Thermal, cfg.Rand),
		rng: cfg.Rand,
		log: cfg.Logger.With("room", id),
	}
	r.resetLocked()
	return r
}

// resetLocked rebuilds the starting layout: the grid, one bare-bones PC and
// one interface, all unwired.
func (r *Room) resetLocked() {
	r.store = NewStore()
	r.store.AddNode(&Node{ID: PowerSourceID, Kind: KindPowerSource})
	r.store.AddNode(&Node{
		ID:   "pc-1",
		Kind: KindCompute,
		Compute: &ComputeState{
			CPU:  "cpu-1",
			GPU:  "gpu-8",
			RAM:  [RAMSlots]string{"ram-8", "ram-8"},
			OS:   "trader-os",
			Temp: r.sim.Params().Ambient,
		},
	})
	r.store.AddNode(&Node{ID: "interface-1", Kind: KindInterface})
	r.wallet = NewWallet()
	r.market = NewMarket()
	r.nextNode = 2
	r.Ticks = 0
	r.dirty = true
}

func (r *Room) Catalog() *Catalog { return r.cat }

// Tick advances the simulation by one step.
func (r *Room) Tick() TickReport {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	rep := r.sim.Tick(r.store, r.wallet)
	r.Ticks++
	r.dirty = true
	for _, id := range rep.Overheated {
		r.log.Info("pc overheated, overclocks cleared", "node", id)
	}
	for _, id := range rep.Recovered {
		r.log.Info("pc recovered", "node", id)
	}
	return rep
}

// StepMarket moves the UnitCoin price one step along its random walk.
func (r *Room) StepMarket() float64 {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.dirty = true
	return r.market.Step(r.rng)
}

// TakeDirty reports whether the room changed since the last call and clears
// the flag.
func (r *Room) TakeDirty() bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	d := r.dirty
	r.dirty = false
	return d
}

func roomSeed(id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64()
}

// Hub owns the live rooms by id.
type Hub struct {
	Rooms map[string]*Room
	Mu    sync.Mutex

	newRoom func(id string) *Room
}

// NewHub returns a hub that builds rooms with cfg. A nil Rand in cfg gives
// every room its own source.
func NewHub(cfg RoomConfig) *Hub {
	return &Hub{
		Rooms: map[string]*Room{},
		newRoom: func(id string) *Room {
			return NewRoom(id, cfg)
		},
	}
}

// GetRoom returns the room with id, creating it if needed. The second result
// is true when the room was created by this call.
func (h *Hub) GetRoom(id string) (*Room, bool) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	r, ok := h.Rooms[id]
	if !ok {
		r = h.newRoom(id)
		h.Rooms[id] = r
	}
	return r, !ok
}

// Lookup returns an existing room without creating one.
func (h *Hub) Lookup(id string) (*Room, bool) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	r, ok := h.Rooms[id]
	return r, ok
}

// List returns the live rooms sorted by id.
func (h *Hub) List() []*Room {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	out := make([]*Room, 0, len(h.Rooms))
	for _, r := range h.Rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
