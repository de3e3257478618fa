package game

import "math"

// Wallet holds a room's currency and UnitCoin balances.
type Wallet struct {
	Money float64 `json:"money"`
	Coins float64 `json:"unitCoin"`
}

func NewWallet() *Wallet {
	return &Wallet{Money: StartingMoney}
}

// ApplyTickDelta credits production and charges fees. Money never goes
// negative; fees beyond the balance are forgiven.
func (w *Wallet) ApplyTickDelta(commodity, fees float64) {
	w.Coins += commodity
	w.Money = math.Max(0, w.Money-fees)
}

// Buy exchanges money for coins at price.
func (w *Wallet) Buy(coins, price float64) error {
	if !(coins > 0) {
		return ErrInvalidAmount
	}
	cost := coins * price
	if w.Money < cost {
		return ErrInsufficientFunds
	}
	w.Money -= cost
	w.Coins += coins
	return nil
}

// Sell exchanges coins for money at price.
func (w *Wallet) Sell(coins, price float64) error {
	if !(coins > 0) {
		return ErrInvalidAmount
	}
	if w.Coins < coins {
		return ErrInsufficientCoins
	}
	w.Coins -= coins
	w.Money += coins * price
	return nil
}

// SellAll liquidates the whole coin balance. Dust below MinSellAll is refused.
func (w *Wallet) SellAll(price float64) (float64, error) {
	if w.Coins < MinSellAll {
		return 0, ErrInsufficientCoins
	}
	sold := w.Coins
	w.Money += sold * price
	w.Coins = 0
	return sold, nil
}

// Market is the UnitCoin price random walk.
type Market struct {
	Price   float64   `json:"price"`
	History []float64 `json:"history"`
}

func NewMarket() *Market {
	return &Market{Price: StartingPrice, History: []float64{StartingPrice}}
}

// Step moves the price by up to +/-0.1 and records it. The price never drops
// below MinPrice and only the most recent PriceHistoryLen prices are kept.
func (m *Market) Step(rng Rand) float64 {
	change := (rng.Float64() - 0.5) * 0.2
	m.Price = math.Max(MinPrice, m.Price+change)
	m.History = append(m.History, m.Price)
	if over := len(m.History) - PriceHistoryLen; over > 0 {
		m.History = append([]float64(nil), m.History[over:]...)
	}
	return m.Price
}

// Trend reports whether the latest price is at or above the previous one.
func (m *Market) Trend() bool {
	if len(m.History) < 2 {
		return true
	}
	return m.Price >= m.History[len(m.History)-2]
}
