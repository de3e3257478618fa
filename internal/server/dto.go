package server

import (
	"encoding/json"

	"UnitCoinMiner/internal/game"
)

// Inbound message types.
const (
	msgConnect    = "connect"
	msgDisconnect = "disconnect"
	msgInstall    = "install"
	msgOverclock  = "overclock"
	msgAddNode    = "addNode"
	msgReset      = "reset"
	msgBuy        = "buy"
	msgSell       = "sell"
	msgSellAll    = "sellAll"
	msgTerminal   = "terminal"
	msgRefresh    = "refresh"
)

// Outbound message types.
const (
	outHello     = "hello"
	outState     = "state"
	outError     = "error"
	outTerminal  = "terminal"
	outNodeAdded = "nodeAdded"
	outSold      = "sold"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type endpointDTO struct {
	Node      string `json:"node" validate:"required,max=64"`
	Connector string `json:"connector" validate:"required,max=32"`
}

func (e endpointDTO) endpoint() game.Endpoint {
	return game.Endpoint{Node: game.NodeID(e.Node), Connector: game.Connector(e.Connector)}
}

type connectDTO struct {
	From endpointDTO `json:"from"`
	To   endpointDTO `json:"to"`
}

type disconnectDTO struct {
	Sink endpointDTO `json:"sink"`
}

type installDTO struct {
	Node string `json:"node" validate:"required,max=64"`
	Slot string `json:"slot" validate:"required,oneof=cpu gpu cooling os ram-0 ram-1 ram-2 ram-3"`
	// Item is empty to clear the slot.
	Item string `json:"item" validate:"max=64"`
}

type overclockDTO struct {
	Node    string `json:"node" validate:"required,max=64"`
	Target  string `json:"target" validate:"required,oneof=cpu gpu ram"`
	Percent int    `json:"percent"`
}

type addNodeDTO struct {
	Model string `json:"model" validate:"required,max=64"`
}

type tradeDTO struct {
	Interface string  `json:"interface" validate:"required,max=64"`
	Amount    float64 `json:"amount" validate:"gt=0"`
}

type sellAllDTO struct {
	Interface string `json:"interface" validate:"required,max=64"`
}

type terminalDTO struct {
	Program string `json:"program" validate:"required,max=64"`
	Line    string `json:"line" validate:"max=256"`
}

type helloDTO struct {
	Client string `json:"client"`
	Room   string `json:"room"`
}

type errorDTO struct {
	Command string `json:"command"`
	Message string `json:"message"`
}

type terminalReplyDTO struct {
	Program string              `json:"program"`
	Clear   bool                `json:"clear"`
	Lines   []game.TerminalLine `json:"lines"`
}

type nodeAddedDTO struct {
	ID game.NodeID `json:"id"`
}

type soldDTO struct {
	Amount float64 `json:"amount"`
}
