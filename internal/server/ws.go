package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"UnitCoinMiner/internal/game"
	"UnitCoinMiner/internal/save"
)

const (
	defaultRoomID = "default"
	roomIDRules   = "required,max=64,printascii,excludesall=/ "
	writeWait     = 5 * time.Second
	maxMessageLen = 16 << 10
)

var (
	errUnknownMessage = errors.New("unknown message type")
	errBadPayload     = errors.New("bad payload")
	errRateLimited    = errors.New("rate limited")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveConn serializes writes; gorilla allows one concurrent writer.
type liveConn struct {
	id      string
	conn    *websocket.Conn
	limiter *rate.Limiter
	mu      sync.Mutex
}

func (lc *liveConn) send(msgType string, payload any) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	_ = lc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return lc.conn.WriteJSON(outboundMessage{Type: msgType, Payload: payload})
}

// openRoom returns the live room with id, loading its save the first time it
// is asked for.
func (s *Server) openRoom(ctx context.Context, id string) (*game.Room, error) {
	if room, ok := s.hub.Lookup(id); ok {
		return room, nil
	}
	v, err, _ := s.loads.Do(id, func() (any, error) {
		if room, ok := s.hub.Lookup(id); ok {
			return room, nil
		}
		var (
			snap  game.Snapshot
			found bool
		)
		if s.saves != nil {
			var err error
			snap, found, err = s.saves.Load(ctx, id)
			switch {
			case errors.Is(err, save.ErrCorruptSave):
				s.log.Warn("discarding unreadable save", "room", id, "err", err)
				found = false
			case err != nil:
				return nil, fmt.Errorf("load room %s: %w", id, err)
			}
		}
		room, created := s.hub.GetRoom(id)
		if created && found {
			if err := room.Restore(snap); err != nil {
				s.log.Warn("save rejected, starting fresh", "room", id, "err", err)
			} else {
				s.log.Info("room restored", "room", id, "nodes", len(snap.Nodes))
			}
		}
		if created {
			s.metrics.RoomsActive.Inc()
		}
		return room, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*game.Room), nil
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = defaultRoomID
	}
	if err := s.validate.Var(roomID, roomIDRules); err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	room, err := s.openRoom(r.Context(), roomID)
	if err != nil {
		s.log.Error("open room", "room", roomID, "err", err)
		http.Error(w, "room unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageLen)

	lc := &liveConn{
		id:      uuid.NewString(),
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(s.cfg.WS.CommandsPerSecond), s.cfg.WS.Burst),
	}
	log := s.log.With("room", roomID, "client", lc.id)
	log.Info("client connected")
	s.metrics.WSConnections.Inc()
	defer func() {
		s.metrics.WSConnections.Dec()
		log.Info("client disconnected")
	}()

	if err := lc.send(outHello, helloDTO{Client: lc.id, Room: roomID}); err != nil {
		return
	}
	if err := lc.send(outState, room.Project()); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			var in inboundMessage
			if err := json.Unmarshal(data, &in); err != nil {
				log.Debug("invalid JSON message", "err", err)
				continue
			}

			var reply *outboundMessage
			if !lc.limiter.Allow() {
				err = errRateLimited
			} else {
				reply, err = s.handle(ctx, room, in)
			}
			s.metrics.RecordCommand(commandLabel(in.Type), err)
			if err != nil {
				log.Debug("command rejected", "command", in.Type, "err", err)
				if lc.send(outError, errorDTO{Command: in.Type, Message: err.Error()}) != nil {
					return
				}
				continue
			}
			if reply != nil {
				if lc.send(reply.Type, reply.Payload) != nil {
					return
				}
			}
			if lc.send(outState, room.Project()) != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.Simulation.PushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lc.send(outState, room.Project()); err != nil {
				return
			}
		}
	}
}

// handle applies one inbound command to room. A nil reply means the caller
// only needs to push fresh state.
func (s *Server) handle(ctx context.Context, room *game.Room, in inboundMessage) (*outboundMessage, error) {
	switch in.Type {
	case msgConnect:
		var p connectDTO
		if err := s.decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return nil, room.Connect(p.From.endpoint(), p.To.endpoint())

	case msgDisconnect:
		var p disconnectDTO
		if err := s.decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return nil, room.Disconnect(p.Sink.endpoint())

	case msgInstall:
		var p installDTO
		if err := s.decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return nil, room.InstallComponent(game.NodeID(p.Node), p.Slot, p.Item)

	case msgOverclock:
		var p overclockDTO
		if err := s.decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return nil, room.SetOverclock(game.NodeID(p.Node), game.ProgramTarget(p.Target), p.Percent)

	case msgAddNode:
		var p addNodeDTO
		if err := s.decode(in.Payload, &p); err != nil {
			return nil, err
		}
		id, err := room.AddNode(p.Model)
		if err != nil {
			return nil, err
		}
		return &outboundMessage{Type: outNodeAdded, Payload: nodeAddedDTO{ID: id}}, nil

	case msgReset:
		room.Reset()
		if s.saves != nil {
			if err := s.saves.Delete(ctx, room.ID); err != nil {
				s.log.Warn("delete save on reset", "room", room.ID, "err", err)
			}
		}
		return nil, nil

	case msgBuy, msgSell:
		var p tradeDTO
		if err := s.decode(in.Payload, &p); err != nil {
			return nil, err
		}
		if in.Type == msgBuy {
			return nil, room.Buy(game.NodeID(p.Interface), p.Amount)
		}
		return nil, room.Sell(game.NodeID(p.Interface), p.Amount)

	case msgSellAll:
		var p sellAllDTO
		if err := s.decode(in.Payload, &p); err != nil {
			return nil, err
		}
		sold, err := room.SellAll(game.NodeID(p.Interface))
		if err != nil {
			return nil, err
		}
		return &outboundMessage{Type: outSold, Payload: soldDTO{Amount: sold}}, nil

	case msgTerminal:
		var p terminalDTO
		if err := s.decode(in.Payload, &p); err != nil {
			return nil, err
		}
		res, err := room.Terminal(game.NodeID(p.Program), p.Line)
		if err != nil {
			return nil, err
		}
		return &outboundMessage{Type: outTerminal, Payload: terminalReplyDTO{
			Program: p.Program,
			Clear:   res.Clear,
			Lines:   res.Lines,
		}}, nil

	case msgRefresh:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownMessage, in.Type)
}

func (s *Server) decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}

// commandLabel keeps metric label cardinality bounded.
func commandLabel(t string) string {
	switch t {
	case msgConnect, msgDisconnect, msgInstall, msgOverclock, msgAddNode,
		msgReset, msgBuy, msgSell, msgSellAll, msgTerminal, msgRefresh:
		return t
	}
	return "unknown"
}
