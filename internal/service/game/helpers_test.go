package game

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu  sync.Mutex
	got []ResponseWrapper
}

func (s *recordingSink) Deliver(resp ResponseWrapper) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.got = append(s.got, resp)
	return true
}

func (s *recordingSink) all(respType string) []ResponseWrapper {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ResponseWrapper, 0)
	for _, r := range s.got {
		if r.RespType == respType {
			out = append(out, r)
		}
	}

	return out
}

func (s *recordingSink) last(respType string) (ResponseWrapper, bool) {
	all := s.all(respType)
	if len(all) == 0 {
		return ResponseWrapper{}, false
	}

	return all[len(all)-1], true
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.got = nil
}

type harness struct {
	t     *testing.T
	e     *Engine
	sinks map[string]*recordingSink
}

// keepOrder leaves the seating order untouched, so the first seated player is the
// godfather and the second the doctor.
func keepOrder(int, func(i, j int)) {}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	if opts.Shuffle == nil {
		opts.Shuffle = keepOrder
	}

	return &harness{
		t:     t,
		e:     NewEngine(opts, NewBroadcaster(16)),
		sinks: make(map[string]*recordingSink),
	}
}

func (h *harness) deliver() {
	deliverBatch(h.e.ctx.flush())
}

func (h *harness) connect(kind ConnKind) string {
	h.t.Helper()

	connID := GenShortID()
	sink := &recordingSink{}
	h.sinks[connID] = sink

	err := h.e.handle(command{
		connID: connID,
		req:    RequestWrapper{ReqType: REQ_CONNECT, NativeData: connectRequest{Kind: kind, Sink: sink}},
	})
	require.NoError(h.t, err)
	h.deliver()

	return connID
}

func (h *harness) disconnect(connID string) {
	require.NoError(h.t, h.e.handle(command{connID: connID, req: RequestWrapper{ReqType: REQ_DISCONNECT}}))
	h.deliver()
}

func (h *harness) send(connID, reqType string, data any) error {
	req := RequestWrapper{ReqType: reqType}
	if data != nil {
		req.Data = mustMarshal(data)
	}

	err := h.e.handle(command{connID: connID, req: req})
	h.deliver()

	return err
}

// join connects a player socket and joins with name, returning the connection and player ids.
func (h *harness) join(name string) (string, string) {
	h.t.Helper()

	connID := h.connect(ConnPlayer)
	require.NoError(h.t, h.send(connID, REQ_JOIN_PLAYER, map[string]string{"name": name}))

	return connID, h.e.ctx.conns[connID].PlayerID
}

func (h *harness) control() string {
	return h.connect(ConnControl)
}

func (h *harness) sink(connID string) *recordingSink {
	return h.sinks[connID]
}

func (h *harness) room() *Room {
	return h.e.ctx.Room
}

func (h *harness) player(id string) *Player {
	h.t.Helper()

	p := h.room().Player(id)
	require.NotNil(h.t, p)
	return p
}

// seats joins the given names and starts the game from a fresh control connection.
func (h *harness) seats(names ...string) (ctl string, connIDs, playerIDs []string) {
	h.t.Helper()

	for _, n := range names {
		c, p := h.join(n)
		connIDs = append(connIDs, c)
		playerIDs = append(playerIDs, p)
	}

	ctl = h.control()
	require.NoError(h.t, h.send(ctl, REQ_START_GAME, nil))

	return ctl, connIDs, playerIDs
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("Failed to marshal: " + err.Error())
	}

	return data
}
