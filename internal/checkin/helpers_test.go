package checkin

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fossasia/eventyay-checkin/internal/clock"
	"github.com/fossasia/eventyay-checkin/internal/eventyay"
)

// ── Stub eventyay API ─────────────────────────────────────────────────────────

type badgeReply struct {
	doc []byte
	err error
}

type stubAPI struct {
	mu sync.Mutex

	lists    []eventyay.CheckinList
	listsErr error

	redeemRaw *eventyay.RawResponse
	redeemErr error

	// badges is consumed in order; the last entry repeats.
	badges []badgeReply

	listCalls   int
	redeemCalls []eventyay.RedeemRequest
	badgeCalls  []string
}

func (s *stubAPI) CheckinLists(_ context.Context) ([]eventyay.CheckinList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return s.lists, s.listsErr
}

func (s *stubAPI) Redeem(_ context.Context, r eventyay.RedeemRequest) (*eventyay.RawResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redeemCalls = append(s.redeemCalls, r)
	return s.redeemRaw, s.redeemErr
}

func (s *stubAPI) FetchBadge(_ context.Context, badgeURL string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badgeCalls = append(s.badgeCalls, badgeURL)
	if len(s.badges) == 0 {
		return nil, errors.New("no badge configured")
	}
	i := len(s.badgeCalls) - 1
	if i >= len(s.badges) {
		i = len(s.badges) - 1
	}
	return s.badges[i].doc, s.badges[i].err
}

func (s *stubAPI) counts() (lists, redeems, badges int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls, len(s.redeemCalls), len(s.badgeCalls)
}

func listsOf(ids ...string) []eventyay.CheckinList {
	out := make([]eventyay.CheckinList, 0, len(ids))
	for _, id := range ids {
		out = append(out, eventyay.CheckinList{ID: eventyay.ListID(id)})
	}
	return out
}

func jsonReply(code int, body string) *eventyay.RawResponse {
	return &eventyay.RawResponse{StatusCode: code, Body: []byte(body)}
}

func okReply(body string) *eventyay.RawResponse { return jsonReply(http.StatusCreated, body) }

func pending() badgeReply { return badgeReply{err: eventyay.ErrBadgePending} }

// ── Stub printer ──────────────────────────────────────────────────────────────

type stubPrinter struct {
	mu      sync.Mutex
	printed [][]byte
	err     error
	panics  bool
	block   chan struct{}
}

func (p *stubPrinter) PrintDocument(_ context.Context, doc []byte) error {
	if p.block != nil {
		<-p.block
	}
	if p.panics {
		panic("print dialog crashed")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printed = append(p.printed, doc)
	return p.err
}

func (p *stubPrinter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.printed)
}

// ── Orchestrator factory ──────────────────────────────────────────────────────

var testEpoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestOrchestrator(api *stubAPI, prn *stubPrinter) (*Orchestrator, *clock.Recorder) {
	rec := clock.NewRecorder(testEpoch)
	o := NewOrchestrator(api, prn, Options{
		PollAttempts: DefaultPollAttempts,
		PollInterval: DefaultPollInterval,
		Clock:        rec,
	}, zap.NewNop())
	return o, rec
}
