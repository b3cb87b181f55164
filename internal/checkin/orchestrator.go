package checkin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fossasia/eventyay-checkin/internal/clock"
)

// ErrNoBadge is returned by PrintBadge when there is no badge reference to
// print. State is left untouched.
var ErrNoBadge = errors.New("checkin: no badge to print")

const (
	msgCheckInOK     = "Check-in successful!"
	msgCheckInFailed = "Check-in failed!"
	msgCheckInError  = "Check-in Failed!"
	msgInvalidCode   = "Invalid ticket code!"
	msgPrintFailed   = "Failed to print badge!"
)

// API is the eventyay surface the orchestrator needs.
type API interface {
	ListSource
	Redeemer
	BadgeFetcher
}

// Printer presents a badge document for printing and returns once the
// print action has completed or been dismissed.
type Printer interface {
	PrintDocument(ctx context.Context, doc []byte) error
}

// Options tunes the badge polling cadence.
type Options struct {
	PollAttempts int
	PollInterval time.Duration
	Clock        clock.Clock
}

// Orchestrator runs check-in and print attempts and owns the Session.
// Only one attempt of either kind runs at a time; overlapping calls are
// rejected with ErrBusy.
type Orchestrator struct {
	session  *Session
	resolver *Resolver
	redeemer *RedemptionClient
	poller   *Poller
	printer  Printer
	log      *zap.Logger

	mu   sync.Mutex
	busy bool
}

func NewOrchestrator(api API, printer Printer, opts Options, log *zap.Logger) *Orchestrator {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	interval := opts.PollInterval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	return &Orchestrator{
		session:  NewSession(clk),
		resolver: NewResolver(api),
		redeemer: NewRedemptionClient(api, log),
		poller:   NewPoller(api, clk, opts.PollAttempts, interval, log),
		printer:  printer,
		log:      log,
	}
}

// Session returns the state a presentation layer binds to.
func (o *Orchestrator) Session() *Session { return o.session }

// Reset clears the session. While a check-in or print is running it
// returns ErrBusy and leaves state untouched.
func (o *Orchestrator) Reset() error {
	if !o.acquire() {
		return ErrBusy
	}
	defer o.release()
	o.session.Reset()
	return nil
}

func (o *Orchestrator) acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return false
	}
	o.busy = true
	return true
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.busy = false
	o.mu.Unlock()
}

type checkInOutcome struct {
	status   Status
	text     string
	attendee string
	reason   string
	badgeURL string
}

// CheckIn redeems the ticket in the scanned payload and records the
// result in the session. Failures of the attempt are never returned; the
// only error is ErrBusy.
func (o *Orchestrator) CheckIn(ctx context.Context, payload string) error {
	if !o.acquire() {
		return ErrBusy
	}
	defer o.release()
	ctx = context.WithoutCancel(ctx)

	attempt := uuid.NewString()
	log := o.log.With(zap.String("attempt", attempt))
	o.session.update(func(st *State) {
		*st = State{Status: StatusIdle, CheckingIn: true, AttemptID: attempt}
	})

	out := checkInOutcome{status: StatusError, text: msgCheckInError, attendee: UnknownAttendee}
	defer func() {
		if r := recover(); r != nil {
			log.Error("check-in panicked", zap.Any("panic", r))
			out = checkInOutcome{status: StatusError, text: msgCheckInError, attendee: UnknownAttendee}
		}
		o.session.update(func(st *State) {
			st.CheckingIn = false
			st.Status = out.status
			st.Message = &Message{Text: out.text, Attendee: out.attendee, Reason: out.reason}
			st.BadgeURL = out.badgeURL
		})
	}()

	out = o.runCheckIn(ctx, payload, log)
	return nil
}

func (o *Orchestrator) runCheckIn(ctx context.Context, payload string, log *zap.Logger) checkInOutcome {
	secret, err := DecodePayload(payload)
	if err != nil {
		log.Warn("check-in rejected: malformed scan payload", zap.Error(err))
		return checkInOutcome{status: StatusError, text: msgInvalidCode, attendee: UnknownAttendee}
	}

	lists, err := o.resolver.Resolve(ctx)
	if err != nil {
		log.Error("check-in aborted: list resolution failed", zap.Error(err))
		return checkInOutcome{status: StatusError, text: msgCheckInError, attendee: UnknownAttendee}
	}

	res := o.redeemer.Redeem(ctx, secret, lists)
	if !res.Succeeded() {
		log.Warn("check-in failed",
			zap.Strings("lists", lists),
			zap.Stringer("kind", res.Kind),
			zap.String("status", res.Status),
			zap.String("reason", res.Reason),
			zap.Error(res.Err),
		)
		text := msgCheckInFailed
		if res.Kind == RedemptionError {
			text = msgCheckInError
		}
		return checkInOutcome{status: StatusError, text: text, attendee: res.Attendee, reason: res.Reason}
	}

	log.Info("check-in succeeded",
		zap.Strings("lists", lists),
		zap.String("status", res.Status),
		zap.String("attendee", res.Attendee),
		zap.Bool("badge", res.BadgeURL != ""),
	)
	return checkInOutcome{status: StatusSuccess, text: msgCheckInOK, attendee: res.Attendee, badgeURL: res.BadgeURL}
}

// PrintBadge polls for the badge at badgeURL (or the session's badge
// reference when empty) and sends it to the printer. Failures surface in
// the session; the only errors returned are ErrBusy and ErrNoBadge. The
// printing flag is always cleared before PrintBadge returns.
func (o *Orchestrator) PrintBadge(ctx context.Context, badgeURL string) error {
	if badgeURL == "" {
		badgeURL = o.session.Snapshot().BadgeURL
	}
	if badgeURL == "" {
		return ErrNoBadge
	}
	if !o.acquire() {
		return ErrBusy
	}
	defer o.release()
	ctx = context.WithoutCancel(ctx)

	o.session.update(func(st *State) { st.Printing = true })

	var printErr error
	defer func() {
		if r := recover(); r != nil {
			printErr = fmt.Errorf("print surface panicked: %v", r)
		}
		if printErr != nil {
			o.log.Error("badge print failed", zap.String("badge_url", badgeURL), zap.Error(printErr))
		}
		o.session.update(func(st *State) {
			st.Printing = false
			if printErr == nil {
				return
			}
			attendee := UnknownAttendee
			if st.Message != nil && st.Message.Attendee != "" {
				attendee = st.Message.Attendee
			}
			st.Status = StatusError
			st.Message = &Message{Text: msgPrintFailed, Attendee: attendee}
		})
	}()

	printErr = o.printBadge(ctx, badgeURL)
	return nil
}

func (o *Orchestrator) printBadge(ctx context.Context, badgeURL string) error {
	out := o.poller.Poll(ctx, badgeURL)
	if out.State != BadgeReady {
		return fmt.Errorf("badge not available after %d attempts: %w", out.Attempts, out.Err)
	}
	if err := o.printer.PrintDocument(ctx, out.Document); err != nil {
		return fmt.Errorf("print document: %w", err)
	}
	o.log.Info("badge printed", zap.String("badge_url", badgeURL), zap.Int("attempts", out.Attempts), zap.Int("bytes", len(out.Document)))
	return nil
}
