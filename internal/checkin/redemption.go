package checkin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fossasia/eventyay-checkin/internal/eventyay"
	"github.com/fossasia/eventyay-checkin/internal/nonce"
)

// UnknownAttendee is shown whenever no trustworthy attendee name exists.
const UnknownAttendee = "Unknown Attendee"

const badgeOutput = "badge"

// RedemptionKind tags a RedemptionResult.
type RedemptionKind int

const (
	// RedemptionError: no trustworthy server answer.
	RedemptionError RedemptionKind = iota
	// RedemptionOK: the ticket was checked in now.
	RedemptionOK
	// RedemptionRedeemed: the server reports the ticket as redeemed.
	RedemptionRedeemed
	// RedemptionFailed: the server answered and denied the check-in.
	RedemptionFailed
)

func (k RedemptionKind) String() string {
	switch k {
	case RedemptionOK:
		return "ok"
	case RedemptionRedeemed:
		return "redeemed"
	case RedemptionFailed:
		return "failed"
	default:
		return "error"
	}
}

// RedemptionResult is the classified outcome of one redemption attempt.
type RedemptionResult struct {
	Kind     RedemptionKind
	Attendee string
	// BadgeURL is empty when the event has no badge output configured.
	BadgeURL string
	Status   string
	Reason   string
	// Err is *RedemptionRejected for RedemptionFailed and *TransportError
	// for RedemptionError.
	Err error
}

// Succeeded reports whether the ticket is checked in.
func (r RedemptionResult) Succeeded() bool {
	return r.Kind == RedemptionOK || r.Kind == RedemptionRedeemed
}

type redeemBody struct {
	Status   string          `json:"status"`
	Reason   string          `json:"reason"`
	Position json.RawMessage `json:"position"`
}

type redeemPosition struct {
	AttendeeName string           `json:"attendee_name"`
	Downloads    []redeemDownload `json:"downloads"`
}

type redeemDownload struct {
	Output string `json:"output"`
	URL    string `json:"url"`
}

// ClassifyRedemption maps a raw redeem answer to a RedemptionResult. It is
// the only place that inspects the response shape.
func ClassifyRedemption(raw *eventyay.RawResponse) RedemptionResult {
	if raw == nil {
		return transportFailure(fmt.Errorf("no response"))
	}
	var body redeemBody
	if err := json.Unmarshal(raw.Body, &body); err != nil || body.Status == "" {
		if raw.StatusCode < 200 || raw.StatusCode >= 300 {
			return transportFailure(&eventyay.StatusError{Op: "Redeem", Code: raw.StatusCode})
		}
		if err == nil {
			err = fmt.Errorf("missing status field")
		}
		return transportFailure(fmt.Errorf("decode redeem response: %w", err))
	}

	pos := decodePosition(body.Position)
	status := body.Status
	if (status == "ok" || status == "redeemed") && pos != nil {
		kind := RedemptionOK
		if status == "redeemed" {
			kind = RedemptionRedeemed
		}
		return RedemptionResult{
			Kind:     kind,
			Attendee: attendeeOrUnknown(pos.AttendeeName),
			BadgeURL: findBadge(pos.Downloads),
			Status:   status,
		}
	}

	attendee := UnknownAttendee
	if pos != nil {
		attendee = attendeeOrUnknown(pos.AttendeeName)
	}
	return RedemptionResult{
		Kind:     RedemptionFailed,
		Attendee: attendee,
		Status:   status,
		Reason:   body.Reason,
		Err:      &RedemptionRejected{Status: status, Reason: body.Reason},
	}
}

// decodePosition returns nil for an absent, null or malformed position.
func decodePosition(raw json.RawMessage) *redeemPosition {
	if len(raw) == 0 {
		return nil
	}
	var pos *redeemPosition
	if err := json.Unmarshal(raw, &pos); err != nil {
		return nil
	}
	return pos
}

func transportFailure(err error) RedemptionResult {
	return RedemptionResult{
		Kind:     RedemptionError,
		Attendee: UnknownAttendee,
		Err:      &TransportError{Op: "redeem", Err: err},
	}
}

func findBadge(downloads []redeemDownload) string {
	for _, d := range downloads {
		if d.Output == badgeOutput {
			return d.URL
		}
	}
	return ""
}

func attendeeOrUnknown(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return UnknownAttendee
}

// Redeemer submits a redemption and returns the raw answer.
type Redeemer interface {
	Redeem(ctx context.Context, r eventyay.RedeemRequest) (*eventyay.RawResponse, error)
}

// RedemptionClient redeems ticket secrets, one fresh nonce per attempt.
type RedemptionClient struct {
	api   Redeemer
	nonce func() string
	log   *zap.Logger
}

func NewRedemptionClient(api Redeemer, log *zap.Logger) *RedemptionClient {
	return &RedemptionClient{api: api, nonce: nonce.New, log: log}
}

// Redeem submits secret against lists and classifies the answer.
func (c *RedemptionClient) Redeem(ctx context.Context, secret string, lists []string) RedemptionResult {
	req := eventyay.RedeemRequest{
		Secret:             secret,
		SourceType:         "barcode",
		Lists:              lists,
		Force:              false,
		IgnoreUnpaid:       false,
		Nonce:              c.nonce(),
		Datetime:           nil,
		QuestionsSupported: false,
	}
	raw, err := c.api.Redeem(ctx, req)
	if err != nil {
		c.log.Warn("redeem request failed", zap.Error(err))
		return transportFailure(err)
	}
	if raw == nil {
		c.log.Warn("redeem returned no response")
		return transportFailure(fmt.Errorf("no response"))
	}
	res := ClassifyRedemption(raw)
	c.log.Debug("redeem classified",
		zap.Int("http_status", raw.StatusCode),
		zap.Stringer("kind", res.Kind),
		zap.String("status", res.Status),
	)
	return res
}
