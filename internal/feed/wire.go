package feed

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/zorro-assets/internal/model"
)

// Envelope is a data message from the bridge.
type Envelope struct {
	Type string          `json:"type"` // "account", "symbols", "quote", "heartbeat", "subscribed", "error"
	TS   int64           `json:"ts"`   // Bridge timestamp (ms since epoch), 0 if not provided
	Msg  json.RawMessage `json:"msg"`
}

// Command is a command sent to the bridge.
type Command struct {
	ID     string `json:"id"`
	Cmd    string `json:"cmd"`
	Params any    `json:"params"`
}

// SubscribeParams are parameters for a subscribe command.
type SubscribeParams struct {
	Channels []string `json:"channels"`
}

// AccountMsg is the message content for an "account" message.
type AccountMsg struct {
	Broker string `json:"broker"`
	Live   bool   `json:"live"`
}

// SessionMsg is one trading session, times as "HH:MM" in UTC.
type SessionMsg struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// LeverageMsg is one dynamic leverage tier.
type LeverageMsg struct {
	Volume   float64 `json:"volume"`
	Leverage float64 `json:"leverage"`
}

// InstrumentMsg is one entry of a "symbols" message.
type InstrumentMsg struct {
	Name       string        `json:"name"`
	Symbol     string        `json:"symbol"`
	Tradable   bool          `json:"tradable"`
	Bid        *float64      `json:"bid"`
	Ask        *float64      `json:"ask"`
	SwapLong   float64       `json:"swap_long"`
	SwapShort  float64       `json:"swap_short"`
	Commission float64       `json:"commission"`
	MarginRate float64       `json:"margin_rate"`
	PipSize    float64       `json:"pip_size"`
	PipValue   float64       `json:"pip_value"`
	LotSize    float64       `json:"lot_size"`
	Digits     int           `json:"digits"`
	MinVolume  float64       `json:"min_volume"`
	Base       string        `json:"base"`
	Quote      string        `json:"quote"`
	Sessions   []SessionMsg  `json:"sessions"`
	Leverage   []LeverageMsg `json:"leverage"`
}

// QuoteMsg is the message content for a "quote" message.
type QuoteMsg struct {
	Name string   `json:"name"`
	Bid  *float64 `json:"bid"`
	Ask  *float64 `json:"ask"`
}

// ServerError is the message content for an "error" message.
type ServerError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("feed error %s: %s", e.Code, e.Message)
}

// ToModel converts to a model.Instrument. A missing side yields a NaN spread.
func (m InstrumentMsg) ToModel() (model.Instrument, error) {
	inst := model.Instrument{
		Name:       m.Name,
		Symbol:     m.Symbol,
		Tradable:   m.Tradable,
		Bid:        deref(m.Bid),
		Ask:        deref(m.Ask),
		SwapLong:   m.SwapLong,
		SwapShort:  m.SwapShort,
		Commission: m.Commission,
		MarginRate: m.MarginRate,
		PipSize:    m.PipSize,
		PipValue:   m.PipValue,
		LotSize:    m.LotSize,
		Digits:     m.Digits,
		MinVolume:  m.MinVolume,
		BaseAsset:  m.Base,
		QuoteAsset: m.Quote,
	}
	inst.Spread = model.Quote{Bid: inst.Bid, Ask: inst.Ask}.Spread()

	for i, s := range m.Sessions {
		start, err := ParseClock(s.Start)
		if err != nil {
			return model.Instrument{}, fmt.Errorf("%s session %d start: %w", m.Name, i, err)
		}
		end, err := ParseClock(s.End)
		if err != nil {
			return model.Instrument{}, fmt.Errorf("%s session %d end: %w", m.Name, i, err)
		}
		inst.Sessions = append(inst.Sessions, model.Session{Start: start, End: end})
	}
	for _, l := range m.Leverage {
		inst.Leverage = append(inst.Leverage, model.LeverageTier{Volume: l.Volume, Leverage: l.Leverage})
	}
	return inst, nil
}

// Decode parses one bridge message. ok is false for messages that carry no
// event (heartbeats, subscribe acknowledgements, unknown types).
func Decode(data []byte, receivedAt time.Time) (ev Event, ok bool, err error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, false, fmt.Errorf("unmarshal envelope: %w", err)
	}

	ev.Time = receivedAt.UTC()
	if env.TS > 0 {
		ev.Time = time.UnixMilli(env.TS).UTC()
	}

	switch env.Type {
	case "account":
		var msg AccountMsg
		if err := json.Unmarshal(env.Msg, &msg); err != nil {
			return Event{}, false, fmt.Errorf("unmarshal account: %w", err)
		}
		ev.Kind = EventAccount
		ev.Account = model.Account{BrokerName: msg.Broker, IsLive: msg.Live}

	case "symbols":
		var msgs []InstrumentMsg
		if err := json.Unmarshal(env.Msg, &msgs); err != nil {
			return Event{}, false, fmt.Errorf("unmarshal symbols: %w", err)
		}
		ev.Kind = EventInstruments
		ev.Instruments = make([]model.Instrument, 0, len(msgs))
		for _, m := range msgs {
			inst, err := m.ToModel()
			if err != nil {
				return Event{}, false, fmt.Errorf("convert symbols: %w", err)
			}
			ev.Instruments = append(ev.Instruments, inst)
		}

	case "quote":
		var msg QuoteMsg
		if err := json.Unmarshal(env.Msg, &msg); err != nil {
			return Event{}, false, fmt.Errorf("unmarshal quote: %w", err)
		}
		ev.Kind = EventQuote
		ev.Quote = model.Quote{Name: msg.Name, Time: ev.Time, Bid: deref(msg.Bid), Ask: deref(msg.Ask)}

	case "error":
		var msg ServerError
		if err := json.Unmarshal(env.Msg, &msg); err != nil {
			return Event{}, false, fmt.Errorf("unmarshal error: %w", err)
		}
		return Event{}, false, &msg

	default:
		return Event{}, false, nil
	}

	return ev, true, nil
}

// ParseClock parses "HH:MM" (00:00 to 24:00) into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

func deref(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
