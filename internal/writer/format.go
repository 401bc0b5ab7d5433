package writer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/zorro-assets/internal/model"
)

// ErrMissingSession is returned when an instrument has no primary trading session.
var ErrMissingSession = errors.New("primary trading session missing")

// Header lists the asset file columns in output order.
var Header = []string{
	"Name", "Price", "Spread", "RollLong", "RollShort", "PIP", "PIPCost", "MarginCost",
	"Market", "Multiplier", "Commission", "Symbol", "Leverage", "Lotsize", "Base", "Quote",
}

// primarySession is the index of the session used for the Market column.
const primarySession = 1

// Record is one formatted asset line.
type Record []string

// String joins the fields with commas.
func (r Record) String() string {
	return strings.Join(r, ",")
}

// Format renders one instrument. margin is the estimated margin for one lot.
//
// If the primary session is missing, the record is still returned with an empty
// Market field, together with ErrMissingSession.
func Format(inst model.Instrument, avgSpread, margin float64) (Record, error) {
	market, err := marketHours(inst.Sessions)

	leverage := ""
	if lev, ok := inst.FirstLeverage(); ok {
		leverage = strconv.Itoa(int(lev))
	}

	return Record{
		inst.Name,
		fixed(inst.Bid, inst.Digits),
		fixed(avgSpread, inst.Digits+1),
		fixed(inst.SwapLong, 5),
		fixed(inst.SwapShort, 5),
		fixed(inst.PipSize, inst.Digits),
		fixed(inst.PipValue*inst.LotSize, 8),
		fixed(margin, 2),
		market,
		fixed(inst.MinVolume, 8),
		fixed(inst.Commission, 2),
		inst.BrokerSymbol(),
		leverage,
		fixed(inst.LotSize, 2),
		inst.BaseAsset,
		inst.QuoteAsset,
	}, err
}

// fixed renders v with exactly places decimals, rounding half away from zero.
func fixed(v float64, places int) string {
	if places < 0 {
		places = 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', places, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(int32(places))
}

// marketHours renders the primary session as "UTC:HH:MM-HH:MM".
func marketHours(sessions []model.Session) (string, error) {
	if len(sessions) <= primarySession {
		return "", ErrMissingSession
	}
	s := sessions[primarySession]
	return "UTC:" + clock(s.Start) + "-" + clock(s.End), nil
}

// clock formats a time-of-day offset as HH:MM. A full day wraps to 00:00.
func clock(d time.Duration) string {
	h := int(d/time.Hour) % 24
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}
