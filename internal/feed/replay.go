package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/zorro-assets/internal/model"
)

// Querier is the subset of *pgxpool.Pool used by the replay source.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ReplayConfig bounds the replayed quotes.
type ReplayConfig struct {
	Account  model.Account
	From     time.Time // Zero = no lower bound
	To       time.Time // Zero = no upper bound (exclusive otherwise)
	PageSize int
}

// ReplaySource replays recorded instruments and quotes from Postgres.
// Instrument metadata is sent first, then every quote in (ts, name) order.
type ReplaySource struct {
	db     Querier
	cfg    ReplayConfig
	logger *slog.Logger
}

// NewReplaySource creates a replay source.
func NewReplaySource(db Querier, cfg ReplayConfig, logger *slog.Logger) *ReplaySource {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 5000
	}
	return &ReplaySource{db: db, cfg: cfg, logger: logger}
}

const instrumentsQuery = `
	SELECT name, symbol, tradable, bid, ask, swap_long, swap_short, commission,
	       margin_rate, pip_size, pip_value, lot_size, digits, min_volume,
	       base, quote, sessions, leverage
	FROM instruments
	ORDER BY name`

// Run sends the account, the instrument set and all quotes in range.
// It returns nil once the last page has been delivered.
func (s *ReplaySource) Run(ctx context.Context, out chan<- Event) error {
	start := s.cfg.From.UTC()
	if err := send(ctx, out, Event{Kind: EventAccount, Time: start, Account: s.cfg.Account}); err != nil {
		return err
	}

	instruments, err := s.loadInstruments(ctx)
	if err != nil {
		return err
	}
	if err := send(ctx, out, Event{Kind: EventInstruments, Time: start, Instruments: instruments}); err != nil {
		return err
	}
	s.logger.Info("replay instruments loaded", "count", len(instruments))

	var (
		total   int
		cursor  *quoteCursor
		started = time.Now()
	)
	for {
		quotes, err := s.loadPage(ctx, cursor)
		if err != nil {
			return err
		}
		for _, q := range quotes {
			if err := send(ctx, out, Event{Kind: EventQuote, Time: q.Time, Quote: q}); err != nil {
				return err
			}
		}
		total += len(quotes)

		if len(quotes) < s.cfg.PageSize {
			break
		}
		last := quotes[len(quotes)-1]
		cursor = &quoteCursor{ts: last.Time, name: last.Name}
	}

	s.logger.Info("replay complete", "quotes", total, "elapsed", time.Since(started))
	return nil
}

func (s *ReplaySource) loadInstruments(ctx context.Context) ([]model.Instrument, error) {
	rows, err := s.db.Query(ctx, instrumentsQuery)
	if err != nil {
		return nil, fmt.Errorf("query instruments: %w", err)
	}
	defer rows.Close()

	var out []model.Instrument
	for rows.Next() {
		var (
			m                  InstrumentMsg
			sessions, leverage []byte
		)
		if err := rows.Scan(
			&m.Name, &m.Symbol, &m.Tradable, &m.Bid, &m.Ask, &m.SwapLong, &m.SwapShort, &m.Commission,
			&m.MarginRate, &m.PipSize, &m.PipValue, &m.LotSize, &m.Digits, &m.MinVolume,
			&m.Base, &m.Quote, &sessions, &leverage,
		); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		if len(sessions) > 0 {
			if err := json.Unmarshal(sessions, &m.Sessions); err != nil {
				return nil, fmt.Errorf("decode %s sessions: %w", m.Name, err)
			}
		}
		if len(leverage) > 0 {
			if err := json.Unmarshal(leverage, &m.Leverage); err != nil {
				return nil, fmt.Errorf("decode %s leverage: %w", m.Name, err)
			}
		}
		inst, err := m.ToModel()
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read instruments: %w", err)
	}
	return out, nil
}

// quoteCursor is the keyset position after the last delivered quote.
type quoteCursor struct {
	ts   time.Time
	name string
}

// quotesQuery builds the page query for the configured bounds.
func (s *ReplaySource) quotesQuery(cursor *quoteCursor) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if cursor != nil {
		conds = append(conds, fmt.Sprintf("(ts, name) > (%s, %s)", arg(cursor.ts), arg(cursor.name)))
	} else if !s.cfg.From.IsZero() {
		conds = append(conds, "ts >= "+arg(s.cfg.From))
	}
	if !s.cfg.To.IsZero() {
		conds = append(conds, "ts < "+arg(s.cfg.To))
	}

	var b strings.Builder
	b.WriteString("SELECT ts, name, bid, ask FROM quotes")
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY ts, name LIMIT ")
	b.WriteString(arg(s.cfg.PageSize))
	return b.String(), args
}

func (s *ReplaySource) loadPage(ctx context.Context, cursor *quoteCursor) ([]model.Quote, error) {
	query, args := s.quotesQuery(cursor)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]model.Quote, 0, s.cfg.PageSize)
	for rows.Next() {
		var (
			q        model.Quote
			bid, ask *float64
		)
		if err := rows.Scan(&q.Time, &q.Name, &bid, &ask); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		q.Time = q.Time.UTC()
		q.Bid = deref(bid)
		q.Ask = deref(ask)
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read quotes: %w", err)
	}
	return quotes, nil
}
