package feed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/zorro-assets/internal/model"
)

// fakeRows serves fixed values through the pgx.Rows interface.
type fakeRows struct {
	rows [][]any
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.pos-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}

type recordedQuery struct {
	sql  string
	args []any
}

// fakeDB answers the instruments query and pages through quotes.
type fakeDB struct {
	instruments [][]any
	pages       [][][]any
	queries     []recordedQuery
	quoteErr    error
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.queries = append(db.queries, recordedQuery{sql: sql, args: args})
	if strings.Contains(sql, "FROM instruments") {
		return &fakeRows{rows: db.instruments}, nil
	}
	if db.quoteErr != nil {
		return nil, db.quoteErr
	}
	if len(db.pages) == 0 {
		return &fakeRows{}, nil
	}
	page := db.pages[0]
	db.pages = db.pages[1:]
	return &fakeRows{rows: page}, nil
}

func fp(v float64) *float64 { return &v }

func instrumentRow(name string, bid, ask *float64) []any {
	return []any{
		name, name + ".a", true, bid, ask, -6.5, 1.25, 3.0,
		0.03, 0.0001, 0.0001, 100000.0, 5, 1000.0,
		"EUR", "USD",
		[]byte(`[{"start":"00:00","end":"24:00"},{"start":"01:00","end":"23:59"}]`),
		[]byte(`[{"volume":0,"leverage":500}]`),
	}
}

func quoteRow(ts time.Time, name string, bid, ask float64) []any {
	return []any{ts, name, fp(bid), fp(ask)}
}

func collect(t *testing.T, src Source) ([]Event, error) {
	t.Helper()
	out := make(chan Event, 100)
	err := src.Run(context.Background(), out)
	close(out)
	var events []Event
	for ev := range out {
		events = append(events, ev)
	}
	return events, err
}

func TestReplaySource_Run(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	db := &fakeDB{
		instruments: [][]any{
			instrumentRow("EURUSD", fp(1.1), fp(1.1002)),
			instrumentRow("GBPUSD", nil, nil),
		},
		pages: [][][]any{
			{quoteRow(base, "EURUSD", 1.1, 1.1001), quoteRow(base, "GBPUSD", 1.2, 1.2002)},
			{quoteRow(base.Add(time.Second), "EURUSD", 1.1, 1.1003)},
		},
	}

	src := NewReplaySource(db, ReplayConfig{
		Account:  model.Account{BrokerName: "Acme", IsLive: false},
		From:     base,
		PageSize: 2,
	}, nil)

	events, err := collect(t, src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("events = %d, want 5", len(events))
	}

	if events[0].Kind != EventAccount || events[0].Account.BrokerName != "Acme" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Kind != EventInstruments || len(events[1].Instruments) != 2 {
		t.Fatalf("second event = %+v", events[1])
	}
	eur := events[1].Instruments[0]
	if eur.Symbol != "EURUSD.a" || len(eur.Sessions) != 2 || len(eur.Leverage) != 1 {
		t.Errorf("eur = %+v", eur)
	}
	if !math.IsNaN(events[1].Instruments[1].Spread) {
		t.Errorf("gbp spread = %v, want NaN", events[1].Instruments[1].Spread)
	}

	for i, ev := range events[2:] {
		if ev.Kind != EventQuote {
			t.Errorf("event %d kind = %v, want quote", i+2, ev.Kind)
		}
	}
	if got := events[4].Time; !got.Equal(base.Add(time.Second)) {
		t.Errorf("last quote time = %v", got)
	}

	// instruments + two quote pages
	if len(db.queries) != 3 {
		t.Fatalf("queries = %d, want 3", len(db.queries))
	}
	first := db.queries[1]
	if !strings.Contains(first.sql, "ts >= $1") || !strings.HasSuffix(first.sql, "LIMIT $2") {
		t.Errorf("first page sql = %q", first.sql)
	}
	second := db.queries[2]
	if !strings.Contains(second.sql, "(ts, name) > ($1, $2)") {
		t.Errorf("second page sql = %q", second.sql)
	}
	if second.args[1] != "GBPUSD" {
		t.Errorf("cursor name = %v, want GBPUSD", second.args[1])
	}
}

func TestReplaySource_QuotesQuery(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	tests := []struct {
		name   string
		cfg    ReplayConfig
		cursor *quoteCursor
		want   string
		nargs  int
	}{
		{
			name:  "unbounded",
			cfg:   ReplayConfig{PageSize: 10},
			want:  "SELECT ts, name, bid, ask FROM quotes ORDER BY ts, name LIMIT $1",
			nargs: 1,
		},
		{
			name:  "bounded",
			cfg:   ReplayConfig{From: from, To: to, PageSize: 10},
			want:  "SELECT ts, name, bid, ask FROM quotes WHERE ts >= $1 AND ts < $2 ORDER BY ts, name LIMIT $3",
			nargs: 3,
		},
		{
			name:   "cursor",
			cfg:    ReplayConfig{From: from, To: to, PageSize: 10},
			cursor: &quoteCursor{ts: from, name: "EURUSD"},
			want:   "SELECT ts, name, bid, ask FROM quotes WHERE (ts, name) > ($1, $2) AND ts < $3 ORDER BY ts, name LIMIT $4",
			nargs:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewReplaySource(&fakeDB{}, tt.cfg, nil)
			sql, args := src.quotesQuery(tt.cursor)
			if sql != tt.want {
				t.Errorf("sql = %q\nwant  %q", sql, tt.want)
			}
			if len(args) != tt.nargs {
				t.Errorf("args = %d, want %d", len(args), tt.nargs)
			}
		})
	}
}

func TestReplaySource_QueryError(t *testing.T) {
	boom := errors.New("boom")
	db := &fakeDB{quoteErr: boom}

	_, err := collect(t, NewReplaySource(db, ReplayConfig{PageSize: 10}, nil))
	if !errors.Is(err, boom) {
		t.Errorf("Run error = %v, want %v", err, boom)
	}
}

func TestReplaySource_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewReplaySource(&fakeDB{}, ReplayConfig{PageSize: 10}, nil)
	if err := src.Run(ctx, make(chan Event)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}
