package feed

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestDecode(t *testing.T) {
	recv := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		data     string
		wantOK   bool
		wantKind EventKind
		wantErr  bool
	}{
		{"heartbeat", `{"type":"heartbeat"}`, false, 0, false},
		{"subscribed", `{"type":"subscribed","msg":{"id":"x"}}`, false, 0, false},
		{"unknown", `{"type":"orderbook","msg":{}}`, false, 0, false},
		{"account", `{"type":"account","msg":{"broker":"Acme","live":false}}`, true, EventAccount, false},
		{"symbols", `{"type":"symbols","msg":[]}`, true, EventInstruments, false},
		{"quote", `{"type":"quote","msg":{"name":"EURUSD","bid":1,"ask":2}}`, true, EventQuote, false},
		{"bad envelope", `{`, false, 0, true},
		{"bad quote", `{"type":"quote","msg":[1]}`, false, 0, true},
		{"bad session", `{"type":"symbols","msg":[{"name":"X","sessions":[{"start":"9","end":"10:00"}]}]}`, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok, err := Decode([]byte(tt.data), recv)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && ev.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", ev.Kind, tt.wantKind)
			}
		})
	}
}

func TestDecode_Time(t *testing.T) {
	recv := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

	ev, _, _ := Decode([]byte(`{"type":"quote","msg":{"name":"A","bid":1,"ask":2}}`), recv)
	if !ev.Time.Equal(recv) || ev.Time.Location() != time.UTC {
		t.Errorf("time without ts = %v, want %v in UTC", ev.Time, recv)
	}

	ev, _, _ = Decode([]byte(`{"type":"quote","ts":1709294400000,"msg":{"name":"A","bid":1,"ask":2}}`), recv)
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if !ev.Time.Equal(want) {
		t.Errorf("time with ts = %v, want %v", ev.Time, want)
	}
	if !ev.Quote.Time.Equal(want) {
		t.Errorf("quote time = %v, want %v", ev.Quote.Time, want)
	}
}

func TestDecode_ServerError(t *testing.T) {
	_, ok, err := Decode([]byte(`{"type":"error","msg":{"code":"E42","message":"nope"}}`), time.Now())
	if ok {
		t.Error("expected ok = false")
	}
	var serr *ServerError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want *ServerError", err)
	}
	if serr.Code != "E42" || serr.Message != "nope" {
		t.Errorf("server error = %+v", serr)
	}
}

func TestDecode_Symbols(t *testing.T) {
	data := `{"type":"symbols","msg":[
		{"name":"EURUSD","symbol":"EURUSD.a","tradable":true,"bid":1.1,"ask":1.1002,
		 "swap_long":-6.5,"swap_short":1.25,"commission":3,"margin_rate":0.03,
		 "pip_size":0.0001,"pip_value":0.0001,"lot_size":100000,"digits":5,"min_volume":1000,
		 "base":"EUR","quote":"USD",
		 "sessions":[{"start":"00:00","end":"24:00"},{"start":"01:00","end":"23:59"}],
		 "leverage":[{"volume":0,"leverage":500},{"volume":1000000,"leverage":100}]},
		{"name":"XAUUSD","tradable":true,"ask":2000}
	]}`

	ev, ok, err := Decode([]byte(data), time.Now())
	if err != nil || !ok {
		t.Fatalf("Decode: ok=%v err=%v", ok, err)
	}
	if len(ev.Instruments) != 2 {
		t.Fatalf("instruments = %d, want 2", len(ev.Instruments))
	}

	eur := ev.Instruments[0]
	if eur.Symbol != "EURUSD.a" || eur.BaseAsset != "EUR" || eur.QuoteAsset != "USD" {
		t.Errorf("eur = %+v", eur)
	}
	if math.Abs(eur.Spread-0.0002) > 1e-12 {
		t.Errorf("spread = %v, want 0.0002", eur.Spread)
	}
	if len(eur.Sessions) != 2 || eur.Sessions[1].Start != time.Hour || eur.Sessions[0].End != 24*time.Hour {
		t.Errorf("sessions = %+v", eur.Sessions)
	}
	if lev, ok := eur.FirstLeverage(); !ok || lev != 500 {
		t.Errorf("first leverage = %v, %v", lev, ok)
	}

	xau := ev.Instruments[1]
	if !math.IsNaN(xau.Bid) || !math.IsNaN(xau.Spread) {
		t.Errorf("missing bid: bid=%v spread=%v, want NaN", xau.Bid, xau.Spread)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"00:00", 0, false},
		{"01:30", 90 * time.Minute, false},
		{" 23:59 ", 23*time.Hour + 59*time.Minute, false},
		{"24:00", 24 * time.Hour, false},
		{"24:01", 0, true},
		{"12:60", 0, true},
		{"-1:00", 0, true},
		{"1200", 0, true},
		{"aa:00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
