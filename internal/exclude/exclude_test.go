package exclude

import "testing"

func TestIsExcluded(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		denyList   string
		want       bool
	}{
		{"lowercase token", "EURUSD", "usd", true},
		{"mixed case identifier", "EurUSD", "usd", true},
		{"second token", "USDJPY", "XAU,JPY", true},
		{"no match", "EURGBP", "JPY,XAU", false},
		{"empty list", "EURUSD", "", false},
		{"only separators", "EURUSD", ",,", false},
		{"empty tokens ignored", "XAUUSD", ",,xau,", true},
		{"whitespace trimmed", "USDJPY", "EUR, jpy", true},
		{"substring inside", "US500.cash", ".CASH", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExcluded(tt.identifier, tt.denyList); got != tt.want {
				t.Errorf("IsExcluded(%q, %q) = %v, want %v", tt.identifier, tt.denyList, got, tt.want)
			}
		})
	}
}

func TestFilter_MatchReturnsFirstToken(t *testing.T) {
	f := Parse("jpy,usd")

	tok, ok := f.Match("USDJPY")
	if !ok {
		t.Fatal("expected USDJPY to match")
	}
	if tok != "jpy" {
		t.Errorf("Match token = %q, want %q", tok, "jpy")
	}
}

func TestFilter_ZeroValue(t *testing.T) {
	var f Filter
	if _, ok := f.Match("EURUSD"); ok {
		t.Error("zero Filter should not match")
	}
	if len(f.Tokens()) != 0 {
		t.Errorf("Tokens() = %v, want empty", f.Tokens())
	}
}

func TestParse_Tokens(t *testing.T) {
	got := Parse(" JPY ,, XAU").Tokens()
	want := []string{"JPY", "XAU"}
	if len(got) != len(want) {
		t.Fatalf("Tokens() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokens()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
