package types

import (
	"encoding/json"
	"testing"
)

func TestTokenBalances_Error(t *testing.T) {
	ok := TokenBalances{"ETH": "2.5"}
	if _, has := ok.Error(); has {
		t.Error("balances without error key reported an error")
	}

	failed := TokenBalances{ErrorKey: "Unsupported chain"}
	msg, has := failed.Error()
	if !has || msg != "Unsupported chain" {
		t.Errorf("Error() = (%q, %v), want (%q, true)", msg, has, "Unsupported chain")
	}
}

func TestDefiPosition_OmitsUnusedLegs(t *testing.T) {
	lending, err := json.Marshal(DefiPosition{Protocol: "Aave", Type: "lending", Asset: "USDC", Amount: "500.0", APY: "3.2"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(lending, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := fields["pair"]; ok {
		t.Errorf("lending position should not carry a pair field: %s", lending)
	}
	if fields["asset"] != "USDC" {
		t.Errorf("asset = %v, want USDC", fields["asset"])
	}
}

func TestPortfolioSummary_FieldNames(t *testing.T) {
	data, err := json.Marshal(PortfolioSummary{
		TotalPortfolioValue: "0.00",
		Positions:           []PortfolioPosition{},
		Chains:              []string{"ethereum"},
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"total_portfolio_value":"0.00","positions":[],"chains":["ethereum"]}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}
