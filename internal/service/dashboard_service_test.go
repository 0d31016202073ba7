package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"unicode"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defi-dashboard/internal/catalog"
	apperrors "github.com/defi-dashboard/internal/errors"
	"github.com/defi-dashboard/internal/logging"
	"github.com/defi-dashboard/internal/types"
)

const testWallet = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

const unsupportedChainMessage = "Unsupported chain. Supported: ethereum, polygon, base, arbitrum"

func newTestService() *DashboardService {
	return NewDashboardService(catalog.Default())
}

// quietContext keeps address-hygiene warnings out of test output.
func quietContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.LevelDebug, logging.FormatJSON)
	logger.SetOutput(&buf)
	return logging.WithLogger(context.Background(), logger), &buf
}

func TestGetTokenBalance(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)

	tests := []struct {
		name  string
		chain string
		want  types.TokenBalances
	}{
		{"ethereum", "ethereum", types.TokenBalances{"ETH": "2.5", "USDC": "1250.0"}},
		{"polygon uppercase", "POLYGON", types.TokenBalances{"MATIC": "1000.0", "USDC": "500.0"}},
		{"base mixed case", "BaSe", types.TokenBalances{"ETH": "0.8", "USDC": "200.0"}},
		{"arbitrum", "arbitrum", types.TokenBalances{"ETH": "1.2", "USDC": "300.0"}},
		{"unsupported", "solana", types.TokenBalances{"error": unsupportedChainMessage}},
		{"empty chain", "", types.TokenBalances{"error": unsupportedChainMessage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.GetTokenBalance(ctx, testWallet, tt.chain)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetTokenBalance_IgnoresWalletAddress(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)

	a := svc.GetTokenBalance(ctx, testWallet, "ethereum")
	b := svc.GetTokenBalance(ctx, "not-an-address", "ethereum")
	assert.Equal(t, a, b)
}

func TestGetTokenBalance_WarnsOnMalformedAddress(t *testing.T) {
	svc := newTestService()
	ctx, buf := quietContext(t)

	svc.GetTokenBalance(ctx, testWallet, "ethereum")
	assert.Empty(t, buf.String(), "valid address should not be logged")

	svc.GetTokenBalance(ctx, "0xabc", "ethereum")
	assert.Contains(t, buf.String(), "not a valid EVM address")
	assert.Contains(t, buf.String(), "0xabc")
}

func TestGetTokenBalance_CaseInsensitiveProperty(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)
	chains := catalog.Default().ChainNames()

	properties := gopter.NewProperties(nil)

	properties.Property("any letter case of a supported chain matches its lowercase form", prop.ForAll(
		func(idx int, mask uint64) bool {
			chain := chains[idx]
			mixed := applyCaseMask(chain, mask)
			got := svc.GetTokenBalance(ctx, testWallet, mixed)
			want := svc.GetTokenBalance(ctx, testWallet, chain)
			_, isErr := got.Error()
			return !isErr && assert.ObjectsAreEqual(want, got)
		},
		gen.IntRange(0, len(chains)-1),
		gen.UInt64(),
	))

	properties.TestingRun(t)
}

func TestGetTokenBalance_UnsupportedChainProperty(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)
	supported := map[string]bool{}
	for _, c := range catalog.Default().ChainNames() {
		supported[c] = true
	}

	properties := gopter.NewProperties(nil)

	properties.Property("unsupported chains list exactly the supported chains in table order", prop.ForAll(
		func(chain string) bool {
			got := svc.GetTokenBalance(ctx, testWallet, chain)
			msg, isErr := got.Error()
			return isErr && len(got) == 1 && msg == unsupportedChainMessage
		},
		gen.AnyString().SuchThat(func(s string) bool { return !supported[strings.ToLower(s)] }),
	))

	properties.TestingRun(t)
}

func applyCaseMask(s string, mask uint64) string {
	runes := []rune(s)
	for i := range runes {
		if mask&(1<<uint(i%64)) != 0 {
			runes[i] = unicode.ToUpper(runes[i])
		}
	}
	return string(runes)
}

func TestGetPortfolioSummary_Empty(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)

	got := svc.GetPortfolioSummary(ctx, []string{})

	assert.Equal(t, "0.00", got.TotalPortfolioValue)
	require.NotNil(t, got.Positions, "positions must encode as [] not null")
	assert.Empty(t, got.Positions)
	assert.Equal(t, []string{"ethereum", "polygon", "base", "arbitrum"}, got.Chains)

	nilInput := svc.GetPortfolioSummary(ctx, nil)
	assert.NotNil(t, nilInput.Positions)
}

func TestGetPortfolioSummary_SingleAddress(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)

	got := svc.GetPortfolioSummary(ctx, []string{"0xabc"})

	// 2.5*3000 + 1250 + 1000*1.5 + 500 + 0.8*3000 + 200 + 1.2*3000 + 300
	assert.Equal(t, "17250.00", got.TotalPortfolioValue)
	require.Len(t, got.Positions, 1)

	pos := got.Positions[0]
	assert.Equal(t, "0xabc", pos.Address)
	assert.Equal(t, "17250.00", pos.USDValue)
	assert.Len(t, pos.Balances, 4)
	assert.Equal(t, types.TokenBalances{"MATIC": "1000.0", "USDC": "500.0"}, pos.Balances["polygon"])
}

func TestGetPortfolioSummary_MultipleAddresses(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)

	got := svc.GetPortfolioSummary(ctx, []string{"0xabc", testWallet, "0xabc"})

	require.Len(t, got.Positions, 3)
	assert.Equal(t, "0xabc", got.Positions[0].Address)
	assert.Equal(t, testWallet, got.Positions[1].Address)
	assert.Equal(t, "51750.00", got.TotalPortfolioValue)
}

func TestGetPortfolioSummary_LogsAddressesAtDebug(t *testing.T) {
	svc := newTestService()
	ctx, buf := quietContext(t)

	svc.GetPortfolioSummary(ctx, []string{testWallet})

	assert.Contains(t, buf.String(), "Portfolio summary requested")
	assert.Contains(t, buf.String(), testWallet)
}

func TestGetDefiPositions(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)

	got := svc.GetDefiPositions(ctx, testWallet)

	assert.Equal(t, 2, got.TotalPositions)
	assert.Equal(t, []string{"Aave", "Uniswap"}, got.Protocols)
	require.Len(t, got.Positions, 2)
	assert.Equal(t, types.DefiPosition{Protocol: "Aave", Type: "lending", Asset: "USDC", Amount: "500.0", APY: "3.2"}, got.Positions[0])
	assert.Equal(t, types.DefiPosition{Protocol: "Uniswap", Type: "lp", Pair: "ETH/USDC", Amount: "1.0 ETH + 1800 USDC", APY: "7.1"}, got.Positions[1])
}

func TestGetYieldOpportunities(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)

	got := svc.GetYieldOpportunities(ctx, testWallet, 100.0)

	want := []types.YieldOpportunity{
		{Protocol: "Aave", APY: "3.2", RiskScore: 2.1, EstimatedMonthly: 133.0},
		{Protocol: "Uniswap", APY: "7.1", RiskScore: 3.5, EstimatedMonthly: 295.0},
		{Protocol: "Compound", APY: "2.8", RiskScore: 1.9, EstimatedMonthly: 112.0},
	}
	assert.Equal(t, want, got)
}

func TestGetYieldOpportunities_AmountPassthrough(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)

	negative := svc.GetYieldOpportunities(ctx, testWallet, -10)
	assert.Equal(t, -13.3, negative[0].EstimatedMonthly)

	zero := svc.GetYieldOpportunities(ctx, testWallet, 0)
	for _, y := range zero {
		assert.Equal(t, 0.0, y.EstimatedMonthly, y.Protocol)
	}
}

func TestExecuteSimpleSwap(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)

	got, err := svc.ExecuteSimpleSwap(ctx, "ETH", "USDC", "1.0", testWallet)
	require.NoError(t, err)

	assert.Equal(t, "success", got.Status)
	assert.Equal(t, types.SwapLeg{Token: "ETH", Amount: "1.0"}, got.From)
	assert.Equal(t, types.SwapLeg{Token: "USDC", Amount: "0.98"}, got.To)
	assert.Equal(t, "0.002 ETH", got.GasEstimate)
	assert.Equal(t, "0xdeadbeef...stubbed", got.TransactionHash)
}

func TestExecuteSimpleSwap_Amounts(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)

	tests := []struct {
		amount string
		want   string
	}{
		{"100", "98.0"},
		{"2", "1.96"},
		{" 1.0 ", "0.98"},
		{"0", "0.0"},
		{"1e3", "980.0"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := svc.ExecuteSimpleSwap(ctx, "ETH", "USDC", tt.amount, testWallet)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.To.Amount)
			assert.Equal(t, tt.amount, got.From.Amount, "input amount is echoed verbatim")
		})
	}
}

func TestExecuteSimpleSwap_InvalidAmount(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)

	for _, amount := range []string{"", "abc", "1,5", "NaN", "inf", "-Infinity", "1e400", "0x1p4", "-0X10", "0x_1p4"} {
		t.Run(amount, func(t *testing.T) {
			got, err := svc.ExecuteSimpleSwap(ctx, "ETH", "USDC", amount, testWallet)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidAmount), "got %v", err)
			assert.True(t, apperrors.IsUserError(err))
		})
	}
}

func TestGetTokenPrices(t *testing.T) {
	svc := newTestService()
	ctx, _ := quietContext(t)

	got := svc.GetTokenPrices(ctx, []string{"ETH", "DOGE"})
	assert.Equal(t, types.TokenPrices{
		"ETH":  {USD: 3000.0},
		"DOGE": {USD: 0.0},
	}, got)

	all := svc.GetTokenPrices(ctx, []string{"USDC", "MATIC", "eth"})
	assert.Equal(t, 1.0, all["USDC"].USD)
	assert.Equal(t, 1.5, all["MATIC"].USD)
	assert.Equal(t, 0.0, all["eth"].USD, "symbols are case-sensitive")

	assert.Empty(t, svc.GetTokenPrices(ctx, nil))
}
