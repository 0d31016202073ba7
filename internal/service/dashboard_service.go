package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/defi-dashboard/internal/catalog"
	apperrors "github.com/defi-dashboard/internal/errors"
	"github.com/defi-dashboard/internal/logging"
	"github.com/defi-dashboard/internal/types"
)

// DefaultChain is used by get_token_balance when the caller names no chain.
const DefaultChain = string(types.ChainEthereum)

const (
	swapRate            = 0.98
	swapGasEstimate     = "0.002 ETH"
	swapTransactionHash = "0xdeadbeef...stubbed"
)

// yieldOpportunity is a fixed entry of the yield table. Multiplier is applied
// to the requested amount to produce the monthly estimate.
type yieldOpportunity struct {
	protocol   string
	apy        string
	riskScore  float64
	multiplier decimal.Decimal
}

// Order is the presentation order; it is not a ranking.
var yieldTable = []yieldOpportunity{
	{protocol: "Aave", apy: "3.2", riskScore: 2.1, multiplier: decimal.RequireFromString("1.33")},
	{protocol: "Uniswap", apy: "7.1", riskScore: 3.5, multiplier: decimal.RequireFromString("2.95")},
	{protocol: "Compound", apy: "2.8", riskScore: 1.9, multiplier: decimal.RequireFromString("1.12")},
}

// DashboardService answers the dashboard tools from the static catalog.
// Every wallet sees the same stub data; addresses are only checked for logging.
type DashboardService struct {
	catalog *catalog.Catalog
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(c *catalog.Catalog) *DashboardService {
	return &DashboardService{catalog: c}
}

// GetTokenBalance returns the stub balances of a wallet on a chain.
// The chain name is case-insensitive. An unsupported chain is reported in the
// returned mapping under the "error" key rather than as a Go error.
func (s *DashboardService) GetTokenBalance(ctx context.Context, walletAddress, chain string) types.TokenBalances {
	s.checkWalletAddress(ctx, "get_token_balance", walletAddress)

	balances, ok := s.lookupBalances(strings.ToLower(chain))
	if !ok {
		return types.TokenBalances{
			types.ErrorKey: fmt.Sprintf("Unsupported chain. Supported: %s", strings.Join(s.catalog.ChainNames(), ", ")),
		}
	}
	return balances
}

func (s *DashboardService) lookupBalances(chain string) (types.TokenBalances, bool) {
	if _, ok := s.catalog.Chain(chain); !ok {
		return nil, false
	}
	balances, ok := s.catalog.Balances(chain)
	if !ok {
		return nil, false
	}
	return types.TokenBalances(balances), true
}

// GetPortfolioSummary aggregates every wallet's balances across all supported
// chains and values them in USD. Tokens without a known price count as zero.
func (s *DashboardService) GetPortfolioSummary(ctx context.Context, walletAddresses []string) *types.PortfolioSummary {
	logger := logging.FromContext(ctx)
	logger.WithField("wallet_addresses", walletAddresses).Debug("Portfolio summary requested")

	chains := s.catalog.ChainNames()
	positions := make([]types.PortfolioPosition, 0, len(walletAddresses))
	total := decimal.Zero

	for _, addr := range walletAddresses {
		s.checkWalletAddress(ctx, "get_portfolio_summary", addr)

		chainBalances := make(map[string]types.TokenBalances, len(chains))
		usdValue := decimal.Zero
		for _, chain := range chains {
			balances, _ := s.lookupBalances(chain)
			chainBalances[chain] = balances
			usdValue = usdValue.Add(s.valueOf(logger, chain, balances))
		}

		positions = append(positions, types.PortfolioPosition{
			Address:  addr,
			Balances: chainBalances,
			USDValue: usdValue.StringFixed(2),
		})
		total = total.Add(usdValue)
	}

	return &types.PortfolioSummary{
		TotalPortfolioValue: total.StringFixed(2),
		Positions:           positions,
		Chains:              chains,
	}
}

func (s *DashboardService) valueOf(logger *logging.Logger, chain string, balances types.TokenBalances) decimal.Decimal {
	value := decimal.Zero
	for token, amount := range balances {
		price, ok := s.catalog.Price(token)
		if !ok {
			continue
		}
		qty, err := decimal.NewFromString(amount)
		if err != nil {
			// catalog validation makes this unreachable for the embedded tables
			logger.WithFields(map[string]interface{}{
				"chain":  chain,
				"token":  token,
				"amount": amount,
			}).WithError(err).Warn("Skipping unparseable balance")
			continue
		}
		value = value.Add(qty.Mul(decimal.NewFromFloat(price)))
	}
	return value
}

// GetDefiPositions returns the wallet's lending and liquidity positions.
func (s *DashboardService) GetDefiPositions(ctx context.Context, walletAddress string) *types.DefiPositions {
	s.checkWalletAddress(ctx, "get_defi_positions", walletAddress)

	positions := []types.DefiPosition{
		{Protocol: "Aave", Type: "lending", Asset: "USDC", Amount: "500.0", APY: "3.2"},
		{Protocol: "Uniswap", Type: "lp", Pair: "ETH/USDC", Amount: "1.0 ETH + 1800 USDC", APY: "7.1"},
	}

	return &types.DefiPositions{
		TotalPositions: len(positions),
		Protocols:      lo.Map(positions, func(p types.DefiPosition, _ int) string { return p.Protocol }),
		Positions:      positions,
	}
}

// GetYieldOpportunities lists where amount could be deposited, with an
// estimated monthly figure for each. The amount is not validated.
func (s *DashboardService) GetYieldOpportunities(ctx context.Context, walletAddress string, amount float64) []types.YieldOpportunity {
	s.checkWalletAddress(ctx, "get_yield_opportunities", walletAddress)

	return lo.Map(yieldTable, func(y yieldOpportunity, _ int) types.YieldOpportunity {
		return types.YieldOpportunity{
			Protocol:         y.protocol,
			APY:              y.apy,
			RiskScore:        y.riskScore,
			EstimatedMonthly: scale(amount, y.multiplier),
		}
	})
}

// scale multiplies in decimal so that e.g. 100 x 1.12 is exactly 112.
func scale(amount float64, multiplier decimal.Decimal) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return amount * multiplier.InexactFloat64()
	}
	return decimal.NewFromFloat(amount).Mul(multiplier).InexactFloat64()
}

// ExecuteSimpleSwap simulates swapping amount of fromToken into toToken at a
// flat 2% discount. It returns an INVALID_AMOUNT error when amount is not a
// finite number.
func (s *DashboardService) ExecuteSimpleSwap(ctx context.Context, fromToken, toToken, amount, walletAddress string) (*types.SwapResult, error) {
	s.checkWalletAddress(ctx, "execute_simple_swap", walletAddress)

	value, err := parseAmount(amount)
	if err != nil {
		return nil, apperrors.NewInvalidAmountError(amount, err)
	}

	return &types.SwapResult{
		Status:          "success",
		From:            types.SwapLeg{Token: fromToken, Amount: amount},
		To:              types.SwapLeg{Token: toToken, Amount: FormatFloat(value * swapRate)},
		GasEstimate:     swapGasEstimate,
		TransactionHash: swapTransactionHash,
	}, nil
}

// parseAmount accepts a finite decimal float. Go hex floats such as "0x1p4"
// are rejected.
func parseAmount(amount string) (float64, error) {
	trimmed := strings.TrimSpace(amount)
	digits := strings.TrimLeft(trimmed, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, fmt.Errorf("amount must be a decimal number")
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("amount must be finite")
	}
	return value, nil
}

// GetTokenPrices returns the USD price of each requested token; unknown tokens are priced at 0.
func (s *DashboardService) GetTokenPrices(ctx context.Context, tokens []string) types.TokenPrices {
	prices := make(types.TokenPrices, len(tokens))
	for _, token := range tokens {
		price, _ := s.catalog.Price(token)
		prices[token] = types.TokenPrice{USD: price}
	}
	return prices
}

func (s *DashboardService) checkWalletAddress(ctx context.Context, operation, address string) {
	if common.IsHexAddress(address) {
		return
	}
	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"operation":      operation,
		"wallet_address": address,
	}).Warn("Wallet address is not a valid EVM address; serving stub data anyway")
}
