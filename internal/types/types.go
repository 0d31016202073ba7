// Package types provides the wire types shared by the dashboard tools.
package types

// ChainID represents supported blockchain networks
type ChainID string

const (
	// ChainEthereum represents the Ethereum mainnet
	ChainEthereum ChainID = "ethereum"
	// ChainPolygon represents the Polygon network
	ChainPolygon ChainID = "polygon"
	// ChainBase represents the Base network
	ChainBase ChainID = "base"
	// ChainArbitrum represents the Arbitrum network
	ChainArbitrum ChainID = "arbitrum"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// TokenBalances maps token symbol to a decimal-string amount.
// For an unsupported chain it holds a single "error" key instead.
type TokenBalances map[string]string

// ErrorKey is the key get_token_balance uses to report an unsupported chain.
const ErrorKey = "error"

// Error returns the error message carried by the mapping, if any.
func (b TokenBalances) Error() (string, bool) {
	msg, ok := b[ErrorKey]
	return msg, ok
}

// PortfolioPosition is one wallet's balances across all supported chains.
type PortfolioPosition struct {
	Address  string                   `json:"address"`
	Balances map[string]TokenBalances `json:"balances"`
	USDValue string                   `json:"usd_value"` // always two decimal places
}

// PortfolioSummary aggregates positions for a list of wallets.
type PortfolioSummary struct {
	TotalPortfolioValue string              `json:"total_portfolio_value"`
	Positions           []PortfolioPosition `json:"positions"`
	Chains              []string            `json:"chains"`
}

// DefiPosition is a single protocol position.
// Lending positions carry Asset, liquidity-pool positions carry Pair.
type DefiPosition struct {
	Protocol string `json:"protocol"`
	Type     string `json:"type"`
	Asset    string `json:"asset,omitempty"`
	Pair     string `json:"pair,omitempty"`
	Amount   string `json:"amount"`
	APY      string `json:"apy"`
}

// DefiPositions summarizes a wallet's protocol positions.
type DefiPositions struct {
	TotalPositions int            `json:"total_positions"`
	Protocols      []string       `json:"protocols"`
	Positions      []DefiPosition `json:"positions"`
}

// YieldOpportunity is a protocol the caller could deposit into.
type YieldOpportunity struct {
	Protocol         string  `json:"protocol"`
	APY              string  `json:"apy"`
	RiskScore        float64 `json:"risk_score"`
	EstimatedMonthly float64 `json:"estimated_monthly"`
}

// SwapLeg is one side of a swap.
type SwapLeg struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

// SwapResult is the preview returned by a simulated swap.
type SwapResult struct {
	Status          string  `json:"status"`
	From            SwapLeg `json:"from"`
	To              SwapLeg `json:"to"`
	GasEstimate     string  `json:"gas_estimate"`
	TransactionHash string  `json:"transaction_hash"`
}

// TokenPrice is a token's unit price.
type TokenPrice struct {
	USD float64 `json:"usd"`
}

// TokenPrices maps requested token symbols to prices.
type TokenPrices map[string]TokenPrice
