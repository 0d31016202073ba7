package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/defi-dashboard/internal/service"
)

// Tool names as exposed to clients.
const (
	NameGetTokenBalance       = "get_token_balance"
	NameGetPortfolioSummary   = "get_portfolio_summary"
	NameGetDefiPositions      = "get_defi_positions"
	NameGetYieldOpportunities = "get_yield_opportunities"
	NameExecuteSimpleSwap     = "execute_simple_swap"
	NameGetTokenPrices        = "get_token_prices"
)

// Tool definitions. Descriptions are what the model reads to pick a tool.

var ToolGetTokenBalance = mcp.NewTool(NameGetTokenBalance,
	mcp.WithDescription(
		"Get the token balances of a wallet on one chain. "+
			"Supported chains: ethereum, polygon, base, arbitrum. "+
			"Amounts are decimal strings keyed by token symbol."),
	mcp.WithString("wallet_address",
		mcp.Required(),
		mcp.Description("Wallet address (e.g. '0x742d...')")),
	mcp.WithString("chain",
		mcp.Description("Chain name, case-insensitive"),
		mcp.DefaultString(service.DefaultChain)),
)

var ToolGetPortfolioSummary = mcp.NewTool(NameGetPortfolioSummary,
	mcp.WithDescription(
		"Aggregate the balances of several wallets across every supported chain "+
			"and value them in USD."),
	mcp.WithArray("wallet_addresses",
		mcp.Required(),
		mcp.Description("Wallet addresses to include"),
		mcp.WithStringItems()),
)

var ToolGetDefiPositions = mcp.NewTool(NameGetDefiPositions,
	mcp.WithDescription("List a wallet's lending and liquidity positions with their APY."),
	mcp.WithString("wallet_address",
		mcp.Required(),
		mcp.Description("Wallet address")),
)

var ToolGetYieldOpportunities = mcp.NewTool(NameGetYieldOpportunities,
	mcp.WithDescription(
		"List protocols where an amount could be deposited, "+
			"with APY, risk score and an estimated monthly figure."),
	mcp.WithString("wallet_address",
		mcp.Required(),
		mcp.Description("Wallet address")),
	mcp.WithNumber("amount",
		mcp.Required(),
		mcp.Description("Amount to deposit")),
)

var ToolExecuteSimpleSwap = mcp.NewTool(NameExecuteSimpleSwap,
	mcp.WithDescription(
		"Simulate swapping one token for another. "+
			"Nothing is submitted on-chain; the result carries a placeholder transaction hash."),
	mcp.WithString("from_token",
		mcp.Required(),
		mcp.Description("Symbol of the token to sell (e.g. 'ETH')")),
	mcp.WithString("to_token",
		mcp.Required(),
		mcp.Description("Symbol of the token to buy (e.g. 'USDC')")),
	mcp.WithString("amount",
		mcp.Required(),
		mcp.Description("Amount to sell as a decimal string (e.g. '1.0')")),
	mcp.WithString("wallet_address",
		mcp.Required(),
		mcp.Description("Wallet address")),
)

var ToolGetTokenPrices = mcp.NewTool(NameGetTokenPrices,
	mcp.WithDescription("Get USD prices for token symbols. Unknown symbols are priced at 0."),
	mcp.WithArray("tokens",
		mcp.Required(),
		mcp.Description("Token symbols, case-sensitive (e.g. ['ETH', 'USDC'])"),
		mcp.WithStringItems()),
)
