package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	apperrors "github.com/defi-dashboard/internal/errors"
	"github.com/defi-dashboard/internal/service"
)

// Handlers adapts tool arguments to DashboardService calls.
type Handlers struct {
	svc *service.DashboardService
}

// NewHandlers creates tool handlers backed by svc
func NewHandlers(svc *service.DashboardService) *Handlers {
	return &Handlers{svc: svc}
}

func (h *Handlers) HandleGetTokenBalance(ctx context.Context, request mcp.CallToolRequest) (any, error) {
	wallet, err := requireString(request, "wallet_address")
	if err != nil {
		return nil, err
	}
	chain := request.GetString("chain", service.DefaultChain)
	return h.svc.GetTokenBalance(ctx, wallet, chain), nil
}

func (h *Handlers) HandleGetPortfolioSummary(ctx context.Context, request mcp.CallToolRequest) (any, error) {
	wallets, err := requireStringSlice(request, "wallet_addresses")
	if err != nil {
		return nil, err
	}
	return h.svc.GetPortfolioSummary(ctx, wallets), nil
}

func (h *Handlers) HandleGetDefiPositions(ctx context.Context, request mcp.CallToolRequest) (any, error) {
	wallet, err := requireString(request, "wallet_address")
	if err != nil {
		return nil, err
	}
	return h.svc.GetDefiPositions(ctx, wallet), nil
}

func (h *Handlers) HandleGetYieldOpportunities(ctx context.Context, request mcp.CallToolRequest) (any, error) {
	wallet, err := requireString(request, "wallet_address")
	if err != nil {
		return nil, err
	}
	amount, err := request.RequireFloat("amount")
	if err != nil {
		return nil, apperrors.NewInvalidParameterError("amount", err.Error())
	}
	return h.svc.GetYieldOpportunities(ctx, wallet, amount), nil
}

func (h *Handlers) HandleExecuteSimpleSwap(ctx context.Context, request mcp.CallToolRequest) (any, error) {
	args := make(map[string]string, 4)
	for _, key := range []string{"from_token", "to_token", "amount", "wallet_address"} {
		v, err := requireString(request, key)
		if err != nil {
			return nil, err
		}
		args[key] = v
	}

	result, err := h.svc.ExecuteSimpleSwap(ctx, args["from_token"], args["to_token"], args["amount"], args["wallet_address"])
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *Handlers) HandleGetTokenPrices(ctx context.Context, request mcp.CallToolRequest) (any, error) {
	tokens, err := requireStringSlice(request, "tokens")
	if err != nil {
		return nil, err
	}
	return h.svc.GetTokenPrices(ctx, tokens), nil
}

func requireString(request mcp.CallToolRequest, key string) (string, error) {
	v, err := request.RequireString(key)
	if err != nil {
		return "", apperrors.NewInvalidParameterError(key, err.Error())
	}
	return v, nil
}

func requireStringSlice(request mcp.CallToolRequest, key string) ([]string, error) {
	v, err := request.RequireStringSlice(key)
	if err != nil {
		return nil, apperrors.NewInvalidParameterError(key, err.Error())
	}
	return v, nil
}
