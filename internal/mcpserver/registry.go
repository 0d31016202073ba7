package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	apperrors "github.com/defi-dashboard/internal/errors"
	"github.com/defi-dashboard/internal/logging"
	"github.com/defi-dashboard/internal/metrics"
	"github.com/defi-dashboard/internal/service"
	"github.com/defi-dashboard/internal/storage"
)

// HandlerFunc runs one tool and returns its wire value.
type HandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (any, error)

// Entry pairs a tool definition with its handler.
type Entry struct {
	Tool    mcp.Tool
	Handler HandlerFunc
}

// Registry maps tool names to handlers, in registration order.
// Both the MCP transport and the REST API dispatch through Call, so every
// invocation is counted and instrumented the same way.
type Registry struct {
	entries []Entry
	index   map[string]int
	usage   storage.UsageStore
	metrics *metrics.Metrics
}

// NewRegistry creates an empty registry. A nil usage store falls back to an
// in-memory one; nil metrics disables instrumentation.
func NewRegistry(usage storage.UsageStore, m *metrics.Metrics) *Registry {
	if usage == nil {
		usage = storage.NewMemoryUsageStore()
	}
	return &Registry{
		index:   make(map[string]int),
		usage:   usage,
		metrics: m,
	}
}

// NewDashboardRegistry creates a registry holding the six dashboard tools.
func NewDashboardRegistry(svc *service.DashboardService, usage storage.UsageStore, m *metrics.Metrics) *Registry {
	h := NewHandlers(svc)
	r := NewRegistry(usage, m)

	r.MustRegister(ToolGetTokenBalance, h.HandleGetTokenBalance)
	r.MustRegister(ToolGetPortfolioSummary, h.HandleGetPortfolioSummary)
	r.MustRegister(ToolGetDefiPositions, h.HandleGetDefiPositions)
	r.MustRegister(ToolGetYieldOpportunities, h.HandleGetYieldOpportunities)
	r.MustRegister(ToolExecuteSimpleSwap, h.HandleExecuteSimpleSwap)
	r.MustRegister(ToolGetTokenPrices, h.HandleGetTokenPrices)

	return r
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(tool mcp.Tool, handler HandlerFunc) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if handler == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}
	if _, exists := r.index[tool.Name]; exists {
		return fmt.Errorf("tool %s already registered", tool.Name)
	}
	r.index[tool.Name] = len(r.entries)
	r.entries = append(r.entries, Entry{Tool: tool, Handler: handler})
	return nil
}

// MustRegister is like Register but panics on error
func (r *Registry) MustRegister(tool mcp.Tool, handler HandlerFunc) {
	if err := r.Register(tool, handler); err != nil {
		panic(err)
	}
}

// Lookup returns the entry registered under name
func (r *Registry) Lookup(name string) (Entry, bool) {
	i, ok := r.index[name]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Tools returns the tool definitions in registration order
func (r *Registry) Tools() []mcp.Tool {
	return lo.Map(r.entries, func(e Entry, _ int) mcp.Tool { return e.Tool })
}

// Names returns the tool names in registration order
func (r *Registry) Names() []string {
	return lo.Map(r.entries, func(e Entry, _ int) string { return e.Tool.Name })
}

// Usage returns the invocation count of every registered tool
func (r *Registry) Usage(ctx context.Context) (map[string]int64, error) {
	return r.usage.Counts(ctx, r.Names())
}

// Call dispatches request to the tool named in request.Params.Name.
func (r *Registry) Call(ctx context.Context, request mcp.CallToolRequest) (any, error) {
	name := request.Params.Name
	entry, ok := r.Lookup(name)
	if !ok {
		return nil, apperrors.NewUnknownToolError(name)
	}

	logger := logging.FromContext(ctx).WithField("tool", name)

	start := time.Now()
	value, err := entry.Handler(ctx, request)
	duration := time.Since(start)

	outcome := outcomeOf(err)
	r.metrics.ObserveToolCall(name, outcome, duration)

	if incErr := r.usage.Increment(ctx, name); incErr != nil {
		logger.WithError(incErr).Warn("Failed to record tool usage")
	}

	fields := map[string]interface{}{
		"outcome":     outcome,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	}
	if err != nil {
		logger.WithFields(fields).WithError(err).Warn("Tool call failed")
		return nil, err
	}
	logger.WithFields(fields).Info("Tool call completed")
	return value, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case apperrors.HasCode(err, apperrors.CodeInvalidParameter):
		return metrics.OutcomeInvalidInput
	default:
		return metrics.OutcomeToolError
	}
}

// toolHandler adapts Call to the MCP handler signature. Tool failures are
// reported as error results so the client sees them; the server keeps serving.
func (r *Registry) toolHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		value, err := r.Call(ctx, request)
		if err != nil {
			return toolErrorResult(err), nil
		}
		return structuredResult(value), nil
	}
}

func toolErrorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(apperrors.Categorize(err).ToServiceError().Message)
}

// structuredResult renders value as structured content with a JSON text
// fallback. Structured content must be an object, so lists are wrapped
// under "result".
func structuredResult(value any) *mcp.CallToolResult {
	text, err := json.Marshal(value)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}

	structured := value
	if v := reflect.ValueOf(value); v.Kind() == reflect.Slice {
		structured = map[string]any{"result": value}
	}
	return mcp.NewToolResultStructured(structured, string(text))
}
