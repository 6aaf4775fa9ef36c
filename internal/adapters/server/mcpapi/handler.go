// Package mcpapi provides a stateless MCP streamable-HTTP adapter over the
// order board.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sundvall/ordna/internal/app"
	"github.com/sundvall/ordna/internal/domain"
)

// BoardService is the app surface the MCP tools operate on.
type BoardService interface {
	Load(ctx context.Context) error
	Orders() []domain.Order
	TaskGroups() []domain.TaskGroup
	Get(id string) (domain.Order, bool)
	Move(ctx context.Context, orderID, targetTask string) app.MoveResult
}

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
	AdminViewer   bool
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// orderSummary is the wire shape the list/board tools emit per order.
type orderSummary struct {
	ID           string `json:"id"`
	Number       string `json:"number"`
	CustomerName string `json:"customer_name"`
	Stage        string `json:"stage"`
	IsEnquiry    bool   `json:"is_enquiry"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// NewHandler builds one stateless MCP adapter over the board service.
func NewHandler(cfg Config, board BoardService) (*Handler, error) {
	if board == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardStateTool(mcpSrv, board, cfg.AdminViewer)
	registerListOrdersTool(mcpSrv, board)
	registerGetOrderTool(mcpSrv, board)
	registerMoveOrderTool(mcpSrv, board)
	registerReloadTool(mcpSrv, board)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "ordna"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerBoardStateTool registers the `ordna.board_state` tool.
func registerBoardStateTool(srv *mcpserver.MCPServer, board BoardService, adminViewer bool) {
	srv.AddTool(
		mcp.NewTool(
			"ordna.board_state",
			mcp.WithDescription("Return the derived board: ordered columns with their bucketed orders."),
			mcp.WithString("search", mcp.Description("Case-insensitive filter over customer name and order number")),
			mcp.WithString("sort", mcp.Description("Sort order"), mcp.Enum("newest", "oldest", "number", "customer")),
			mcp.WithBoolean("include_cancel", mcp.Description("Include the Cancel column (default true)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view := app.BuildBoard(board.Orders(), board.TaskGroups(), app.BoardOptions{
				Search:        req.GetString("search", ""),
				Sort:          app.SortKey(req.GetString("sort", string(app.SortNewest))),
				AdminViewer:   adminViewer,
				IncludeCancel: req.GetBool("include_cancel", true),
			})
			columns := make([]map[string]any, 0, len(view.Columns))
			for _, name := range view.Columns {
				columns = append(columns, map[string]any{
					"name":   name,
					"orders": summarize(view.Buckets[name]),
				})
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"columns":      columns,
				"active_count": view.ActiveCount(),
			})
			if err != nil {
				return nil, fmt.Errorf("encode board_state result: %w", err)
			}
			return result, nil
		},
	)
}

// registerListOrdersTool registers the `ordna.list_orders` tool.
func registerListOrdersTool(srv *mcpserver.MCPServer, board BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"ordna.list_orders",
			mcp.WithDescription("Return the flat, filtered, sorted order list."),
			mcp.WithString("search", mcp.Description("Case-insensitive filter over customer name and order number")),
			mcp.WithString("sort", mcp.Description("Sort order"), mcp.Enum("newest", "oldest", "number", "customer")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view := app.BuildBoard(board.Orders(), board.TaskGroups(), app.BoardOptions{
				Search:       req.GetString("search", ""),
				Sort:         app.SortKey(req.GetString("sort", string(app.SortNewest))),
				SingleColumn: true,
			})
			result, err := mcp.NewToolResultJSON(map[string]any{
				"orders": summarize(view.Buckets[view.Columns[0]]),
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_orders result: %w", err)
			}
			return result, nil
		},
	)
}

// registerGetOrderTool registers the `ordna.get_order` tool.
func registerGetOrderTool(srv *mcpserver.MCPServer, board BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"ordna.get_order",
			mcp.WithDescription("Return one order with its full status history and line items."),
			mcp.WithString("order_id", mcp.Required(), mcp.Description("Canonical order identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			orderID, err := req.RequireString("order_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			order, ok := board.Get(orderID)
			if !ok {
				return mcp.NewToolResultError("not_found: order " + orderID), nil
			}
			result, err := mcp.NewToolResultJSON(order)
			if err != nil {
				return nil, fmt.Errorf("encode get_order result: %w", err)
			}
			return result, nil
		},
	)
}

// registerMoveOrderTool registers the `ordna.move_order` tool.
func registerMoveOrderTool(srv *mcpserver.MCPServer, board BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"ordna.move_order",
			mcp.WithDescription("Move one order to a target task stage. Cancel requires an admin session."),
			mcp.WithString("order_id", mcp.Required(), mcp.Description("Canonical order identifier")),
			mcp.WithString("task", mcp.Required(), mcp.Description("Target task stage name")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			orderID, err := req.RequireString("order_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := req.RequireString("task")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if _, ok := board.Get(orderID); !ok {
				return toolResultFromError(fmt.Errorf("order %s: %w", orderID, app.ErrNotFound)), nil
			}
			moved := board.Move(ctx, orderID, task)
			if moved.Err != nil {
				return toolResultFromError(moved.Err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"outcome": string(moved.Outcome),
				"notice":  moved.Notice,
			})
			if err != nil {
				return nil, fmt.Errorf("encode move_order result: %w", err)
			}
			return result, nil
		},
	)
}

// registerReloadTool registers the `ordna.reload` tool.
func registerReloadTool(srv *mcpserver.MCPServer, board BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"ordna.reload",
			mcp.WithDescription("Refetch orders, customers, and task groups from the upstream API."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if err := board.Load(ctx); err != nil && !errors.Is(err, app.ErrSuperseded) {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"orders": len(board.Orders()),
				"groups": len(board.TaskGroups()),
			})
			if err != nil {
				return nil, fmt.Errorf("encode reload result: %w", err)
			}
			return result, nil
		},
	)
}

// summarize maps orders to their tool wire shape.
func summarize(orders []domain.Order) []orderSummary {
	out := make([]orderSummary, 0, len(orders))
	for _, order := range orders {
		stage := order.CurrentTask()
		if stage == "" {
			stage = domain.StageOther
		}
		summary := orderSummary{
			ID:           order.ID,
			Number:       order.Number,
			CustomerName: order.CustomerName,
			Stage:        stage,
			IsEnquiry:    order.IsEnquiry,
		}
		if ts := order.StatusTimestamp(); !ts.IsZero() {
			summary.UpdatedAt = ts.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		out = append(out, summary)
	}
	return out
}

// toolResultFromError maps app errors onto coded tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, app.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, app.ErrPermissionDenied):
		return mcp.NewToolResultError("permission_denied: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
