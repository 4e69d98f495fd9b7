package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/olgasafonova/bento-mcp-server/internal/bento"
	"github.com/olgasafonova/bento-mcp-server/metrics"
	"github.com/olgasafonova/bento-mcp-server/tracing"
)

// HandlerRegistry provides type-safe tool registration by mapping
// tool names to their concrete handler implementations.
type HandlerRegistry struct {
	client *bento.Client
	logger *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(client *bento.Client, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		client: client,
		logger: logger,
	}
}

// RegisterAll registers all tools with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) int {
	registered := 0
	for _, spec := range AllTools {
		if h.registerByName(server, spec) {
			registered++
		}
	}
	h.logger.Info("Registered all tools", "count", registered)
	return registered
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) bool {
	tool := h.buildTool(spec)
	c := h.client

	switch spec.Method {
	// Subscribers
	case "GetSubscriber":
		register(h, server, tool, spec, c.GetSubscriberMCP)
	case "CreateSubscriber":
		register(h, server, tool, spec, c.CreateSubscriberMCP)
	case "ImportSubscribers":
		register(h, server, tool, spec, c.ImportSubscribersMCP)
	case "TagSubscriber":
		register(h, server, tool, spec, c.TagSubscriberMCP)
	case "RemoveSubscriberTag":
		register(h, server, tool, spec, c.RemoveSubscriberTagMCP)
	case "Subscribe":
		register(h, server, tool, spec, c.SubscribeMCP)
	case "Unsubscribe":
		register(h, server, tool, spec, c.UnsubscribeMCP)
	case "TrackEvent":
		register(h, server, tool, spec, c.TrackEventMCP)

	// Tags and fields
	case "ListTags":
		register(h, server, tool, spec, c.ListTagsMCP)
	case "CreateTag":
		register(h, server, tool, spec, c.CreateTagMCP)
	case "ListFields":
		register(h, server, tool, spec, c.ListFieldsMCP)
	case "CreateField":
		register(h, server, tool, spec, c.CreateFieldMCP)

	// Broadcasts and stats
	case "ListBroadcasts":
		register(h, server, tool, spec, c.ListBroadcastsMCP)
	case "CreateBroadcast":
		register(h, server, tool, spec, c.CreateBroadcastMCP)
	case "GetSiteStats":
		register(h, server, tool, spec, c.GetSiteStatsMCP)

	// Automation
	case "ListSequences":
		register(h, server, tool, spec, c.ListSequencesMCP)
	case "GetSequence":
		register(h, server, tool, spec, c.GetSequenceMCP)
	case "CreateSequenceEmail":
		register(h, server, tool, spec, c.CreateSequenceEmailMCP)
	case "ListWorkflows":
		register(h, server, tool, spec, c.ListWorkflowsMCP)
	case "GetWorkflow":
		register(h, server, tool, spec, c.GetWorkflowMCP)

	// Templates and validation
	case "GetEmailTemplate":
		register(h, server, tool, spec, c.GetEmailTemplateMCP)
	case "UpdateEmailTemplate":
		register(h, server, tool, spec, c.UpdateEmailTemplateMCP)
	case "ValidateEmail":
		register(h, server, tool, spec, c.ValidateEmailMCP)

	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
		return false
	}
	return true
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	if spec.Destructive {
		annotations.DestructiveHint = ptr(true)
	} else if !spec.ReadOnly {
		annotations.DestructiveHint = ptr(false)
	}
	if spec.OpenWorld {
		annotations.OpenWorldHint = ptr(true)
	}

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// register is a generic helper that registers a tool with the MCP server.
// It wraps the client method with panic recovery, metrics, tracing, and logging.
func register[Args, Result any](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) {
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args Args) (*mcp.CallToolResult, Result, error) {
		return invoke(ctx, h, spec, method, args)
	})
}

// invoke runs one tool call. A panic in method is reported as a tool error.
func invoke[Args, Result any](
	ctx context.Context,
	h *HandlerRegistry,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
	args Args,
) (_ *mcp.CallToolResult, result Result, err error) {
	requestID := uuid.NewString()

	ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
	defer span.End()

	tracing.AddToolAttributes(span, spec.Name, spec.Category)
	span.SetAttributes(
		attribute.String("mcp.request.id", requestID),
		attribute.String("bento.api.resource", spec.Resource),
		attribute.Bool("mcp.tool.readonly", spec.ReadOnly),
	)

	metrics.RequestInFlight.WithLabelValues(spec.Name).Inc()
	defer metrics.RequestInFlight.WithLabelValues(spec.Name).Dec()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			h.reportPanic(spec.Name, requestID, rec)
			metrics.RecordRequest(spec.Name, time.Since(start).Seconds(), false)
			span.SetStatus(codes.Error, "panic")
			var zero Result
			result = zero
			err = fmt.Errorf("%s failed: internal error (request %s)", spec.Name, requestID)
		}
	}()

	result, err = method(ctx, args)
	duration := time.Since(start).Seconds()
	span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordRequest(spec.Name, duration, false)
		h.logger.Warn("Tool failed", "tool", spec.Name, "request_id", requestID, "error", err)
		var zero Result
		return nil, zero, fmt.Errorf("%s failed: %w", spec.Name, err)
	}

	span.SetStatus(codes.Ok, "")
	metrics.RecordRequest(spec.Name, duration, true)
	h.logExecution(spec, requestID, args, result)
	return nil, result, nil
}

// reportPanic records a recovered panic from a tool handler.
func (h *HandlerRegistry) reportPanic(toolName, requestID string, rec any) {
	metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
	h.logger.Error("Panic recovered",
		"tool", toolName,
		"request_id", requestID,
		"panic", rec,
		"stack", string(debug.Stack()))
}

// logExecution logs tool execution details.
func (h *HandlerRegistry) logExecution(spec ToolSpec, requestID string, args, result any) {
	attrs := []any{"tool", spec.Name, "request_id", requestID, "resource", spec.Resource}

	switch a := args.(type) {
	case bento.GetSubscriberArgs:
		attrs = append(attrs, "email", a.Email, "uuid", a.UUID)
	case bento.CreateSubscriberArgs:
		attrs = append(attrs, "email", a.Email)
	case bento.ImportSubscribersArgs:
		attrs = append(attrs, "rows", len(a.Subscribers))
	case bento.SubscriberTagArgs:
		attrs = append(attrs, "email", a.Email, "tag", a.Tag)
	case bento.SubscriptionArgs:
		attrs = append(attrs, "email", a.Email)
	case bento.TrackEventArgs:
		attrs = append(attrs, "email", a.Email, "event", a.Type)
	case bento.CreateTagArgs:
		attrs = append(attrs, "name", a.Name)
	case bento.CreateFieldArgs:
		attrs = append(attrs, "key", a.Key)
	case bento.ListBroadcastsArgs:
		attrs = append(attrs, "page", a.Page)
	case bento.CreateBroadcastArgs:
		attrs = append(attrs, "name", a.Name, "type", a.Type)
	case bento.ListSequencesArgs:
		attrs = append(attrs, "page", a.Page)
	case bento.GetSequenceArgs:
		attrs = append(attrs, "sequence_id", a.SequenceID, "sequence_name", a.SequenceName)
	case bento.CreateSequenceEmailArgs:
		attrs = append(attrs, "sequence_id", a.SequenceID, "sequence_name", a.SequenceName)
	case bento.ListWorkflowsArgs:
		attrs = append(attrs, "page", a.Page)
	case bento.GetWorkflowArgs:
		attrs = append(attrs, "workflow_id", a.WorkflowID, "workflow_name", a.WorkflowName)
	case bento.GetEmailTemplateArgs:
		attrs = append(attrs, "template_id", a.TemplateID)
	case bento.UpdateEmailTemplateArgs:
		attrs = append(attrs, "template_id", a.TemplateID)
	case bento.ValidateEmailArgs:
		attrs = append(attrs, "email", a.Email)
	}

	switch r := result.(type) {
	case bento.GetSubscriberResult:
		attrs = append(attrs, "found", r.Found)
	case bento.BatchResult:
		attrs = append(attrs, "results", r.Results, "failed", r.Failed)
	case bento.CommandResult:
		attrs = append(attrs, "command", r.Command, "success", r.Success)
	case bento.ListTagsResult:
		attrs = append(attrs, "tags", r.Count)
	case bento.ListFieldsResult:
		attrs = append(attrs, "fields", r.Count)
	case bento.ListBroadcastsResult:
		attrs = append(attrs, "broadcasts", r.Count)
	case bento.ListSequencesResult:
		attrs = append(attrs, "sequences", r.Count)
	case bento.ListWorkflowsResult:
		attrs = append(attrs, "workflows", r.Count)
	case bento.GetSequenceResult:
		attrs = append(attrs, "found", r.Found, "resolved_by", r.ResolvedBy, "pages", r.PagesSearched)
	case bento.GetWorkflowResult:
		attrs = append(attrs, "found", r.Found, "resolved_by", r.ResolvedBy, "pages", r.PagesSearched)
	case bento.CreateSequenceEmailResult:
		attrs = append(attrs, "found", r.Found, "resolved_by", r.ResolvedBy)
	case bento.EmailTemplateResult:
		attrs = append(attrs, "found", r.Found)
	case bento.ValidateEmailResult:
		attrs = append(attrs, "valid", r.Valid)
	}

	h.logger.Info("Tool executed", attrs...)
}
