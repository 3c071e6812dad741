// Package mcpserver exposes the guidance engine over the Model Context
// Protocol so AI assistants can assess, guide, meditate, and scan on a
// seeker's behalf. Tools are served over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sophia-platform/sophia/internal/consciousness"
	"github.com/sophia-platform/sophia/internal/engine"
	"github.com/sophia-platform/sophia/internal/wisdom"
)

const defaultSeekerID = "mcp-seeker"

// Server wraps the MCP server and the engine it exposes.
type Server struct {
	engine engine.Engine
	mcp    *server.MCPServer
	logger *slog.Logger
}

// New creates the MCP server with all Sophia tools registered.
func New(eng engine.Engine, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{engine: eng, logger: logger}

	s.mcp = server.NewMCPServer(
		"sophia",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	s.mcp.AddTool(assessTool(), s.handleAssess)
	s.mcp.AddTool(guidanceTool(), s.handleGuidance)
	s.mcp.AddTool(dailyGuidanceTool(), s.handleDailyGuidance)
	s.mcp.AddTool(meditationTool(), s.handleMeditation)
	s.mcp.AddTool(scanTool(), s.handleScan)

	return s
}

// ServeStdio blocks serving MCP requests over stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp server starting", slog.String("transport", "stdio"))
	return server.ServeStdio(s.mcp)
}

func assessTool() mcp.Tool {
	return mcp.NewTool("assess_consciousness",
		mcp.WithDescription("Assess a seeker's consciousness state from self-reported indicators. Returns the five metrics, the level, and growth-phase guidance."),
		mcp.WithString("seeker_id", mcp.Description("Seeker identifier. Defaults to the shared MCP seeker.")),
		mcp.WithNumber("meditation_frequency", mcp.Description("Meditation practice frequency, 0-1.")),
		mcp.WithNumber("stress_level", mcp.Description("Self-reported stress, 1-10. Defaults to 5.")),
		mcp.WithNumber("anxiety_level", mcp.Description("Self-reported anxiety, 1-10. Defaults to 5.")),
	)
}

func (s *Server) handleAssess(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seekerID := req.GetString("seeker_id", defaultSeekerID)

	input := consciousness.AssessmentInput{
		MeditationFrequency: req.GetFloat("meditation_frequency", 0),
	}
	if v := req.GetInt("stress_level", 0); v != 0 {
		input.StressLevel = &v
	}
	if v := req.GetInt("anxiety_level", 0); v != 0 {
		input.AnxietyLevel = &v
	}

	result, err := s.engine.Assess(ctx, seekerID, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("assessment failed: %v", err)), nil
	}
	return jsonResult(result)
}

func guidanceTool() mcp.Tool {
	return mcp.NewTool("receive_guidance",
		mcp.WithDescription("Receive spiritual guidance for a question in one of the seven domains: wisdom, love, healing, purpose, protection, manifestation, transformation."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The seeker's question.")),
		mcp.WithString("domain", mcp.Description("Spiritual domain. Defaults to wisdom.")),
		mcp.WithString("seeker_id", mcp.Description("Seeker identifier.")),
	)
}

func (s *Server) handleGuidance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	seekerID := req.GetString("seeker_id", defaultSeekerID)

	domain, err := wisdom.ParseDomain(req.GetString("domain", string(wisdom.DomainWisdom)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	insight, err := s.engine.Guidance(ctx, seekerID, question, domain)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("guidance failed: %v", err)), nil
	}
	return jsonResult(insight)
}

func dailyGuidanceTool() mcp.Tool {
	return mcp.NewTool("daily_guidance",
		mcp.WithDescription("Receive the day's morning, midday, and evening guidance."),
		mcp.WithString("seeker_id", mcp.Description("Seeker identifier.")),
	)
}

func (s *Server) handleDailyGuidance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seekerID := req.GetString("seeker_id", defaultSeekerID)

	digest, err := s.engine.DailyGuidance(ctx, seekerID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("daily guidance failed: %v", err)), nil
	}
	return jsonResult(digest)
}

func meditationTool() mcp.Tool {
	return mcp.NewTool("guide_meditation",
		mcp.WithDescription(fmt.Sprintf("Guide a meditation session of %d-%d minutes and report the consciousness evolution.",
			consciousness.MinDurationMinutes, consciousness.MaxDurationMinutes)),
		mcp.WithNumber("duration_minutes", mcp.Required(), mcp.Description("Session length in minutes.")),
		mcp.WithString("intention", mcp.Description("The session's intention.")),
		mcp.WithString("seeker_id", mcp.Description("Seeker identifier.")),
	)
}

func (s *Server) handleMeditation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	minutes, err := req.RequireInt("duration_minutes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	seekerID := req.GetString("seeker_id", defaultSeekerID)
	intention := req.GetString("intention", "inner peace")

	session, err := s.engine.Meditate(ctx, seekerID, intention, minutes)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("meditation failed: %v", err)), nil
	}
	return jsonResult(session)
}

func scanTool() mcp.Tool {
	return mcp.NewTool("scan_purity",
		mcp.WithDescription("Scan content through the spiritual firewall. Reports purity, threat level, and triggered filters."),
		mcp.WithString("content", mcp.Required(), mcp.Description("The content to scan.")),
	)
}

func (s *Server) handleScan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	scan, err := s.engine.ScanContent(ctx, content, "mcp")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
	}
	return jsonResult(scan)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func serverInstructions() string {
	return `Sophia is a spiritual guidance engine. Use assess_consciousness to
measure a seeker's state, receive_guidance for questions in a spiritual
domain, daily_guidance for a morning/midday/evening digest,
guide_meditation to run a session, and scan_purity to screen content
through the spiritual firewall. Seeker state persists between calls:
assessments and meditations update the stored consciousness state that
later guidance draws on.`
}
