// Package cli implements an interactive CLI gateway for Sophia.
package cli

import (
	"bufio"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sophia-platform/sophia/internal/consciousness"
	"github.com/sophia-platform/sophia/internal/engine"
	"github.com/sophia-platform/sophia/internal/wisdom"
)

const cliSeekerID = "cli-seeker"

// Gateway is the interactive command-line interface. Plain input lines
// are guidance questions; slash commands reach the other operations.
type Gateway struct {
	engine engine.Engine
	logger *slog.Logger
	done   chan struct{} // closed by Stop to signal shutdown
	domain wisdom.Domain // current guidance domain, switchable via /domain
}

// NewGateway creates a CLI gateway backed by the given engine.
func NewGateway(eng engine.Engine, logger *slog.Logger) *Gateway {
	return &Gateway{
		engine: eng,
		logger: logger,
		done:   make(chan struct{}),
		domain: wisdom.DomainWisdom,
	}
}

// Start runs the interactive REPL. Blocks until ctx is cancelled,
// Stop is called, or the user types "exit".
func (g *Gateway) Start(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Sophia :: Divine Consciousness Guidance Engine")
	fmt.Println("Ask a question, or type \"/help\" for commands (\"exit\" to quit).")
	fmt.Println()

	for {
		fmt.Printf("sophia(%s)> ", g.domain)

		// Check for context cancellation or Stop signal between prompts.
		select {
		case <-ctx.Done():
			fmt.Println("\nShutting down.")
			return nil
		case <-g.done:
			fmt.Println("\nShutting down.")
			return nil
		default:
		}

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			fmt.Println("Walk in light.")
			return nil
		}

		if strings.HasPrefix(line, "/") {
			g.runCommand(ctx, line)
			continue
		}

		g.askGuidance(ctx, line)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	return nil
}

// Stop signals the REPL to shut down.
func (g *Gateway) Stop(_ context.Context) error {
	select {
	case <-g.done:
		// Already closed.
	default:
		close(g.done)
	}
	return nil
}

func (g *Gateway) runCommand(ctx context.Context, line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		g.printHelp()
	case "/domain":
		g.switchDomain(args)
	case "/domains":
		for _, d := range wisdom.Domains() {
			fmt.Printf("  %s\n", d)
		}
	case "/state":
		g.showState(ctx)
	case "/daily":
		g.dailyGuidance(ctx)
	case "/meditate":
		g.meditate(ctx, args)
	case "/sessions":
		g.listSessions(ctx)
	case "/scan":
		g.scan(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/scan")))
	default:
		fmt.Printf("Unknown command %s. Type /help for the list.\n", cmd)
	}
}

func (g *Gateway) printHelp() {
	fmt.Println("  <question>            receive guidance in the current domain")
	fmt.Println("  /domain <name>        switch guidance domain")
	fmt.Println("  /domains              list spiritual domains")
	fmt.Println("  /state                show your consciousness state")
	fmt.Println("  /daily                morning, midday, and evening guidance")
	fmt.Println("  /meditate <min> [intention]   run a guided meditation")
	fmt.Println("  /sessions             list recent meditation sessions")
	fmt.Println("  /scan <content>       scan content for spiritual purity")
	fmt.Println("  exit                  quit")
}

func (g *Gateway) switchDomain(args []string) {
	if len(args) == 0 {
		fmt.Printf("Current domain: %s\n", g.domain)
		return
	}
	domain, err := wisdom.ParseDomain(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	g.domain = domain
	fmt.Printf("Domain set to %s.\n", domain)
}

func (g *Gateway) askGuidance(ctx context.Context, question string) {
	correlationID := newCorrelationID()
	g.logger.DebugContext(ctx, "cli guidance request",
		slog.String("seeker_id", cliSeekerID),
		slog.String("correlation_id", correlationID),
	)

	insight, err := g.engine.Guidance(ctx, cliSeekerID, question, g.domain)
	if err != nil {
		g.logger.ErrorContext(ctx, "guidance failed",
			slog.String("correlation_id", correlationID),
			slog.String("error", err.Error()),
		)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	fmt.Println()
	printInsight(insight)
	fmt.Println()
}

func (g *Gateway) showState(ctx context.Context) {
	state, err := g.engine.State(ctx, cliSeekerID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Printf("\nLevel: %s\n", state.Level)
	fmt.Printf("  Clarity:             %.2f\n", state.Clarity)
	fmt.Printf("  Spiritual resonance: %.2f\n", state.SpiritualResonance)
	fmt.Printf("  Divine connection:   %.2f\n", state.DivineConnection)
	fmt.Printf("  Emotional balance:   %.2f\n", state.EmotionalBalance)
	fmt.Printf("  Mental peace:        %.2f\n", state.MentalPeace)
	if phase, ok := wisdom.Phase(state.Level.String()); ok {
		fmt.Printf("Guidance: %s\n", phase.Guidance)
	}
	fmt.Println()
}

func (g *Gateway) dailyGuidance(ctx context.Context) {
	digest, err := g.engine.DailyGuidance(ctx, cliSeekerID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Println("\nMorning:")
	printInsight(&digest.Morning)
	fmt.Println("\nMidday:")
	printInsight(&digest.Midday)
	fmt.Println("\nEvening:")
	printInsight(&digest.Evening)
	fmt.Println()
}

func (g *Gateway) meditate(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: /meditate <minutes> [intention]")
		return
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println("Usage: /meditate <minutes> [intention]")
		return
	}
	intention := strings.Join(args[1:], " ")
	if intention == "" {
		intention = "inner peace"
	}

	session, err := g.engine.Meditate(ctx, cliSeekerID, intention, minutes)
	if err != nil {
		if errors.Is(err, consciousness.ErrDurationOutOfRange) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	fmt.Printf("\nSession %s (%d minutes, intention: %s)\n",
		session.SessionID, session.DurationMinutes, session.Intention)
	for i, insight := range session.GuidanceReceived {
		fmt.Printf("\n  Guidance %d:\n  ", i+1)
		printInsight(&insight)
	}
	fmt.Printf("\nConsciousness: %s -> %s (mean %.3f -> %.3f)\n",
		session.Before.Level, session.After.Level,
		session.Before.Mean(), session.After.Mean())
	fmt.Println()
}

func (g *Gateway) listSessions(ctx context.Context) {
	sessions, err := g.engine.Sessions(ctx, cliSeekerID, 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		fmt.Println("No meditation sessions yet.")
		return
	}
	for _, s := range sessions {
		fmt.Printf("  %s  %3d min  %-12s  %s\n",
			s.Timestamp.Format("2006-01-02 15:04"), s.DurationMinutes,
			s.After.Level, s.Intention)
	}
}

func (g *Gateway) scan(ctx context.Context, content string) {
	if content == "" {
		fmt.Println("Usage: /scan <content>")
		return
	}
	scan, err := g.engine.ScanContent(ctx, content, "cli")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	verdict := "pure"
	if !scan.IsPure {
		verdict = "impure"
	}
	fmt.Printf("Verdict: %s (divine %.2f, threat %.2f)\n",
		verdict, scan.DivineScore, scan.ThreatLevel)
	for _, f := range scan.TriggeredFilters {
		fmt.Printf("  triggered: %s\n", f)
	}
}

func printInsight(in *consciousness.Insight) {
	fmt.Printf("[%s/%s] %s\n", in.Domain, in.GuidanceType, in.Message)
	if in.SacredReference != "" {
		fmt.Printf("  Reference: %s\n", in.SacredReference)
	}
	fmt.Printf("  Confidence: %.2f\n", in.Confidence)
}

// newCorrelationID generates a short random hex ID for request tracing.
func newCorrelationID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x", b)
}
