package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
	"github.com/cerebroai/shop-assistant-go/internal/port"
)

const helpText = `*Shop assistant*

Commands:
/setvar <name> <value> - store a personal variable
/help - show this message

Say "enrich product <id>" (or "enriquecer el producto <id>") to run the
enrichment pipeline for a product. Anything else goes to the assistant.`

// ChatService routes chat messages: slash commands, enrichment requests,
// and a free-form fallback completer for everything else.
type ChatService struct {
	pipeline  *EnrichmentService
	completer port.ChatCompleter
	userVars  port.Cache[map[string]string]
	logger    *zap.Logger
}

// NewChatService wires the chat router.
func NewChatService(pipeline *EnrichmentService, completer port.ChatCompleter, userVars port.Cache[map[string]string], logger *zap.Logger) *ChatService {
	return &ChatService{
		pipeline:  pipeline,
		completer: completer,
		userVars:  userVars,
		logger:    logger,
	}
}

// ProcessMessage handles one incoming chat message and returns the reply.
func (s *ChatService) ProcessMessage(ctx context.Context, userID int64, text string) (string, error) {
	ctx, span := tracer.Start(ctx, "chat.ProcessMessage")
	defer span.End()

	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "/") {
		return s.handleSlashCommand(ctx, userID, text)
	}

	cmd := ParseCommand(text)
	switch cmd.Kind {
	case domain.CommandEnrichProduct:
		s.logger.Info("enrichment requested via chat",
			zap.Int64("user_id", userID),
			zap.Int("product_id", cmd.ProductID))
		outcome := s.pipeline.EnrichProduct(ctx, cmd.ProductID)
		return FormatOutcome(outcome), nil
	default:
		return s.fallback(ctx, userID, text)
	}
}

func (s *ChatService) handleSlashCommand(ctx context.Context, userID int64, text string) (string, error) {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/start", "/help":
		return helpText, nil

	case "/setvar":
		if len(fields) < 3 {
			return "Usage: /setvar <name> <value>", nil
		}
		name := fields[1]
		value := strings.Join(fields[2:], " ")

		vars, found := s.userVars.Get(varsKey(userID))
		if !found || vars == nil {
			vars = map[string]string{}
		}
		vars[name] = value
		s.userVars.Set(varsKey(userID), vars)

		return fmt.Sprintf("Saved `%s`.", name), nil

	default:
		return "Unknown command. Try /help.", nil
	}
}

// fallback sends the message to the completer, prefixed with any stored
// user variables so the model can use them as context.
func (s *ChatService) fallback(ctx context.Context, userID int64, text string) (string, error) {
	prompt := text
	if vars, found := s.userVars.Get(varsKey(userID)); found && len(vars) > 0 {
		var b strings.Builder
		b.WriteString("User context:\n")
		for name, value := range vars {
			fmt.Fprintf(&b, "- %s: %s\n", name, value)
		}
		b.WriteString("\n")
		b.WriteString(text)
		prompt = b.String()
	}

	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Error("chat fallback failed", zap.Int64("user_id", userID), zap.Error(err))
		return "", err
	}
	return reply, nil
}

func varsKey(userID int64) string {
	return fmt.Sprintf("telegram_%d", userID)
}

// FormatOutcome renders a pipeline outcome as a Markdown chat reply. The
// three run states read differently so the operator can tell them apart.
func FormatOutcome(outcome *domain.PipelineOutcome) string {
	var b strings.Builder

	switch {
	case outcome.Cancelled:
		fmt.Fprintf(&b, "⏹ *Cancelled* — %s\n", outcome.Summary)
	case outcome.Success:
		fmt.Fprintf(&b, "✅ *Done* — %s\n", outcome.Summary)
	default:
		fmt.Fprintf(&b, "❌ *Failed* — %s\n", outcome.Summary)
	}

	b.WriteString("\nSteps:\n")
	for _, step := range outcome.Steps {
		if step.OK {
			fmt.Fprintf(&b, "• %s: ok\n", step.Step)
		} else {
			fmt.Fprintf(&b, "• %s: failed (%s)\n", step.Step, step.Error)
		}
	}
	return b.String()
}
