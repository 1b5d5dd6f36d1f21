package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
)

// Enrichment requests arrive as natural language in English or Spanish,
// e.g. "enrich product 42", "enriquecer el producto 42",
// "optimizar producto 42".
var enrichPattern = regexp.MustCompile(`(?i)\b(?:enrich|complete|enriquecer|optimizar|completar)\b.*?\bproducto?\b\D*?(\d+)`)

// ParseCommand inspects a chat message for a known command. Messages that
// match nothing come back as CommandNone and go to the chat fallback.
func ParseCommand(text string) domain.ChatCommand {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatCommand{Kind: domain.CommandNone}
	}

	if m := enrichPattern.FindStringSubmatch(text); m != nil {
		id, err := strconv.Atoi(m[1])
		if err == nil && id > 0 {
			return domain.ChatCommand{Kind: domain.CommandEnrichProduct, ProductID: id}
		}
	}

	return domain.ChatCommand{Kind: domain.CommandNone}
}
