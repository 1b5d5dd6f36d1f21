package domain

// ChatCommand is a parsed instruction from the chat surface.
type ChatCommand struct {
	Kind      CommandKind
	ProductID int
}

// CommandKind enumerates what the command router recognized.
type CommandKind int

const (
	// CommandNone means the text did not match any command and should fall
	// through to the generic AI chat completion.
	CommandNone CommandKind = iota
	// CommandEnrichProduct triggers the enrichment pipeline for one product.
	CommandEnrichProduct
)

// TelegramUpdate is the subset of a Telegram webhook payload the assistant
// cares about.
type TelegramUpdate struct {
	UpdateID int64            `json:"update_id"`
	Message  *TelegramMessage `json:"message"`
}

// TelegramMessage is one incoming chat message.
type TelegramMessage struct {
	Chat TelegramChat `json:"chat"`
	From TelegramUser `json:"from"`
	Text string       `json:"text"`
}

// TelegramChat identifies the conversation a message belongs to.
type TelegramChat struct {
	ID int64 `json:"id"`
}

// TelegramUser identifies the sender.
type TelegramUser struct {
	ID int64 `json:"id"`
}
