package types

// ConversationStyle is how much a rider or driver likes to talk during a ride.
type ConversationStyle string

const (
	ConversationQuiet    ConversationStyle = "quiet"
	ConversationModerate ConversationStyle = "moderate"
	ConversationChatty   ConversationStyle = "chatty"
)

func (c ConversationStyle) Valid() bool {
	switch c {
	case ConversationQuiet, ConversationModerate, ConversationChatty:
		return true
	}
	return false
}
