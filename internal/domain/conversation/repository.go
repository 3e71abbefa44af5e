package conversation

// Store owns direct messages grouped by conversation Key.
type Store interface {
	// SendMessage creates an unread message and appends it to the
	// conversation between senderID and recipientID.
	SendMessage(senderID, recipientID, content string) Message

	// GetConversation returns the messages exchanged by a and b in send
	// order. Never nil; empty when the pair has not talked yet.
	GetConversation(a, b string) []Message

	// MarkConversationRead marks every unread message addressed to selfID
	// in its conversation with otherID as read. Returns how many changed.
	MarkConversationRead(selfID, otherID string) int

	// ListConversations returns selfID's inbox, most recent first.
	ListConversations(selfID string) []Summary

	// Import appends existing messages to their derived conversations
	// without emitting events. Used for bootstrap data.
	Import(messages ...Message)
}
