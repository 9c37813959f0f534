package domain

// Reply is one outbound message produced for one inbound message.
// Text is HTML formatted (Telegram HTML parse mode subset).
type Reply struct {
	Text           string
	Keyboard       [][]string
	RemoveKeyboard bool
}

// Message is one inbound text event from a user.
type Message struct {
	ChatID int64
	User   User
	Text   string
}
