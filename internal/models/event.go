package models

// EventKind classifies an inbound update
type EventKind string

const (
	EventText    EventKind = "text"
	EventImage   EventKind = "image"
	EventCommand EventKind = "command"
	EventContact EventKind = "contact"
)

// Command names understood by the bot.
const (
	CommandStart   = "start"
	CommandHelp    = "help"
	CommandSkip    = "skip"
	CommandCancel  = "cancel"
	CommandHistory = "history"
)

// Sender identifies the author of an inbound event on the chat platform
type Sender struct {
	ExternalID int64
	Username   string
}

// Event is a transport-neutral inbound update.
//
// Text holds the message text for EventText and the raw message (including the
// leading slash) for EventCommand. Caption is only set for EventImage, Phone only
// for EventContact.
type Event struct {
	ChatID      int64
	Sender      Sender
	Kind        EventKind
	Text        string
	Command     string
	Caption     string
	Phone       string
	ImageFileID string
}

// IsCommand reports whether the event is the given command.
func (e Event) IsCommand(name string) bool {
	return e.Kind == EventCommand && e.Command == name
}

// Keyboard tells the transport what reply keyboard to attach
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardRequestContact
	KeyboardRemove
)

// Reply is a single outbound plain-text message.
type Reply struct {
	Text     string
	Keyboard Keyboard
}

// Text builds a reply without keyboard changes.
func Text(text string) Reply {
	return Reply{Text: text}
}
