package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds. The dotted prefix is the namespace subscribers filter on.
const (
	KindSessionStatus   = "session.status_changed"
	KindSessionLoggedIn = "session.logged_in"
	KindSessionLogout   = "session.logged_out"

	KindPushStatus        = "push.status_changed"
	KindPushMessage       = "push.message"
	KindPushMessageStatus = "push.message_status"
	KindPushTyping        = "push.typing"
	KindPushError         = "push.error"
	KindPushGaveUp        = "push.gave_up"

	KindChatsLoaded      = "chat.list_loaded"
	KindChatUpdated      = "chat.updated"
	KindMessagesLoaded   = "chat.messages_loaded"
	KindMessageUpserted  = "chat.message_upserted"
	KindSelectionChanged = "chat.selection_changed"

	KindNoticeError = "notice.error"
	KindNoticeInfo  = "notice.info"
)

// Notice is the payload of notice.* events: a short user-displayable line.
type Notice struct {
	Title string
	Text  string
}
