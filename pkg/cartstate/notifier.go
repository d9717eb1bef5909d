package cartstate

import "context"

// Kind classifies a notification for presentation.
type Kind string

const KindError Kind = "error"

// Notification is a user-facing message emitted when a mutation is rolled back.
type Notification struct {
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Operation Operation `json:"operation"`
	LineID    string    `json:"lineId,omitempty"`
}

// Notifier presents notifications (toast, banner, log, message bus).
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (fn NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return fn(ctx, n)
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, Notification) error { return nil }

var failureTitles = map[Operation]string{
	OpAdd:    "Couldn't add item",
	OpUpdate: "Couldn't update quantity",
	OpRemove: "Couldn't remove item",
	OpClear:  "Couldn't clear cart",
}

func failureTitle(op Operation) string {
	if title, ok := failureTitles[op]; ok {
		return title
	}
	return "Something went wrong"
}
