package model

// Subscription ties one subscriber chat to one watched address, with the
// subscriber's private label for it. (Address, ChatID) is unique; adding
// a duplicate is a no-op.
type Subscription struct {
	ChatID  int64
	Address string // canonical form
	Label   string
}

// Subscriber is one recipient of notifications for an address.
type Subscriber struct {
	ChatID int64
	Label  string
}
