package model

// PendingApproval is one outstanding request to bind a device to a
// credential. Code is the short token an operator relays out-of-band and the
// natural key for merge; it only needs to be unique among currently
// outstanding requests, not across history. The entry exists exactly until
// an admin approves it (which binds the device and deletes it) or the
// device becomes trusted some other way.
type PendingApproval struct {
	Phone  string `json:"phone"`
	Device string `json:"device"`
	Code   string `json:"code"`
}
