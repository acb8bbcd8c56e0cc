package model

// Session is device-local login state. It is never synchronized: trust in a
// device is carried by the credential's devices set, the session only
// remembers who is logged in on this installation right now.
// Approved=false means the account has an outstanding pending approval for
// this device and may not act yet.
type Session struct {
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Approved bool   `json:"approved"`
}
