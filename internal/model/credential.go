package model

// Roles carried by credentials and sessions.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// Credential is a phone+PIN account bound to a set of trusted device
// fingerprints. Credentials are never deleted, only updated in place; the
// devices set alone defines which installations may log in without approval.
//
// The wire key for the secret is still "pin" for document compatibility, but
// the value is a bcrypt hash — replicas never see the plaintext PIN.
type Credential struct {
	Phone   string   `json:"phone"`
	PINHash string   `json:"pin"`
	Role    string   `json:"role"`
	Devices []string `json:"devices"`
}

// HasDevice reports whether fingerprint is in the trusted set.
func (c *Credential) HasDevice(fingerprint string) bool {
	for _, d := range c.Devices {
		if d == fingerprint {
			return true
		}
	}
	return false
}

// AddDevice appends fingerprint to the trusted set if not already present.
func (c *Credential) AddDevice(fingerprint string) {
	if !c.HasDevice(fingerprint) {
		c.Devices = append(c.Devices, fingerprint)
	}
}

// RemoveDevice drops one fingerprint from the trusted set.
func (c *Credential) RemoveDevice(fingerprint string) {
	kept := c.Devices[:0]
	for _, d := range c.Devices {
		if d != fingerprint {
			kept = append(kept, d)
		}
	}
	c.Devices = kept
}
