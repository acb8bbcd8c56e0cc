// Package model defines the synchronized dataset and its entity types.
// The JSON tags on these structs ARE the wire format: the same bytes are
// persisted locally and uploaded to the remote document, so changing a tag
// is a breaking change for every replica sharing the account.
package model

// Dataset is the full synchronized document. One Dataset exists per logical
// account; every replica holds a local mirror and reconciles it against the
// remote copy on each sync cycle. Absent keys decode to nil slices and are
// normalized to empty ones so merge and upload never special-case nil.
type Dataset struct {
	Users       []Credential      `json:"users"`
	Products    []Product         `json:"products"`
	Inventories []Inventory       `json:"inventories"`
	Pending     []PendingApproval `json:"pending"`
	DeviceLogs  []DeviceLogEntry  `json:"deviceLogs"`
}

// Normalize replaces nil collections with empty ones.
func (d *Dataset) Normalize() {
	if d.Users == nil {
		d.Users = []Credential{}
	}
	if d.Products == nil {
		d.Products = []Product{}
	}
	if d.Inventories == nil {
		d.Inventories = []Inventory{}
	}
	if d.Pending == nil {
		d.Pending = []PendingApproval{}
	}
	if d.DeviceLogs == nil {
		d.DeviceLogs = []DeviceLogEntry{}
	}
}

// FindUser returns a pointer into d.Users for the given phone, or nil.
func (d *Dataset) FindUser(phone string) *Credential {
	for i := range d.Users {
		if d.Users[i].Phone == phone {
			return &d.Users[i]
		}
	}
	return nil
}

// FindProduct returns a pointer into d.Products for the given id, or nil.
func (d *Dataset) FindProduct(id string) *Product {
	for i := range d.Products {
		if d.Products[i].ID == id {
			return &d.Products[i]
		}
	}
	return nil
}

// FindInventory returns the allotment owned by a cashier phone, or nil.
func (d *Dataset) FindInventory(cashier string) *Inventory {
	for i := range d.Inventories {
		if d.Inventories[i].Cashier == cashier {
			return &d.Inventories[i]
		}
	}
	return nil
}

// FindPending returns the outstanding approval with the given code, or nil.
func (d *Dataset) FindPending(code string) *PendingApproval {
	for i := range d.Pending {
		if d.Pending[i].Code == code {
			return &d.Pending[i]
		}
	}
	return nil
}

// FindPendingForDevice returns the outstanding approval for a
// (phone, device) pair, or nil. At most one such entry exists.
func (d *Dataset) FindPendingForDevice(phone, device string) *PendingApproval {
	for i := range d.Pending {
		if d.Pending[i].Phone == phone && d.Pending[i].Device == device {
			return &d.Pending[i]
		}
	}
	return nil
}

// RemovePending deletes the approval with the given code, if present.
func (d *Dataset) RemovePending(code string) {
	kept := d.Pending[:0]
	for _, p := range d.Pending {
		if p.Code != code {
			kept = append(kept, p)
		}
	}
	d.Pending = kept
}
