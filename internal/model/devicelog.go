package model

import "time"

// DeviceLogCap bounds the audit log: only the newest entries survive an
// append or a merge.
const DeviceLogCap = 500

// DeviceLogEntry records one successful authorized login. The log is
// append-only and never key-merged — replicas concatenate and cap it.
type DeviceLogEntry struct {
	Phone  string    `json:"phone"`
	Device string    `json:"device"`
	At     time.Time `json:"at"`
}
