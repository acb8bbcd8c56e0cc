// Package merge reconciles two replicas of an entity collection into one.
//
// The policy is union-by-key with field-level last-applied-wins: records are
// applied in order — every remote record first, then every local record —
// and each application shallow-merges the record's fields over whatever the
// accumulator already holds for that key. Because local is applied second,
// local wins field-for-field whenever both sides carry a value for the same
// key. That is a deliberate weak-consistency choice, not an accident: a sync
// performed by a stale device can overwrite newer remote edits to the same
// record. The set of keys, however, always converges to the union.
//
// Device logs are the exception: they are concatenated and capped, never
// key-merged.
package merge

import (
	"sort"

	"github.com/shoyaib4265a/st-shop-poss/internal/model"
)

// apply folds remote then local — in that order — into a keyed accumulator.
// overlay decides, field by field, how a later record lands on an earlier one
// with the same key. Output preserves first-seen order: remote order first,
// then local-only keys in local order.
func apply[K comparable, V any](remote, local []V, key func(V) K, overlay func(base, over V) V) []V {
	out := make([]V, 0, len(remote)+len(local))
	index := make(map[K]int, len(remote)+len(local))

	for _, batch := range [][]V{remote, local} {
		for _, rec := range batch {
			k := key(rec)
			if i, seen := index[k]; seen {
				out[i] = overlay(out[i], rec)
				continue
			}
			index[k] = len(out)
			out = append(out, rec)
		}
	}
	return out
}

// Credentials merges by phone. A later record's devices set replaces the
// earlier one wholesale — trust membership is not unioned, otherwise a
// revocation on one device could be silently undone by a stale replica.
func Credentials(remote, local []model.Credential) []model.Credential {
	return apply(remote, local,
		func(c model.Credential) string { return c.Phone },
		func(base, over model.Credential) model.Credential {
			out := over
			if out.PINHash == "" {
				out.PINHash = base.PINHash
			}
			if out.Role == "" {
				out.Role = base.Role
			}
			if out.Devices == nil {
				out.Devices = base.Devices
			}
			return out
		})
}

// Products merges by product id. Price and stock always take the later
// record's value; optional descriptive fields fall back to the earlier one.
func Products(remote, local []model.Product) []model.Product {
	return apply(remote, local,
		func(p model.Product) string { return p.ID },
		func(base, over model.Product) model.Product {
			out := over
			if out.Name == "" {
				out.Name = base.Name
			}
			if out.Barcode == "" {
				out.Barcode = base.Barcode
			}
			return out
		})
}

// Inventories merges by cashier phone. The items list is replaced, not
// unioned — the allotment is a single logical value owned by one cashier.
func Inventories(remote, local []model.Inventory) []model.Inventory {
	return apply(remote, local,
		func(inv model.Inventory) string { return inv.Cashier },
		func(base, over model.Inventory) model.Inventory {
			out := over
			if out.Items == nil {
				out.Items = base.Items
			}
			if out.UpdatedAt.IsZero() {
				out.UpdatedAt = base.UpdatedAt
			}
			return out
		})
}

// Pending merges by approval code.
func Pending(remote, local []model.PendingApproval) []model.PendingApproval {
	return apply(remote, local,
		func(p model.PendingApproval) string { return p.Code },
		func(base, over model.PendingApproval) model.PendingApproval {
			out := over
			if out.Phone == "" {
				out.Phone = base.Phone
			}
			if out.Device == "" {
				out.Device = base.Device
			}
			return out
		})
}

// DeviceLogs concatenates both logs in timestamp order and keeps only the
// newest model.DeviceLogCap entries. Exact duplicates collapse to one entry:
// after a successful cycle both replicas carry the same history, and without
// the dedupe every re-merge would double the log until the cap evicted real
// audit entries.
func DeviceLogs(remote, local []model.DeviceLogEntry) []model.DeviceLogEntry {
	type logKey struct {
		phone  string
		device string
		at     int64
	}
	seen := make(map[logKey]bool, len(remote)+len(local))
	out := make([]model.DeviceLogEntry, 0, len(remote)+len(local))
	for _, batch := range [][]model.DeviceLogEntry{remote, local} {
		for _, e := range batch {
			k := logKey{phone: e.Phone, device: e.Device, at: e.At.UnixNano()}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	if len(out) > model.DeviceLogCap {
		out = out[len(out)-model.DeviceLogCap:]
	}
	return out
}

// Datasets merges every collection of the document independently. There is
// no cross-entity guarantee: an inventory line may reference a product the
// merged catalog no longer carries.
func Datasets(remote, local *model.Dataset) *model.Dataset {
	merged := &model.Dataset{
		Users:       Credentials(remote.Users, local.Users),
		Products:    Products(remote.Products, local.Products),
		Inventories: Inventories(remote.Inventories, local.Inventories),
		Pending:     Pending(remote.Pending, local.Pending),
		DeviceLogs:  DeviceLogs(remote.DeviceLogs, local.DeviceLogs),
	}
	merged.Normalize()
	return merged
}
