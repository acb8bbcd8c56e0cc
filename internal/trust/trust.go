// Package trust implements the device authorization state machine. A
// (credential, device) pair moves UNKNOWN → PENDING → TRUSTED; revocation
// puts it back to UNKNOWN so the next login re-enters pending.
package trust

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rs/zerolog/log"

	"github.com/shoyaib4265a/st-shop-poss/internal/config"
	"github.com/shoyaib4265a/st-shop-poss/internal/model"
	"github.com/shoyaib4265a/st-shop-poss/internal/store"
)

// RevokeAll is the wildcard device argument for Revoke.
const RevokeAll = "all"

var (
	ErrInvalidCredential  = errors.New("invalid phone or pin")
	ErrUnknownCode        = errors.New("unknown approval code")
	ErrOrphanedCredential = errors.New("approval refers to a credential that no longer exists")
)

// LoginResult is the outcome of a login attempt. Pending is not an error:
// the credential checked out but this device is not trusted yet, and Code
// must be relayed out-of-band to someone with admin access.
type LoginResult struct {
	OK      bool
	Role    string
	Pending bool
	Code    string
}

// Notifier relays a freshly created approval code out-of-band (e.g. to the
// admin inbox). Implementations must not block the login path.
type Notifier interface {
	NotifyPending(ctx context.Context, p model.PendingApproval) error
}

// Manager owns every mutation of credentials, pendings and device logs.
type Manager interface {
	Login(ctx context.Context, phone, pin string) (*LoginResult, error)
	Approve(ctx context.Context, code string) error
	Revoke(ctx context.Context, phone, device string) error
	SaveCredential(ctx context.Context, phone, pin, role string) error
	Logout(ctx context.Context) error
}

type manager struct {
	store    store.Store
	cfg      *config.Config
	notifier Notifier // nil disables out-of-band relay
	now      func() time.Time
}

func NewManager(st store.Store, cfg *config.Config, notifier Notifier) Manager {
	return &manager{store: st, cfg: cfg, notifier: notifier, now: time.Now}
}

func (m *manager) Login(ctx context.Context, phone, pin string) (*LoginResult, error) {
	ds, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	user := ds.FindUser(phone)
	if user == nil {
		return nil, ErrInvalidCredential
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(pin)) != nil {
		return nil, ErrInvalidCredential
	}

	device, err := m.store.DeviceID(ctx)
	if err != nil {
		return nil, err
	}

	if user.Role == model.RoleAdmin {
		// Admin devices are implicitly trusted. Optionally the admin's
		// presence on this device resolves its own pendings.
		if m.cfg.AdminAutoApprove {
			m.autoApproveDevice(ds, device)
		}
		return m.completeLogin(ctx, ds, user, device)
	}

	if m.deviceTrusted(user, device) {
		return m.completeLogin(ctx, ds, user, device)
	}

	// Untrusted device: enter (or stay in) PENDING. One outstanding request
	// per (phone, device) — repeated attempts reuse the same code.
	pending := ds.FindPendingForDevice(user.Phone, device)
	if pending == nil {
		code, err := newCode(ds)
		if err != nil {
			return nil, err
		}
		ds.Pending = append(ds.Pending, model.PendingApproval{
			Phone:  user.Phone,
			Device: device,
			Code:   code,
		})
		pending = &ds.Pending[len(ds.Pending)-1]
	}
	if err := m.store.Save(ctx, ds); err != nil {
		return nil, err
	}
	if err := m.store.SetSession(ctx, model.Session{Phone: user.Phone, Role: user.Role, Approved: false}); err != nil {
		return nil, err
	}

	if m.notifier != nil {
		if err := m.notifier.NotifyPending(ctx, *pending); err != nil {
			log.Warn().Err(err).Str("phone", user.Phone).Msg("trust: approval code relay failed")
		}
	}
	log.Info().Str("phone", user.Phone).Str("device", device).Msg("trust: device pending approval")
	return &LoginResult{Pending: true, Code: pending.Code, Role: user.Role}, nil
}

// deviceTrusted applies the configured policy.
func (m *manager) deviceTrusted(user *model.Credential, device string) bool {
	if m.cfg.TrustPolicy == config.PolicySingleDevice {
		return len(user.Devices) > 0 && user.Devices[0] == device
	}
	return user.HasDevice(device)
}

// completeLogin records the session and the audit entry for a trusted login.
func (m *manager) completeLogin(ctx context.Context, ds *model.Dataset, user *model.Credential, device string) (*LoginResult, error) {
	ds.DeviceLogs = append(ds.DeviceLogs, model.DeviceLogEntry{
		Phone:  user.Phone,
		Device: device,
		At:     m.now().UTC(),
	})
	if len(ds.DeviceLogs) > model.DeviceLogCap {
		ds.DeviceLogs = ds.DeviceLogs[len(ds.DeviceLogs)-model.DeviceLogCap:]
	}
	if err := m.store.Save(ctx, ds); err != nil {
		return nil, err
	}
	if err := m.store.SetSession(ctx, model.Session{Phone: user.Phone, Role: user.Role, Approved: true}); err != nil {
		return nil, err
	}
	log.Info().Str("phone", user.Phone).Str("role", user.Role).Msg("trust: login ok")
	return &LoginResult{OK: true, Role: user.Role}, nil
}

// autoApproveDevice promotes every pending whose device matches the one the
// admin is logging in from, binding it to the owning credential per policy.
func (m *manager) autoApproveDevice(ds *model.Dataset, device string) {
	remaining := ds.Pending[:0]
	for _, p := range ds.Pending {
		if p.Device != device {
			remaining = append(remaining, p)
			continue
		}
		owner := ds.FindUser(p.Phone)
		if owner == nil {
			// Orphaned entry; drop it rather than carry it forever.
			log.Warn().Str("code", p.Code).Msg("trust: dropping orphaned pending approval")
			continue
		}
		m.bind(owner, p.Device)
		log.Info().Str("phone", p.Phone).Str("device", p.Device).Msg("trust: auto-approved by admin login")
	}
	ds.Pending = remaining
}

func (m *manager) Approve(ctx context.Context, code string) error {
	ds, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	p := ds.FindPending(code)
	if p == nil {
		// Consumed or never existed — replaying a stale code is a plain
		// failure, never a crash.
		return ErrUnknownCode
	}
	owner := ds.FindUser(p.Phone)
	if owner == nil {
		return ErrOrphanedCredential
	}

	// p points into ds.Pending, which RemovePending compacts in place —
	// copy before the entry gets overwritten.
	approved := *p
	m.bind(owner, approved.Device)
	ds.RemovePending(code)
	if err := m.store.Save(ctx, ds); err != nil {
		return err
	}
	log.Info().Str("phone", approved.Phone).Str("device", approved.Device).Msg("trust: device approved")
	return nil
}

// bind grants trust per the configured policy: append under multi-device,
// replace the whole set under single-device (revoking all prior trust).
func (m *manager) bind(owner *model.Credential, device string) {
	if m.cfg.TrustPolicy == config.PolicySingleDevice {
		owner.Devices = []string{device}
		return
	}
	owner.AddDevice(device)
}

func (m *manager) Revoke(ctx context.Context, phone, device string) error {
	ds, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	user := ds.FindUser(phone)
	if user == nil {
		return nil // no-op by contract
	}
	if device == RevokeAll {
		user.Devices = []string{}
	} else {
		user.RemoveDevice(device)
	}
	if err := m.store.Save(ctx, ds); err != nil {
		return err
	}
	log.Info().Str("phone", phone).Str("device", device).Msg("trust: revoked")
	return nil
}

func (m *manager) SaveCredential(ctx context.Context, phone, pin, role string) error {
	cost := m.cfg.PINBcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return fmt.Errorf("trust: hash pin: %w", err)
	}

	ds, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	if existing := ds.FindUser(phone); existing != nil {
		// Update in place; the trusted set survives a PIN or role change.
		existing.PINHash = string(hash)
		existing.Role = role
	} else {
		ds.Users = append(ds.Users, model.Credential{
			Phone:   phone,
			PINHash: string(hash),
			Role:    role,
			Devices: []string{},
		})
	}
	return m.store.Save(ctx, ds)
}

func (m *manager) Logout(ctx context.Context) error {
	return m.store.ClearSession(ctx)
}
