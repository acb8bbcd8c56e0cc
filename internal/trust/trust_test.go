package trust

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shoyaib4265a/st-shop-poss/internal/config"
	"github.com/shoyaib4265a/st-shop-poss/internal/model"
	"github.com/shoyaib4265a/st-shop-poss/internal/store"
)

// ── Fixtures ─────────────────────────────────────────────────────────────────

type capturedNotify struct {
	pendings []model.PendingApproval
}

func (n *capturedNotify) NotifyPending(_ context.Context, p model.PendingApproval) error {
	n.pendings = append(n.pendings, p)
	return nil
}

func newFixture(t *testing.T, cfg *config.Config) (*store.MemoryStore, Manager, *capturedNotify) {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{TrustPolicy: config.PolicyMultiDevice}
	}
	cfg.PINBcryptCost = bcrypt.MinCost

	st := store.NewMemory(store.Seed{AdminPhone: "Admin", AdminPIN: "9999"})
	st.SetDeviceID("dev_A")
	notifier := &capturedNotify{}
	mgr := NewManager(st, cfg, notifier)

	// A cashier to exercise the pending flow with.
	require.NoError(t, mgr.SaveCredential(context.Background(), "5550001", "1234", model.RoleCashier))
	return st, mgr, notifier
}

// ── Login ────────────────────────────────────────────────────────────────────

func TestLogin_InvalidCredential(t *testing.T) {
	_, mgr, _ := newFixture(t, nil)
	ctx := context.Background()

	_, err := mgr.Login(ctx, "5550001", "0000")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = mgr.Login(ctx, "nobody", "1234")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLogin_UntrustedDeviceEntersPending(t *testing.T) {
	st, mgr, notifier := newFixture(t, nil)
	ctx := context.Background()

	res, err := mgr.Login(ctx, "5550001", "1234")
	require.NoError(t, err)
	assert.True(t, res.Pending)
	assert.False(t, res.OK)
	assert.Len(t, res.Code, 6)

	// Unapproved session so UI glue can show the waiting screen.
	sess, err := st.Session(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.False(t, sess.Approved)
	assert.Equal(t, "5550001", sess.Phone)

	// The code left the login path via the notifier.
	require.Len(t, notifier.pendings, 1)
	assert.Equal(t, res.Code, notifier.pendings[0].Code)

	// Retrying reuses the outstanding code instead of minting a second one.
	again, err := mgr.Login(ctx, "5550001", "1234")
	require.NoError(t, err)
	assert.Equal(t, res.Code, again.Code)

	ds, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, ds.Pending, 1)
}

func TestLogin_AfterApproval(t *testing.T) {
	st, mgr, _ := newFixture(t, nil)
	ctx := context.Background()

	res, err := mgr.Login(ctx, "5550001", "1234")
	require.NoError(t, err)
	require.True(t, res.Pending)

	require.NoError(t, mgr.Approve(ctx, res.Code))

	res, err = mgr.Login(ctx, "5550001", "1234")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, model.RoleCashier, res.Role)

	sess, err := st.Session(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.True(t, sess.Approved)

	// Approval consumed the pending and the login was audited.
	ds, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ds.Pending)
	require.Len(t, ds.DeviceLogs, 1)
	assert.Equal(t, "dev_A", ds.DeviceLogs[0].Device)
}

func TestLogin_AdminImplicitlyTrusted(t *testing.T) {
	_, mgr, _ := newFixture(t, nil)

	res, err := mgr.Login(context.Background(), "Admin", "9999")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, model.RoleAdmin, res.Role)
	assert.False(t, res.Pending)
}

func TestLogin_AdminAutoApproveResolvesPending(t *testing.T) {
	cfg := &config.Config{TrustPolicy: config.PolicyMultiDevice, AdminAutoApprove: true}
	st, mgr, _ := newFixture(t, cfg)
	ctx := context.Background()

	res, err := mgr.Login(ctx, "5550001", "1234")
	require.NoError(t, err)
	require.True(t, res.Pending)

	// Admin logs in on the same installation: its pendings resolve.
	_, err = mgr.Login(ctx, "Admin", "9999")
	require.NoError(t, err)

	ds, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ds.Pending)
	assert.True(t, ds.FindUser("5550001").HasDevice("dev_A"))
}

// ── Approve ──────────────────────────────────────────────────────────────────

func TestApprove_UnknownAndConsumedCode(t *testing.T) {
	_, mgr, _ := newFixture(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, mgr.Approve(ctx, "ZZZZZZ"), ErrUnknownCode)

	res, err := mgr.Login(ctx, "5550001", "1234")
	require.NoError(t, err)
	require.NoError(t, mgr.Approve(ctx, res.Code))

	// Replaying a consumed code fails cleanly.
	assert.ErrorIs(t, mgr.Approve(ctx, res.Code), ErrUnknownCode)
}

func TestApprove_OrphanedCredential(t *testing.T) {
	st, mgr, _ := newFixture(t, nil)
	ctx := context.Background()

	// A pending whose credential vanished (e.g. merged away by a replica).
	ds, err := st.Load(ctx)
	require.NoError(t, err)
	ds.Pending = append(ds.Pending, model.PendingApproval{Phone: "ghost", Device: "dev_X", Code: "GHOST1"})
	require.NoError(t, st.Save(ctx, ds))

	assert.ErrorIs(t, mgr.Approve(ctx, "GHOST1"), ErrOrphanedCredential)
}

func TestApprove_FirstOfSeveralPendings(t *testing.T) {
	st, mgr, _ := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, mgr.SaveCredential(ctx, "5550002", "1234", model.RoleCashier))

	// Two outstanding requests; consuming the first compacts the slice, and
	// the approval must bind the consumed entry's device, not its successor's.
	ds, err := st.Load(ctx)
	require.NoError(t, err)
	ds.Pending = append(ds.Pending,
		model.PendingApproval{Phone: "5550001", Device: "dev_A", Code: "AAA111"},
		model.PendingApproval{Phone: "5550002", Device: "dev_B", Code: "BBB222"},
	)
	require.NoError(t, st.Save(ctx, ds))

	require.NoError(t, mgr.Approve(ctx, "AAA111"))

	ds, err = st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dev_A"}, ds.FindUser("5550001").Devices)
	assert.Empty(t, ds.FindUser("5550002").Devices)
	require.Len(t, ds.Pending, 1)
	assert.Equal(t, "BBB222", ds.Pending[0].Code)
}

func TestApprove_SingleDevicePolicyReplacesSet(t *testing.T) {
	cfg := &config.Config{TrustPolicy: config.PolicySingleDevice}
	st, mgr, _ := newFixture(t, cfg)
	ctx := context.Background()

	// Pretend dev_old was trusted before this installation showed up.
	ds, err := st.Load(ctx)
	require.NoError(t, err)
	ds.FindUser("5550001").Devices = []string{"dev_old"}
	require.NoError(t, st.Save(ctx, ds))

	res, err := mgr.Login(ctx, "5550001", "1234")
	require.NoError(t, err)
	require.True(t, res.Pending)
	require.NoError(t, mgr.Approve(ctx, res.Code))

	ds, err = st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dev_A"}, ds.FindUser("5550001").Devices)
}

// ── Revoke ───────────────────────────────────────────────────────────────────

func TestRevoke_OneAndAll(t *testing.T) {
	st, mgr, _ := newFixture(t, nil)
	ctx := context.Background()

	ds, err := st.Load(ctx)
	require.NoError(t, err)
	ds.FindUser("5550001").Devices = []string{"dev_A", "dev_B", "dev_C"}
	require.NoError(t, st.Save(ctx, ds))

	require.NoError(t, mgr.Revoke(ctx, "5550001", "dev_B"))
	ds, err = st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dev_A", "dev_C"}, ds.FindUser("5550001").Devices)

	require.NoError(t, mgr.Revoke(ctx, "5550001", RevokeAll))
	ds, err = st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ds.FindUser("5550001").Devices)

	// Revoked device re-enters pending on next login.
	res, err := mgr.Login(ctx, "5550001", "1234")
	require.NoError(t, err)
	assert.True(t, res.Pending)
}

func TestRevoke_UnknownPhoneIsNoop(t *testing.T) {
	_, mgr, _ := newFixture(t, nil)
	assert.NoError(t, mgr.Revoke(context.Background(), "nobody", RevokeAll))
}

// ── Credentials ──────────────────────────────────────────────────────────────

func TestSaveCredential_UpdatePreservesDevices(t *testing.T) {
	st, mgr, _ := newFixture(t, nil)
	ctx := context.Background()

	ds, err := st.Load(ctx)
	require.NoError(t, err)
	ds.FindUser("5550001").Devices = []string{"dev_A"}
	require.NoError(t, st.Save(ctx, ds))

	require.NoError(t, mgr.SaveCredential(ctx, "5550001", "4321", model.RoleCashier))

	ds, err = st.Load(ctx)
	require.NoError(t, err)
	user := ds.FindUser("5550001")
	assert.Equal(t, []string{"dev_A"}, user.Devices)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte("4321")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte("1234")))
}

func TestLogout_ClearsSession(t *testing.T) {
	st, mgr, _ := newFixture(t, nil)
	ctx := context.Background()

	_, err := mgr.Login(ctx, "Admin", "9999")
	require.NoError(t, err)
	require.NoError(t, mgr.Logout(ctx))

	sess, err := st.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}
