package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shoyaib4265a/st-shop-poss/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	st, err := OpenSQLite(path, Seed{AdminPhone: "Admin", AdminPIN: "1234", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestLoad_SeedsBootstrapAdmin(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	ds, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Users, 1)

	admin := ds.FindUser("Admin")
	require.NotNil(t, admin)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PINHash), []byte("1234")))

	// Seeding counts as a write.
	v, err := st.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestSave_RoundtripAndVersionBump(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	ds, err := st.Load(ctx)
	require.NoError(t, err)
	ds.Products = append(ds.Products, model.Product{ID: "p1", Name: "Soap", Stock: 3})
	require.NoError(t, st.Save(ctx, ds))

	reloaded, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded.Products, 1)
	assert.Equal(t, "Soap", reloaded.Products[0].Name)

	v, err := st.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	require.NoError(t, st.Save(ctx, reloaded))
	v, err = st.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestVersion_ZeroBeforeFirstWrite(t *testing.T) {
	st := openTestStore(t)

	v, err := st.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestDeviceID_StableAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	ctx := context.Background()

	st, err := OpenSQLite(path, Seed{AdminPhone: "Admin", AdminPIN: "1234", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	id1, err := st.DeviceID(ctx)
	require.NoError(t, err)
	assert.Contains(t, id1, "dev_")

	id2, err := st.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	require.NoError(t, st.Close())

	// The fingerprint survives the process, not just the handle.
	st, err = OpenSQLite(path, Seed{AdminPhone: "Admin", AdminPIN: "1234", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	defer st.Close()

	id3, err := st.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id1, id3)
}

func TestSession_SetGetClear(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	sess, err := st.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.NoError(t, st.SetSession(ctx, model.Session{Phone: "5550001", Role: model.RoleCashier, Approved: true}))
	sess, err = st.Session(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "5550001", sess.Phone)
	assert.True(t, sess.Approved)

	require.NoError(t, st.ClearSession(ctx))
	sess, err = st.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}
