package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoyaib4265a/st-shop-poss/internal/infra"
	"github.com/shoyaib4265a/st-shop-poss/internal/model"
	"github.com/shoyaib4265a/st-shop-poss/internal/remote"
	"github.com/shoyaib4265a/st-shop-poss/internal/store"
)

// ── In-memory BlobStore fake ─────────────────────────────────────────────────

type fakeBlobStore struct {
	mu    sync.Mutex
	docs  map[string][]byte // id → body
	names map[string]string // name → id
	next  int

	findErr      error
	writeErr     error
	forceMissing int    // make the next N Finds report absence
	onRead       func() // runs before Read returns — simulates concurrent edits
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{docs: map[string][]byte{}, names: map[string]string{}}
}

func (f *fakeBlobStore) Find(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return "", f.findErr
	}
	if f.forceMissing > 0 {
		f.forceMissing--
		return "", remote.ErrNotFound
	}
	id, ok := f.names[name]
	if !ok {
		return "", remote.ErrNotFound
	}
	return id, nil
}

func (f *fakeBlobStore) Create(_ context.Context, name string, initial []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := fmt.Sprintf("doc_%d", f.next)
	f.names[name] = id
	f.docs[id] = initial
	return id, nil
}

func (f *fakeBlobStore) Read(_ context.Context, id string) ([]byte, error) {
	if f.onRead != nil {
		f.onRead()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.docs[id]
	if !ok {
		return nil, remote.ErrNotFound
	}
	return body, nil
}

func (f *fakeBlobStore) Write(_ context.Context, id string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.docs[id] = data
	return nil
}

func (f *fakeBlobStore) dataset(t *testing.T, name string) *model.Dataset {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.names[name]
	require.True(t, ok, "remote document %q not created", name)
	ds := &model.Dataset{}
	require.NoError(t, json.Unmarshal(f.docs[id], ds))
	return ds
}

func newTestCoordinator(blobs remote.BlobStore, tokens remote.TokenSource) (*store.MemoryStore, *Coordinator) {
	st := store.NewMemory(store.Seed{AdminPhone: "Admin", AdminPIN: "1234"})
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	return st, NewCoordinator(st, blobs, tokens, cb, "pos.json", 5*time.Second)
}

// ── Cycles ───────────────────────────────────────────────────────────────────

func TestSync_CreatesRemoteFromLocalSnapshot(t *testing.T) {
	blobs := newFakeBlobStore()
	st, coord := newTestCoordinator(blobs, nil)
	ctx := context.Background()

	ds, err := st.Load(ctx)
	require.NoError(t, err)
	ds.Products = append(ds.Products, model.Product{ID: "p1", Name: "Soap", Stock: 5})
	require.NoError(t, st.Save(ctx, ds))

	require.NoError(t, coord.Sync(ctx))
	assert.Equal(t, PhaseIdle, coord.Phase())

	uploaded := blobs.dataset(t, "pos.json")
	require.Len(t, uploaded.Products, 1)
	assert.Equal(t, "Soap", uploaded.Products[0].Name)
	require.Len(t, uploaded.Users, 1)
}

func TestSync_MergesRemoteIntoLocalAndUploads(t *testing.T) {
	blobs := newFakeBlobStore()
	st, coord := newTestCoordinator(blobs, nil)
	ctx := context.Background()

	remoteDS := &model.Dataset{
		Products: []model.Product{{ID: "p_remote", Name: "Rice", Stock: 8}},
		Pending:  []model.PendingApproval{{Phone: "5550001", Device: "dev_B", Code: "QQQ111"}},
	}
	body, err := json.Marshal(remoteDS)
	require.NoError(t, err)
	_, err = blobs.Create(ctx, "pos.json", body)
	require.NoError(t, err)

	ds, err := st.Load(ctx)
	require.NoError(t, err)
	ds.Products = append(ds.Products, model.Product{ID: "p_local", Name: "Oil", Stock: 2})
	require.NoError(t, st.Save(ctx, ds))

	require.NoError(t, coord.Sync(ctx))

	// Local store holds the union, remote pending included.
	merged, err := st.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, merged.FindProduct("p_remote"))
	assert.NotNil(t, merged.FindProduct("p_local"))
	require.Len(t, merged.Pending, 1)

	// Upload carries the same merged state.
	uploaded := blobs.dataset(t, "pos.json")
	assert.NotNil(t, uploaded.FindProduct("p_remote"))
	assert.NotNil(t, uploaded.FindProduct("p_local"))
}

func TestSync_MutationDuringDownloadParticipates(t *testing.T) {
	blobs := newFakeBlobStore()
	st, coord := newTestCoordinator(blobs, nil)
	ctx := context.Background()

	body, err := json.Marshal(&model.Dataset{Products: []model.Product{{ID: "p_remote"}}})
	require.NoError(t, err)
	_, err = blobs.Create(ctx, "pos.json", body)
	require.NoError(t, err)

	// A user edit lands while the download is in flight. The re-read before
	// merging must pick it up.
	blobs.onRead = func() {
		ds, lerr := st.Load(ctx)
		require.NoError(t, lerr)
		ds.Products = append(ds.Products, model.Product{ID: "p_during", Name: "Late"})
		require.NoError(t, st.Save(ctx, ds))
	}

	require.NoError(t, coord.Sync(ctx))

	merged, err := st.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, merged.FindProduct("p_during"))
	assert.NotNil(t, blobs.dataset(t, "pos.json").FindProduct("p_during"))
}

func TestSync_UploadFailureKeepsLocalCommit(t *testing.T) {
	blobs := newFakeBlobStore()
	st, coord := newTestCoordinator(blobs, nil)
	ctx := context.Background()

	body, err := json.Marshal(&model.Dataset{Products: []model.Product{{ID: "p_remote", Name: "Rice"}}})
	require.NoError(t, err)
	_, err = blobs.Create(ctx, "pos.json", body)
	require.NoError(t, err)

	blobs.writeErr = errors.New("disk full")
	err = coord.Sync(ctx)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)

	// The merged commit survives the failed upload; a retry re-uploads it.
	merged, lerr := st.Load(ctx)
	require.NoError(t, lerr)
	assert.NotNil(t, merged.FindProduct("p_remote"))

	blobs.writeErr = nil
	require.NoError(t, coord.Sync(ctx))
	assert.NotNil(t, blobs.dataset(t, "pos.json").FindProduct("p_remote"))
}

func TestSync_ErrorTaxonomy(t *testing.T) {
	t.Run("token failure", func(t *testing.T) {
		blobs := newFakeBlobStore()
		_, coord := newTestCoordinator(blobs, failingTokens{})
		err := coord.Sync(context.Background())
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("transport failure", func(t *testing.T) {
		blobs := newFakeBlobStore()
		blobs.findErr = errors.New("connection refused")
		_, coord := newTestCoordinator(blobs, nil)
		err := coord.Sync(context.Background())
		assert.ErrorIs(t, err, ErrRemoteUnavailable)

		// The failure stays visible until the next cycle runs.
		assert.Equal(t, PhaseError, coord.Phase())
		blobs.findErr = nil
		require.NoError(t, coord.Sync(context.Background()))
		assert.Equal(t, PhaseIdle, coord.Phase())
	})
}

type failingTokens struct{}

func (failingTokens) Token(context.Context) (string, error) {
	return "", errors.New("consent dismissed")
}

// Two replicas whose locate steps interleave each see an absent remote
// document and each create one. Both cycles succeed, neither crashes, and
// the name ends up mapping to whichever create landed last — the documented
// fork, not silent data loss on either device.
func TestSync_CreateRaceForksWithoutCrashing(t *testing.T) {
	blobs := newFakeBlobStore()
	ctx := context.Background()

	stA, coordA := newTestCoordinator(blobs, nil)
	stB, coordB := newTestCoordinator(blobs, nil)

	dsA, err := stA.Load(ctx)
	require.NoError(t, err)
	dsA.Products = append(dsA.Products, model.Product{ID: "pA"})
	require.NoError(t, stA.Save(ctx, dsA))

	dsB, err := stB.Load(ctx)
	require.NoError(t, err)
	dsB.Products = append(dsB.Products, model.Product{ID: "pB"})
	require.NoError(t, stB.Save(ctx, dsB))

	require.NoError(t, coordA.Sync(ctx))

	// B's locate ran before A's create landed.
	blobs.forceMissing = 1
	require.NoError(t, coordB.Sync(ctx))

	// The fork is real: the surviving name points at B's document only.
	final := blobs.dataset(t, "pos.json")
	assert.NotNil(t, final.FindProduct("pB"))
	assert.Nil(t, final.FindProduct("pA"))
}
