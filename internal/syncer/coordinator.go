// Package syncer orchestrates one full merge cycle against the remote
// document: authenticate → locate or create → download → merge → persist
// locally → upload.
//
// The cycle is deliberately unsophisticated about cross-device races, and
// the weaknesses are part of the contract rather than bugs to paper over:
//
//   - Locate-or-create is not idempotent under concurrency. Two replicas
//     that both see no remote document may each create one, permanently
//     forking the dataset until someone reconciles by hand.
//   - Upload overwrites the whole remote document with no conditional
//     write, so a cycle racing another replica's cycle loses that
//     replica's upload at the transport level.
//
// What the coordinator does guarantee: cycles on one device are serialized,
// the local store is re-read immediately before merging (a user mutation
// made while the download was in flight is never clobbered by a stale
// snapshot), and a failed upload leaves the merged local commit in place so
// a retry simply re-uploads the same state.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shoyaib4265a/st-shop-poss/internal/infra"
	"github.com/shoyaib4265a/st-shop-poss/internal/merge"
	"github.com/shoyaib4265a/st-shop-poss/internal/model"
	"github.com/shoyaib4265a/st-shop-poss/internal/remote"
	"github.com/shoyaib4265a/st-shop-poss/internal/store"
)

var (
	// ErrAuthenticationFailed means no usable bearer credential could be
	// obtained. User-recoverable: retry the whole cycle.
	ErrAuthenticationFailed = errors.New("sync: authentication failed")
	// ErrRemoteUnavailable wraps transport failures and the open breaker.
	// Recoverable: retry the whole cycle.
	ErrRemoteUnavailable = errors.New("sync: remote unavailable")
)

// Phase is the coordinator's position in the cycle state machine.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseAuthenticating
	PhaseLocating
	PhaseDownloading
	PhaseMerging
	PhasePersisting
	PhaseUploading
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseLocating:
		return "locating"
	case PhaseDownloading:
		return "downloading"
	case PhaseMerging:
		return "merging"
	case PhasePersisting:
		return "persisting"
	case PhaseUploading:
		return "uploading"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Coordinator runs merge cycles. One per process.
type Coordinator struct {
	store   store.Store
	blobs   remote.BlobStore
	tokens  remote.TokenSource // nil when the backend needs no token
	cb      *infra.CircuitBreaker
	docName string
	timeout time.Duration

	mu    sync.Mutex // serializes cycles: one Idle→Idle at a time
	phase atomic.Int32

	docID string // cached after the first successful locate
}

func NewCoordinator(st store.Store, blobs remote.BlobStore, tokens remote.TokenSource,
	cb *infra.CircuitBreaker, docName string, timeout time.Duration) *Coordinator {
	return &Coordinator{
		store:   st,
		blobs:   blobs,
		tokens:  tokens,
		cb:      cb,
		docName: docName,
		timeout: timeout,
	}
}

// Phase reports where the coordinator currently is (health endpoint / logs).
func (c *Coordinator) Phase() Phase { return Phase(c.phase.Load()) }

// BreakerState exposes the remote breaker for the cron and health checks.
func (c *Coordinator) BreakerState() infra.CBState { return c.cb.State() }

// Sync runs one full cycle. Concurrent callers queue up; every failure is
// retryable and never corrupts the local store. A failed cycle parks the
// machine in PhaseError — visible to health checks — until the next cycle
// starts.
func (c *Coordinator) Sync(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.cycle(ctx)
	if err != nil {
		c.phase.Store(int32(PhaseError))
		log.Error().Err(err).Msg("sync: cycle failed")
		return err
	}
	c.phase.Store(int32(PhaseIdle))
	return nil
}

func (c *Coordinator) cycle(ctx context.Context) error {
	started := time.Now()

	// Authenticate up front so a dismissed consent or a dead token endpoint
	// fails the cycle before any transfer starts.
	if c.tokens != nil {
		c.phase.Store(int32(PhaseAuthenticating))
		if _, err := c.tokens.Token(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
		}
	}

	c.phase.Store(int32(PhaseLocating))
	docID, created, err := c.locateOrCreate(ctx)
	if err != nil {
		return err
	}
	c.docID = docID

	c.phase.Store(int32(PhaseDownloading))
	remoteDS, err := c.download(ctx, docID)
	if err != nil {
		return err
	}

	// Re-read the local store now, not before the download: a mutation made
	// while bytes were in flight must participate in this merge.
	c.phase.Store(int32(PhaseMerging))
	localDS, err := c.store.Load(ctx)
	if err != nil {
		return err
	}
	merged := merge.Datasets(remoteDS, localDS)

	c.phase.Store(int32(PhasePersisting))
	if err := c.store.Save(ctx, merged); err != nil {
		return err
	}

	c.phase.Store(int32(PhaseUploading))
	body, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("sync: encode merged document: %w", err)
	}
	if err := c.remoteCall(func() error { return c.blobs.Write(ctx, docID, body) }); err != nil {
		// The local commit above stands; re-running the cycle re-uploads
		// the same merged state, which is safe because upload is a full
		// overwrite.
		return err
	}

	log.Info().
		Str("doc", c.docName).
		Bool("created_remote", created).
		Dur("took", time.Since(started)).
		Int("users", len(merged.Users)).
		Int("products", len(merged.Products)).
		Msg("sync: cycle complete")
	return nil
}

// locateOrCreate resolves the remote document id, creating the document
// from the current local snapshot when none exists yet.
func (c *Coordinator) locateOrCreate(ctx context.Context) (string, bool, error) {
	var id string
	err := c.remoteCall(func() error {
		found, ferr := c.blobs.Find(ctx, c.docName)
		if errors.Is(ferr, remote.ErrNotFound) {
			return nil // absence is an answer, not a transport failure
		}
		id = found
		return ferr
	})
	if err != nil {
		return "", false, err
	}
	if id != "" {
		return id, false, nil
	}

	local, err := c.store.Load(ctx)
	if err != nil {
		return "", false, err
	}
	initial, err := json.Marshal(local)
	if err != nil {
		return "", false, fmt.Errorf("sync: encode initial document: %w", err)
	}
	err = c.remoteCall(func() error {
		created, cerr := c.blobs.Create(ctx, c.docName, initial)
		id = created
		return cerr
	})
	if err != nil {
		return "", false, err
	}
	log.Info().Str("doc", c.docName).Msg("sync: created remote document")
	return id, true, nil
}

func (c *Coordinator) download(ctx context.Context, docID string) (*model.Dataset, error) {
	var body []byte
	err := c.remoteCall(func() error {
		data, rerr := c.blobs.Read(ctx, docID)
		body = data
		return rerr
	})
	if err != nil {
		return nil, err
	}

	ds := &model.Dataset{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, ds); err != nil {
			return nil, fmt.Errorf("sync: decode remote document: %w", err)
		}
	}
	ds.Normalize()
	return ds, nil
}

// remoteCall funnels every remote operation through the circuit breaker and
// maps failures onto the sync error taxonomy.
func (c *Coordinator) remoteCall(fn func() error) error {
	err := c.cb.Execute(fn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, remote.ErrUnauthorized):
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	default:
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
}
