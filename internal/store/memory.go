package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/shoyaib4265a/st-shop-poss/internal/model"
)

// MemoryStore is an in-memory Store with the same seeding and versioning
// behavior as the SQLite one. Used by tests and by ephemeral (throwaway)
// installations; nothing survives the process.
type MemoryStore struct {
	mu       sync.Mutex
	seed     Seed
	body     []byte
	version  int64
	deviceID string
	session  *model.Session
}

var _ Store = (*MemoryStore)(nil)

func NewMemory(seed Seed) *MemoryStore {
	return &MemoryStore{seed: seed}
}

func (m *MemoryStore) Load(_ context.Context) (*model.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.body == nil {
		cost := m.seed.BcryptCost
		if cost == 0 {
			cost = bcrypt.MinCost // tests favor speed over hardness
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(m.seed.AdminPIN), cost)
		if err != nil {
			return nil, err
		}
		d := &model.Dataset{
			Users: []model.Credential{{
				Phone:   m.seed.AdminPhone,
				PINHash: string(hash),
				Role:    model.RoleAdmin,
				Devices: []string{},
			}},
		}
		d.Normalize()
		if err := m.saveLocked(d); err != nil {
			return nil, err
		}
	}

	var d model.Dataset
	if err := json.Unmarshal(m.body, &d); err != nil {
		return nil, err
	}
	d.Normalize()
	return &d, nil
}

func (m *MemoryStore) Save(_ context.Context, d *model.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(d)
}

func (m *MemoryStore) saveLocked(d *model.Dataset) error {
	d.Normalize()
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}
	m.body = body
	m.version++
	return nil
}

func (m *MemoryStore) Version(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version, nil
}

func (m *MemoryStore) DeviceID(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deviceID == "" {
		m.deviceID = "dev_" + uuid.NewString()
	}
	return m.deviceID, nil
}

// SetDeviceID pins the fingerprint — tests use it to simulate a specific
// installation.
func (m *MemoryStore) SetDeviceID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deviceID = id
}

func (m *MemoryStore) Session(_ context.Context) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

func (m *MemoryStore) SetSession(_ context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	return nil
}

func (m *MemoryStore) ClearSession(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

func (m *MemoryStore) Close() error { return nil }
