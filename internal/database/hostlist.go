package database

import (
	"context"

	"github.com/nao1215/peermark/internal/hostgate"
)

// HostListStore adapts a SettingsDB key to hostgate.Store.
type HostListStore struct {
	db  *SettingsDB
	key string
}

var _ hostgate.Store = (*HostListStore)(nil)

// HostList returns a hostgate.Store persisting under key.
// Pass DisabledHostsKey for the standard location.
func (s *SettingsDB) HostList(key string) *HostListStore {
	return &HostListStore{db: s, key: key}
}

// Load implements hostgate.Store. A missing key loads as "".
func (h *HostListStore) Load(ctx context.Context) (string, error) {
	value, _, err := h.db.Get(ctx, h.key)
	return value, err
}

// Save implements hostgate.Store.
func (h *HostListStore) Save(ctx context.Context, value string) error {
	return h.db.Set(ctx, h.key, value)
}
