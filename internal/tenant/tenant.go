// Package tenant implements the tenant registry (a key-value mapping from
// tenant-id to source URL and default timezone) as a thin layer over the
// state store, since the reference HTTP server and scheduler need a
// concrete implementation to be runnable end to end.
package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"calproxy/internal/store"
)

// ErrNotFound is returned when a tenant id has no registration.
var ErrNotFound = errors.New("tenant: not found")

// Tenant is the persisted record at key "tenant:<id>" (§6).
type Tenant struct {
	ID        string    `json:"-"`
	SourceURL string    `json:"sourceUrl"`
	CreatedAt time.Time `json:"createdAt"`
	Timezone  string    `json:"timezone,omitempty"`
}

func configKey(id string) string { return "tenant:" + id }

// Register persists a tenant's source URL and optional default timezone
// override.
func Register(ctx context.Context, st store.Store, t Tenant) error {
	if t.ID == "" {
		return errors.New("tenant: id is empty")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("tenant: marshal: %w", err)
	}
	return st.Put(ctx, configKey(t.ID), string(raw))
}

// Get loads a tenant's registration.
func Get(ctx context.Context, st store.Store, id string) (Tenant, error) {
	raw, ok, err := st.Get(ctx, configKey(id))
	if err != nil {
		return Tenant{}, fmt.Errorf("tenant: get: %w", err)
	}
	if !ok {
		return Tenant{}, ErrNotFound
	}
	var t Tenant
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return Tenant{}, fmt.Errorf("tenant: corrupt registration: %w", err)
	}
	t.ID = id
	return t, nil
}

// List returns every registered tenant id under the "tenant:" prefix.
func List(ctx context.Context, st store.Store) ([]string, error) {
	var ids []string
	cursor := ""
	for {
		keys, next, complete, err := st.List(ctx, "tenant:", cursor)
		if err != nil {
			return nil, fmt.Errorf("tenant: list: %w", err)
		}
		for _, k := range keys {
			ids = append(ids, strings.TrimPrefix(k, "tenant:"))
		}
		if complete {
			break
		}
		cursor = next
	}
	return ids, nil
}

// Teardown deletes the tenant-config key and every key under the tenant's
// own "<id>:" prefix (§6 Teardown).
func Teardown(ctx context.Context, st store.Store, id string) error {
	if err := st.Delete(ctx, configKey(id)); err != nil {
		return fmt.Errorf("tenant: delete config: %w", err)
	}

	prefix := id + ":"
	cursor := ""
	for {
		keys, next, complete, err := st.List(ctx, prefix, cursor)
		if err != nil {
			return fmt.Errorf("tenant: list for teardown: %w", err)
		}
		for _, k := range keys {
			if err := st.Delete(ctx, k); err != nil {
				return fmt.Errorf("tenant: delete %q: %w", k, err)
			}
		}
		if complete {
			break
		}
		cursor = next
	}
	return nil
}
