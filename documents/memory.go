package documents

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/wizard"
	gocache "github.com/patrickmn/go-cache"
)

var _ Store = &MemoryStore{}

// MemoryStore keeps uploads in process and forgets them after ttl. It backs
// LOCAL runs where there is no bucket.
type MemoryStore struct {
	c *gocache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(ttl, time.Minute)}
}

func (m *MemoryStore) Upload(ctx context.Context, file wizard.File) (wizard.Document, error) {
	if file.Content == nil {
		return wizard.Document{}, fmt.Errorf("no content for %q", file.Name)
	}

	b, err := io.ReadAll(file.Content)
	if err != nil {
		return wizard.Document{}, fmt.Errorf("failed to read %q: %w", file.Name, err)
	}

	key := objectKey("memory", file.Name)
	m.c.SetDefault(key, b)

	size := file.Size
	if size <= 0 {
		size = int64(len(b))
	}

	return wizard.Document{
		Name:        file.Name,
		Size:        size,
		ContentType: file.ContentType,
		Key:         key,
	}, nil
}

func (m *MemoryStore) Get(key string) ([]byte, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	b, _ := v.([]byte)
	return b, true
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.c.Delete(key)
	return nil
}
