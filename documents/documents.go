// Package documents stores the files a business uploads during registration.
// Content is opaque: nothing here inspects or rejects it.
package documents

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/wizard"
	"github.com/google/uuid"
)

// Store uploads documents and deletes them by key.
type Store interface {
	wizard.Uploader
	Delete(ctx context.Context, key string) error
}

// objectKey places every upload under its own random directory so two files
// with the same name never collide.
func objectKey(prefix, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "document"
	}

	key := fmt.Sprintf("%s/%s", uuid.New(), base)
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}
