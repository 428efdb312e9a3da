package documents

import (
	"context"
	"log/slog"
	"time"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/wizard"
	"github.com/google/uuid"
)

// DeleteAbandoned returns a session eviction hook that removes the uploads of
// a wizard that was never submitted. Submitted documents belong to the
// retailer record and are kept.
func DeleteAbandoned(store Store, logger *slog.Logger) func(id uuid.UUID, w *wizard.Wizard) {
	return func(id uuid.UUID, w *wizard.Wizard) {
		if w.Submitted() {
			return
		}

		docs := w.Draft().Documents
		if len(docs) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		for _, doc := range docs {
			if err := store.Delete(ctx, doc.Key); err != nil {
				logger.Warn("Failed to delete abandoned document",
					slog.String("session-id", id.String()),
					slog.String("key", doc.Key),
					slog.String("error", err.Error()),
				)
			}
		}

		logger.Info("Cleaned up abandoned session",
			slog.String("session-id", id.String()),
			slog.Int("documents", len(docs)),
		)
	}
}
