package wizard

import (
	"context"
	"io"
)

// File is a document as received from the user, before upload.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Content     io.Reader
}

// Uploader stores file content somewhere outside the wizard and returns the
// handle to keep in the draft. It must not inspect or reject content.
type Uploader interface {
	Upload(ctx context.Context, file File) (Document, error)
}

// AddDocuments uploads files in order and appends the resulting handles once
// every upload has resolved. If any upload fails nothing from this call is
// appended; handles of files uploaded before the failure are returned in the
// slice so the caller can clean them up.
func (w *Wizard) AddDocuments(ctx context.Context, uploader Uploader, files []File) ([]Document, error) {
	if w.submitted {
		return nil, NewAlreadySubmittedError()
	}
	if len(files) == 0 {
		return nil, nil
	}

	uploaded := make([]Document, 0, len(files))
	for _, f := range files {
		doc, err := uploader.Upload(ctx, f)
		if err != nil {
			return uploaded, NewUploadFailedError(f.Name, err)
		}
		uploaded = append(uploaded, doc)
	}

	w.draft.Documents = append(w.draft.Documents, uploaded...)

	return uploaded, nil
}

// RemoveDocument deletes the document at index. Out of range indexes are
// ignored and report ok=false.
func (w *Wizard) RemoveDocument(index int) (Document, bool) {
	if w.submitted || index < 0 || index >= len(w.draft.Documents) {
		return Document{}, false
	}

	removed := w.draft.Documents[index]
	w.draft.Documents = append(w.draft.Documents[:index:index], w.draft.Documents[index+1:]...)

	return removed, true
}
