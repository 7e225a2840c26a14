package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/Dan9191/resource-service/internal/apperrors"
	"github.com/Dan9191/resource-service/internal/service"
)

// ListResources returns resources joined with owner and category names
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resources.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resources)
}

// CreateResource handles a multipart upload with file, user_id, category_id
// and an optional title
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	upload, closeFile, err := h.parseUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer closeFile()

	res, err := h.resources.Create(r.Context(), service.CreateResourceInput{
		Title:      r.PostForm.Get("title"),
		UserID:     r.PostForm.Get("user_id"),
		CategoryID: r.PostForm.Get("category_id"),
		File:       upload,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// UpdateResource replaces only the supplied fields and, when a file is
// attached, the stored file
func (h *Handler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	upload, closeFile, err := h.parseUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer closeFile()

	res, err := h.resources.Update(r.Context(), id, service.UpdateResourceInput{
		Title:      formValue(r, "title"),
		UserID:     formValue(r, "user_id"),
		CategoryID: formValue(r, "category_id"),
		File:       upload,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteResource removes the row and its stored file
func (h *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.resources.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "resource deleted"})
}

// parseUpload parses a multipart or urlencoded body and opens the "file"
// part if one was sent. The returned close func is always safe to call.
func (h *Handler) parseUpload(w http.ResponseWriter, r *http.Request) (*service.FileUpload, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	err := r.ParseMultipartForm(h.maxUpload)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, noop, apperrors.InvalidInput("request body too large")
		}
		return nil, noop, apperrors.InvalidInput("invalid form data")
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, apperrors.InvalidInput("invalid file upload")
	}

	return &service.FileUpload{
		Name:        header.Filename,
		ContentType: contentType(header),
		Size:        header.Size,
		Reader:      file,
	}, func() { file.Close() }, nil
}

func contentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// formValue returns a pointer to a submitted form field, or nil when the
// field was not sent at all
func formValue(r *http.Request, key string) *string {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
