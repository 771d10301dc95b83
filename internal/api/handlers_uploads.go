/**
 * @description
 * This file contains the HTTP handler for proof-of-payment uploads. The file
 * is streamed to the media storage provider and only the resulting public URL
 * is returned; the client attaches that URL to its deposit submission.
 *
 * @dependencies
 * - context, log, mime/multipart, net/http: Standard Go libraries.
 */

package api

import (
	"context"
	"log"
	"mime/multipart"
	"net/http"
)

// ProofUploader uploads a proof-of-payment file and returns its public URL.
type ProofUploader interface {
	UploadProof(ctx context.Context, file multipart.File, filename string) (string, error)
}

// maxProofUploadBytes bounds the multipart form held in memory per request.
const maxProofUploadBytes = 10 << 20 // 10 MiB

// UploadProofHandler accepts a multipart form with a "file" field, stores it
// with the media provider, and returns the public URL.
func (h *FundingHandlers) UploadProofHandler(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.resolveProfileID(w, r)
	if !ok {
		return
	}

	if h.uploader == nil {
		h.writeError(w, http.StatusServiceUnavailable, "Uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProofUploadBytes)
	if err := r.ParseMultipartForm(maxProofUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Form field 'file' is required")
		return
	}
	defer file.Close()

	url, err := h.uploader.UploadProof(r.Context(), file, header.Filename)
	if err != nil {
		log.Printf("level=error component=api endpoint=upload_proof outcome=failed profile_id=%s err=%v", profileID, err)
		h.writeError(w, http.StatusBadGateway, "Upload failed")
		return
	}

	log.Printf("level=info component=api endpoint=upload_proof outcome=accepted profile_id=%s filename=%q", profileID, header.Filename)
	h.writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
