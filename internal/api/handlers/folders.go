// folders.go — обработчики операций над папками.
package handlers

import "net/http"

// CreateFolder — POST /api/v1/folders.
// Тело: {"path": "...", "name": "..."}.
func (h *APIHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	created, opErr := h.transfer.CreateFolder(req.Path, req.Name, clientIP(r))
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"path": created})
}

// RenameFolder — POST /api/v1/folders/rename.
// Тело: {"path": "...", "new_name": "..."}.
func (h *APIHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path    string `json:"path"`
		NewName string `json:"new_name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	newPath, opErr := h.transfer.RenameFolder(req.Path, req.NewName, clientIP(r))
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"path": newPath})
}

// DeleteFolder — DELETE /api/v1/folders?path=...
func (h *APIHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if opErr := h.transfer.DeleteFolder(r.URL.Query().Get("path"), clientIP(r)); opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
