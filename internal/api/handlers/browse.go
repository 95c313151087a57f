// browse.go — обработчик GET /api/v1/browse.
package handlers

import "net/http"

// Browse — листинг директории.
// Query-параметры: path (директория, по умолчанию корень),
// sort (name|size|date, по умолчанию из конфигурации).
func (h *APIHandler) Browse(w http.ResponseWriter, r *http.Request) {
	listing, opErr := h.browse.ListDirectory(
		r.URL.Query().Get("path"),
		r.URL.Query().Get("sort"),
		clientIP(r),
	)
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}
