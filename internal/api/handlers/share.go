// share.go — обработчик публичной ссылки GET /api/v1/share/{token}.
// Единственный endpoint, доступный по токену вместо идентификатора.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/gofilehub/internal/api/errors"
	"github.com/bigkaa/gofilehub/internal/service"
)

// ResolveShare — скачивание файла по токену публичной ссылки.
func (h *APIHandler) ResolveShare(w http.ResponseWriter, r *http.Request) {
	fileID, opErr := h.share.Resolve(chi.URLParam(r, "token"))
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	rec := h.meta.Get(fileID)
	if rec == nil {
		// Файл удалён после выпуска ссылки
		apierrors.NotFound(w, "файл публичной ссылки больше не существует")
		return
	}

	handle := &service.Handle{Record: rec}
	if opErr := h.download.Download(w, r, handle, clientIP(r)); opErr != nil {
		writeOpError(w, opErr)
	}
}
