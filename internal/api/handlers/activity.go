// activity.go — обработчик GET /api/v1/activity.
package handlers

import (
	"net/http"
	"strconv"

	apierrors "github.com/bigkaa/gofilehub/internal/api/errors"
	"github.com/bigkaa/gofilehub/internal/domain/model"
)

// GetActivity — журнал действий, новые записи первыми.
// Query-параметры: action (фильтр по виду действия), limit.
func (h *APIHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	action := model.Action(r.URL.Query().Get("action"))
	if action != "" && !model.IsValidAction(action) {
		apierrors.ValidationError(w, "неизвестное действие "+strconv.Quote(string(action)))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			apierrors.ValidationError(w, "некорректный limit "+strconv.Quote(raw))
			return
		}
		limit = n
	}

	entries := h.activity.List(action, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"total":   len(entries),
		"entries": entries,
	})
}
