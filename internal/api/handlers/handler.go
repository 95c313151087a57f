// handler.go — основной обработчик API File Hub.
// Объединяет сервисы и вспомогательные функции; разбор запросов и
// формирование ответов живут здесь, бизнес-логика — в сервисном слое.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/gofilehub/internal/api/errors"
	"github.com/bigkaa/gofilehub/internal/service"
	"github.com/bigkaa/gofilehub/internal/storage/activitylog"
	"github.com/bigkaa/gofilehub/internal/storage/filestore"
	"github.com/bigkaa/gofilehub/internal/storage/metastore"
)

// DiskUsageFunc возвращает общий и доступный объём файловой системы
// по указанному пути. Платформозависимая реализация передаётся из main.
type DiskUsageFunc func(path string) (total, available uint64, err error)

// APIHandler — основной обработчик API File Hub.
type APIHandler struct {
	browse   *service.BrowseService
	upload   *service.UploadService
	download *service.DownloadService
	edit     *service.EditService
	transfer *service.TransferService
	share    *service.ShareService
	sweep    *service.SweepService

	files    *filestore.FileStore
	meta     *metastore.Store
	activity *activitylog.Log

	diskUsage DiskUsageFunc

	// maxRequestBytes — лимит разбора multipart-запроса в память.
	maxRequestBytes int64

	logger *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	browse *service.BrowseService,
	upload *service.UploadService,
	download *service.DownloadService,
	edit *service.EditService,
	transfer *service.TransferService,
	share *service.ShareService,
	sweep *service.SweepService,
	files *filestore.FileStore,
	meta *metastore.Store,
	activity *activitylog.Log,
	diskUsage DiskUsageFunc,
	maxRequestBytes int64,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		browse:          browse,
		upload:          upload,
		download:        download,
		edit:            edit,
		transfer:        transfer,
		share:           share,
		sweep:           sweep,
		files:           files,
		meta:            meta,
		activity:        activity,
		diskUsage:       diskUsage,
		maxRequestBytes: maxRequestBytes,
		logger:          logger.With(slog.String("component", "api_handler")),
	}
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeOpError записывает ошибку операции в стандартном формате.
func writeOpError(w http.ResponseWriter, opErr *service.OpError) {
	apierrors.WriteError(w, opErr.StatusCode, opErr.Code, opErr.Message)
}

// decodeJSON разбирает тело запроса в dst. Возвращает false и пишет
// ответ ошибки, если тело не является корректным JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса: "+err.Error())
		return false
	}
	return true
}

// clientIP определяет адрес клиента: первый адрес X-Forwarded-For,
// иначе host-часть RemoteAddr.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
