// download.go — отдача содержимого файлов: скачивание и предпросмотр.
// Отдача идёт через http.ServeContent — Range-запросы и условные
// заголовки обрабатываются стандартной библиотекой.
package service

import (
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/bigkaa/gofilehub/internal/api/middleware"
	"github.com/bigkaa/gofilehub/internal/domain/model"
	"github.com/bigkaa/gofilehub/internal/storage/activitylog"
	"github.com/bigkaa/gofilehub/internal/storage/filestore"
	"github.com/bigkaa/gofilehub/internal/storage/metastore"
)

// DownloadService — отдача содержимого файлов.
type DownloadService struct {
	files    *filestore.FileStore
	meta     *metastore.Store
	activity *activitylog.Log
	logger   *slog.Logger
}

// NewDownloadService создаёт сервис отдачи файлов.
func NewDownloadService(files *filestore.FileStore, meta *metastore.Store, activity *activitylog.Log, logger *slog.Logger) *DownloadService {
	return &DownloadService{
		files:    files,
		meta:     meta,
		activity: activity,
		logger:   logger.With(slog.String("component", "download")),
	}
}

// Download отдаёт файл как вложение (Content-Disposition: attachment),
// увеличивает счётчик скачиваний и отмечает обращение.
func (s *DownloadService) Download(w http.ResponseWriter, r *http.Request, h *Handle, ip string) *OpError {
	if opErr := s.serve(w, r, h, "attachment"); opErr != nil {
		middleware.OperationsTotal.WithLabelValues("download", "error").Inc()
		return opErr
	}

	now := time.Now().UTC()
	if h.Managed() {
		s.meta.Update(h.Record.ID, func(rec *model.FileRecord) {
			rec.Downloads++
			rec.LastAccessed = &now
		})
	}

	s.activity.Record(model.ActivityRecord{
		Action:    model.ActionDownload,
		Filename:  h.DisplayName(),
		FileID:    recordID(h),
		Path:      recordPath(h),
		IP:        ip,
		Timestamp: now,
	})
	middleware.OperationsTotal.WithLabelValues("download", "ok").Inc()
	return nil
}

// Preview отдаёт файл для отображения в браузере (inline),
// отмечает обращение без увеличения счётчика скачиваний.
func (s *DownloadService) Preview(w http.ResponseWriter, r *http.Request, h *Handle, ip string) *OpError {
	if opErr := s.serve(w, r, h, "inline"); opErr != nil {
		middleware.OperationsTotal.WithLabelValues("preview", "error").Inc()
		return opErr
	}

	now := time.Now().UTC()
	if h.Managed() {
		s.meta.Update(h.Record.ID, func(rec *model.FileRecord) {
			rec.LastAccessed = &now
		})
	}

	s.activity.Record(model.ActivityRecord{
		Action:    model.ActionPreview,
		Filename:  h.DisplayName(),
		FileID:    recordID(h),
		Path:      recordPath(h),
		IP:        ip,
		Timestamp: now,
	})
	middleware.OperationsTotal.WithLabelValues("preview", "ok").Inc()
	return nil
}

// serve открывает файл и отдаёт его через http.ServeContent
// с заголовками Content-Type и Content-Disposition.
func (s *DownloadService) serve(w http.ResponseWriter, r *http.Request, h *Handle, disposition string) *OpError {
	f, err := s.files.ReadFile(h.StoragePath())
	if err != nil {
		return errNotFound("файл %q не найден", h.DisplayName())
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.logger.Error("Ошибка stat при отдаче файла",
			slog.String("path", h.StoragePath()),
			slog.String("error", err.Error()),
		)
		return errInternal("ошибка чтения файла %q", h.DisplayName())
	}

	w.Header().Set("Content-Type", contentTypeFor(h))
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType(disposition, map[string]string{"filename": h.DisplayName()}))

	http.ServeContent(w, r, h.DisplayName(), info.ModTime(), f)
	return nil
}

// contentTypeFor выбирает Content-Type: сохранённый при загрузке тип,
// иначе по расширению, иначе octet-stream.
func contentTypeFor(h *Handle) string {
	if h.Record != nil && h.Record.ContentType != "" {
		return h.Record.ContentType
	}
	if ct := mime.TypeByExtension(filepath.Ext(h.DisplayName())); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// recordID — идентификатор для журнала: пусто для unmanaged файлов.
func recordID(h *Handle) string {
	if h.Record != nil {
		return h.Record.ID
	}
	return ""
}

// recordPath — директория файла для журнала.
func recordPath(h *Handle) string {
	if h.Record != nil {
		return h.Record.Path
	}
	return h.Dir
}
