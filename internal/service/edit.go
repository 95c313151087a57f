// edit.go — редактирование текстовых файлов в браузере.
// Редактируемость определяется категорией (text, code) — и управляемые,
// и unmanaged файлы редактируются одинаково.
package service

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bigkaa/gofilehub/internal/api/middleware"
	"github.com/bigkaa/gofilehub/internal/domain/filetype"
	"github.com/bigkaa/gofilehub/internal/domain/model"
	"github.com/bigkaa/gofilehub/internal/storage/activitylog"
	"github.com/bigkaa/gofilehub/internal/storage/filestore"
	"github.com/bigkaa/gofilehub/internal/storage/metastore"
)

// EditService — чтение и сохранение содержимого редактируемых файлов.
type EditService struct {
	files       *filestore.FileStore
	meta        *metastore.Store
	activity    *activitylog.Log
	maxFileSize int64
	logger      *slog.Logger
}

// NewEditService создаёт сервис редактирования.
func NewEditService(files *filestore.FileStore, meta *metastore.Store, activity *activitylog.Log, maxFileSize int64, logger *slog.Logger) *EditService {
	return &EditService{
		files:       files,
		meta:        meta,
		activity:    activity,
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("component", "edit")),
	}
}

// checkEditable возвращает ошибку для нередактируемых категорий.
func checkEditable(h *Handle) *OpError {
	cat := filetype.Classify(h.DisplayName())
	if !filetype.Editable(cat) {
		return errNotEditable("файл %q категории %s не редактируется", h.DisplayName(), cat)
	}
	return nil
}

// Content возвращает текстовое содержимое редактируемого файла
// и отмечает обращение (действие edit_view).
func (s *EditService) Content(h *Handle, ip string) (string, *OpError) {
	if opErr := checkEditable(h); opErr != nil {
		return "", opErr
	}

	f, err := s.files.ReadFile(h.StoragePath())
	if err != nil {
		return "", errNotFound("файл %q не найден", h.DisplayName())
	}
	defer f.Close()

	// Урезанное содержимое при последующем сохранении уничтожило бы
	// хвост файла, поэтому файлы сверх лимита не открываются вовсе.
	info, err := f.Stat()
	if err != nil {
		s.logger.Error("Ошибка stat файла для редактирования",
			slog.String("path", h.StoragePath()),
			slog.String("error", err.Error()),
		)
		return "", errInternal("ошибка чтения файла %q", h.DisplayName())
	}
	if info.Size() > s.maxFileSize {
		return "", errFileTooLarge("файл %q превышает лимит размера для редактирования", h.DisplayName())
	}

	data, err := io.ReadAll(f)
	if err != nil {
		s.logger.Error("Ошибка чтения файла для редактирования",
			slog.String("path", h.StoragePath()),
			slog.String("error", err.Error()),
		)
		return "", errInternal("ошибка чтения файла %q", h.DisplayName())
	}

	now := time.Now().UTC()
	if h.Managed() {
		s.meta.Update(h.Record.ID, func(rec *model.FileRecord) {
			rec.LastAccessed = &now
		})
	}

	s.activity.Record(model.ActivityRecord{
		Action:    model.ActionEditView,
		Filename:  h.DisplayName(),
		FileID:    recordID(h),
		Path:      recordPath(h),
		IP:        ip,
		Timestamp: now,
	})

	return string(data), nil
}

// Save атомарно перезаписывает содержимое редактируемого файла,
// освежает размер и момент изменения (действие edit).
func (s *EditService) Save(h *Handle, content, ip string) *OpError {
	if opErr := checkEditable(h); opErr != nil {
		return opErr
	}
	if int64(len(content)) > s.maxFileSize {
		return errFileTooLarge("содержимое превышает лимит размера файла")
	}

	storagePath := h.StoragePath()
	if !s.files.FileExists(storagePath) {
		return errNotFound("файл %q не найден", h.DisplayName())
	}

	size, err := s.files.SaveFile(strings.NewReader(content), filepath.Dir(storagePath), filepath.Base(storagePath))
	if err != nil {
		s.logger.Error("Ошибка сохранения содержимого",
			slog.String("path", storagePath),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("edit", "error").Inc()
		return errInternal("ошибка сохранения файла %q", h.DisplayName())
	}

	now := time.Now().UTC()
	if h.Managed() {
		s.meta.Update(h.Record.ID, func(rec *model.FileRecord) {
			rec.Size = size
			rec.LastModified = now
		})
	}

	s.activity.Record(model.ActivityRecord{
		Action:    model.ActionEdit,
		Filename:  h.DisplayName(),
		FileID:    recordID(h),
		Path:      recordPath(h),
		IP:        ip,
		Timestamp: now,
	})
	middleware.OperationsTotal.WithLabelValues("edit", "ok").Inc()

	s.logger.Info("Файл сохранён после редактирования",
		slog.String("file_id", recordID(h)),
		slog.String("name", h.DisplayName()),
		slog.Int64("size", size),
	)
	return nil
}
