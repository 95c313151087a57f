// transfer.go — перемещающие операции: переименование, копирование,
// удаление файлов (одиночное и пакетное) и операции над папками.
//
// Переименование сохраняет идентификатор и момент загрузки — меняется
// только хвост закодированного имени. Копия — новый файл: свежий
// идентификатор и свежий момент загрузки.
package service

import (
	"log/slog"
	"path"
	"time"

	"github.com/bigkaa/gofilehub/internal/api/middleware"
	"github.com/bigkaa/gofilehub/internal/domain/filetype"
	"github.com/bigkaa/gofilehub/internal/domain/model"
	"github.com/bigkaa/gofilehub/internal/storage/activitylog"
	"github.com/bigkaa/gofilehub/internal/storage/filestore"
	"github.com/bigkaa/gofilehub/internal/storage/metastore"
	"github.com/bigkaa/gofilehub/internal/storage/namecodec"
)

// TransferService — переименование, копирование и удаление.
type TransferService struct {
	files    *filestore.FileStore
	meta     *metastore.Store
	activity *activitylog.Log
	browse   *BrowseService
	logger   *slog.Logger
}

// NewTransferService создаёт сервис перемещающих операций.
func NewTransferService(files *filestore.FileStore, meta *metastore.Store, activity *activitylog.Log, browse *BrowseService, logger *slog.Logger) *TransferService {
	return &TransferService{
		files:    files,
		meta:     meta,
		activity: activity,
		browse:   browse,
		logger:   logger.With(slog.String("component", "transfer")),
	}
}

// Rename переименовывает управляемый файл: идентификатор и момент
// загрузки сохраняются, категория пересчитывается по новому имени.
func (s *TransferService) Rename(h *Handle, newName, ip string) (*model.FileRecord, *OpError) {
	if !h.Managed() {
		return nil, errValidation("файл %q вне управления системой, переименование недоступно", h.DisplayName())
	}
	if newName == "" {
		return nil, errValidation("новое имя не задано")
	}

	rec := h.Record
	encoded := namecodec.Encode(rec.UploadedAt.UnixMilli(), rec.ID, newName)
	newStorage := path.Join(rec.Path, encoded)

	if newStorage != rec.StoragePath && s.files.FileExists(newStorage) {
		return nil, errValidation("файл с именем %q уже существует", namecodec.Sanitize(newName))
	}

	if err := s.files.Rename(rec.StoragePath, newStorage); err != nil {
		s.logger.Error("Ошибка переименования файла",
			slog.String("file_id", rec.ID),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("rename", "error").Inc()
		return nil, errInternal("ошибка переименования файла %q", rec.OriginalName)
	}

	updated := s.meta.Update(rec.ID, func(r *model.FileRecord) {
		r.OriginalName = namecodec.Sanitize(newName)
		r.Category = filetype.Classify(newName)
		r.StoragePath = newStorage
	})

	s.activity.Record(model.ActivityRecord{
		Action:    model.ActionRename,
		Filename:  updated.OriginalName,
		FileID:    rec.ID,
		Path:      rec.Path,
		IP:        ip,
		Timestamp: time.Now().UTC(),
	})
	middleware.OperationsTotal.WithLabelValues("rename", "ok").Inc()

	return updated, nil
}

// Copy создаёт копию управляемого файла в директории destPath.
// Копия получает свежий идентификатор и свежий момент загрузки.
func (s *TransferService) Copy(h *Handle, destPath, ip string) (*model.FileRecord, *OpError) {
	if !h.Managed() {
		return nil, errValidation("файл %q вне управления системой, копирование недоступно", h.DisplayName())
	}

	rel := cleanRelPath(destPath)
	if rel != "" {
		if info, err := s.files.Stat(rel); err != nil || !info.IsDir() {
			return nil, errNotFound("директория %q не найдена", rel)
		}
	}

	src := h.Record
	now := time.Now().UTC()
	id := newFileID()
	encoded := namecodec.Encode(now.UnixMilli(), id, src.OriginalName)
	dstStorage := path.Join(rel, encoded)

	size, err := s.files.Copy(src.StoragePath, dstStorage)
	if err != nil {
		s.logger.Error("Ошибка копирования файла",
			slog.String("file_id", src.ID),
			slog.String("dest", rel),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("copy", "error").Inc()
		return nil, errInternal("ошибка копирования файла %q", src.OriginalName)
	}

	rec := &model.FileRecord{
		ID:           id,
		OriginalName: src.OriginalName,
		UploadedAt:   now,
		Size:         size,
		Category:     src.Category,
		Path:         rel,
		StoragePath:  dstStorage,
		ContentType:  src.ContentType,
		Downloads:    0,
		LastAccessed: nil,
		LastModified: now,
	}
	s.meta.Put(rec)

	s.activity.Record(model.ActivityRecord{
		Action:    model.ActionCopy,
		Filename:  rec.OriginalName,
		FileID:    id,
		Path:      rel,
		IP:        ip,
		Timestamp: now,
	})
	middleware.OperationsTotal.WithLabelValues("copy", "ok").Inc()

	return rec, nil
}

// Delete удаляет файл с диска и его запись метаданных.
func (s *TransferService) Delete(h *Handle, ip string) *OpError {
	storagePath := h.StoragePath()
	if !s.files.FileExists(storagePath) {
		return errNotFound("файл %q не найден", h.DisplayName())
	}

	if err := s.files.DeleteFile(storagePath); err != nil {
		s.logger.Error("Ошибка удаления файла",
			slog.String("path", storagePath),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("delete", "error").Inc()
		return errInternal("ошибка удаления файла %q", h.DisplayName())
	}

	if h.Managed() {
		s.meta.Remove(h.Record.ID)
	}

	s.activity.Record(model.ActivityRecord{
		Action:    model.ActionDelete,
		Filename:  h.DisplayName(),
		FileID:    recordID(h),
		Path:      recordPath(h),
		IP:        ip,
		Timestamp: time.Now().UTC(),
	})
	middleware.OperationsTotal.WithLabelValues("delete", "ok").Inc()

	s.logger.Info("Файл удалён",
		slog.String("file_id", recordID(h)),
		slog.String("name", h.DisplayName()),
	)
	return nil
}

// BulkFailure — причина отказа по одному идентификатору пакета.
type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult — агрегированный результат пакетного удаления.
type BulkResult struct {
	Deleted []string      `json:"deleted"`
	Failed  []BulkFailure `json:"failed"`
}

// BulkDelete удаляет набор файлов. Отказ по одному идентификатору
// не прерывает пакет; результат агрегируется.
func (s *TransferService) BulkDelete(ids []string, dirPath, ip string) (*BulkResult, *OpError) {
	if len(ids) == 0 {
		return nil, errValidation("список идентификаторов пуст")
	}

	result := &BulkResult{Deleted: []string{}, Failed: []BulkFailure{}}
	for _, id := range ids {
		h, opErr := s.browse.Locate(id, dirPath)
		if opErr == nil {
			opErr = s.Delete(h, ip)
		}
		if opErr != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Error: opErr.Message})
			continue
		}
		result.Deleted = append(result.Deleted, id)
	}
	return result, nil
}

// CreateFolder создаёт папку name в директории dirPath.
// Имя папки проходит ту же санитизацию, что и имена файлов.
func (s *TransferService) CreateFolder(dirPath, name, ip string) (string, *OpError) {
	if name == "" {
		return "", errValidation("имя папки не задано")
	}

	rel := cleanRelPath(dirPath)
	folder := namecodec.Sanitize(name)
	folderPath := path.Join(rel, folder)

	if info, err := s.files.Stat(folderPath); err == nil && info.IsDir() {
		return "", errValidation("папка %q уже существует", folder)
	}

	if err := s.files.CreateFolder(folderPath); err != nil {
		s.logger.Error("Ошибка создания папки",
			slog.String("path", folderPath),
			slog.String("error", err.Error()),
		)
		return "", errInternal("ошибка создания папки %q", folder)
	}

	s.activity.Record(model.ActivityRecord{
		Action:    model.ActionCreateFolder,
		Filename:  folder,
		Path:      rel,
		IP:        ip,
		Timestamp: time.Now().UTC(),
	})

	return folderPath, nil
}

// RenameFolder переименовывает папку. Записи метаданных файлов внутри
// не трогаются: их пути освежит листинг либо фоновая сверка.
func (s *TransferService) RenameFolder(folderPath, newName, ip string) (string, *OpError) {
	if newName == "" {
		return "", errValidation("новое имя папки не задано")
	}

	rel := cleanRelPath(folderPath)
	if rel == "" {
		return "", errValidation("корневую директорию нельзя переименовать")
	}
	if info, err := s.files.Stat(rel); err != nil || !info.IsDir() {
		return "", errNotFound("папка %q не найдена", rel)
	}

	newRel := path.Join(cleanRelPath(path.Dir(rel)), namecodec.Sanitize(newName))
	if info, err := s.files.Stat(newRel); err == nil && info.IsDir() {
		return "", errValidation("папка %q уже существует", newRel)
	}

	if err := s.files.Rename(rel, newRel); err != nil {
		s.logger.Error("Ошибка переименования папки",
			slog.String("path", rel),
			slog.String("error", err.Error()),
		)
		return "", errInternal("ошибка переименования папки %q", rel)
	}

	s.activity.Record(model.ActivityRecord{
		Action:    model.ActionRename,
		Filename:  namecodec.Sanitize(newName),
		Path:      cleanRelPath(path.Dir(rel)),
		IP:        ip,
		Timestamp: time.Now().UTC(),
	})

	return newRel, nil
}

// DeleteFolder рекурсивно удаляет папку со всем содержимым.
// Осиротевшие записи метаданных вычищает фоновая сверка.
func (s *TransferService) DeleteFolder(folderPath, ip string) *OpError {
	rel := cleanRelPath(folderPath)
	if rel == "" {
		return errValidation("корневую директорию нельзя удалить")
	}
	if info, err := s.files.Stat(rel); err != nil || !info.IsDir() {
		return errNotFound("папка %q не найдена", rel)
	}

	if err := s.files.DeleteFolder(rel); err != nil {
		s.logger.Error("Ошибка удаления папки",
			slog.String("path", rel),
			slog.String("error", err.Error()),
		)
		return errInternal("ошибка удаления папки %q", rel)
	}

	s.activity.Record(model.ActivityRecord{
		Action:    model.ActionDeleteFolder,
		Filename:  path.Base(rel),
		Path:      cleanRelPath(path.Dir(rel)),
		IP:        ip,
		Timestamp: time.Now().UTC(),
	})

	s.logger.Info("Папка удалена", slog.String("path", rel))
	return nil
}
