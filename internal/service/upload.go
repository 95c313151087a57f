// upload.go — приём multipart-загрузок.
//
// Батч обрабатывается пофайлово: отказ одного файла не прерывает
// остальные, результат агрегируется. Имя на диске собирается кодеком
// из момента загрузки, свежего идентификатора и оригинального имени.
package service

import (
	"log/slog"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/bigkaa/gofilehub/internal/api/middleware"
	"github.com/bigkaa/gofilehub/internal/domain/filetype"
	"github.com/bigkaa/gofilehub/internal/domain/model"
	"github.com/bigkaa/gofilehub/internal/storage/activitylog"
	"github.com/bigkaa/gofilehub/internal/storage/filestore"
	"github.com/bigkaa/gofilehub/internal/storage/metastore"
	"github.com/bigkaa/gofilehub/internal/storage/namecodec"
)

// UploadedFile — результат загрузки одного файла из батча.
type UploadedFile struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
	Size int64  `json:"size,omitempty"`

	// Status — "ok" либо "error".
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// UploadResult — агрегированный результат батча.
type UploadResult struct {
	Uploaded int            `json:"uploaded"`
	Failed   int            `json:"failed"`
	Files    []UploadedFile `json:"files"`
}

// UploadService — приём файлов.
type UploadService struct {
	files       *filestore.FileStore
	meta        *metastore.Store
	activity    *activitylog.Log
	maxFileSize int64
	maxFiles    int
	logger      *slog.Logger
}

// NewUploadService создаёт сервис загрузки.
func NewUploadService(files *filestore.FileStore, meta *metastore.Store, activity *activitylog.Log, maxFileSize int64, maxFiles int, logger *slog.Logger) *UploadService {
	return &UploadService{
		files:       files,
		meta:        meta,
		activity:    activity,
		maxFileSize: maxFileSize,
		maxFiles:    maxFiles,
		logger:      logger.With(slog.String("component", "upload")),
	}
}

// newFileID генерирует короткий hex-идентификатор файла.
// Первые 8 символов UUID — hex без дефисов, чего достаточно
// для формата имени (идентификатор не должен содержать дефис).
func newFileID() string {
	return uuid.New().String()[:8]
}

// Upload сохраняет батч файлов в директорию dirPath.
// Батч целиком отклоняется только при нарушении границ запроса
// (ноль файлов, превышение лимита количества); пофайловые отказы
// агрегируются в результат.
func (s *UploadService) Upload(headers []*multipart.FileHeader, dirPath, ip string) (*UploadResult, *OpError) {
	if len(headers) == 0 {
		return nil, errValidation("запрос не содержит файлов")
	}
	if len(headers) > s.maxFiles {
		return nil, errTooManyFiles("в запросе %d файлов, лимит %d", len(headers), s.maxFiles)
	}

	rel := cleanRelPath(dirPath)
	if rel != "" {
		if info, err := s.files.Stat(rel); err != nil || !info.IsDir() {
			return nil, errNotFound("директория %q не найдена", rel)
		}
	}

	result := &UploadResult{Files: make([]UploadedFile, 0, len(headers))}
	for _, header := range headers {
		uf := s.saveOne(header, rel, ip)
		if uf.Status == "ok" {
			result.Uploaded++
		} else {
			result.Failed++
		}
		result.Files = append(result.Files, uf)
	}

	return result, nil
}

// saveOne сохраняет один файл батча.
func (s *UploadService) saveOne(header *multipart.FileHeader, rel, ip string) UploadedFile {
	name := path.Base(strings.ReplaceAll(header.Filename, "\\", "/"))

	if header.Size > s.maxFileSize {
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		return UploadedFile{
			Name:   name,
			Status: "error",
			Error:  "файл превышает лимит размера",
		}
	}

	src, err := header.Open()
	if err != nil {
		s.logger.Error("Ошибка открытия части multipart",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		return UploadedFile{Name: name, Status: "error", Error: "ошибка чтения файла из запроса"}
	}
	defer src.Close()

	now := time.Now().UTC()
	id := newFileID()
	encoded := namecodec.Encode(now.UnixMilli(), id, name)

	size, err := s.files.SaveFile(src, rel, encoded)
	if err != nil {
		s.logger.Error("Ошибка сохранения файла",
			slog.String("name", name),
			slog.String("path", rel),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		return UploadedFile{Name: name, Status: "error", Error: "ошибка сохранения файла"}
	}

	storagePath := path.Join(rel, encoded)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		// Клиент не указал тип — определяем по содержимому
		if full, rerr := s.files.Resolve(storagePath); rerr == nil {
			if mt, derr := mimetype.DetectFile(full); derr == nil {
				contentType = mt.String()
			}
		}
	}

	rec := &model.FileRecord{
		ID:           id,
		OriginalName: namecodec.Sanitize(name),
		UploadedAt:   now,
		Size:         size,
		Category:     filetype.Classify(name),
		Path:         rel,
		StoragePath:  storagePath,
		ContentType:  contentType,
		Downloads:    0,
		LastAccessed: nil,
		LastModified: now,
	}
	s.meta.Put(rec)

	s.activity.Record(model.ActivityRecord{
		Action:    model.ActionUpload,
		Filename:  rec.OriginalName,
		FileID:    id,
		Path:      rel,
		IP:        ip,
		Timestamp: now,
	})
	middleware.OperationsTotal.WithLabelValues("upload", "ok").Inc()

	s.logger.Info("Файл загружен",
		slog.String("file_id", id),
		slog.String("name", rec.OriginalName),
		slog.String("path", rel),
		slog.Int64("size", size),
	)

	return UploadedFile{Name: rec.OriginalName, ID: id, Size: size, Status: "ok"}
}
