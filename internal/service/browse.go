// browse.go — листинг директорий со сверкой метаданных.
//
// Имя файла на диске — источник истины. При каждом листинге файлы
// с декодируемым именем сверяются с metastore: неизвестные получают
// запись «при первой встрече», у известных освежаются размер, путь и
// момент изменения. Недекодируемые имена отдаются как unmanaged
// элементы без счётчиков.
package service

import (
	"log/slog"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bigkaa/gofilehub/internal/domain/filetype"
	"github.com/bigkaa/gofilehub/internal/domain/model"
	"github.com/bigkaa/gofilehub/internal/storage/activitylog"
	"github.com/bigkaa/gofilehub/internal/storage/filestore"
	"github.com/bigkaa/gofilehub/internal/storage/metastore"
	"github.com/bigkaa/gofilehub/internal/storage/namecodec"
)

// Listing — результат листинга одной директории.
type Listing struct {
	// Path — нормализованный путь директории ("" = корень).
	Path string `json:"path"`

	// Parent — путь родительской директории, nil для корня.
	Parent *string `json:"parent"`

	Folders []model.FolderEntry `json:"folders"`
	Files   []model.FileEntry   `json:"files"`

	TotalFiles int    `json:"total_files"`
	TotalSize  int64  `json:"total_size"`
	Sort       string `json:"sort"`
}

// BrowseService — листинг директорий и разрешение файловых ссылок.
type BrowseService struct {
	files       *filestore.FileStore
	meta        *metastore.Store
	activity    *activitylog.Log
	defaultSort string
	logger      *slog.Logger

	// statEntry извлекает os.FileInfo элемента листинга.
	// Подменяется в тестах для проверки устойчивости к сбоям stat.
	statEntry func(os.DirEntry) (os.FileInfo, error)
}

// NewBrowseService создаёт сервис листинга.
func NewBrowseService(files *filestore.FileStore, meta *metastore.Store, activity *activitylog.Log, defaultSort string, logger *slog.Logger) *BrowseService {
	return &BrowseService{
		files:       files,
		meta:        meta,
		activity:    activity,
		defaultSort: defaultSort,
		logger:      logger.With(slog.String("component", "browse")),
		statEntry: func(e os.DirEntry) (os.FileInfo, error) {
			return e.Info()
		},
	}
}

// cleanRelPath нормализует относительный путь запроса: убирает
// "..", двойные слэши и ведущий слэш. Пустая строка — корень.
func cleanRelPath(p string) string {
	cleaned := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(cleaned, "/")
}

// ListDirectory возвращает нерекурсивный листинг директории dirPath
// с сортировкой sortKey (пустая строка — сортировка по умолчанию).
// Ошибки отдельных элементов логируются и не прерывают листинг;
// ошибки уровня директории прерывают запрос.
func (s *BrowseService) ListDirectory(dirPath, sortKey, ip string) (*Listing, *OpError) {
	rel := cleanRelPath(dirPath)

	if sortKey == "" {
		sortKey = s.defaultSort
	}
	switch sortKey {
	case "name", "size", "date":
	default:
		return nil, errValidation("недопустимый ключ сортировки %q, допустимые: name, size, date", sortKey)
	}

	entries, err := s.files.ListDir(rel)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errNotFound("директория %q не найдена", rel)
		}
		s.logger.Error("Ошибка чтения директории",
			slog.String("path", rel),
			slog.String("error", err.Error()),
		)
		return nil, errInternal("ошибка чтения директории %q", rel)
	}

	listing := &Listing{
		Path:    rel,
		Folders: []model.FolderEntry{},
		Files:   []model.FileEntry{},
		Sort:    sortKey,
	}
	if rel != "" {
		parent := cleanRelPath(path.Dir(rel))
		listing.Parent = &parent
	}

	for _, entry := range entries {
		name := entry.Name()

		// Скрытые и временные файлы не показываются
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
			continue
		}

		if entry.IsDir() {
			listing.Folders = append(listing.Folders, model.FolderEntry{
				Name: name,
				Path: path.Join(rel, name),
			})
			continue
		}

		info, err := s.statEntry(entry)
		if err != nil {
			s.logger.Warn("Ошибка stat элемента листинга, элемент пропущен",
				slog.String("path", path.Join(rel, name)),
				slog.String("error", err.Error()),
			)
			continue
		}

		fe := s.reconcileFile(name, rel, info)
		listing.Files = append(listing.Files, fe)
		listing.TotalSize += fe.Size
	}
	listing.TotalFiles = len(listing.Files)

	sortListing(listing, sortKey)

	s.activity.Record(model.ActivityRecord{
		Action:    model.ActionViewFolder,
		Filename:  path.Base("/" + rel),
		Path:      rel,
		IP:        ip,
		Timestamp: time.Now().UTC(),
	})

	return listing, nil
}

// reconcileFile строит элемент листинга для файла name в директории rel,
// синхронизируя metastore с состоянием диска.
func (s *BrowseService) reconcileFile(name, rel string, info os.FileInfo) model.FileEntry {
	dec, ok := namecodec.Decode(name)
	if !ok {
		// Unmanaged файл: попал в хранилище в обход системы.
		// Адресуется сырым именем, счётчик скачиваний недоступен.
		return buildEntry(&model.FileRecord{
			ID:           name,
			OriginalName: name,
			UploadedAt:   info.ModTime().UTC(),
			Size:         info.Size(),
			Category:     filetype.Classify(name),
			Path:         rel,
			StoragePath:  path.Join(rel, name),
			LastModified: info.ModTime().UTC(),
		}, false)
	}

	rec := s.meta.Get(dec.ID)
	if rec == nil {
		rec = s.firstSight(dec, rel, name, info)
	} else if rec.Size != info.Size() || rec.Path != rel || rec.StoragePath != path.Join(rel, name) {
		// Файл изменился или переехал в обход API — освежаем запись
		rec = s.meta.Update(dec.ID, func(r *model.FileRecord) {
			r.Size = info.Size()
			r.Path = rel
			r.StoragePath = path.Join(rel, name)
			r.LastModified = info.ModTime().UTC()
		})
	}

	return buildEntry(rec, true)
}

// firstSight создаёт запись метаданных для файла, известного только
// по имени на диске: счётчик скачиваний ноль, последнее обращение пусто.
func (s *BrowseService) firstSight(dec namecodec.Decoded, rel, name string, info os.FileInfo) *model.FileRecord {
	rec := &model.FileRecord{
		ID:           dec.ID,
		OriginalName: dec.OriginalName,
		UploadedAt:   time.UnixMilli(dec.UploadedAtMillis).UTC(),
		Size:         info.Size(),
		Category:     filetype.Classify(dec.OriginalName),
		Path:         rel,
		StoragePath:  path.Join(rel, name),
		Downloads:    0,
		LastAccessed: nil,
		LastModified: info.ModTime().UTC(),
	}
	s.meta.Put(rec)

	s.logger.Info("Восстановлена запись метаданных из имени файла",
		slog.String("file_id", rec.ID),
		slog.String("name", rec.OriginalName),
		slog.String("path", rel),
	)
	return rec
}

// buildEntry строит презентационный элемент листинга из записи метаданных.
func buildEntry(rec *model.FileRecord, managed bool) model.FileEntry {
	entry := model.FileEntry{
		ID:           rec.ID,
		Name:         rec.OriginalName,
		Path:         rec.Path,
		Size:         rec.Size,
		SizeHuman:    humanize.IBytes(uint64(rec.Size)),
		Category:     rec.Category,
		Icon:         filetype.Icon(rec.Category),
		Color:        filetype.Color(rec.Category),
		Editable:     filetype.Editable(rec.Category),
		Managed:      managed,
		UploadedAt:   rec.UploadedAt,
		LastModified: rec.LastModified,
		DownloadURL:  actionURL(rec.ID, rec.Path, "download"),
		PreviewURL:   actionURL(rec.ID, rec.Path, "preview"),
	}

	if managed {
		downloads := rec.Downloads
		entry.Downloads = &downloads
	}
	if entry.Editable {
		entry.EditURL = actionURL(rec.ID, rec.Path, "content")
	}
	return entry
}

// actionURL собирает URL действия над файлом. Для файлов вне корня
// директория передаётся query-параметром path.
func actionURL(id, dir, action string) string {
	u := "/api/v1/files/" + url.PathEscape(id) + "/" + action
	if dir != "" {
		u += "?path=" + url.QueryEscape(dir)
	}
	return u
}

// sortListing сортирует папки по имени, файлы — по выбранному ключу.
// name — по возрастанию; size и date — по убыванию; ничьи — по имени.
func sortListing(l *Listing, sortKey string) {
	sort.Slice(l.Folders, func(i, j int) bool {
		return strings.ToLower(l.Folders[i].Name) < strings.ToLower(l.Folders[j].Name)
	})

	files := l.Files
	byName := func(i, j int) bool {
		return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
	}

	switch sortKey {
	case "size":
		sort.Slice(files, func(i, j int) bool {
			if files[i].Size != files[j].Size {
				return files[i].Size > files[j].Size
			}
			return byName(i, j)
		})
	case "date":
		sort.Slice(files, func(i, j int) bool {
			if !files[i].UploadedAt.Equal(files[j].UploadedAt) {
				return files[i].UploadedAt.After(files[j].UploadedAt)
			}
			return byName(i, j)
		})
	default:
		sort.Slice(files, byName)
	}
}

// Entry строит презентационное представление файла по handle.
// StoragePath наружу не отдаётся — клиент оперирует идентификаторами.
func (s *BrowseService) Entry(h *Handle) model.FileEntry {
	if h.Managed() {
		return buildEntry(h.Record, true)
	}

	rec := &model.FileRecord{
		ID:           h.RawName,
		OriginalName: h.RawName,
		Category:     filetype.Classify(h.RawName),
		Path:         h.Dir,
		StoragePath:  h.StoragePath(),
	}
	if info, err := s.files.Stat(h.StoragePath()); err == nil {
		rec.Size = info.Size()
		rec.UploadedAt = info.ModTime().UTC()
		rec.LastModified = info.ModTime().UTC()
	}
	return buildEntry(rec, false)
}

// Locate разрешает идентификатор файла в Handle.
// Порядок: запись metastore по file_id → файл на диске в директории
// dirPath (декодируемое имя порождает запись «при первой встрече»,
// недекодируемое — unmanaged handle) → NOT_FOUND.
func (s *BrowseService) Locate(id, dirPath string) (*Handle, *OpError) {
	if id == "" || strings.ContainsAny(id, "/\\") {
		return nil, errValidation("недопустимый идентификатор файла %q", id)
	}
	rel := cleanRelPath(dirPath)

	if rec := s.meta.Get(id); rec != nil {
		return &Handle{Record: rec}, nil
	}

	// id может быть сырым именем файла на диске
	storagePath := path.Join(rel, id)
	info, err := s.files.Stat(storagePath)
	if err != nil || info.IsDir() {
		return nil, errNotFound("файл %q не найден", id)
	}

	if dec, ok := namecodec.Decode(id); ok {
		rec := s.meta.Get(dec.ID)
		if rec == nil {
			rec = s.firstSight(dec, rel, id, info)
		}
		return &Handle{Record: rec}, nil
	}

	return &Handle{RawName: id, Dir: rel}, nil
}
