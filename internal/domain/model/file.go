// Пакет model — доменные модели File Hub.
// FileRecord — единая структура метаданных управляемого файла,
// используется как in-memory представление и как элемент metadata.json.
package model

import (
	"time"

	"github.com/bigkaa/gofilehub/internal/domain/filetype"
)

// FileRecord — метаданные одного управляемого файла.
type FileRecord struct {
	// ID — уникальный идентификатор файла (hex, без дефисов).
	// Генерируется один раз при загрузке и никогда не пересчитывается.
	ID string `json:"id"`

	// OriginalName — отображаемое имя файла, восстановленное из
	// закодированного имени на диске (то есть после санитизации).
	OriginalName string `json:"original_name"`

	// UploadedAt — момент загрузки (UTC). Закодирован в имени файла
	// как unix-миллисекунды и неизменяем.
	UploadedAt time.Time `json:"uploaded_at"`

	// Size — размер в байтах. Обновляется из stat при каждом листинге.
	Size int64 `json:"size"`

	// Category — грубая категория по расширению. Пересчитывается
	// при переименовании. Только презентация, не влияет на хранение.
	Category filetype.Category `json:"category"`

	// Path — директория файла относительно корня хранилища ("" = корень).
	Path string `json:"path"`

	// StoragePath — путь файла на диске относительно корня хранилища,
	// включая закодированное имя. Не возвращается в API.
	StoragePath string `json:"storage_path"`

	// ContentType — MIME-тип, определённый по содержимому при загрузке.
	// Пустая строка для записей, восстановленных из имени файла.
	ContentType string `json:"content_type,omitempty"`

	// Downloads — счётчик скачиваний. Увеличивается только операцией download.
	Downloads int64 `json:"downloads"`

	// LastAccessed — момент последнего обращения (preview, download,
	// открытие на редактирование). nil до первого обращения.
	LastAccessed *time.Time `json:"last_accessed"`

	// LastModified — момент последнего изменения содержимого
	// либо первого обнаружения записи.
	LastModified time.Time `json:"last_modified"`
}

// FolderEntry — элемент листинга: поддиректория.
// Папки не имеют собственных метаданных.
type FolderEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// FileEntry — элемент листинга: файл с производными полями для отображения.
// Не персистентный, пересчитывается при каждом чтении директории.
type FileEntry struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Path         string            `json:"path"`
	Size         int64             `json:"size"`
	SizeHuman    string            `json:"size_human"`
	Category     filetype.Category `json:"category"`
	Icon         string            `json:"icon"`
	Color        string            `json:"color"`
	Editable     bool              `json:"editable"`
	Managed      bool              `json:"managed"`
	UploadedAt   time.Time         `json:"uploaded_at"`
	LastModified time.Time         `json:"last_modified"`

	// Downloads — nil для unmanaged файлов (счётчик недоступен).
	Downloads *int64 `json:"downloads"`

	// URL действий. EditURL присутствует только для text/code категорий.
	DownloadURL string `json:"download_url"`
	PreviewURL  string `json:"preview_url"`
	EditURL     string `json:"edit_url,omitempty"`
}
