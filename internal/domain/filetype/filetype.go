// Пакет filetype — классификация файлов по расширению.
//
// Категория — закрытое перечисление, используемое исключительно для
// презентации (иконка, цвет, признак редактируемости). Классификация
// никогда не влияет на хранение или идентичность файла.
package filetype

import (
	"path/filepath"
	"strings"
)

// Category — грубая категория файла.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryPDF      Category = "pdf"
	CategoryDocument Category = "document"
	CategoryText     Category = "text"
	CategoryCode     Category = "code"
	CategoryArchive  Category = "archive"
	CategoryAudio    Category = "audio"
	CategoryVideo    Category = "video"
	CategoryOther    Category = "other"
)

// categoryByExt — статическая таблица расширение → категория.
// Расширения без точки, в нижнем регистре.
var categoryByExt = map[string]Category{
	// Изображения
	"jpg": CategoryImage, "jpeg": CategoryImage, "png": CategoryImage,
	"gif": CategoryImage, "bmp": CategoryImage, "webp": CategoryImage,
	"svg": CategoryImage, "ico": CategoryImage, "tiff": CategoryImage,

	// PDF
	"pdf": CategoryPDF,

	// Офисные документы
	"doc": CategoryDocument, "docx": CategoryDocument,
	"xls": CategoryDocument, "xlsx": CategoryDocument,
	"ppt": CategoryDocument, "pptx": CategoryDocument,
	"odt": CategoryDocument, "ods": CategoryDocument, "odp": CategoryDocument,
	"rtf": CategoryDocument,

	// Текст
	"txt": CategoryText, "md": CategoryText, "log": CategoryText,
	"csv": CategoryText, "ini": CategoryText, "conf": CategoryText,

	// Код
	"go": CategoryCode, "py": CategoryCode, "js": CategoryCode,
	"ts": CategoryCode, "html": CategoryCode, "css": CategoryCode,
	"json": CategoryCode, "yaml": CategoryCode, "yml": CategoryCode,
	"xml": CategoryCode, "sh": CategoryCode, "sql": CategoryCode,
	"c": CategoryCode, "h": CategoryCode, "cpp": CategoryCode,
	"java": CategoryCode, "rs": CategoryCode, "rb": CategoryCode,
	"php": CategoryCode, "toml": CategoryCode,

	// Архивы
	"zip": CategoryArchive, "tar": CategoryArchive, "gz": CategoryArchive,
	"bz2": CategoryArchive, "xz": CategoryArchive, "rar": CategoryArchive,
	"7z": CategoryArchive,

	// Аудио
	"mp3": CategoryAudio, "wav": CategoryAudio, "ogg": CategoryAudio,
	"flac": CategoryAudio, "aac": CategoryAudio, "m4a": CategoryAudio,

	// Видео
	"mp4": CategoryVideo, "mkv": CategoryVideo, "avi": CategoryVideo,
	"mov": CategoryVideo, "webm": CategoryVideo, "wmv": CategoryVideo,
}

// iconByCategory — токены иконок для фронтенда.
var iconByCategory = map[Category]string{
	CategoryImage:    "image",
	CategoryPDF:      "file-pdf",
	CategoryDocument: "file-text",
	CategoryText:     "file-lines",
	CategoryCode:     "file-code",
	CategoryArchive:  "file-archive",
	CategoryAudio:    "file-audio",
	CategoryVideo:    "file-video",
	CategoryOther:    "file",
}

// colorByCategory — цветовые токены для фронтенда.
var colorByCategory = map[Category]string{
	CategoryImage:    "green",
	CategoryPDF:      "red",
	CategoryDocument: "blue",
	CategoryText:     "gray",
	CategoryCode:     "purple",
	CategoryArchive:  "orange",
	CategoryAudio:    "teal",
	CategoryVideo:    "indigo",
	CategoryOther:    "slate",
}

// Classify возвращает категорию файла по расширению имени.
// Расширение — подстрока после последней точки, без учёта регистра.
// Неизвестное или отсутствующее расширение → CategoryOther.
func Classify(filename string) Category {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return CategoryOther
	}
	if cat, ok := categoryByExt[ext]; ok {
		return cat
	}
	return CategoryOther
}

// Icon возвращает токен иконки для категории.
func Icon(cat Category) string {
	if icon, ok := iconByCategory[cat]; ok {
		return icon
	}
	return iconByCategory[CategoryOther]
}

// Color возвращает цветовой токен для категории.
func Color(cat Category) string {
	if color, ok := colorByCategory[cat]; ok {
		return color
	}
	return colorByCategory[CategoryOther]
}

// Editable возвращает true для категорий, доступных для
// редактирования в браузере (text и code).
func Editable(cat Category) bool {
	return cat == CategoryText || cat == CategoryCode
}
