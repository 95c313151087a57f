// activity.go — записи журнала действий.
package model

import "time"

// Action — вид действия в журнале.
type Action string

const (
	ActionUpload       Action = "upload"
	ActionDownload     Action = "download"
	ActionPreview      Action = "preview"
	ActionEditView     Action = "edit_view"
	ActionEdit         Action = "edit"
	ActionDelete       Action = "delete"
	ActionRename       Action = "rename"
	ActionCopy         Action = "copy"
	ActionShare        Action = "share"
	ActionCreateFolder Action = "create_folder"
	ActionDeleteFolder Action = "delete_folder"
	ActionViewFolder   Action = "view_folder"
)

// validActions — допустимые значения Action для валидации фильтра.
var validActions = map[Action]bool{
	ActionUpload:       true,
	ActionDownload:     true,
	ActionPreview:      true,
	ActionEditView:     true,
	ActionEdit:         true,
	ActionDelete:       true,
	ActionRename:       true,
	ActionCopy:         true,
	ActionShare:        true,
	ActionCreateFolder: true,
	ActionDeleteFolder: true,
	ActionViewFolder:   true,
}

// IsValidAction проверяет, что значение входит в перечень действий.
func IsValidAction(a Action) bool {
	return validActions[a]
}

// ActivityRecord — одна запись журнала. Создаётся при каждой
// мутирующей или просмотровой операции, никогда не изменяется,
// вытесняется с хвоста журнала при превышении лимита.
type ActivityRecord struct {
	// Action — вид действия.
	Action Action `json:"action"`

	// Filename — целевое имя (отображаемое имя файла или папки).
	Filename string `json:"filename"`

	// FileID — идентификатор файла (пусто для папок и unmanaged файлов).
	FileID string `json:"file_id,omitempty"`

	// Path — директория, в которой выполнялась операция.
	Path string `json:"path,omitempty"`

	// IP — адрес клиента.
	IP string `json:"ip"`

	// Timestamp — момент действия (UTC).
	Timestamp time.Time `json:"timestamp"`
}
