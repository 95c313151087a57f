// files.go — обработчики операций над файлами:
// загрузка, метаданные, скачивание, предпросмотр, редактирование,
// переименование, копирование, удаление и публичные ссылки.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/gofilehub/internal/api/errors"
	"github.com/bigkaa/gofilehub/internal/service"
)

// locate разрешает file_id из URL в handle.
// Возвращает nil после записи ответа ошибки.
func (h *APIHandler) locate(w http.ResponseWriter, r *http.Request) *service.Handle {
	handle, opErr := h.browse.Locate(chi.URLParam(r, "file_id"), r.URL.Query().Get("path"))
	if opErr != nil {
		writeOpError(w, opErr)
		return nil
	}
	return handle
}

// UploadFiles — POST /api/v1/files/upload.
// Multipart-форма: части "files" (1..N), поле "path" — целевая директория.
func (h *APIHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.logger.Warn("Ошибка разбора multipart-запроса", slog.String("error", err.Error()))
		apierrors.ValidationError(w, "некорректный multipart-запрос")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	result, opErr := h.upload.Upload(
		r.MultipartForm.File["files"],
		r.FormValue("path"),
		clientIP(r),
	)
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	status := http.StatusCreated
	if result.Uploaded == 0 {
		// Ни один файл батча не принят
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

// GetFile — GET /api/v1/files/{file_id}.
// Метаданные одного файла в презентационном виде.
func (h *APIHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	handle := h.locate(w, r)
	if handle == nil {
		return
	}
	writeJSON(w, http.StatusOK, h.browse.Entry(handle))
}

// DownloadFile — GET /api/v1/files/{file_id}/download.
func (h *APIHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	handle := h.locate(w, r)
	if handle == nil {
		return
	}
	if opErr := h.download.Download(w, r, handle, clientIP(r)); opErr != nil {
		writeOpError(w, opErr)
	}
}

// PreviewFile — GET /api/v1/files/{file_id}/preview.
func (h *APIHandler) PreviewFile(w http.ResponseWriter, r *http.Request) {
	handle := h.locate(w, r)
	if handle == nil {
		return
	}
	if opErr := h.download.Preview(w, r, handle, clientIP(r)); opErr != nil {
		writeOpError(w, opErr)
	}
}

// GetFileContent — GET /api/v1/files/{file_id}/content.
// Текстовое содержимое редактируемого файла.
func (h *APIHandler) GetFileContent(w http.ResponseWriter, r *http.Request) {
	handle := h.locate(w, r)
	if handle == nil {
		return
	}

	content, opErr := h.edit.Content(handle, clientIP(r))
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"name":    handle.DisplayName(),
		"content": content,
	})
}

// SaveFileContent — PUT /api/v1/files/{file_id}/content.
// Тело: {"content": "..."}.
func (h *APIHandler) SaveFileContent(w http.ResponseWriter, r *http.Request) {
	handle := h.locate(w, r)
	if handle == nil {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if opErr := h.edit.Save(handle, req.Content, clientIP(r)); opErr != nil {
		writeOpError(w, opErr)
		return
	}

	// Размер в записи обновился — перечитываем
	if handle.Managed() {
		if rec := h.meta.Get(handle.Record.ID); rec != nil {
			handle = &service.Handle{Record: rec}
		}
	}
	writeJSON(w, http.StatusOK, h.browse.Entry(handle))
}

// RenameFile — POST /api/v1/files/{file_id}/rename.
// Тело: {"new_name": "..."}.
func (h *APIHandler) RenameFile(w http.ResponseWriter, r *http.Request) {
	handle := h.locate(w, r)
	if handle == nil {
		return
	}

	var req struct {
		NewName string `json:"new_name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, opErr := h.transfer.Rename(handle, req.NewName, clientIP(r))
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusOK, h.browse.Entry(&service.Handle{Record: rec}))
}

// CopyFile — POST /api/v1/files/{file_id}/copy.
// Тело: {"dest_path": "..."}.
func (h *APIHandler) CopyFile(w http.ResponseWriter, r *http.Request) {
	handle := h.locate(w, r)
	if handle == nil {
		return
	}

	var req struct {
		DestPath string `json:"dest_path"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, opErr := h.transfer.Copy(handle, req.DestPath, clientIP(r))
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusCreated, h.browse.Entry(&service.Handle{Record: rec}))
}

// ShareFile — POST /api/v1/files/{file_id}/share.
// Выпускает публичную ссылку на управляемый файл.
func (h *APIHandler) ShareFile(w http.ResponseWriter, r *http.Request) {
	handle := h.locate(w, r)
	if handle == nil {
		return
	}

	link, opErr := h.share.Create(handle, clientIP(r))
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusCreated, link)
}

// DeleteFile — DELETE /api/v1/files/{file_id}.
func (h *APIHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	handle := h.locate(w, r)
	if handle == nil {
		return
	}

	if opErr := h.transfer.Delete(handle, clientIP(r)); opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// BulkDeleteFiles — POST /api/v1/files/bulk-delete.
// Тело: {"ids": [...], "path": "..."}.
func (h *APIHandler) BulkDeleteFiles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs  []string `json:"ids"`
		Path string   `json:"path"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, opErr := h.transfer.BulkDelete(req.IDs, req.Path, clientIP(r))
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
