package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/gofilehub/internal/service"
	"github.com/bigkaa/gofilehub/internal/storage/activitylog"
	"github.com/bigkaa/gofilehub/internal/storage/filestore"
	"github.com/bigkaa/gofilehub/internal/storage/metastore"
)

// newTestRouter собирает полный обработчик над временной директорией
// и chi-роутер с маршрутами API.
func newTestRouter(t *testing.T) (*chi.Mux, *metastore.Store, *filestore.FileStore) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	files, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("Ошибка создания filestore: %v", err)
	}
	meta, err := metastore.New("", logger)
	if err != nil {
		t.Fatalf("Ошибка создания metastore: %v", err)
	}
	activity, err := activitylog.New("", 100, logger)
	if err != nil {
		t.Fatalf("Ошибка создания activitylog: %v", err)
	}

	browseSvc := service.NewBrowseService(files, meta, activity, "name", logger)
	uploadSvc := service.NewUploadService(files, meta, activity, 1<<20, 10, logger)
	downloadSvc := service.NewDownloadService(files, meta, activity, logger)
	editSvc := service.NewEditService(files, meta, activity, 1<<20, logger)
	transferSvc := service.NewTransferService(files, meta, activity, browseSvc, logger)
	shareSvc := service.NewShareService("test-secret", time.Hour, activity, logger)
	sweepSvc := service.NewSweepService(files, meta, activity, time.Hour, logger)

	diskUsage := func(string) (uint64, uint64, error) { return 100, 40, nil }

	api := NewAPIHandler(
		browseSvc, uploadSvc, downloadSvc, editSvc, transferSvc, shareSvc, sweepSvc,
		files, meta, activity, diskUsage, 10<<20, logger,
	)

	r := chi.NewRouter()
	r.Get("/api/v1/browse", api.Browse)
	r.Post("/api/v1/files/upload", api.UploadFiles)
	r.Post("/api/v1/files/bulk-delete", api.BulkDeleteFiles)
	r.Get("/api/v1/files/{file_id}", api.GetFile)
	r.Delete("/api/v1/files/{file_id}", api.DeleteFile)
	r.Get("/api/v1/files/{file_id}/download", api.DownloadFile)
	r.Get("/api/v1/files/{file_id}/content", api.GetFileContent)
	r.Put("/api/v1/files/{file_id}/content", api.SaveFileContent)
	r.Post("/api/v1/files/{file_id}/rename", api.RenameFile)
	r.Post("/api/v1/files/{file_id}/share", api.ShareFile)
	r.Post("/api/v1/folders", api.CreateFolder)
	r.Delete("/api/v1/folders", api.DeleteFolder)
	r.Post("/api/v1/folders/rename", api.RenameFolder)
	r.Get("/api/v1/share/{token}", api.ResolveShare)
	r.Get("/api/v1/activity", api.GetActivity)
	r.Get("/api/v1/info", api.GetInfo)
	r.Post("/api/v1/maintenance/sweep", api.TriggerSweep)
	r.Get("/health/live", api.HealthLive)
	r.Get("/health/ready", api.HealthReady)

	return r, meta, files
}

// uploadTestFile загружает один файл через API и возвращает его id.
func uploadTestFile(t *testing.T, router *chi.Mux, name, content string) string {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", name)
	if err != nil {
		t.Fatalf("Ошибка формы: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("Ошибка записи формы: %v", err)
	}
	_ = w.Close()

	req := httptest.NewRequest("POST", "/api/v1/files/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Загрузка: хотели 201, получили %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Files []struct {
			ID string `json:"id"`
		} `json:"files"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Ошибка разбора ответа: %v", err)
	}
	return result.Files[0].ID
}

func TestUploadThenBrowse(t *testing.T) {
	router, _, _ := newTestRouter(t)
	id := uploadTestFile(t, router, "notes.txt", "привет")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/browse", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Browse: хотели 200, получили %d", rec.Code)
	}

	var listing struct {
		Files []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"files"`
		TotalFiles int `json:"total_files"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("Ошибка разбора листинга: %v", err)
	}
	if listing.TotalFiles != 1 || listing.Files[0].ID != id {
		t.Errorf("Листинг не содержит загруженный файл: %+v", listing)
	}
}

func TestDownloadRoundTrip(t *testing.T) {
	router, _, _ := newTestRouter(t)
	id := uploadTestFile(t, router, "data.txt", "содержимое")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/files/"+id+"/download", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Download: хотели 200, получили %d", rec.Code)
	}
	if rec.Body.String() != "содержимое" {
		t.Errorf("Тело: хотели %q, получили %q", "содержимое", rec.Body.String())
	}
}

func TestEditRoundTrip(t *testing.T) {
	router, _, _ := newTestRouter(t)
	id := uploadTestFile(t, router, "config.yaml", "a: 1")

	body := bytes.NewBufferString(`{"content": "a: 2"}`)
	req := httptest.NewRequest("PUT", "/api/v1/files/"+id+"/content", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Сохранение: хотели 200, получили %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/files/"+id+"/content", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Чтение: хотели 200, получили %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "a: 2") {
		t.Errorf("Содержимое не обновлено: %s", rec.Body.String())
	}
}

func TestShareRoundTripHTTP(t *testing.T) {
	router, _, _ := newTestRouter(t)
	id := uploadTestFile(t, router, "shared.txt", "публичное")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/files/"+id+"/share", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("Share: хотели 201, получили %d: %s", rec.Code, rec.Body.String())
	}

	var link struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &link); err != nil {
		t.Fatalf("Ошибка разбора ответа: %v", err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/share/"+link.Token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Скачивание по ссылке: хотели 200, получили %d", rec.Code)
	}
	if rec.Body.String() != "публичное" {
		t.Errorf("Тело: хотели %q, получили %q", "публичное", rec.Body.String())
	}

	// Невалидный токен
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/share/bad-token", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("Невалидный токен: хотели 403, получили %d", rec.Code)
	}
}

func TestDeleteFileHTTP(t *testing.T) {
	router, meta, _ := newTestRouter(t)
	id := uploadTestFile(t, router, "gone.txt", "x")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/v1/files/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Delete: хотели 200, получили %d", rec.Code)
	}
	if meta.Get(id) != nil {
		t.Error("Запись должна быть удалена")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/v1/files/"+id, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Повторное удаление: хотели 404, получили %d", rec.Code)
	}
}

func TestActivityEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)
	uploadTestFile(t, router, "a.txt", "x")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/activity?action=upload", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Activity: хотели 200, получили %d", rec.Code)
	}

	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Ошибка разбора ответа: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("Записей upload: хотели 1, получили %d", resp.Total)
	}

	// Неизвестное действие — 400
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/activity?action=explode", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Неизвестное действие: хотели 400, получили %d", rec.Code)
	}
}

func TestInfoAndHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/info", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Info: хотели 200, получили %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "disk_total_bytes") {
		t.Errorf("Ответ info без данных о диске: %s", rec.Body.String())
	}

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: хотели 200, получили %d", path, rec.Code)
		}
	}
}

func TestFolderLifecycleHTTP(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body := bytes.NewBufferString(`{"path": "", "name": "docs"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/folders", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("Создание папки: хотели 201, получили %d: %s", rec.Code, rec.Body.String())
	}

	// Путь удаляемой папки передаётся query-параметром
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/v1/folders?path=docs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Удаление папки: хотели 200, получили %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/browse?path=docs", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Листинг удалённой папки: хотели 404, получили %d", rec.Code)
	}

	// Без path удалялся бы корень — запрещено
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/v1/folders", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Удаление без path: хотели 400, получили %d", rec.Code)
	}
}

func TestSweepEndpoint(t *testing.T) {
	router, meta, files := newTestRouter(t)
	id := uploadTestFile(t, router, "temp.txt", "x")

	// Файл удаляется с диска в обход API — запись осиротела
	rec := meta.Get(id)
	if rec == nil {
		t.Fatal("Запись после загрузки не найдена")
	}
	if err := files.DeleteFile(rec.StoragePath); err != nil {
		t.Fatalf("Ошибка удаления файла: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/maintenance/sweep", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Sweep: хотели 200, получили %d", w.Code)
	}
	if meta.Len() != 0 {
		t.Errorf("Записей после сверки: хотели 0, получили %d", meta.Len())
	}
}
