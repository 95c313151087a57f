package service

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/bigkaa/gofilehub/internal/storage/namecodec"
)

func newUploadEnv(t *testing.T, maxFileSize int64, maxFiles int) (*testEnv, *UploadService) {
	t.Helper()
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return env, NewUploadService(env.files, env.meta, env.activity, maxFileSize, maxFiles, logger)
}

// buildMultipart собирает multipart-форму и возвращает заголовки файлов,
// как их увидит handler после разбора запроса.
func buildMultipart(t *testing.T, files map[string]string) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("Ошибка создания части формы: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("Ошибка записи части формы: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Ошибка закрытия формы: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(10 << 20)
	if err != nil {
		t.Fatalf("Ошибка разбора формы: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["files"]
}

func TestUploadSingle(t *testing.T) {
	env, upload := newUploadEnv(t, 1024, 10)
	headers := buildMultipart(t, map[string]string{"My Report (final).pdf": "pdf data"})

	result, opErr := upload.Upload(headers, "", "127.0.0.1")
	if opErr != nil {
		t.Fatalf("Ошибка Upload: %v", opErr)
	}
	if result.Uploaded != 1 || result.Failed != 0 {
		t.Fatalf("Результат: хотели 1/0, получили %d/%d", result.Uploaded, result.Failed)
	}

	uf := result.Files[0]
	if uf.Name != "My_Report__final_.pdf" {
		t.Errorf("Имя: хотели My_Report__final_.pdf, получили %q", uf.Name)
	}
	if len(uf.ID) != 8 || strings.Contains(uf.ID, "-") {
		t.Errorf("Идентификатор должен быть 8 hex-символов без дефиса, получили %q", uf.ID)
	}

	rec := env.meta.Get(uf.ID)
	if rec == nil {
		t.Fatal("Запись метаданных не создана")
	}
	if rec.Downloads != 0 || rec.LastAccessed != nil {
		t.Errorf("Новая запись: downloads=%d, lastAccessed=%v", rec.Downloads, rec.LastAccessed)
	}

	// Имя на диске декодируется обратно
	dec, ok := namecodec.Decode(strings.TrimPrefix(rec.StoragePath, "/"))
	if !ok {
		t.Fatalf("Имя на диске не декодируется: %q", rec.StoragePath)
	}
	if dec.ID != uf.ID || dec.OriginalName != "My_Report__final_.pdf" {
		t.Errorf("Декодированное имя: %+v", dec)
	}
}

func TestUploadBatchContinuesPastFailures(t *testing.T) {
	env, upload := newUploadEnv(t, 10, 10)
	headers := buildMultipart(t, map[string]string{
		"small.txt": "ok",
		"big.txt":   "это содержимое длиннее десяти байт",
	})

	result, opErr := upload.Upload(headers, "", "127.0.0.1")
	if opErr != nil {
		t.Fatalf("Ошибка Upload: %v", opErr)
	}
	if result.Uploaded != 1 || result.Failed != 1 {
		t.Errorf("Результат: хотели 1/1, получили %d/%d", result.Uploaded, result.Failed)
	}
	if env.meta.Len() != 1 {
		t.Errorf("Записей: хотели 1, получили %d", env.meta.Len())
	}
}

func TestUploadLimits(t *testing.T) {
	_, upload := newUploadEnv(t, 1024, 2)

	if _, opErr := upload.Upload(nil, "", "127.0.0.1"); opErr == nil || opErr.StatusCode != 400 {
		t.Errorf("Пустой батч: ожидали 400, получили %v", opErr)
	}

	headers := buildMultipart(t, map[string]string{"a.txt": "x", "b.txt": "y", "c.txt": "z"})
	if _, opErr := upload.Upload(headers, "", "127.0.0.1"); opErr == nil || opErr.Code != "TOO_MANY_FILES" {
		t.Errorf("Превышение лимита количества: ожидали TOO_MANY_FILES, получили %v", opErr)
	}
}

func TestUploadMissingDir(t *testing.T) {
	_, upload := newUploadEnv(t, 1024, 10)
	headers := buildMultipart(t, map[string]string{"a.txt": "x"})

	if _, opErr := upload.Upload(headers, "no/such/dir", "127.0.0.1"); opErr == nil || opErr.StatusCode != 404 {
		t.Errorf("Загрузка в несуществующую директорию: ожидали 404, получили %v", opErr)
	}
}

func TestUploadIntoSubdir(t *testing.T) {
	env, upload := newUploadEnv(t, 1024, 10)
	env.writeFile(t, "docs/.keep", "")

	headers := buildMultipart(t, map[string]string{"a.txt": "x"})
	result, opErr := upload.Upload(headers, "docs", "127.0.0.1")
	if opErr != nil {
		t.Fatalf("Ошибка Upload: %v", opErr)
	}

	rec := env.meta.Get(result.Files[0].ID)
	if rec.Path != "docs" {
		t.Errorf("Path: хотели docs, получили %q", rec.Path)
	}
	if !env.files.FileExists(rec.StoragePath) {
		t.Errorf("Файл не найден на диске: %q", rec.StoragePath)
	}
}
