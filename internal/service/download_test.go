package service

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func newDownloadEnv(t *testing.T) (*testEnv, *DownloadService) {
	t.Helper()
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return env, NewDownloadService(env.files, env.meta, env.activity, logger)
}

func TestDownload(t *testing.T) {
	env, download := newDownloadEnv(t)
	env.writeFile(t, "1700000000000-abc12345-notes.txt", "содержимое файла")

	h := locate(t, env, "1700000000000-abc12345-notes.txt", "")

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/files/abc12345/download", nil)
	if opErr := download.Download(w, r, h, "127.0.0.1"); opErr != nil {
		t.Fatalf("Ошибка Download: %v", opErr)
	}

	if w.Code != 200 {
		t.Errorf("Статус: хотели 200, получили %d", w.Code)
	}
	if w.Body.String() != "содержимое файла" {
		t.Errorf("Тело: хотели %q, получили %q", "содержимое файла", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("Content-Disposition: хотели attachment, получили %q", cd)
	}

	// Счётчик и момент обращения обновлены
	rec := env.meta.Get("abc12345")
	if rec.Downloads != 1 {
		t.Errorf("Downloads: хотели 1, получили %d", rec.Downloads)
	}
	if rec.LastAccessed == nil {
		t.Error("LastAccessed должен быть установлен")
	}

	// Повторное скачивание — счётчик строго растёт
	w = httptest.NewRecorder()
	if opErr := download.Download(w, r, h, "127.0.0.1"); opErr != nil {
		t.Fatalf("Ошибка повторного Download: %v", opErr)
	}
	if rec := env.meta.Get("abc12345"); rec.Downloads != 2 {
		t.Errorf("Downloads: хотели 2, получили %d", rec.Downloads)
	}
}

func TestPreviewDoesNotCountDownload(t *testing.T) {
	env, download := newDownloadEnv(t)
	env.writeFile(t, "1700000000000-abc12345-notes.txt", "x")

	h := locate(t, env, "1700000000000-abc12345-notes.txt", "")

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/files/abc12345/preview", nil)
	if opErr := download.Preview(w, r, h, "127.0.0.1"); opErr != nil {
		t.Fatalf("Ошибка Preview: %v", opErr)
	}

	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline") {
		t.Errorf("Content-Disposition: хотели inline, получили %q", cd)
	}

	rec := env.meta.Get("abc12345")
	if rec.Downloads != 0 {
		t.Errorf("Preview не должен увеличивать счётчик, получили %d", rec.Downloads)
	}
	if rec.LastAccessed == nil {
		t.Error("LastAccessed должен быть установлен")
	}
}

func TestDownloadUnmanaged(t *testing.T) {
	env, download := newDownloadEnv(t)
	env.writeFile(t, "plain.bin", "raw")

	h := locate(t, env, "plain.bin", "")

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/files/plain.bin/download", nil)
	if opErr := download.Download(w, r, h, "127.0.0.1"); opErr != nil {
		t.Fatalf("Ошибка Download unmanaged файла: %v", opErr)
	}
	if w.Body.String() != "raw" {
		t.Errorf("Тело: хотели raw, получили %q", w.Body.String())
	}
	if env.meta.Len() != 0 {
		t.Error("Unmanaged скачивание не должно порождать записей")
	}
}

func TestDownloadMissingFile(t *testing.T) {
	_, download := newDownloadEnv(t)

	h := &Handle{RawName: "gone.txt", Dir: ""}
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/files/gone.txt/download", nil)
	if opErr := download.Download(w, r, h, "127.0.0.1"); opErr == nil || opErr.StatusCode != 404 {
		t.Errorf("Скачивание отсутствующего файла: ожидали 404, получили %v", opErr)
	}
}
