package service

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newEditEnv(t *testing.T) (*testEnv, *EditService) {
	t.Helper()
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return env, NewEditService(env.files, env.meta, env.activity, 1024, logger)
}

func TestEditContent(t *testing.T) {
	env, edit := newEditEnv(t)
	env.writeFile(t, "1700000000000-abc12345-notes.txt", "текст заметки")

	h := locate(t, env, "1700000000000-abc12345-notes.txt", "")
	content, opErr := edit.Content(h, "127.0.0.1")
	if opErr != nil {
		t.Fatalf("Ошибка Content: %v", opErr)
	}
	if content != "текст заметки" {
		t.Errorf("Содержимое: хотели %q, получили %q", "текст заметки", content)
	}

	// Обращение отмечено
	rec := env.meta.Get("abc12345")
	if rec.LastAccessed == nil {
		t.Error("LastAccessed должен быть установлен после просмотра")
	}
}

func TestEditContentNotEditable(t *testing.T) {
	env, edit := newEditEnv(t)
	env.writeFile(t, "1700000000000-abc12345-photo.jpg", "jpeg")

	h := locate(t, env, "1700000000000-abc12345-photo.jpg", "")
	if _, opErr := edit.Content(h, "127.0.0.1"); opErr == nil || opErr.StatusCode != 409 {
		t.Errorf("Редактирование изображения: ожидали 409, получили %v", opErr)
	}
}

func TestEditSave(t *testing.T) {
	env, edit := newEditEnv(t)
	env.writeFile(t, "1700000000000-abc12345-notes.txt", "старый текст")

	h := locate(t, env, "1700000000000-abc12345-notes.txt", "")
	if opErr := edit.Save(h, "новый текст", "127.0.0.1"); opErr != nil {
		t.Fatalf("Ошибка Save: %v", opErr)
	}

	data, err := os.ReadFile(filepath.Join(env.dataDir, "1700000000000-abc12345-notes.txt"))
	if err != nil {
		t.Fatalf("Ошибка чтения файла: %v", err)
	}
	if string(data) != "новый текст" {
		t.Errorf("Содержимое на диске: хотели %q, получили %q", "новый текст", string(data))
	}

	rec := env.meta.Get("abc12345")
	if rec.Size != int64(len("новый текст")) {
		t.Errorf("Size: хотели %d, получили %d", len("новый текст"), rec.Size)
	}
}

func TestEditContentTooLarge(t *testing.T) {
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	edit := NewEditService(env.files, env.meta, env.activity, 10, logger)

	// 16 байт при лимите 10: файл не должен открыться урезанным —
	// сохранение урезанного содержимого уничтожило бы хвост
	env.writeFile(t, "big.log", "0123456789abcdef")

	h := locate(t, env, "big.log", "")
	content, opErr := edit.Content(h, "127.0.0.1")
	if opErr == nil {
		t.Fatalf("Чтение файла сверх лимита должно вернуть ошибку, получили %d байт", len(content))
	}
	if opErr.StatusCode != 413 {
		t.Errorf("StatusCode: хотели 413, получили %d", opErr.StatusCode)
	}

	// Файл в пределах лимита читается целиком
	env.writeFile(t, "small.log", "0123456789")
	h = locate(t, env, "small.log", "")
	content, opErr = edit.Content(h, "127.0.0.1")
	if opErr != nil {
		t.Fatalf("Ошибка Content: %v", opErr)
	}
	if content != "0123456789" {
		t.Errorf("Содержимое: хотели %q, получили %q", "0123456789", content)
	}
}

func TestEditSaveTooLarge(t *testing.T) {
	env, edit := newEditEnv(t)
	env.writeFile(t, "1700000000000-abc12345-notes.txt", "x")

	h := locate(t, env, "1700000000000-abc12345-notes.txt", "")
	big := make([]byte, 2048)
	for i := range big {
		big[i] = 'a'
	}

	if opErr := edit.Save(h, string(big), "127.0.0.1"); opErr == nil || opErr.StatusCode != 413 {
		t.Errorf("Сохранение сверх лимита: ожидали 413, получили %v", opErr)
	}
}

func TestEditSaveUnmanaged(t *testing.T) {
	env, edit := newEditEnv(t)
	env.writeFile(t, "config.yaml", "a: 1")

	// Unmanaged файлы редактируются наравне с управляемыми
	h := locate(t, env, "config.yaml", "")
	if opErr := edit.Save(h, "a: 2", "127.0.0.1"); opErr != nil {
		t.Fatalf("Ошибка Save unmanaged файла: %v", opErr)
	}

	data, err := os.ReadFile(filepath.Join(env.dataDir, "config.yaml"))
	if err != nil {
		t.Fatalf("Ошибка чтения файла: %v", err)
	}
	if string(data) != "a: 2" {
		t.Errorf("Содержимое: хотели %q, получили %q", "a: 2", string(data))
	}
}
