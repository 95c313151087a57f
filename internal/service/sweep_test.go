package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bigkaa/gofilehub/internal/domain/model"
)

func newSweepEnv(t *testing.T) (*testEnv, *SweepService) {
	t.Helper()
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return env, NewSweepService(env.files, env.meta, env.activity, time.Hour, logger)
}

func TestSweepPrunesOrphans(t *testing.T) {
	env, sweep := newSweepEnv(t)
	env.writeFile(t, "1700000000000-abc12345-a.txt", "x")
	env.writeFile(t, "1700000000001-bbbb2222-b.txt", "x")

	if _, opErr := env.browse.ListDirectory("", "", "127.0.0.1"); opErr != nil {
		t.Fatalf("Ошибка листинга: %v", opErr)
	}
	if env.meta.Len() != 2 {
		t.Fatalf("Записей: хотели 2, получили %d", env.meta.Len())
	}

	// Файл удалён в обход API — запись осиротела
	if err := os.Remove(filepath.Join(env.dataDir, "1700000000000-abc12345-a.txt")); err != nil {
		t.Fatalf("Ошибка удаления файла: %v", err)
	}

	result := sweep.RunOnce()
	if result.Pruned != 1 {
		t.Errorf("Pruned: хотели 1, получили %d", result.Pruned)
	}
	if result.Records != 1 {
		t.Errorf("Records: хотели 1, получили %d", result.Records)
	}
	if env.meta.Get("abc12345") != nil {
		t.Error("Осиротевшая запись должна быть вычищена")
	}
	if env.meta.Get("bbbb2222") == nil {
		t.Error("Живая запись не должна пострадать")
	}
}

func TestSweepKeepsRecordOnStatError(t *testing.T) {
	env, sweep := newSweepEnv(t)

	// Путь через обычный файл: stat возвращает ENOTDIR, а не
	// os.ErrNotExist — запись должна пережить проход нетронутой
	env.writeFile(t, "blocker.txt", "x")
	env.meta.Put(&model.FileRecord{
		ID:           "cafe0001",
		OriginalName: "stuck.txt",
		StoragePath:  "blocker.txt/stuck.txt",
		Size:         5,
	})

	result := sweep.RunOnce()
	if result.Pruned != 0 {
		t.Errorf("Pruned: хотели 0, получили %d", result.Pruned)
	}
	if env.meta.Get("cafe0001") == nil {
		t.Error("Запись со сбойным stat не должна быть вычищена")
	}
}

func TestSweepRefreshesDriftedSize(t *testing.T) {
	env, sweep := newSweepEnv(t)
	env.writeFile(t, "1700000000000-abc12345-a.txt", "v1")

	if _, opErr := env.browse.ListDirectory("", "", "127.0.0.1"); opErr != nil {
		t.Fatalf("Ошибка листинга: %v", opErr)
	}

	env.writeFile(t, "1700000000000-abc12345-a.txt", "длинная версия")

	result := sweep.RunOnce()
	if result.Refreshed != 1 {
		t.Errorf("Refreshed: хотели 1, получили %d", result.Refreshed)
	}

	rec := env.meta.Get("abc12345")
	if rec.Size != int64(len("длинная версия")) {
		t.Errorf("Size: хотели %d, получили %d", len("длинная версия"), rec.Size)
	}
}

func TestSweepEmptyStore(t *testing.T) {
	_, sweep := newSweepEnv(t)

	result := sweep.RunOnce()
	if result.Pruned != 0 || result.Refreshed != 0 || result.Records != 0 {
		t.Errorf("Проход по пустому хранилищу: %+v", result)
	}
}

func TestSweepStartStop(t *testing.T) {
	env, _ := newSweepEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweep := NewSweepService(env.files, env.meta, env.activity, 10*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweep.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	sweep.Stop()
}
