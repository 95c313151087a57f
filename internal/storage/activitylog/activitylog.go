// Пакет activitylog — журнал действий с ограничением размера.
//
// Новые записи добавляются в начало; при превышении лимита хвост
// отбрасывается (FIFO-вытеснение). Как и metastore, журнал опционально
// зеркалируется на диск целиком после каждой записи.
package activitylog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bigkaa/gofilehub/internal/domain/model"
)

// StateFileName — имя документа журнала в директории состояния.
const StateFileName = "activity.json"

// DefaultCap — лимит журнала по умолчанию.
const DefaultCap = 1000

// Log — журнал действий.
type Log struct {
	mu      sync.RWMutex
	entries []model.ActivityRecord // новые первые
	cap     int

	// statePath — путь к activity.json; пустая строка отключает зеркало.
	statePath string
	logger    *slog.Logger
}

// New создаёт журнал. stateDir — директория для JSON-зеркала, пустая
// строка означает работу только в памяти. capacity <= 0 заменяется
// значением по умолчанию.
func New(stateDir string, capacity int, logger *slog.Logger) (*Log, error) {
	if capacity <= 0 {
		capacity = DefaultCap
	}

	l := &Log{
		cap:    capacity,
		logger: logger.With(slog.String("component", "activitylog")),
	}

	if stateDir == "" {
		return l, nil
	}

	if err := os.MkdirAll(stateDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию состояния %s: %w", stateDir, err)
	}
	l.statePath = filepath.Join(stateDir, StateFileName)
	l.load()

	return l, nil
}

// load читает activity.json. Повреждённый документ отбрасывается.
func (l *Log) load() {
	data, err := os.ReadFile(l.statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("Ошибка чтения журнала, старт с пустым журналом",
				slog.String("path", l.statePath),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	var entries []model.ActivityRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		l.logger.Warn("Повреждённый журнал отброшен, старт с пустым журналом",
			slog.String("path", l.statePath),
			slog.String("error", err.Error()),
		)
		return
	}

	if len(entries) > l.cap {
		entries = entries[:l.cap]
	}
	l.entries = entries

	l.logger.Info("Журнал действий загружен", slog.Int("entries", len(l.entries)))
}

// persist перезаписывает весь документ журнала.
// Вызывается под заблокированным mu; ошибки только логируются.
func (l *Log) persist() {
	if l.statePath == "" {
		return
	}

	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		l.logger.Error("Ошибка сериализации журнала", slog.String("error", err.Error()))
		return
	}

	if err := atomicWrite(l.statePath, data); err != nil {
		l.logger.Error("Ошибка записи журнала",
			slog.String("path", l.statePath),
			slog.String("error", err.Error()),
		)
	}
}

// Record добавляет запись в начало журнала и усечёт хвост
// при превышении лимита.
func (l *Log) Record(entry model.ActivityRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]model.ActivityRecord{entry}, l.entries...)
	if len(l.entries) > l.cap {
		l.entries = l.entries[:l.cap]
	}
	l.persist()
}

// List возвращает записи (новые первые) с опциональной линейной
// фильтрацией по действию и ограничением количества.
// action == "" — без фильтра; limit <= 0 — без ограничения.
func (l *Log) List(action model.Action, limit int) []model.ActivityRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]model.ActivityRecord, 0, len(l.entries))
	for _, e := range l.entries {
		if action != "" && e.Action != action {
			continue
		}
		result = append(result, e)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// Len возвращает текущее количество записей.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Trim усекает журнал до лимита. Используется фоновой очисткой,
// когда лимит в конфигурации уменьшился между запусками.
func (l *Log) Trim() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) <= l.cap {
		return 0
	}
	trimmed := len(l.entries) - l.cap
	l.entries = l.entries[:l.cap]
	l.persist()
	return trimmed
}

// atomicWrite записывает данные атомарно: temp → fsync → rename.
func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return nil
}
