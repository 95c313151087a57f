// Пакет metastore — потокобезопасное in-memory хранилище метаданных
// файлов с необязательным JSON-зеркалом на диске.
//
// Хранилище — map file_id → FileRecord под sync.RWMutex с копированием
// значений на входе и выходе. После каждой мутации весь документ
// metadata.json перезаписывается целиком (атомарно: temp → fsync →
// rename). Инкрементального формата нет; семантика «последняя запись
// побеждает» принята по границам системы.
//
// При загрузке повреждённый документ отбрасывается с предупреждением,
// хранилище стартует пустым: записи лениво восстановятся из имён
// файлов при следующем листинге.
package metastore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bigkaa/gofilehub/internal/domain/model"
)

// StateFileName — имя документа метаданных в директории состояния.
const StateFileName = "metadata.json"

// Store — хранилище метаданных файлов.
type Store struct {
	mu      sync.RWMutex
	records map[string]*model.FileRecord // file_id → record

	// statePath — путь к metadata.json; пустая строка отключает зеркало.
	statePath string
	logger    *slog.Logger
}

// New создаёт хранилище. stateDir — директория для JSON-зеркала,
// пустая строка означает работу только в памяти. Существующий документ
// загружается сразу; повреждённый — отбрасывается.
func New(stateDir string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		records: make(map[string]*model.FileRecord),
		logger:  logger.With(slog.String("component", "metastore")),
	}

	if stateDir == "" {
		return s, nil
	}

	if err := os.MkdirAll(stateDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию состояния %s: %w", stateDir, err)
	}
	s.statePath = filepath.Join(stateDir, StateFileName)
	s.load()

	return s, nil
}

// load читает metadata.json. Отсутствие файла — норма (первый запуск),
// повреждённый JSON — предупреждение и пустой старт.
func (s *Store) load() {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Ошибка чтения документа метаданных, старт с пустым хранилищем",
				slog.String("path", s.statePath),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	var records map[string]*model.FileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("Повреждённый документ метаданных отброшен, старт с пустым хранилищем",
			slog.String("path", s.statePath),
			slog.String("error", err.Error()),
		)
		return
	}

	s.records = records
	if s.records == nil {
		s.records = make(map[string]*model.FileRecord)
	}

	s.logger.Info("Документ метаданных загружен",
		slog.Int("records", len(s.records)),
	)
}

// persist перезаписывает весь документ метаданных.
// Вызывается под заблокированным mu. Ошибка записи логируется,
// но не прерывает операцию — зеркало best-effort.
func (s *Store) persist() {
	if s.statePath == "" {
		return
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		s.logger.Error("Ошибка сериализации метаданных", slog.String("error", err.Error()))
		return
	}

	if err := atomicWrite(s.statePath, data); err != nil {
		s.logger.Error("Ошибка записи документа метаданных",
			slog.String("path", s.statePath),
			slog.String("error", err.Error()),
		)
	}
}

// Get возвращает копию записи по file_id, nil если записи нет.
func (s *Store) Get(id string) *model.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	copied := *rec
	return &copied
}

// Put добавляет или заменяет запись целиком.
func (s *Store) Put(rec *model.FileRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *rec
	s.records[rec.ID] = &copied
	s.persist()
}

// Update применяет мутацию к существующей записи (merge-семантика:
// fn меняет только нужные поля). Возвращает копию обновлённой записи
// или nil, если записи нет.
func (s *Store) Update(id string, fn func(*model.FileRecord)) *model.FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil
	}

	fn(rec)
	s.persist()

	copied := *rec
	return &copied
}

// Remove удаляет запись по file_id.
// Возвращает true, если запись была найдена и удалена.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	s.persist()
	return true
}

// All возвращает копии всех записей.
func (s *Store) All() []*model.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.FileRecord, 0, len(s.records))
	for _, rec := range s.records {
		copied := *rec
		result = append(result, &copied)
	}
	return result
}

// Len возвращает количество записей.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
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
