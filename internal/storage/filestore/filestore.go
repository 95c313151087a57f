// Пакет filestore — операции с физическими файлами на диске.
// Все пути операций относительны корневой директории хранилища и
// проверяются на выход за её пределы. Запись выполняется атомарно:
// temp файл → fsync → rename.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathOutsideRoot — относительный путь выходит за корень хранилища.
var ErrPathOutsideRoot = errors.New("путь выходит за пределы корня хранилища")

// FileStore — управление физическими файлами на диске.
type FileStore struct {
	// dataDir — корневая директория хранения файлов (FH_DATA_DIR)
	dataDir string
}

// New создаёт новый FileStore. Проверяет и создаёт директорию
// если она не существует.
func New(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}

	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("не удалось определить абсолютный путь %s: %w", dataDir, err)
	}

	return &FileStore{dataDir: abs}, nil
}

// DataDir возвращает путь к корневой директории данных.
func (fs *FileStore) DataDir() string {
	return fs.dataDir
}

// Resolve преобразует относительный путь в абсолютный, отклоняя
// попытки выхода за корень хранилища ("../", абсолютные пути).
func (fs *FileStore) Resolve(relPath string) (string, error) {
	cleaned := filepath.Clean("/" + relPath)
	full := filepath.Join(fs.dataDir, cleaned)

	if full != fs.dataDir && !strings.HasPrefix(full, fs.dataDir+string(os.PathSeparator)) {
		return "", ErrPathOutsideRoot
	}
	return full, nil
}

// SaveFile атомарно записывает данные из reader в файл name внутри
// директории dir (относительно корня). Возвращает размер записанных данных.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется.
func (fs *FileStore) SaveFile(reader io.Reader, dir, name string) (int64, error) {
	fullPath, err := fs.Resolve(filepath.Join(dir, name))
	if err != nil {
		return 0, err
	}
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return size, nil
}

// ReadFile открывает файл для чтения и возвращает *os.File.
// Вызывающий код обязан закрыть файл.
func (fs *FileStore) ReadFile(storagePath string) (*os.File, error) {
	fullPath, err := fs.Resolve(storagePath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("файл не найден: %s", storagePath)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", storagePath, err)
	}
	return f, nil
}

// DeleteFile удаляет файл с диска.
// Возвращает nil если файл уже не существует.
func (fs *FileStore) DeleteFile(storagePath string) error {
	fullPath, err := fs.Resolve(storagePath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", storagePath, err)
	}
	return nil
}

// Rename переименовывает файл внутри одной директории.
// oldPath и newPath — относительные пути, включая имя файла.
func (fs *FileStore) Rename(oldPath, newPath string) error {
	oldFull, err := fs.Resolve(oldPath)
	if err != nil {
		return err
	}
	newFull, err := fs.Resolve(newPath)
	if err != nil {
		return err
	}

	if err := os.Rename(oldFull, newFull); err != nil {
		return fmt.Errorf("ошибка переименования %s → %s: %w", oldPath, newPath, err)
	}
	return nil
}

// Copy копирует файл srcPath в dstPath (оба — относительные пути
// с именем файла). Запись атомарная, как в SaveFile.
func (fs *FileStore) Copy(srcPath, dstPath string) (int64, error) {
	src, err := fs.ReadFile(srcPath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	return fs.SaveFile(src, filepath.Dir(dstPath), filepath.Base(dstPath))
}

// FileExists проверяет существование обычного файла по относительному пути.
func (fs *FileStore) FileExists(storagePath string) bool {
	info, err := fs.Stat(storagePath)
	return err == nil && !info.IsDir()
}

// Stat возвращает информацию о файле или директории.
func (fs *FileStore) Stat(storagePath string) (os.FileInfo, error) {
	fullPath, err := fs.Resolve(storagePath)
	if err != nil {
		return nil, err
	}
	return os.Stat(fullPath)
}

// ListDir возвращает нерекурсивный листинг директории.
func (fs *FileStore) ListDir(relPath string) ([]os.DirEntry, error) {
	fullPath, err := fs.Resolve(relPath)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateFolder создаёт поддиректорию (включая родителей).
func (fs *FileStore) CreateFolder(relPath string) error {
	fullPath, err := fs.Resolve(relPath)
	if err != nil {
		return err
	}
	if fullPath == fs.dataDir {
		return fmt.Errorf("нельзя создать корневую директорию")
	}
	if err := os.MkdirAll(fullPath, 0o750); err != nil {
		return fmt.Errorf("ошибка создания директории %s: %w", relPath, err)
	}
	return nil
}

// DeleteFolder рекурсивно удаляет поддиректорию со всем содержимым.
// Удаление корня хранилища запрещено.
func (fs *FileStore) DeleteFolder(relPath string) error {
	fullPath, err := fs.Resolve(relPath)
	if err != nil {
		return err
	}
	if fullPath == fs.dataDir {
		return fmt.Errorf("нельзя удалить корневую директорию хранилища")
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return fmt.Errorf("директория %s не найдена: %w", relPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s не является директорией", relPath)
	}

	if err := os.RemoveAll(fullPath); err != nil {
		return fmt.Errorf("ошибка удаления директории %s: %w", relPath, err)
	}
	return nil
}
