// Пакет service — бизнес-логика File Hub.
// service.go — общие типы сервисного слоя: ошибка операции и
// разрешённая ссылка на файл (managed/unmanaged).
package service

import (
	"fmt"
	"path"

	apierrors "github.com/bigkaa/gofilehub/internal/api/errors"
	"github.com/bigkaa/gofilehub/internal/domain/model"
)

// OpError — ошибка операции с HTTP-кодом.
// Сервисы возвращают её вместо error, чтобы handler мог сформировать
// ответ без разбора цепочек ошибок.
type OpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Конструкторы типовых ошибок операций ---

func errValidation(format string, args ...any) *OpError {
	return &OpError{StatusCode: 400, Code: apierrors.CodeValidationError, Message: fmt.Sprintf(format, args...)}
}

func errNotFound(format string, args ...any) *OpError {
	return &OpError{StatusCode: 404, Code: apierrors.CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func errInternal(format string, args ...any) *OpError {
	return &OpError{StatusCode: 500, Code: apierrors.CodeInternalError, Message: fmt.Sprintf(format, args...)}
}

func errNotEditable(format string, args ...any) *OpError {
	return &OpError{StatusCode: 409, Code: apierrors.CodeNotEditable, Message: fmt.Sprintf(format, args...)}
}

func errFileTooLarge(format string, args ...any) *OpError {
	return &OpError{StatusCode: 413, Code: apierrors.CodeFileTooLarge, Message: fmt.Sprintf(format, args...)}
}

func errTooManyFiles(format string, args ...any) *OpError {
	return &OpError{StatusCode: 400, Code: apierrors.CodeTooManyFiles, Message: fmt.Sprintf(format, args...)}
}

func errInvalidToken(format string, args ...any) *OpError {
	return &OpError{StatusCode: 403, Code: apierrors.CodeInvalidToken, Message: fmt.Sprintf(format, args...)}
}

// Handle — разрешённая ссылка на файл в хранилище.
// Либо управляемая запись метаданных, либо unmanaged файл,
// адресуемый сырым именем на диске.
type Handle struct {
	// Record — запись метаданных (nil для unmanaged файлов).
	Record *model.FileRecord

	// RawName и Dir — имя и директория unmanaged файла.
	RawName string
	Dir     string
}

// Managed возвращает true для файла с записью метаданных.
func (h *Handle) Managed() bool {
	return h.Record != nil
}

// StoragePath возвращает путь файла на диске относительно корня.
func (h *Handle) StoragePath() string {
	if h.Record != nil {
		return h.Record.StoragePath
	}
	return path.Join(h.Dir, h.RawName)
}

// DisplayName возвращает отображаемое имя файла.
func (h *Handle) DisplayName() string {
	if h.Record != nil {
		return h.Record.OriginalName
	}
	return h.RawName
}

// ID возвращает идентификатор: file_id для managed, сырое имя для unmanaged.
func (h *Handle) ID() string {
	if h.Record != nil {
		return h.Record.ID
	}
	return h.RawName
}
