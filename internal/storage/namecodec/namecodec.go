// Пакет namecodec — кодек составного имени файла на диске.
//
// Имя файла — единственный носитель тройки (момент загрузки,
// идентификатор, оригинальное имя):
//
//	{unix-миллисекунды}-{id}-{санитизированное имя}
//
// Пример: 1700000000000-abc123-My_Report__final_.pdf
//
// Идентификатор не должен содержать дефис (hex удовлетворяет этому).
// Дефисы внутри оригинального имени после санитизации неотличимы от
// разделителя — известная неоднозначность формата, сохраняется как есть.
package namecodec

import (
	"strconv"
	"strings"
)

// placeholder — подстановка для имени, ставшего пустым после санитизации.
const placeholder = "file"

// Decoded — результат разбора закодированного имени.
type Decoded struct {
	// UploadedAtMillis — unix-миллисекунды момента загрузки.
	UploadedAtMillis int64
	// ID — идентификатор файла.
	ID string
	// OriginalName — оригинальное имя (в санитизированной форме).
	OriginalName string
}

// Sanitize заменяет каждый символ вне [A-Za-z0-9._-] на подчёркивание.
// Пустой результат заменяется подстановкой "file", чтобы закодированное
// имя не заканчивалось висячим разделителем. Идемпотентна.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return placeholder
	}
	return b.String()
}

// Encode собирает имя файла на диске из момента загрузки,
// идентификатора и оригинального имени. Имя санитизируется здесь же.
func Encode(uploadedAtMillis int64, id, originalName string) string {
	return strconv.FormatInt(uploadedAtMillis, 10) + "-" + id + "-" + Sanitize(originalName)
}

// Decode разбирает закодированное имя. Возвращает ok=false, если имя
// не соответствует формату: меньше трёх сегментов либо первый сегмент
// не является неотрицательным целым. ok=false означает «файл не
// управляется системой», а не ошибку — в хранилище могут лежать
// посторонние файлы.
func Decode(encoded string) (Decoded, bool) {
	parts := strings.Split(encoded, "-")
	if len(parts) < 3 {
		return Decoded{}, false
	}

	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || ts < 0 {
		return Decoded{}, false
	}

	if parts[1] == "" {
		return Decoded{}, false
	}

	// Остальные сегменты склеиваются обратно: оригинальное имя могло
	// содержать дефисы до санитизации.
	return Decoded{
		UploadedAtMillis: ts,
		ID:               parts[1],
		OriginalName:     strings.Join(parts[2:], "-"),
	}, true
}
