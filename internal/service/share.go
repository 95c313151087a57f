// share.go — публичные ссылки на файлы.
//
// Ссылка — подписанный HS256 JWT с идентификатором файла и сроком
// жизни. Состояние на сервере не хранится: отозвать ссылку можно
// только сменой секрета. Unmanaged файлы не публикуются — у них нет
// стабильного идентификатора.
package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/gofilehub/internal/domain/model"
	"github.com/bigkaa/gofilehub/internal/storage/activitylog"
)

// ShareLink — созданная публичная ссылка.
type ShareLink struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ShareService — выпуск и проверка токенов публичных ссылок.
type ShareService struct {
	secret   []byte
	ttl      time.Duration
	activity *activitylog.Log
	logger   *slog.Logger
}

// NewShareService создаёт сервис публичных ссылок.
func NewShareService(secret string, ttl time.Duration, activity *activitylog.Log, logger *slog.Logger) *ShareService {
	return &ShareService{
		secret:   []byte(secret),
		ttl:      ttl,
		activity: activity,
		logger:   logger.With(slog.String("component", "share")),
	}
}

// Create выпускает токен публичной ссылки на управляемый файл.
func (s *ShareService) Create(h *Handle, ip string) (*ShareLink, *OpError) {
	if !h.Managed() {
		return nil, errValidation("файл %q вне управления системой, публичная ссылка недоступна", h.DisplayName())
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   h.Record.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("Ошибка подписи токена публичной ссылки",
			slog.String("file_id", h.Record.ID),
			slog.String("error", err.Error()),
		)
		return nil, errInternal("ошибка создания публичной ссылки")
	}

	s.activity.Record(model.ActivityRecord{
		Action:    model.ActionShare,
		Filename:  h.DisplayName(),
		FileID:    h.Record.ID,
		Path:      h.Record.Path,
		IP:        ip,
		Timestamp: now,
	})

	s.logger.Info("Публичная ссылка создана",
		slog.String("file_id", h.Record.ID),
		slog.Time("expires_at", expiresAt),
	)

	return &ShareLink{
		Token:     signed,
		URL:       "/api/v1/share/" + signed,
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve проверяет токен и возвращает идентификатор файла.
// Просроченный, повреждённый или подписанный другим секретом токен
// отклоняется единообразно.
func (s *ShareService) Resolve(tokenString string) (string, *OpError) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errInvalidToken("токен публичной ссылки невалиден или истёк")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errInvalidToken("токен публичной ссылки невалиден или истёк")
	}

	return claims.Subject, nil
}
