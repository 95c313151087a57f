// Точка входа File Hub — self-hosted веб-менеджера файлов.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/bigkaa/gofilehub/internal/api/handlers"
	"github.com/bigkaa/gofilehub/internal/config"
	"github.com/bigkaa/gofilehub/internal/server"
	"github.com/bigkaa/gofilehub/internal/service"
	"github.com/bigkaa/gofilehub/internal/storage/activitylog"
	"github.com/bigkaa/gofilehub/internal/storage/filestore"
	"github.com/bigkaa/gofilehub/internal/storage/metastore"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("File Hub запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.Bool("persistent_state", cfg.StateDir != ""),
	)

	// Секрет подписи публичных ссылок: если не задан, генерируется
	// случайный — выпущенные ссылки не переживут рестарт.
	shareSecret := cfg.ShareSecret
	if shareSecret == "" {
		shareSecret = randomSecret()
		logger.Warn("FH_SHARE_SECRET не задан, используется случайный секрет: публичные ссылки не переживут рестарт")
	}

	// --- Инициализация компонентов ---

	// 1. Файловое хранилище
	files, err := filestore.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации FileStore", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Хранилище метаданных и журнал действий
	meta, err := metastore.New(cfg.StateDir, logger)
	if err != nil {
		logger.Error("Ошибка инициализации metastore", slog.String("error", err.Error()))
		os.Exit(1)
	}
	activity, err := activitylog.New(cfg.StateDir, cfg.ActivityCap, logger)
	if err != nil {
		logger.Error("Ошибка инициализации журнала действий", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 3. Сервисы
	browseSvc := service.NewBrowseService(files, meta, activity, cfg.DefaultSort, logger)
	uploadSvc := service.NewUploadService(files, meta, activity, cfg.MaxFileSize, cfg.MaxUploadFiles, logger)
	downloadSvc := service.NewDownloadService(files, meta, activity, logger)
	editSvc := service.NewEditService(files, meta, activity, cfg.MaxFileSize, logger)
	transferSvc := service.NewTransferService(files, meta, activity, browseSvc, logger)
	shareSvc := service.NewShareService(shareSecret, cfg.ShareTTL, activity, logger)

	// 4. Фоновая сверка метаданных с диском
	ctx := context.Background()
	sweepSvc := service.NewSweepService(files, meta, activity, cfg.SweepInterval, logger)
	sweepSvc.Start(ctx)

	// 5. Handlers
	maxRequestBytes := cfg.MaxFileSize*int64(cfg.MaxUploadFiles) + (1 << 20)
	apiHandler := handlers.NewAPIHandler(
		browseSvc,
		uploadSvc,
		downloadSvc,
		editSvc,
		transferSvc,
		shareSvc,
		sweepSvc,
		files,
		meta,
		activity,
		getDiskUsage,
		maxRequestBytes,
		logger,
	)

	// 6. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Graceful shutdown фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")
	sweepSvc.Stop()

	logger.Info("File Hub остановлен")
}

// randomSecret генерирует случайный hex-секрет подписи ссылок.
func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand на поддерживаемых платформах не возвращает ошибок
		panic(err)
	}
	return hex.EncodeToString(buf)
}
