// sweep.go — фоновая сверка метаданных с диском.
//
// Периодически вычищает записи, чей файл исчез с диска (удаление
// вручную, удаление папки), и освежает разошедшиеся размеры.
// Одновременно выполняется не более одной сверки.
package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/gofilehub/internal/api/middleware"
	"github.com/bigkaa/gofilehub/internal/domain/model"
	"github.com/bigkaa/gofilehub/internal/storage/activitylog"
	"github.com/bigkaa/gofilehub/internal/storage/filestore"
	"github.com/bigkaa/gofilehub/internal/storage/metastore"
)

// Метрики фоновой сверки
var (
	sweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fh_sweep_runs_total",
			Help: "Общее количество запусков фоновой сверки",
		},
		[]string{"result"},
	)

	sweepPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fh_sweep_pruned_total",
			Help: "Общее количество вычищенных осиротевших записей метаданных",
		},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fh_sweep_duration_seconds",
			Help:    "Длительность фоновой сверки в секундах",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// SweepResult — итоги одного прохода сверки.
type SweepResult struct {
	// Pruned — удалено осиротевших записей.
	Pruned int `json:"pruned"`
	// Refreshed — освежено записей с разошедшимся размером.
	Refreshed int `json:"refreshed"`
	// Records — записей в хранилище после прохода.
	Records int `json:"records"`
	// Duration — длительность прохода.
	Duration time.Duration `json:"duration_ns"`
}

// SweepService — фоновая сверка метаданных.
type SweepService struct {
	files    *filestore.FileStore
	meta     *metastore.Store
	activity *activitylog.Log
	interval time.Duration
	logger   *slog.Logger

	// inProgress защищает от параллельных проходов
	// (тикер и ручной запуск через API).
	inProgress sync.Mutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewSweepService создаёт сервис сверки.
func NewSweepService(files *filestore.FileStore, meta *metastore.Store, activity *activitylog.Log, interval time.Duration, logger *slog.Logger) *SweepService {
	return &SweepService{
		files:    files,
		meta:     meta,
		activity: activity,
		interval: interval,
		logger:   logger.With(slog.String("component", "sweep")),
		stopCh:   make(chan struct{}),
	}
}

// Start запускает периодическую сверку в фоновой горутине.
// Первый проход выполняется сразу, далее — по тикеру.
func (s *SweepService) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.logger.Info("Фоновая сверка запущена",
			slog.Duration("interval", s.interval),
		)

		s.RunOnce()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce()
			case <-ctx.Done():
				s.logger.Info("Фоновая сверка остановлена по контексту")
				return
			case <-s.stopCh:
				s.logger.Info("Фоновая сверка остановлена")
				return
			}
		}
	}()
}

// Stop останавливает фоновую горутину и дожидается её завершения.
func (s *SweepService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// RunOnce выполняет один проход сверки. Возвращает итоги прохода.
// Повторный вызов во время работающего прохода блокируется.
func (s *SweepService) RunOnce() *SweepResult {
	s.inProgress.Lock()
	defer s.inProgress.Unlock()

	start := time.Now()
	result := &SweepResult{}

	for _, rec := range s.meta.All() {
		info, err := s.files.Stat(rec.StoragePath)
		if err != nil {
			// Вычищаются только подтверждённо исчезнувшие файлы:
			// временный сбой stat не повод терять запись
			if !os.IsNotExist(err) {
				s.logger.Warn("Ошибка stat при сверке, запись пропущена",
					slog.String("file_id", rec.ID),
					slog.String("path", rec.StoragePath),
					slog.String("error", err.Error()),
				)
				continue
			}
			s.meta.Remove(rec.ID)
			result.Pruned++
			s.logger.Info("Вычищена осиротевшая запись метаданных",
				slog.String("file_id", rec.ID),
				slog.String("path", rec.StoragePath),
			)
			continue
		}

		if info.Size() != rec.Size {
			s.meta.Update(rec.ID, func(r *model.FileRecord) {
				r.Size = info.Size()
				r.LastModified = info.ModTime().UTC()
			})
			result.Refreshed++
		}
	}

	if trimmed := s.activity.Trim(); trimmed > 0 {
		s.logger.Info("Журнал действий усечён", slog.Int("trimmed", trimmed))
	}

	result.Records = s.meta.Len()
	result.Duration = time.Since(start)

	middleware.FilesTotal.Set(float64(result.Records))
	sweepPrunedTotal.Add(float64(result.Pruned))
	sweepDuration.Observe(result.Duration.Seconds())
	sweepRunsTotal.WithLabelValues("ok").Inc()

	s.logger.Info("Сверка завершена",
		slog.Int("pruned", result.Pruned),
		slog.Int("refreshed", result.Refreshed),
		slog.Int("records", result.Records),
		slog.Duration("duration", result.Duration),
	)

	return result
}
