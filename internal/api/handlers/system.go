// system.go — обработчики GET /api/v1/info и POST /api/v1/maintenance/sweep.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/bigkaa/gofilehub/internal/config"
)

// storageInfo — сводка о хранилище для фронтенда.
type storageInfo struct {
	Version         string `json:"version"`
	DataDir         string `json:"data_dir"`
	ManagedFiles    int    `json:"managed_files"`
	ActivityRecords int    `json:"activity_records"`

	DiskTotal          uint64 `json:"disk_total_bytes"`
	DiskAvailable      uint64 `json:"disk_available_bytes"`
	DiskUsed           uint64 `json:"disk_used_bytes"`
	DiskTotalHuman     string `json:"disk_total_human"`
	DiskAvailableHuman string `json:"disk_available_human"`
	DiskUsedHuman      string `json:"disk_used_human"`
}

// GetInfo — сводка о хранилище: версия, количество записей,
// использование диска.
func (h *APIHandler) GetInfo(w http.ResponseWriter, _ *http.Request) {
	info := storageInfo{
		Version:         config.Version,
		DataDir:         h.files.DataDir(),
		ManagedFiles:    h.meta.Len(),
		ActivityRecords: h.activity.Len(),
	}

	total, available, err := h.diskUsage(h.files.DataDir())
	if err != nil {
		h.logger.Warn("Ошибка определения использования диска",
			slog.String("error", err.Error()),
		)
	} else {
		info.DiskTotal = total
		info.DiskAvailable = available
		info.DiskUsed = total - available
		info.DiskTotalHuman = humanize.IBytes(total)
		info.DiskAvailableHuman = humanize.IBytes(available)
		info.DiskUsedHuman = humanize.IBytes(total - available)
	}

	writeJSON(w, http.StatusOK, info)
}

// TriggerSweep — ручной запуск сверки метаданных с диском.
func (h *APIHandler) TriggerSweep(w http.ResponseWriter, _ *http.Request) {
	result := h.sweep.RunOnce()
	writeJSON(w, http.StatusOK, result)
}
