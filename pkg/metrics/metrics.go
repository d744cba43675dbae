// Package metrics exposes Prometheus counters for mount engine activity.
// moorfs is a short-lived process, so instead of serving a scrape endpoint
// it flushes the registry to a textfile-collector file on exit.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mount outcome label values.
const (
	OutcomeSuccess            = "success"
	OutcomeAlreadyMounted     = "already_mounted"
	OutcomeRemotePathNotFound = "remote_path_not_found"
	OutcomeConnectionFailed   = "connection_failed"
	OutcomeAuthFailed         = "auth_failed"
	OutcomeCancelled          = "cancelled"
	OutcomeError              = "error"
)

var (
	// Mount metrics
	MountAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moorfs_mount_attempts_total",
		Help: "Mount attempts by outcome",
	}, []string{"outcome"})

	UnmountAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moorfs_unmount_attempts_total",
		Help: "Unmount attempts by outcome",
	}, []string{"outcome"})

	// Auth metrics
	PasswordPrompts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moorfs_password_prompts_total",
		Help: "Password prompts shown after key auth failed",
	})

	// Host discovery metrics
	HostCacheRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moorfs_host_cache_rebuilds_total",
		Help: "Host list rebuilds caused by source file changes",
	})

	// Mount table metrics
	MountTableFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moorfs_mount_table_fallbacks_total",
		Help: "Active-mount queries that fell back to directory scanning",
	})
)

func init() {
	// Pre-initialize Vec metrics so they appear in the textfile before first use.
	MountAttempts.WithLabelValues(OutcomeSuccess)
	MountAttempts.WithLabelValues(OutcomeAlreadyMounted)
	MountAttempts.WithLabelValues(OutcomeAuthFailed)
	UnmountAttempts.WithLabelValues(OutcomeSuccess)
	UnmountAttempts.WithLabelValues(OutcomeError)
}

// WriteTextfile dumps every registered metric to path in the Prometheus
// text exposition format, for the node-exporter textfile collector.
func WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics.WriteTextfile: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("metrics.WriteTextfile: %w", err)
	}
	return nil
}
