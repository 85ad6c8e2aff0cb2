// Package metrics exports Prometheus counters for synchronization runs and
// the copy pool.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/camsync/pkg/framesync"
	"github.com/user/camsync/pkg/ports"
)

var (
	// Synchronizer metrics
	packetsReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camsync_packets_received_total",
		Help: "Frame packets received by the synchronizer per stream",
	}, []string{"stream_id"})

	packetsDiscardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camsync_packets_discarded_total",
		Help: "Frame packets dropped at or beyond the cutoff per stream",
	}, []string{"stream_id"})

	batchesEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camsync_batches_emitted_total",
		Help: "Aligned batches emitted",
	})

	lastBatchTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "camsync_last_batch_timestamp_seconds",
		Help: "Timestamp of the most recent batch",
	})

	streamFrames = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "camsync_stream_frames",
		Help: "Frames delivered by a stream before it ended",
	}, []string{"stream_id"})

	// Copy pool metrics
	copyTasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camsync_copy_tasks_total",
		Help: "Copy tasks finished by outcome",
	}, []string{"outcome"})

	copyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "camsync_copy_duration_seconds",
		Help:    "Time spent copying one file",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~30s
	})
)

// Observer records engine events as Prometheus metrics.
type Observer struct{}

// NewObserver returns an Observer backed by the package collectors.
func NewObserver() *Observer {
	return &Observer{}
}

func (o *Observer) PacketReceived(streamID int) {
	packetsReceivedTotal.WithLabelValues(strconv.Itoa(streamID)).Inc()
}

func (o *Observer) PacketDiscarded(streamID, _ int) {
	packetsDiscardedTotal.WithLabelValues(strconv.Itoa(streamID)).Inc()
}

func (o *Observer) BatchEmitted(_ int, timestamp float64) {
	batchesEmittedTotal.Inc()
	lastBatchTimestamp.Set(timestamp)
}

func (o *Observer) StreamEnded(streamID, frames int) {
	streamFrames.WithLabelValues(strconv.Itoa(streamID)).Set(float64(frames))
}

var _ framesync.Observer = (*Observer)(nil)

// ObserveCopy records one finished copy task.
func ObserveCopy(d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	copyTasksTotal.WithLabelValues(outcome).Inc()
	copyDuration.Observe(d.Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger ports.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
