package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges
var (
	ActiveLiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "travel_live_active_sessions",
		Help: "Number of live audio sessions in the connected state",
	})
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "travel_connected_clients",
		Help: "Number of WebSocket and Twilio clients attached to the service",
	})
	ActivePlaybackVoices = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "travel_live_active_playback_voices",
		Help: "Number of scheduled playback chunks not yet finished",
	})
)

// Counters
var (
	LiveSessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travel_live_sessions_started_total",
		Help: "Total live session start attempts",
	})
	LiveSessionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travel_live_session_errors_total",
		Help: "Live session failures by kind",
	}, []string{"kind"})
	TeardownsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travel_live_teardowns_total",
		Help: "Session teardowns by trigger",
	}, []string{"trigger"})
	FramesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travel_live_capture_frames_sent_total",
		Help: "Capture frames handed to the realtime channel",
	})
	FramesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travel_live_capture_frames_dropped_total",
		Help: "Capture frames dropped because the channel was not ready",
	})
	ChunksScheduledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travel_live_playback_chunks_scheduled_total",
		Help: "Decoded playback chunks scheduled on the output device",
	})
	DecodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travel_live_decode_errors_total",
		Help: "Inbound audio fragments that failed to decode",
	})
	InterruptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travel_live_interruptions_total",
		Help: "Model turns interrupted by the user",
	})
	TurnsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travel_live_turns_completed_total",
		Help: "Transcript turns finalized",
	})
	ClientsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travel_clients_rejected_total",
		Help: "Client connections rejected due to the session limit",
	})
	VideoJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travel_video_jobs_total",
		Help: "Video generation jobs by outcome",
	}, []string{"outcome"})
	ItinerariesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travel_itineraries_total",
		Help: "Itinerary generations by outcome",
	}, []string{"outcome"})
)

// Histograms
var (
	ConnectLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "travel_live_connect_duration_ms",
		Help:    "Time from start to channel open in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000},
	})
	VideoJobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "travel_video_job_duration_seconds",
		Help:    "Time from video job submission to completion",
		Buckets: []float64{30, 60, 120, 240, 480, 900},
	})
)
