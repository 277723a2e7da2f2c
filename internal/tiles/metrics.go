package tiles

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const statusLabel = "status"

var (
	tilesLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planetview_tiles_live",
		Help: "The number of tile nodes currently tracked by the quadtree.",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planetview_tile_queue_depth",
		Help: "The number of tile fetch requests pending dispatch.",
	})

	fetchesInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planetview_tile_fetches_inflight",
		Help: "The number of tile fetches currently in flight.",
	})

	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planetview_tile_fetches_total",
		Help: "The number of completed tile fetches by outcome.",
	}, []string{
		statusLabel,
	})
)
