package texture

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planetview_texture_cache_entries",
		Help: "The number of textures currently held in the cache.",
	})

	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planetview_texture_cache_evictions_total",
		Help: "The number of textures evicted from the cache.",
	})

	fetchedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planetview_texture_fetched_bytes_total",
		Help: "The number of tile image bytes downloaded.",
	})
)
