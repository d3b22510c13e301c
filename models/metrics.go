package models

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dragnetSceneCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scene_count",
		Help: "The number of scenes.",
	})

	dragnetSceneCountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scene_count_total",
		Help: "The total number of scenes.",
	})
)

func instrumentIncreaseSceneGauge() {
	dragnetSceneCount.Inc()
}

func instrumentDecreaseSceneGauge() {
	dragnetSceneCount.Dec()
}

func instrumentCountScene() {
	dragnetSceneCountTotal.Inc()
}
