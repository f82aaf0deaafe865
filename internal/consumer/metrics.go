package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	processedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "anotashape",
			Subsystem: "consumer",
			Name:      "messages_processed_total",
			Help:      "Messages successfully handled and committed.",
		},
		[]string{"topic", "event_type"},
	)

	decodeErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "anotashape",
			Subsystem: "consumer",
			Name:      "decode_errors_total",
			Help:      "Messages that failed wire-format or header decoding.",
		},
		[]string{"topic"},
	)

	handlerErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "anotashape",
			Subsystem: "consumer",
			Name:      "handler_errors_total",
			Help:      "Messages whose handler returned an error; these are retried.",
		},
		[]string{"topic", "event_type"},
	)
)

func init() {
	prometheus.MustRegister(processedCounter, decodeErrorCounter, handlerErrorCounter)
}

func recordProcessed(msg Message) {
	processedCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
}

func recordDecodeError(topic string) {
	decodeErrorCounter.WithLabelValues(topic).Inc()
}

func recordHandlerError(msg Message) {
	handlerErrorCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
}
