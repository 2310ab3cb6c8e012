// Package metrics provides Prometheus metrics for the LED control loop.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loopTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blinkd",
		Subsystem: "loop",
		Name:      "ticks_total",
		Help:      "Total control loop iterations",
	})

	loopTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "blinkd",
		Subsystem: "loop",
		Name:      "tick_duration_seconds",
		Help:      "Time spent in one control loop iteration",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
	})

	pinWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blinkd",
		Subsystem: "pin",
		Name:      "writes_total",
		Help:      "Pin primitive calls by pin and kind",
	}, []string{"pin", "kind"})

	pinErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blinkd",
		Subsystem: "pin",
		Name:      "errors_total",
		Help:      "Pin backend failures by pin and operation",
	}, []string{"pin", "op"})

	ledPattern = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blinkd",
		Subsystem: "led",
		Name:      "pattern",
		Help:      "Active pattern ordinal per LED",
	}, []string{"led"})

	ledOn = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blinkd",
		Subsystem: "led",
		Name:      "on",
		Help:      "1 if the LED output is lit",
	}, []string{"led"})

	ledBrightness = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blinkd",
		Subsystem: "led",
		Name:      "brightness",
		Help:      "Configured brightness per LED (0-255)",
	}, []string{"led"})

	commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blinkd",
		Name:      "commands_total",
		Help:      "Commands applied by the control loop, by result",
	}, []string{"result"})
)

// LEDState is the gauge view of one LED.
type LEDState struct {
	Pattern    int // led.Pattern ordinal
	On         bool
	Brightness int
}

// ObserveTick records one loop iteration and how long it took.
func ObserveTick(d time.Duration) {
	loopTicks.Inc()
	loopTickDuration.Observe(d.Seconds())
}

// RecordPinWrite counts a pin primitive call.
func RecordPinWrite(pin int, kind string) {
	pinWrites.WithLabelValues(strconv.Itoa(pin), kind).Inc()
}

// RecordPinError counts a backend failure. Its signature matches
// hw.ErrorFunc so it can be passed as the backend error hook.
func RecordPinError(pin int, op string, _ error) {
	pinErrors.WithLabelValues(strconv.Itoa(pin), op).Inc()
}

// RecordCommand counts a command by outcome.
func RecordCommand(err error) {
	if err != nil {
		commands.WithLabelValues("error").Inc()
		return
	}
	commands.WithLabelValues("ok").Inc()
}

// SetLEDState publishes the current state of a named LED.
func SetLEDState(name string, state LEDState) {
	ledPattern.WithLabelValues(name).Set(float64(state.Pattern))
	on := 0.0
	if state.On {
		on = 1
	}
	ledOn.WithLabelValues(name).Set(on)
	ledBrightness.WithLabelValues(name).Set(float64(state.Brightness))
}
