package obs

// Label is a key/value pair attached to measurements.
type Label struct {
	Key   string
	Value string
}

// Meter is a very small interface for emitting counters/histograms.
// Implementations may no-op or bridge to a metrics system.
type Meter interface {
	Counter(name string, value float64, labels ...Label)
	Histogram(name string, value float64, labels ...Label)
}

// NopMeter is a Meter that discards all measurements.
type NopMeter struct{}

func (NopMeter) Counter(name string, value float64, labels ...Label)   {}
func (NopMeter) Histogram(name string, value float64, labels ...Label) {}

// LogMeter logs every measurement through a Logger, useful in tools that
// have no metrics backend.
type LogMeter struct {
	L Logger
}

func (m LogMeter) Counter(name string, value float64, labels ...Label) {
	m.L.Logf(Info, "counter %s=%g %v", name, value, labels)
}

func (m LogMeter) Histogram(name string, value float64, labels ...Label) {
	m.L.Logf(Info, "histogram %s=%g %v", name, value, labels)
}
