package component

// Telemetry marks an entity whose state is published. Interval is in seconds; zero
// publishes every tick.
type Telemetry struct {
	Interval float64

	Clock   float64 // simulated seconds since spawn
	Elapsed float64 // since the last publish
	Sent    uint64
}

var TelemetryComponent = NewComponent[Telemetry]()
