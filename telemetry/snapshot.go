// Package telemetry publishes simulation snapshots to websocket subscribers.
package telemetry

import "encoding/json"

// Snapshot is the per-tick state of one simulated chair.
type Snapshot struct {
	Run   string  `json:"run"`
	Frame uint64  `json:"frame"`
	Time  float64 `json:"time"`

	Mode            string     `json:"mode"`
	Speed           float64    `json:"speed"`
	NormalizedSpeed float64    `json:"normalized_speed"`
	Heading         float64    `json:"heading"`
	Position        [3]float64 `json:"position"`
	Grounded        bool       `json:"grounded"`
	SlopeBlocked    bool       `json:"slope_blocked"`
	EmergencyBrake  bool       `json:"emergency_brake"`

	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`

	WheelAngle float64 `json:"wheel_angle"`

	Events []string `json:"events,omitempty"`
}

func (s Snapshot) JSON() ([]byte, error) {
	return json.Marshal(s)
}
