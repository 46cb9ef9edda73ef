package input

import (
	"fmt"
	"strings"
)

// Key is a logical key. Hosts bind physical keys to these.
type Key uint8

const (
	KeyNone Key = iota
	KeyModeSlow
	KeyModeNormal
	KeyEmergencyBrake
	KeyToggleCursor
	KeyRecenterView
	KeyForward
	KeyBackward
	KeySteerLeft
	KeySteerRight

	keyCount
)

var keyNames = [...]string{
	KeyNone:           "none",
	KeyModeSlow:       "mode_slow",
	KeyModeNormal:     "mode_normal",
	KeyEmergencyBrake: "emergency_brake",
	KeyToggleCursor:   "toggle_cursor",
	KeyRecenterView:   "recenter_view",
	KeyForward:        "forward",
	KeyBackward:       "backward",
	KeySteerLeft:      "steer_left",
	KeySteerRight:     "steer_right",
}

func (k Key) String() string {
	if int(k) < len(keyNames) {
		return keyNames[k]
	}
	return fmt.Sprintf("key(%d)", uint8(k))
}

// ParseKey resolves a logical key name as used in bindings and scenario scripts.
func ParseKey(name string) (Key, error) {
	clean := strings.ToLower(strings.TrimSpace(name))
	for k := KeyModeSlow; k < keyCount; k++ {
		if keyNames[k] == clean {
			return k, nil
		}
	}
	return KeyNone, fmt.Errorf("input: unknown key %q", name)
}

// Keys lists every bindable logical key.
func Keys() []Key {
	keys := make([]Key, 0, keyCount-1)
	for k := KeyModeSlow; k < keyCount; k++ {
		keys = append(keys, k)
	}
	return keys
}

// KeySet is a bitmask of logical keys.
type KeySet uint32

func NewKeySet(keys ...Key) KeySet {
	var s KeySet
	for _, k := range keys {
		s = s.With(k)
	}
	return s
}

func (s KeySet) Has(k Key) bool {
	return k != KeyNone && s&(1<<k) != 0
}

func (s KeySet) With(k Key) KeySet {
	if k == KeyNone || k >= keyCount {
		return s
	}
	return s | 1<<k
}

func (s KeySet) Without(k Key) KeySet {
	return s &^ (1 << k)
}
