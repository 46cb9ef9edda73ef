package controller

import (
	"fmt"
	"strings"
)

type DriveMode uint8

const (
	DriveSlow DriveMode = iota
	DriveNormal
	DriveDisabled
)

func (m DriveMode) String() string {
	switch m {
	case DriveSlow:
		return "slow"
	case DriveNormal:
		return "normal"
	case DriveDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

func ParseDriveMode(s string) (DriveMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "slow":
		return DriveSlow, nil
	case "", "normal":
		return DriveNormal, nil
	case "disabled":
		return DriveDisabled, nil
	default:
		return DriveNormal, fmt.Errorf("%w: unknown drive mode %q", ErrInvalidConfig, s)
	}
}

// SlopeDecay selects how speed decays while the slope ahead is too steep.
type SlopeDecay uint8

const (
	// SlopeDecayPerFrame multiplies speed by the decay factor once per frame.
	SlopeDecayPerFrame SlopeDecay = iota
	// SlopeDecayPerTime applies the factor as if frames ran at the reference rate.
	SlopeDecayPerTime
)

func ParseSlopeDecay(s string) (SlopeDecay, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "frame":
		return SlopeDecayPerFrame, nil
	case "time":
		return SlopeDecayPerTime, nil
	default:
		return SlopeDecayPerFrame, fmt.Errorf("%w: unknown slope decay %q", ErrInvalidConfig, s)
	}
}
