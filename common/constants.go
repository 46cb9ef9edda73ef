package common

const (
	// KmhToMs divides a km/h value into m/s.
	KmhToMs = 3.6

	BaseWidth  = 1280
	BaseHeight = 720
)
