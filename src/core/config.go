// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
	Pool     PoolConfiguration

	// LogLevel is a logrus level name
	LogLevel string

	// MetricsAddress is where pool metrics are served,
	// empty disables serving them
	MetricsAddress string
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the delay between event polls in milliseconds
	EventPollDelay int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	SwapchainSize uint32

	ScreenWidth  uint32
	ScreenHeight uint32
}

// PoolConfiguration is used to configure resource pools
type PoolConfiguration struct {
	// RetentionFrames is how many frames a released resource
	// is kept for reuse before it is destroyed
	RetentionFrames int
}

// DefaultConfiguration returns the configuration used
// for anything the environment doesn't set.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  50,
		},
		Renderer: RendererConfiguration{
			SwapchainSize: 3,
			ScreenWidth:   800,
			ScreenHeight:  600,
		},
		Pool: PoolConfiguration{
			RetentionFrames: 3,
		},
		LogLevel: "info",
	}
}
