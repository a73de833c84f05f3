package config

const (
	defaultStagingDir      = "~/.local/share/bobbin/staging"
	defaultOutputDir       = "~/.local/share/bobbin/renditions"
	defaultLogDir          = "~/.local/share/bobbin/logs"
	defaultFetchBinary     = "yt-dlp"
	defaultFetchTimeout    = 3600
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFmpegTimeout   = 7200
	defaultSegmentSeconds  = 4
	defaultQueueCapacity   = 8
	defaultMinFreeGiB      = 5
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// DefaultLadder is the rendition ladder applied when the config file does not
// declare one.
func DefaultLadder() []Rendition {
	return []Rendition{
		{Width: 360, Height: 360, BitrateKbps: 360},
		{Width: 720, Height: 720, BitrateKbps: 870},
		{Width: 1080, Height: 1080, BitrateKbps: 2100},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
		},
		Fetch: Fetch{
			Binary:         defaultFetchBinary,
			TimeoutSeconds: defaultFetchTimeout,
		},
		Transcode: Transcode{
			Binary:         defaultFFmpegBinary,
			TimeoutSeconds: defaultFFmpegTimeout,
			SegmentSeconds: defaultSegmentSeconds,
			Renditions:     DefaultLadder(),
		},
		Pipeline: Pipeline{
			QueueCapacity: defaultQueueCapacity,
			MinFreeGiB:    defaultMinFreeGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
