package config

const (
	defaultDataDir              = "~/.local/share/lectern"
	defaultLogDir               = "~/.local/share/lectern/logs"
	defaultAPIBind              = "127.0.0.1:7512"
	defaultEgressRequestTimeout = 15
	defaultRecordingLayout      = "speaker"
	defaultSegmentSeconds       = 6
	defaultPlaylistName         = "session.m3u8"
	defaultFileName             = "session.mp4"
	defaultOutputPrefixDir      = "recordings"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Egress: Egress{
			RequestTimeout: defaultEgressRequestTimeout,
		},
		Recording: Recording{
			Layout:          defaultRecordingLayout,
			SegmentSeconds:  defaultSegmentSeconds,
			PlaylistName:    defaultPlaylistName,
			FileName:        defaultFileName,
			OutputPrefixDir: defaultOutputPrefixDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
