package config

const (
	defaultStateDir                = "~/.local/share/bookbinder"
	defaultLogDir                  = "~/.local/share/bookbinder/logs"
	defaultFFmpegBinary            = "ffmpeg"
	defaultFFprobeBinary           = "ffprobe"
	defaultProbeTimeoutSeconds     = 60
	defaultTranscodeTimeoutSeconds = 4 * 60 * 60
	defaultSegmentSeconds          = 2 * 60 * 60
	defaultSplitExtension          = "mp3"
	defaultSplitCodec              = "libmp3lame"
	defaultSplitBitrate            = "128k"
	defaultMergeCodec              = "aac"
	defaultMergeBitrate            = "96k"
	defaultMergeOutputExtension    = "m4b"
	defaultIntermediateExtension   = "wav"
	defaultCoverMaxDimension       = 1400
	defaultBookWorkers             = 1
	defaultSegmentWorkers          = 4
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultConsoleLogLevel         = "warn"
	defaultLogMaxSizeMB            = 20
	defaultLogMaxBackups           = 5
	defaultLogMaxAgeDays           = 30

	// CollisionOverwrite lets the last chapter with a given label win.
	CollisionOverwrite = "overwrite"
	// CollisionSuffix appends _2, _3, ... to repeated labels.
	CollisionSuffix = "suffix"

	// MergeOrderName sorts merge inputs by natural filename order.
	MergeOrderName = "name"
	// MergeOrderTrack sorts merge inputs by their track number tag.
	MergeOrderTrack = "track"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Engine: Engine{
			FFmpegBinary:            defaultFFmpegBinary,
			FFprobeBinary:           defaultFFprobeBinary,
			ProbeTimeoutSeconds:     defaultProbeTimeoutSeconds,
			TranscodeTimeoutSeconds: defaultTranscodeTimeoutSeconds,
		},
		Split: Split{
			SegmentSeconds:   defaultSegmentSeconds,
			Extension:        defaultSplitExtension,
			AudioCodec:       defaultSplitCodec,
			AudioBitrate:     defaultSplitBitrate,
			Collisions:       CollisionOverwrite,
			SourceExtensions: []string{".m4b"},
		},
		Merge: Merge{
			Extensions:            []string{".mp3"},
			AudioCodec:            defaultMergeCodec,
			AudioBitrate:          defaultMergeBitrate,
			OutputExtension:       defaultMergeOutputExtension,
			IntermediateExtension: defaultIntermediateExtension,
			CoverMaxDimension:     defaultCoverMaxDimension,
			Tags:                  []string{"artist"},
			Order:                 MergeOrderName,
		},
		Workers: Workers{
			Books:    defaultBookWorkers,
			Segments: defaultSegmentWorkers,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format:       defaultLogFormat,
			Level:        defaultLogLevel,
			ConsoleLevel: defaultConsoleLogLevel,
			MaxSizeMB:    defaultLogMaxSizeMB,
			MaxBackups:   defaultLogMaxBackups,
			MaxAgeDays:   defaultLogMaxAgeDays,
		},
	}
}
