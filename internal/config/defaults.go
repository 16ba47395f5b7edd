package config

const (
	defaultClipDir          = "~/.cache/murmur/clips"
	defaultStateDir         = "~/.local/share/murmur"
	defaultLogDir           = "~/.local/share/murmur/logs"
	defaultLinksFile        = "resources/links.json"
	defaultPoolSource       = PoolSourceJSON
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 14

	defaultMinDuration      = 8
	defaultMaxDuration      = 32
	defaultMaxConcurrency   = 5
	defaultQueueCapacity    = 5
	defaultDownloadDelay    = 5.0
	defaultResolveTimeout   = 30
	defaultTranscodeTimeout = 10
	defaultThumbnailTimeout = 5
	defaultAudioFormat      = AudioFormatFLAC

	defaultPlayers       = 16
	defaultEngine        = EngineSpeaker
	defaultSlotPolicy    = SlotPolicyOldest
	defaultFadeSeconds   = 0.5
	defaultAttackSeconds = 0.75
	defaultReleaseRatio  = 0.25
	defaultSpeedMin      = 0.75
	defaultSpeedMax      = 1.25
	defaultPacingScale   = 4.0
	defaultPacingFloor   = 2.0
	defaultIdleInterval  = 0.5
	defaultSampleRate    = 44100
	defaultBufferMillis  = 100
	defaultLowShelfHz    = 180.0
	defaultLowShelfGain  = -12.0

	defaultThumbnailOutput     = "~/.local/share/murmur/now_playing.jpg"
	defaultTransitionSeconds   = 5.0
	defaultThumbnailFrameRate  = 30
	defaultThumbnailBlurRadius = 3
	defaultYTDLPBinary         = "yt-dlp"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultConfigPathTemplate  = "~/.config/murmur/config.toml"
	defaultProjectConfigFile   = "murmur.toml"
	defaultLockFileName        = "murmur.lock"
	defaultStateDatabaseName   = "murmur.db"
	defaultRunLogFilePrefix    = "murmur-"
	defaultRunLogFileExtension = ".log"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ClipDir:  defaultClipDir,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Pool: Pool{
			Source:    defaultPoolSource,
			LinksFile: defaultLinksFile,
		},
		Fetch: Fetch{
			MinDuration:      defaultMinDuration,
			MaxDuration:      defaultMaxDuration,
			MaxConcurrency:   defaultMaxConcurrency,
			QueueCapacity:    defaultQueueCapacity,
			DownloadDelay:    defaultDownloadDelay,
			ResolveTimeout:   defaultResolveTimeout,
			TranscodeTimeout: defaultTranscodeTimeout,
			ThumbnailTimeout: defaultThumbnailTimeout,
			AudioFormat:      defaultAudioFormat,
			YTDLPBinary:      defaultYTDLPBinary,
			FFmpegBinary:     defaultFFmpegBinary,
			FFprobeBinary:    defaultFFprobeBinary,
		},
		Playback: Playback{
			Players:        defaultPlayers,
			Engine:         defaultEngine,
			SlotPolicy:     defaultSlotPolicy,
			FadeSeconds:    defaultFadeSeconds,
			AttackSeconds:  defaultAttackSeconds,
			ReleaseRatio:   defaultReleaseRatio,
			SpeedMin:       defaultSpeedMin,
			SpeedMax:       defaultSpeedMax,
			PacingScale:    defaultPacingScale,
			PacingFloor:    defaultPacingFloor,
			IdleInterval:   defaultIdleInterval,
			SampleRate:     defaultSampleRate,
			BufferMillis:   defaultBufferMillis,
			LowShelfHz:     defaultLowShelfHz,
			LowShelfGainDB: defaultLowShelfGain,
		},
		Thumbnail: Thumbnail{
			OutputPath:        defaultThumbnailOutput,
			TransitionSeconds: defaultTransitionSeconds,
			FrameRate:         defaultThumbnailFrameRate,
			BlurRadius:        defaultThumbnailBlurRadius,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
