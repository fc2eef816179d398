package config

const (
	defaultDataDir                 = "~/.local/share/kari"
	defaultLogDir                  = "~/.local/share/kari/logs"
	defaultScratchDir              = "~/.cache/kari/scratch"
	defaultBackendKind             = BackendGradio
	defaultRecognitionURL          = "https://sapolita-kaldi.ithuan.tw"
	defaultTranslationURL          = "https://ithuan-formosan-translation.hf.space"
	defaultOpenAIAudioModel        = "whisper-1"
	defaultOpenAIChatModel         = "gpt-4o-mini"
	defaultBackendTimeoutSeconds   = 120
	defaultCorpusDriver            = CorpusSQLite
	defaultWindowMs                = 4500
	defaultEndTrimMs               = 100
	defaultRetryAttempts           = 3
	defaultRetryBackoffSeconds     = 2
	defaultFFmpegBinary            = "ffmpeg"
	defaultFFprobeBinary           = "ffprobe"
	defaultSubtitleStyle           = "FontSize=18,Bold=0,PrimaryColour=&HFFFFFF,OutlineColour=&H000000,BorderStyle=1,Outline=1,Shadow=1,Alignment=2,MarginV=15"
	defaultAutosaveIntervalSeconds = 60
	defaultPageSize                = 20
	defaultFinalDisplayMs          = 4400
	defaultActiveWindowMs          = 4500
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Backend kinds.
const (
	BackendGradio = "gradio"
	BackendOpenAI = "openai"
)

// Corpus drivers.
const (
	CorpusSQLite   = "sqlite"
	CorpusPostgres = "postgres"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			ScratchDir: defaultScratchDir,
		},
		Backend: Backend{
			Kind:             defaultBackendKind,
			RecognitionURL:   defaultRecognitionURL,
			TranslationURL:   defaultTranslationURL,
			OpenAIAudioModel: defaultOpenAIAudioModel,
			OpenAIChatModel:  defaultOpenAIChatModel,
			TimeoutSeconds:   defaultBackendTimeoutSeconds,
		},
		Corpus: Corpus{
			Driver: defaultCorpusDriver,
		},
		Pipeline: Pipeline{
			WindowMs:            defaultWindowMs,
			EndTrimMs:           defaultEndTrimMs,
			RetryAttempts:       defaultRetryAttempts,
			RetryBackoffSeconds: defaultRetryBackoffSeconds,
		},
		Render: Render{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Style:         defaultSubtitleStyle,
		},
		Session: Session{
			AutosaveIntervalSeconds: defaultAutosaveIntervalSeconds,
			PageSize:                defaultPageSize,
			FinalDisplayMs:          defaultFinalDisplayMs,
			ActiveWindowMs:          defaultActiveWindowMs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
