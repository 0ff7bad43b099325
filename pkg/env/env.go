package env

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	AppPort string
	TZ      string

	// Public HTTPS origin the call platform uses for callbacks and audio
	PublicBaseURL string
	AudioDir      string

	// Routing defaults; the settings store overrides these per request
	PrivilegedCaller   string
	FallbackNumber     string
	MaxTurns           int
	Language           string
	AIRepliesEnabled   bool
	LegacyAudioFile    string
	ReplyWaitCycles    int
	DefaultCountryCode string

	// Prompt files under AudioDir
	GreetingAudio    string
	ReassuranceAudio string
	WaitingAudio     string
	ClosingAudio     string

	SettingsBackend string
	SettingsFile    string

	RedisURL string

	MongoURI string
	DBName   string

	// 46elks API credentials, used to download recordings
	ElksAPIUser     string
	ElksAPIPassword string

	// Turn pipeline
	TrustedMediaDomains []string
	AllowInsecureMedia  bool
	MaxMediaBytes       int64
	FetchTimeoutMs      int
	STTTimeoutMs        int
	LLMTimeoutMs        int
	TTSTimeoutMs        int
	TurnSoftDeadlineMs  int
	TurnHardDeadlineMs  int
	PipelineWorkers     int
	PipelineQueueSize   int
	MinSTTConfidence    float64
	ValidateMP3         bool

	// STT
	STTProvider    string
	SonioxApiKey   string
	SonioxBaseURL  string
	DeepgramApiKey string
	DeepgramModel  string
	WhisperModel   string

	// LLM, tried in order
	LLMProviders       []string
	DeepSeekApiKey     string
	DeepSeekBaseURL    string
	DeepSeekModel      string
	OpenAIApiKey       string
	OpenAIModel        string
	AnthropicApiKey    string
	AnthropicModel     string
	GeminiApiKey       string
	GeminiModel        string
	LLMMaxTokens       int

	// TTS
	TTSProvider            string
	ElevenLabsApiKey       string
	ElevenLabsVoiceID      string
	ElevenLabsModel        string
	ElevenLabsOutputFormat string
	OpenAITTSVoice         string

	// Admin surface
	JWTSecret         string
	JWTIssuer         string
	AccessTTLMin      int
	AdminUser         string
	AdminPasswordHash string
	WebhookUser       string
	WebhookPassword   string

	CleanupIntervalMin  int
	ReplyRetentionHours int

	LogLevel           string
	CORSAllowedOrigins string

	OTELEndpoint string
	OTELEnabled  bool
}

func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// A missing .env is fine; production injects the environment directly
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8080"),
		TZ:      getEnv("TZ", "Europe/Stockholm"),

		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		AudioDir:      getEnv("AUDIO_DIR", "audio"),

		PrivilegedCaller:   getEnv("PRIVILEGED_CALLER", ""),
		FallbackNumber:     getEnv("FALLBACK_NUMBER", ""),
		MaxTurns:           getEnvInt("MAX_TURNS", 3),
		Language:           getEnv("LANGUAGE", "sv"),
		AIRepliesEnabled:   getEnvBool("AI_REPLIES_ENABLED", true),
		LegacyAudioFile:    getEnv("LEGACY_AUDIO_FILE", ""),
		ReplyWaitCycles:    getEnvInt("REPLY_WAIT_CYCLES", 0),
		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "46"),

		GreetingAudio:    getEnv("GREETING_AUDIO", "hello.mp3"),
		ReassuranceAudio: getEnv("REASSURANCE_AUDIO", "fallback.mp3"),
		WaitingAudio:     getEnv("WAITING_AUDIO", "waiting.mp3"),
		ClosingAudio:     getEnv("CLOSING_AUDIO", "goodbye.mp3"),

		SettingsBackend: getEnv("SETTINGS_BACKEND", "file"),
		SettingsFile:    getEnv("SETTINGS_FILE", "settings.json"),

		RedisURL: getEnv("REDIS_URL", ""),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:   getEnv("DB_NAME", "callrouter"),

		ElksAPIUser:     getEnv("ELKS_API_USER", ""),
		ElksAPIPassword: getEnv("ELKS_API_PASSWORD", ""),

		TrustedMediaDomains: getEnvList("TRUSTED_MEDIA_DOMAINS", []string{"46elks.com", "46elks.se"}),
		AllowInsecureMedia:  getEnvBool("ALLOW_INSECURE_MEDIA", false),
		MaxMediaBytes:       int64(getEnvInt("MAX_MEDIA_BYTES", 10<<20)),
		FetchTimeoutMs:      getEnvInt("FETCH_TIMEOUT_MS", 2000),
		STTTimeoutMs:        getEnvInt("STT_TIMEOUT_MS", 3000),
		LLMTimeoutMs:        getEnvInt("LLM_TIMEOUT_MS", 2500),
		TTSTimeoutMs:        getEnvInt("TTS_TIMEOUT_MS", 2500),
		TurnSoftDeadlineMs:  getEnvInt("TURN_SOFT_DEADLINE_MS", 3000),
		TurnHardDeadlineMs:  getEnvInt("TURN_HARD_DEADLINE_MS", 8000),
		PipelineWorkers:     getEnvInt("PIPELINE_WORKERS", 4),
		PipelineQueueSize:   getEnvInt("PIPELINE_QUEUE_SIZE", 64),
		MinSTTConfidence:    getEnvFloat("MIN_STT_CONFIDENCE", 0.3),
		ValidateMP3:         getEnvBool("VALIDATE_MP3", true),

		STTProvider:    getEnv("STT_PROVIDER", "soniox"),
		SonioxApiKey:   getEnv("SONIOX_API_KEY", ""),
		SonioxBaseURL:  getEnv("SONIOX_BASE_URL", "https://api.soniox.com/v1"),
		DeepgramApiKey: getEnv("DEEPGRAM_API_KEY", ""),
		DeepgramModel:  getEnv("DEEPGRAM_MODEL", "nova-2"),
		WhisperModel:   getEnv("WHISPER_MODEL", "whisper-1"),

		LLMProviders:    getEnvList("LLM_PROVIDERS", []string{"deepseek", "openai", "anthropic"}),
		DeepSeekApiKey:  getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekBaseURL: getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com"),
		DeepSeekModel:   getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
		OpenAIApiKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicApiKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
		GeminiApiKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		LLMMaxTokens:    getEnvInt("LLM_MAX_TOKENS", 120),

		TTSProvider:            getEnv("TTS_PROVIDER", "elevenlabs"),
		ElevenLabsApiKey:       getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:      getEnv("ELEVENLABS_VOICE_ID", "5JD3K0SA9QTSxc9tVNpP"),
		ElevenLabsModel:        getEnv("ELEVENLABS_MODEL", "eleven_multilingual_v2"),
		ElevenLabsOutputFormat: getEnv("ELEVENLABS_OUTPUT_FORMAT", "mp3_44100_128"),
		OpenAITTSVoice:         getEnv("OPENAI_TTS_VOICE", "alloy"),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTIssuer:         getEnv("JWT_ISSUER", "call-router"),
		AccessTTLMin:      getEnvInt("ACCESS_TTL_MIN", 60),
		AdminUser:         getEnv("ADMIN_USER", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		WebhookUser:       getEnv("WEBHOOK_USER", ""),
		WebhookPassword:   getEnv("WEBHOOK_PASSWORD", ""),

		CleanupIntervalMin:  getEnvInt("CLEANUP_INTERVAL_MIN", 60),
		ReplyRetentionHours: getEnvInt("REPLY_RETENTION_HOURS", 24),

		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),

		OTELEndpoint: getEnv("OTEL_ENDPOINT", ""),
		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
	}

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", cfg.TZ, err)
	}
	time.Local = loc

	return cfg, nil
}

// Validate reports configuration that makes the router unable to route any call.
func (c *Config) Validate() error {
	var errs []error
	if c.FallbackNumber == "" {
		errs = append(errs, errors.New("FALLBACK_NUMBER is required"))
	}
	if c.AIRepliesEnabled && c.PublicBaseURL == "" {
		errs = append(errs, errors.New("PUBLIC_BASE_URL is required when AI replies are enabled"))
	}
	if c.SettingsBackend != "file" && c.SettingsBackend != "mongo" {
		errs = append(errs, fmt.Errorf("unknown SETTINGS_BACKEND %q", c.SettingsBackend))
	}
	if c.TurnHardDeadlineMs <= 0 {
		errs = append(errs, errors.New("TURN_HARD_DEADLINE_MS must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS; "*" comes back as a single entry.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o == "*" {
			return []string{"*"}
		} else if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(strValue)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvList(key string, defaultValue []string) []string {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
