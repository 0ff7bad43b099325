package ai

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/client"
)

// Options selects and configures one adapter per stage.
type Options struct {
	STTProvider  string
	LLMProviders []string
	TTSProvider  string

	STTTimeout time.Duration
	LLMTimeout time.Duration
	TTSTimeout time.Duration

	SonioxAPIKey   string
	SonioxBaseURL  string
	DeepgramAPIKey string
	DeepgramModel  string
	WhisperModel   string

	DeepSeekAPIKey  string
	DeepSeekBaseURL string
	DeepSeekModel   string
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
	MaxTokens       int

	ElevenLabsAPIKey       string
	ElevenLabsModel        string
	ElevenLabsOutputFormat string
	ElevenLabsVoiceID      string
	OpenAITTSVoice         string

	// Client options applied to every adapter, e.g. a test transport.
	ClientOptions []client.Option
}

// Stack is the selected adapter set plus the voice the synthesizer should use.
type Stack struct {
	Transcriber Transcriber
	Responder   *Manager
	Synthesizer Synthesizer
	VoiceID     string
}

func NewTranscriber(o Options, logger *zap.Logger) (Transcriber, error) {
	switch o.STTProvider {
	case "", "soniox":
		return NewSonioxTranscriber(o.SonioxAPIKey, o.SonioxBaseURL, o.STTTimeout, logger, o.ClientOptions...), nil
	case "whisper":
		return NewWhisperTranscriber(o.OpenAIAPIKey, o.WhisperModel, "", o.STTTimeout, logger, o.ClientOptions...), nil
	case "deepgram":
		return NewDeepgramTranscriber(o.DeepgramAPIKey, o.DeepgramModel, "", o.STTTimeout, logger, o.ClientOptions...), nil
	default:
		return nil, fmt.Errorf("unknown STT provider: %s", o.STTProvider)
	}
}

func NewResponder(name string, o Options, logger *zap.Logger) (Responder, error) {
	switch name {
	case "deepseek":
		return NewDeepSeekResponder(o.DeepSeekAPIKey, o.DeepSeekBaseURL, o.DeepSeekModel, o.MaxTokens, o.LLMTimeout, logger, o.ClientOptions...), nil
	case "openai":
		return NewOpenAIResponder(o.OpenAIAPIKey, o.OpenAIModel, o.MaxTokens, o.LLMTimeout, logger, o.ClientOptions...), nil
	case "anthropic":
		return NewAnthropicResponder(o.AnthropicAPIKey, o.AnthropicModel, o.MaxTokens, o.LLMTimeout, logger, o.ClientOptions...), nil
	case "gemini":
		return NewGeminiResponder(o.GeminiAPIKey, o.GeminiModel, o.MaxTokens, o.LLMTimeout, logger, o.ClientOptions...), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", name)
	}
}

// NewSynthesizer returns the synthesizer and the voice id to call it with.
func NewSynthesizer(o Options, logger *zap.Logger) (Synthesizer, string, error) {
	switch o.TTSProvider {
	case "", "elevenlabs":
		return NewElevenLabsSynthesizer(o.ElevenLabsAPIKey, o.ElevenLabsModel, o.ElevenLabsOutputFormat, "", o.TTSTimeout, logger, o.ClientOptions...), o.ElevenLabsVoiceID, nil
	case "openai":
		return NewOpenAISynthesizer(o.OpenAIAPIKey, "", o.TTSTimeout, logger, o.ClientOptions...), o.OpenAITTSVoice, nil
	default:
		return nil, "", fmt.Errorf("unknown TTS provider: %s", o.TTSProvider)
	}
}

// NewStack builds every stage. Unconfigured adapters are kept and report
// IsAvailable() == false so health checks can show them.
func NewStack(o Options, logger *zap.Logger) (*Stack, error) {
	stt, err := NewTranscriber(o, logger)
	if err != nil {
		return nil, err
	}

	var responders []Responder
	for _, name := range o.LLMProviders {
		r, err := NewResponder(name, o, logger)
		if err != nil {
			return nil, err
		}
		responders = append(responders, r)
	}

	tts, voice, err := NewSynthesizer(o, logger)
	if err != nil {
		return nil, err
	}

	return &Stack{
		Transcriber: stt,
		Responder:   NewManager(responders, logger),
		Synthesizer: tts,
		VoiceID:     voice,
	}, nil
}

// Ready reports whether every stage has a configured adapter.
func (s *Stack) Ready() bool {
	return s.Transcriber.IsAvailable() && s.Responder.IsAvailable() && s.Synthesizer.IsAvailable()
}
