package ai

import (
	"strings"
	"unicode"
)

type languagePack struct {
	systemPrompt    string
	acknowledgement string
}

var languages = map[string]languagePack{
	"sv": {
		systemPrompt: "Du pratar i telefon med en äldre person. Svara på svenska med högst två korta, lugna och vänliga meningar. " +
			"Ge aldrig medicinska, juridiska eller ekonomiska råd. Om du är osäker, säg att någon kommer att höra av sig.",
		acknowledgement: "Jag hörde inte riktigt vad du sa, men jag lyssnar.",
	},
	"en": {
		systemPrompt: "You are talking on the phone with an elderly person. Reply in English with at most two short, calm and kind sentences. " +
			"Never give medical, legal or financial advice. If unsure, say that someone will get back to them.",
		acknowledgement: "I didn't quite catch that, but I'm listening.",
	},
}

func pack(language string) languagePack {
	if p, ok := languages[strings.ToLower(language)]; ok {
		return p
	}
	return languages["en"]
}

// SystemPrompt is the instruction given to every responder.
func SystemPrompt(language string) string {
	return pack(language).systemPrompt
}

// Acknowledgement is fed to the responder when speech could not be understood.
func Acknowledgement(language string) string {
	return pack(language).acknowledgement
}

// LimitSentences keeps at most n sentences of s.
func LimitSentences(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || s == "" {
		return s
	}
	count := 0
	runes := []rune(s)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		count++
		if count == n {
			return strings.TrimSpace(string(runes[:i+1]))
		}
	}
	return s
}
