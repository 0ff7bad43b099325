package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/audit"
)

func testDefaults() Settings {
	return Settings{
		PrivilegedCaller: "+46705152223",
		FallbackNumber:   "+46733466657",
		MaxTurns:         3,
		Language:         "sv",
		AIRepliesEnabled: true,
	}
}

func TestTurnsClamped(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, 0},
		{0, 0},
		{3, 3},
		{5, 5},
		{9, 5},
	}
	for _, tt := range tests {
		if got := (Settings{MaxTurns: tt.in}).Turns(); got != tt.want {
			t.Errorf("Turns(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantKey string
	}{
		{name: "valid", mutate: func(s *Settings) {}},
		{name: "no privileged caller is fine", mutate: func(s *Settings) { s.PrivilegedCaller = "" }},
		{name: "bad fallback", mutate: func(s *Settings) { s.FallbackNumber = "0733" }, wantKey: "fallback_number"},
		{name: "missing fallback", mutate: func(s *Settings) { s.FallbackNumber = "" }, wantKey: "fallback_number"},
		{name: "too many turns", mutate: func(s *Settings) { s.MaxTurns = 6 }, wantKey: "max_turns"},
		{name: "unknown language", mutate: func(s *Settings) { s.Language = "fi" }, wantKey: "language"},
		{name: "wait cycles", mutate: func(s *Settings) { s.ReplyWaitCycles = 4 }, wantKey: "reply_wait_cycles"},
		{name: "legacy path", mutate: func(s *Settings) { s.LegacyAudioFile = "../etc/passwd.mp3" }, wantKey: "legacy_audio_file"},
		{name: "legacy not mp3", mutate: func(s *Settings) { s.LegacyAudioFile = "song.wav" }, wantKey: "legacy_audio_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testDefaults()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantKey == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tt.wantKey]; !ok {
				t.Errorf("missing field %q in %v", tt.wantKey, verr.Fields)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	s := Settings{PrivilegedCaller: "070-515 22 23", FallbackNumber: "0046733466657", Language: " SV "}
	got := s.Normalize("46")
	if got.PrivilegedCaller != "+46705152223" {
		t.Errorf("PrivilegedCaller = %q", got.PrivilegedCaller)
	}
	if got.FallbackNumber != "+46733466657" {
		t.Errorf("FallbackNumber = %q", got.FallbackNumber)
	}
	if got.Language != "sv" {
		t.Errorf("Language = %q", got.Language)
	}
}

func TestFileStoreMissingFileReturnsDefaults(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.json"), testDefaults())
	got, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != testDefaults() {
		t.Errorf("Get() = %+v", got)
	}
}

func TestFileStorePutGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	store := NewFileStore(path, testDefaults())

	want := testDefaults()
	want.MaxTurns = 2
	want.AIRepliesEnabled = false
	want.LegacyAudioFile = "Aha-remix.mp3"
	if err := store.Put(context.Background(), want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got.UpdatedAt = time.Time{}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".settings-*"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestFileStorePartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"max_turns": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFileStore(path, testDefaults()).Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.MaxTurns != 1 || got.FallbackNumber != "+46733466657" || !got.AIRepliesEnabled {
		t.Errorf("Get() = %+v", got)
	}
}

func TestServiceCurrentFallsBackOnCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewService(NewFileStore(path, testDefaults()), testDefaults(), "46", audit.NewLogger(nil, zap.NewNop()), zap.NewNop())
	if got := svc.Current(context.Background()); got != testDefaults() {
		t.Errorf("Current() = %+v", got)
	}
	if _, err := svc.Get(context.Background()); err == nil {
		t.Error("Get() should surface the parse error")
	}
}

func TestServiceUpdate(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.json"), testDefaults())
	svc := NewService(store, testDefaults(), "46", nil, zap.NewNop())

	next := testDefaults()
	next.FallbackNumber = "0733 46 66 58"
	saved, err := svc.Update(context.Background(), "admin", next)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if saved.FallbackNumber != "+46733466658" || saved.UpdatedBy != "admin" || saved.UpdatedAt.IsZero() {
		t.Errorf("saved = %+v", saved)
	}
	if got := svc.Current(context.Background()); got.FallbackNumber != "+46733466658" {
		t.Errorf("Current().FallbackNumber = %q", got.FallbackNumber)
	}

	bad := testDefaults()
	bad.MaxTurns = 99
	var verr *ValidationError
	if _, err := svc.Update(context.Background(), "admin", bad); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
