// Package artifact stores synthesized reply audio under deterministic,
// write-once names that the call state machine can look up.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/audio"
)

const (
	Prefix    = "reply-"
	Extension = ".mp3"
	MIMEType  = "audio/mpeg"
)

var (
	ErrInvalidKey = errors.New("invalid artifact key")
	ErrEmpty      = errors.New("artifact has no audio")

	callIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

type Artifact struct {
	CallID   string
	Turn     int
	Audio    []byte
	MIMEType string
}

// Name is reply-<callId>-<turn>.mp3.
func Name(callID string, turn int) (string, error) {
	if !callIDPattern.MatchString(callID) || turn < 1 {
		return "", fmt.Errorf("%w: call %q turn %d", ErrInvalidKey, callID, turn)
	}
	return Prefix + callID + "-" + strconv.Itoa(turn) + Extension, nil
}

// IsReplyName reports whether a file name looks like a reply artifact.
func IsReplyName(name string) bool {
	return strings.HasPrefix(name, Prefix) && strings.HasSuffix(name, Extension)
}

type Options struct {
	// ValidateMP3 decodes the audio before it is stored.
	ValidateMP3 bool
}

// Store is a directory of reply artifacts shared with static audio serving.
type Store struct {
	dir    string
	opts   Options
	logger *zap.Logger
}

func NewStore(dir string, opts Options, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	return &Store{dir: dir, opts: opts, logger: logger}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Exists reports whether the artifact for (callID, turn) has been written.
// Keys that cannot name a file never exist.
func (s *Store) Exists(callID string, turn int) bool {
	name, err := Name(callID, turn)
	if err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Write persists a complete artifact. The file appears atomically via
// rename; readers never see a partial file. If the key already exists the
// write is skipped and created is false.
func (s *Store) Write(a Artifact) (created bool, err error) {
	name, err := Name(a.CallID, a.Turn)
	if err != nil {
		return false, err
	}
	if len(a.Audio) == 0 {
		return false, ErrEmpty
	}
	if a.MIMEType != "" && a.MIMEType != MIMEType {
		return false, fmt.Errorf("unsupported artifact type %q", a.MIMEType)
	}

	if s.opts.ValidateMP3 {
		info, err := audio.InspectMP3(a.Audio)
		if err != nil {
			return false, fmt.Errorf("reply audio rejected: %w", err)
		}
		s.logger.Debug("Reply audio decoded",
			zap.String("artifact", name),
			zap.Duration("duration", info.Duration),
			zap.Int("sample_rate", info.SampleRate),
		)
	}

	final := filepath.Join(s.dir, name)
	if s.Exists(a.CallID, a.Turn) {
		return false, nil
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return false, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(a.Audio); err != nil {
		tmp.Close()
		return false, fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return false, fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return false, fmt.Errorf("failed to set artifact mode: %w", err)
	}

	// Link fails if another writer got there first; that file stays.
	if err := os.Link(tmp.Name(), final); err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		if err := os.Rename(tmp.Name(), final); err != nil {
			return false, fmt.Errorf("failed to publish artifact: %w", err)
		}
	}
	return true, nil
}

// Read returns the stored bytes.
func (s *Store) Read(callID string, turn int) ([]byte, error) {
	name, err := Name(callID, turn)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(s.dir, name))
}

// File describes one reply artifact on disk.
type File struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// List returns all reply artifacts in the directory. Prompt files and temp
// files are not included.
func (s *Store) List() ([]File, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio directory: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !IsReplyName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, File{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return files, nil
}

// Remove deletes one reply artifact by file name.
func (s *Store) Remove(name string) error {
	if !IsReplyName(name) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidKey, name)
	}
	return os.Remove(filepath.Join(s.dir, name))
}
