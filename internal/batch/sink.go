package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
)

// Sink persists one finished recording and returns the path used.
type Sink interface {
	Store(name string, data []byte) (string, error)
}

// DirSink writes WAV files into a directory, creating it on demand.
type DirSink struct {
	Dir string
}

func (s DirSink) Store(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fault.Wrap(fault.Storage, err, "create output folder")
	}
	path := filepath.Join(s.Dir, sanitizeFileName(name)+".wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fault.Wrap(fault.Storage, err, "write output file")
	}
	return path, nil
}

// sanitizeFileName keeps output names shell- and filesystem-friendly.
func sanitizeFileName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "recording"
	}
	return sb.String()
}

// OutputName mirrors the <name>_<company>.wav convention.
func OutputName(name, company string) string {
	return fmt.Sprintf("%s_%s", strings.ReplaceAll(strings.TrimSpace(name), " ", "_"), strings.ReplaceAll(strings.TrimSpace(company), " ", "_"))
}
