package scraper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// fakeRunner 以預設輸出取代 yt-dlp
type fakeRunner struct {
	mu     sync.Mutex
	output []byte
	err    error
	calls  [][]string
	// onRun 可在執行時寫入檔案等副作用
	onRun func(args []string) ([]byte, error)
}

func (f *fakeRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()
	if f.onRun != nil {
		return f.onRun(args)
	}
	return f.output, f.err
}

func (f *fakeRunner) lastArgs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// writeFromTemplate 依 -o 樣板產生實際檔案並回傳路徑
func writeFromTemplate(args []string, ext string) (string, error) {
	path := strings.Replace(argValue(args, "-o"), "%(ext)s", ext, 1)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, os.WriteFile(path, []byte("audio"), 0o644)
}

type stubCaptioner struct {
	text   string
	ok     bool
	called bool
}

func (s *stubCaptioner) Extract(_ context.Context, _, _ SubtitleTracks) (string, bool) {
	s.called = true
	return s.text, s.ok
}
