package scraper

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner 執行 yt-dlp 並回傳標準輸出
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner 以子行程執行 yt-dlp
type ExecRunner struct {
	Path    string
	Timeout time.Duration
}

// NewExecRunner 創建 yt-dlp 執行器
func NewExecRunner(path string, timeout time.Duration) *ExecRunner {
	if path == "" {
		path = "yt-dlp"
	}
	return &ExecRunner{Path: path, Timeout: timeout}
}

// Run 執行指令，失敗時錯誤訊息帶上 stderr
func (r *ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("yt-dlp failed: %s", msg)
	}
	return stdout.Bytes(), nil
}

// Available 檢查執行檔是否存在於 PATH
func (r *ExecRunner) Available() bool {
	_, err := exec.LookPath(r.Path)
	return err == nil
}
