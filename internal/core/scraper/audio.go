package scraper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"recipe-scraper/internal/pkg/common"

	"go.uber.org/zap"
)

// audioFormat 優先 m4a，其次任何最佳音軌
const audioFormat = "bestaudio[ext=m4a]/bestaudio/best"

// AudioHandler 下載與刪除暫存音訊檔
type AudioHandler struct {
	runner Runner
	dir    string
	now    func() time.Time
}

// NewAudioHandler 創建音訊處理器並確保下載目錄存在
func NewAudioHandler(runner Runner, dir string) (*AudioHandler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}
	return &AudioHandler{runner: runner, dir: dir, now: time.Now}, nil
}

// outputTemplate 時間戳 + 項目索引 + 隨機後綴
func (h *AudioHandler) outputTemplate(itemIndex int) string {
	name := fmt.Sprintf("audio_%s_item%d_%s.%%(ext)s", h.now().Format("20060102_150405"), itemIndex, common.ShortID())
	return filepath.Join(h.dir, name)
}

// Download 下載最佳音軌並回傳本地路徑
func (h *AudioHandler) Download(ctx context.Context, url string, itemIndex int) (string, error) {
	common.LogInfo("Downloading audio", zap.Int("item", itemIndex))

	out, err := h.runner.Run(ctx,
		"-f", audioFormat,
		"-o", h.outputTemplate(itemIndex),
		"--no-playlist",
		"--no-warnings",
		"--no-simulate",
		"--print", "after_move:filepath",
		url,
	)
	if err != nil {
		return "", err
	}

	path := lastLine(string(out))
	if path == "" {
		return "", ErrNoAudio
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoAudio, path)
	}

	common.LogInfo("Audio downloaded", zap.String("file", filepath.Base(path)))
	return path, nil
}

// Delete 刪除音訊檔，失敗只記錄
func (h *AudioHandler) Delete(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			common.LogWarn("Delete failed", zap.String("file", filepath.Base(path)), zap.Error(err))
		}
		return
	}
	common.LogInfo("Deleted audio", zap.String("file", filepath.Base(path)))
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
