package scraper

import "errors"

var (
	// ErrNoMetadata 所有抽取後端都沒有回傳資料
	ErrNoMetadata = errors.New("no metadata extracted")
	// ErrNoShortcode 無法從網址取得 Instagram shortcode
	ErrNoShortcode = errors.New("failed to extract instagram shortcode")
	// ErrBackendUnavailable 後端停用或缺少設定
	ErrBackendUnavailable = errors.New("scraper backend unavailable")
	// ErrNoAudio 下載後找不到音訊檔
	ErrNoAudio = errors.New("audio file not found after download")
)
