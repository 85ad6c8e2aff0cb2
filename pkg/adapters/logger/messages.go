package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Starting run %s":                 "実行 %s を開始します",
		"Found %d streams in %s":          "%[2]s で %[1]d 本のストリームを検出しました",
		"Synchronizing %d streams (%s)":   "%d 本のストリームを同期中 (%s)",
		"Batch %d: %d cameras":            "バッチ %d: %d カメラ",
		"Extracted %d batches, %d images": "%d バッチ、%d 枚の画像を抽出しました",
		"Serving metrics on %s":           "%s でメトリクスを公開中",
		"Interrupted, shutting down...":   "中断されました。シャットダウン中...",

		// Warnings
		"%d of %d streams excluded":                     "%[2]d 本中 %[1]d 本のストリームを除外しました",
		"Stream %d excluded: %v":                        "ストリーム %d を除外しました: %v",
		"Stream %d: decode stopped after %d frames: %v": "ストリーム %d: %d フレームでデコードが停止しました: %v",
		"Stream %d: duplicate frame %d":                 "ストリーム %d: フレーム %d が重複しています",
		"Stream %d: ignoring repeated end of stream":    "ストリーム %d: 重複した終端を無視します",
		"Discarding packet from unknown stream %d":      "不明なストリーム %d のパケットを破棄します",
		"Batch %d has %d of %d cameras":                 "バッチ %d のカメラ数が %d/%d です",
		"Interrupted, output truncated at batch %d":     "中断されました。出力はバッチ %d で打ち切られました",
		"Copy of %s failed: %v":                         "%s のコピーに失敗しました: %v",

		// Errors
		"Failed to discover streams: %v":      "ストリームの検出に失敗しました: %v",
		"Failed to open streams: %v":          "ストリームのオープンに失敗しました: %v",
		"Failed to start synchronization: %v": "同期の開始に失敗しました: %v",
		"Failed to persist batches: %v":       "バッチの保存に失敗しました: %v",
	})
}
