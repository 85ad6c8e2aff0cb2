// Package main provides localization for the camsync CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Synchronize frames from multiple cameras.": "複数カメラのフレームを同期します。",

		// Commands
		"Synchronize camera streams into frame batches.": "カメラストリームをフレームバッチに同期",
		"Mirror video files into an output directory.":   "動画ファイルを出力ディレクトリに複製",
		"Show version information.":                      "バージョン情報を表示",
		"camsync version %s":                             "camsync バージョン %s",

		// Runtime messages
		"Output saved to %s":                "出力を %s に保存しました",
		"Metrics listener stopped: %v":      "メトリクスの公開が停止しました: %v",
		"Copying %d videos with %d workers": "%d 本の動画を %d ワーカーでコピー中",
		"Copied %d videos, %d failed":       "%d 本の動画をコピーしました (失敗 %d)",

		// Summary output
		"Summary saved to %s":         "サマリーを %s に保存しました",
		"Failed to write summary: %s": "サマリーの書き込みに失敗しました: %s",

		// Summary content
		"Synchronization Summary": "同期サマリー",
		"Run":                     "実行",
		"Item":                    "項目",
		"Value":                   "値",
		"Run ID":                  "実行ID",
		"Input":                   "入力",
		"Output":                  "出力",
		"Mode":                    "モード",
		"Duration":                "所要時間",

		// Streams section
		"Streams":          "ストリーム",
		"No streams found": "ストリームが見つかりません",
		"Camera":           "カメラ",
		"Source":           "ソース",
		"Kind":             "種類",
		"Frames":           "フレーム数",
		"Excluded":         "除外",

		// Synchronization section
		"Synchronization":      "同期",
		"Batches":              "バッチ数",
		"Cutoff":               "打ち切り位置",
		"N/A":                  "なし",
		"Packets received":     "受信パケット",
		"Packets discarded":    "破棄パケット",
		"Unknown":              "不明",
		"Reference frame rate": "基準フレームレート",
		"Synchronized length":  "同期後の長さ",

		// Output section
		"Images written":        "書き出した画像",
		"Mosaic images enabled": "モザイク画像を出力",
		"Catalog":               "カタログ",
		"Generated at":          "生成日時",
	})
}
