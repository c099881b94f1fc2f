package cli

import (
	"fmt"
	"time"
)

// FormatBytes renders a byte count in human units.
func FormatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatSimilarity renders a cosine similarity as a percentage.
func FormatSimilarity(sim float64) string {
	return fmt.Sprintf("%.1f%%", sim*100)
}

// FormatImportance renders an importance score.
func FormatImportance(score float64) string {
	return fmt.Sprintf("%.2f", score)
}

// FormatTimestamp renders fractional Unix seconds as local time.
func FormatTimestamp(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	t := time.Unix(0, int64(seconds*1e9))
	return t.Format("2006-01-02 15:04:05")
}
