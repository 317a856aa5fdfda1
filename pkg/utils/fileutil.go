// File helpers shared by the document catalog and upload handlers.
package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ContentHash returns the hex md5 digest of raw file bytes.
// It is the dedup identity for uploaded documents.
func ContentHash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// FormatFileSize renders a byte count in human readable form (e.g. "1.5MB").
func FormatFileSize(size int64) string {
	if size == 0 {
		return "0B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	value := float64(size)
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%.1f%s", value, units[i])
}

// FileExtension returns the lowercase extension of a filename without the dot.
func FileExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return strings.TrimPrefix(ext, ".")
}

// IsSupportedFileType reports whether the filename's extension is in the allow list.
func IsSupportedFileType(filename string, allowed []string) bool {
	ext := FileExtension(filename)
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// SanitizeFilename replaces characters that are unsafe in stored file names.
func SanitizeFilename(filename string) string {
	unsafe := []string{"<", ">", ":", "\"", "/", "\\", "|", "?", "*"}
	for _, ch := range unsafe {
		filename = strings.ReplaceAll(filename, ch, "_")
	}
	return filename
}

// TruncateText shortens text to maxLen runes with a trailing ellipsis.
func TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// EnsureDir creates the directory if it does not exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
