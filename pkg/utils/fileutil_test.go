package utils

import "testing"

func TestContentHash_Deterministic(t *testing.T) {
	a := ContentHash([]byte("hello world"))
	b := ContentHash([]byte("hello world"))
	if a != b {
		t.Fatalf("ContentHash not deterministic: %q vs %q", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("ContentHash length = %d, want 32", len(a))
	}
	if c := ContentHash([]byte("hello worlds")); c == a {
		t.Fatalf("different content produced same hash %q", c)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0B"},
		{512, "512.0B"},
		{1024, "1.0KB"},
		{1536, "1.5KB"},
		{10 * 1024 * 1024, "10.0MB"},
		{3 * 1024 * 1024 * 1024, "3.0GB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestIsSupportedFileType(t *testing.T) {
	allowed := []string{"pdf", "txt", "docx"}
	tests := []struct {
		name string
		want bool
	}{
		{"report.pdf", true},
		{"REPORT.PDF", true},
		{"notes.txt", true},
		{"contract.docx", true},
		{"image.png", false},
		{"archive.tar.gz", false},
		{"noextension", false},
	}
	for _, tt := range tests {
		if got := IsSupportedFileType(tt.name, allowed); got != tt.want {
			t.Errorf("IsSupportedFileType(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	got := SanitizeFilename(`a/b\c:d*e?f"g<h>i|j.txt`)
	want := "a_b_c_d_e_f_g_h_i_j.txt"
	if got != want {
		t.Fatalf("SanitizeFilename = %q, want %q", got, want)
	}
}

func TestTruncateText(t *testing.T) {
	if got := TruncateText("short", 100); got != "short" {
		t.Fatalf("TruncateText(short) = %q", got)
	}
	got := TruncateText("abcdefghij", 8)
	if got != "abcde..." {
		t.Fatalf("TruncateText = %q, want %q", got, "abcde...")
	}
}
