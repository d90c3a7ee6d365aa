package dynamic

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestChromeCandidates(t *testing.T) {
	linux := chromeCandidates("linux", "/home/u")
	if len(linux) == 0 || linux[0] != "/usr/bin/google-chrome-stable" {
		t.Errorf("Unexpected linux candidates: %v", linux)
	}
	if last := linux[len(linux)-1]; last != "/home/u/.local/share/flatpak/exports/bin/org.chromium.Chromium" {
		t.Errorf("Expected flatpak path last, got %s", last)
	}

	mac := chromeCandidates("darwin", "")
	if len(mac) != 2 {
		t.Errorf("Expected 2 darwin candidates without HOME, got %d", len(mac))
	}
}

func TestIsExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}

	dir := t.TempDir()
	exe := filepath.Join(dir, "chrome")
	plain := filepath.Join(dir, "notes.txt")
	os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755)
	os.WriteFile(plain, []byte("x"), 0644)

	if !isExecutable(exe) {
		t.Error("Expected executable file to be detected")
	}
	if isExecutable(plain) {
		t.Error("Expected non-executable file to be rejected")
	}
	if isExecutable(dir) {
		t.Error("Expected directory to be rejected")
	}
	if isExecutable(filepath.Join(dir, "missing")) {
		t.Error("Expected missing file to be rejected")
	}
}
