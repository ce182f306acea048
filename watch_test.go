package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drivebridge/drivebridge/internal/config"
)

func TestSkipWatchFile(t *testing.T) {
	wc := config.WatchConfig{
		SkipDotfiles: true,
		SkipSuffixes: []string{".tmp", ".part", ".swp"},
	}

	tests := []struct {
		name string
		file string
		want bool
	}{
		{"plain file", "notes.txt", false},
		{"dotfile", ".DS_Store", true},
		{"temp suffix", "upload.tmp", true},
		{"partial download", "video.part", true},
		{"vim swap", "notes.txt.swp", true},
		{"suffix in middle", "tmp.notes.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, skipWatchFile(tt.file, wc))
		})
	}
}

func TestSkipWatchFileDotfilesAllowed(t *testing.T) {
	wc := config.WatchConfig{SkipDotfiles: false}

	assert.False(t, skipWatchFile(".hidden", wc))
}
