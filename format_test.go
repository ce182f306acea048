package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer

	headers := []string{"ID", "NAME"}
	rows := [][]string{
		{"1a2b3c", "Exports"},
		{"longer-folder-id", "N"},
	}

	printTable(&buf, headers, rows)
	output := buf.String()

	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "Exports")
	assert.Contains(t, output, "longer-folder-id")
}

func TestPrintTableAlignment(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf, []string{"ID", "NAME"}, [][]string{
		{"short", "A"},
		{"much-longer-id", "B"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 3)

	// All name cells start at the same column.
	assert.Equal(t, strings.Index(lines[1], "A"), strings.Index(lines[2], "B"))
}

func TestPrintTableTrimsTrailingSpaces(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf, []string{"ID", "NAME"}, [][]string{
		{"wider-than-header", "N"},
	})

	for _, line := range strings.Split(buf.String(), "\n") {
		assert.Equal(t, strings.TrimRight(line, " "), line)
	}
}

func TestPrintTableEmptyRows(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf, []string{"ID", "NAME"}, nil)

	assert.Equal(t, "ID  NAME\n", buf.String())
}
