package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAskYesNo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
		{"y", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := askYesNo(strings.NewReader(tt.input), &out, "Import 2 events?")
		assert.Equal(t, tt.want, got, "%q", tt.input)
		assert.Equal(t, "Import 2 events? [y/N] ", out.String())
	}
}
