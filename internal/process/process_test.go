package process

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminate_NoMatch(t *testing.T) {
	// A pattern that matches nothing is the normal "bot is not running"
	// case and must not be reported as an error.
	pids, err := Terminate("botup-test-definitely-absent-pattern-xyzzy", time.Second)

	require.NoError(t, err)
	assert.Empty(t, pids, "no PIDs should be reported when nothing matched")
}

func TestParsePIDs(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected []int
	}{
		{
			name:     "pgrep style",
			output:   "123\n456\n",
			expected: []int{123, 456},
		},
		{
			name:     "wmic style with header and CRLF",
			output:   "ProcessId  \r\n1234  \r\n5678  \r\n\r\n",
			expected: []int{1234, 5678},
		},
		{
			name:     "empty output",
			output:   "",
			expected: nil,
		},
		{
			name:     "whitespace only",
			output:   "  \n\t\n",
			expected: nil,
		},
		{
			name:     "non-numeric noise skipped",
			output:   "abc\n42\n-5\n0\n",
			expected: []int{42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parsePIDs(tt.output))
		})
	}

	t.Run("excludes own pid", func(t *testing.T) {
		other := os.Getpid() + 1
		output := fmt.Sprintf("%d\n%d\n", os.Getpid(), other)
		assert.Equal(t, []int{other}, parsePIDs(output))
	})
}
