package repo

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestTruncateMessage(t *testing.T) {
	require.Equal(t, "boom", truncateMessage("boom", ErrorMessageCap))
	require.Equal(t, "", truncateMessage("", ErrorMessageCap))

	long := strings.Repeat("x", ErrorMessageCap+1)
	require.Equal(t, ErrorMessageCap, len(truncateMessage(long, ErrorMessageCap)))
}

func TestTruncateMessageKeepsRunesIntact(t *testing.T) {
	// Multibyte runes straddling the cap must not be split mid-sequence.
	long := strings.Repeat("é", ErrorMessageCap+10)
	got := truncateMessage(long, ErrorMessageCap)
	require.Equal(t, ErrorMessageCap, utf8.RuneCountInString(got))
	require.True(t, utf8.ValidString(got))
	require.True(t, strings.HasSuffix(got, "é"))
}
