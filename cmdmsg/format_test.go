package cmdmsg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		description string
		formats     string
		expected    []FormatCode
		wantErr     bool
	}{
		{
			description: "empty string yields empty slice",
			formats:     "",
			expected:    []FormatCode{},
		},
		{
			description: "every letter",
			formats:     "ciIlLfds?g",
			expected: []FormatCode{
				FormatChar, FormatInt, FormatUint, FormatLong, FormatUlong,
				FormatFloat, FormatDouble, FormatString, FormatBool, FormatGuess,
			},
		},
		{
			description: "typical command formats",
			formats:     "ii",
			expected:    []FormatCode{FormatInt, FormatInt},
		},
		{
			description: "unknown letter rejected",
			formats:     "ix",
			wantErr:     true,
		},
		{
			description: "uppercase string letter rejected",
			formats:     "S",
			wantErr:     true,
		},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		codes, err := ParseFormats(test.formats)
		if test.wantErr {
			require.ErrorIs(err, ErrInvalidFormat)
			continue
		}
		require.NoError(err)
		require.Equal(test.expected, codes)
	}
}

func TestFormatCodeLetterRoundTrip(t *testing.T) {
	require := require.New(t)

	for _, f := range []FormatCode{
		FormatChar, FormatInt, FormatUint, FormatLong, FormatUlong,
		FormatFloat, FormatDouble, FormatString, FormatBool, FormatGuess,
	} {
		parsed, err := ParseFormat(f.Letter())
		require.NoError(err)
		require.Equal(f, parsed)
		require.NotContains(f.String(), "FormatCode(")
	}
}

func TestGuessFormats(t *testing.T) {
	require := require.New(t)

	codes := guessFormats(3)
	require.Len(codes, 3)
	for _, c := range codes {
		require.Equal(FormatGuess, c)
	}
}
