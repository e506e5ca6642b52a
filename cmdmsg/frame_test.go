package cmdmsg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func scanBytes(data []byte) ([][]byte, error) {
	parser := newFrameParser(DefaultSeparators())
	return parser.scan(&memSource{data: data})
}

func TestFrameParserScan(t *testing.T) {
	tests := []struct {
		description string
		data        []byte
		expected    [][]byte
	}{
		{
			description: "two plain fields",
			data:        []byte("2,10;"),
			expected:    [][]byte{[]byte("2"), []byte("10")},
		},
		{
			description: "escaped field separator stays in the field",
			data:        []byte("2,1/,0;"),
			expected:    [][]byte{[]byte("2"), []byte("1,0")},
		},
		{
			description: "escaped command separator does not terminate",
			data:        []byte("2,a/;b;"),
			expected:    [][]byte{[]byte("2"), []byte("a;b")},
		},
		{
			description: "escaped escape byte",
			data:        []byte("2,a//b;"),
			expected:    [][]byte{[]byte("2"), []byte("a/b")},
		},
		{
			description: "escaped NUL",
			data:        []byte{'2', ',', '/', 0, ';'},
			expected:    [][]byte{[]byte("2"), {0}},
		},
		{
			description: "empty fields are preserved",
			data:        []byte("2,,;"),
			expected:    [][]byte{[]byte("2"), []byte(""), []byte("")},
		},
		{
			description: "frame with no arguments",
			data:        []byte("7;"),
			expected:    [][]byte{[]byte("7")},
		},
		{
			description: "malformed escape keeps both bytes verbatim",
			data:        []byte("2,a/xb;"),
			expected:    [][]byte{[]byte("2"), []byte("a/xb")},
		},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		fields, err := scanBytes(test.data)
		require.NoError(err)
		require.Equal(test.expected, fields)
	}
}

func TestFrameParserIdle(t *testing.T) {
	tests := []struct {
		description string
		data        []byte
	}{
		{"empty stream", nil},
		{"trailing newline noise", []byte("\r\n")},
		{"spaces and tabs", []byte("  \t ")},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		fields, err := scanBytes(test.data)
		require.NoError(err)
		require.Nil(fields)
	}
}

func TestFrameParserTruncated(t *testing.T) {
	tests := []struct {
		description string
		data        []byte
	}{
		{"missing command separator", []byte("2,10")},
		{"field separator but no terminator", []byte("2,")},
		{"garbage with whitespace mixed in", []byte(" x\r\n")},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		fields, err := scanBytes(test.data)
		require.Nil(fields)
		require.ErrorIs(err, ErrMalformedFrame)

		var malformed *MalformedFrameError
		require.ErrorAs(err, &malformed)
		require.Equal(test.data, malformed.Raw())
	}
}

func TestFrameParserStopsAtTerminator(t *testing.T) {
	require := require.New(t)

	// Bytes after the command separator stay in the source for the next scan.
	src := &memSource{data: []byte("2,10;3,20;")}

	fields, err := newFrameParser(DefaultSeparators()).scan(src)
	require.NoError(err)
	require.Equal([][]byte{[]byte("2"), []byte("10")}, fields)

	fields, err = newFrameParser(DefaultSeparators()).scan(src)
	require.NoError(err)
	require.Equal([][]byte{[]byte("3"), []byte("20")}, fields)
}

func TestBuildFrame(t *testing.T) {
	sep := DefaultSeparators()

	tests := []struct {
		description string
		id          int
		encoded     [][]byte
		expected    []byte
	}{
		{
			description: "no arguments",
			id:          4,
			encoded:     nil,
			expected:    []byte("4;"),
		},
		{
			description: "plain fields",
			id:          2,
			encoded:     [][]byte{[]byte("10")},
			expected:    []byte("2,10;"),
		},
		{
			description: "reserved bytes inside a field get escaped",
			id:          2,
			encoded:     [][]byte{[]byte("a,b;c")},
			expected:    []byte("2,a/,b/;c;"),
		},
		{
			description: "NUL produced by a numeric field gets the final pass",
			id:          2,
			encoded:     [][]byte{{44, 0}},
			expected:    []byte{'2', ',', '/', 44, '/', 0, ';'},
		},
		{
			description: "multi digit command id",
			id:          12,
			encoded:     [][]byte{[]byte("x")},
			expected:    []byte("12,x;"),
		},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		frame := buildFrame(sep, test.id, test.encoded)
		require.Equal(test.expected, frame)

		// Every outbound frame must parse back into the same fields.
		fields, err := scanBytes(frame)
		require.NoError(err)
		require.Len(fields, len(test.encoded)+1)
		for j, enc := range test.encoded {
			require.Equal(enc, fields[j+1])
		}
	}
}
