package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Address
	}{
		{"short scalar", "0x1", "0x1"},
		{"uppercase normalized", "0xABCDEF", "0xabcdef"},
		{"leading zeros stripped", "0x000a", "0xa"},
		{"surrounding whitespace", "  0x2f  ", "0x2f"},
		{"max length", "0x" + strings64(), Address("0x" + strings64())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	for _, input := range []string{"", "0x", "1234", "0xz1", "0x" + strings64() + "f"} {
		_, err := ParseAddress(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestAddress_IsZero(t *testing.T) {
	assert.True(t, Address("").IsZero())
	assert.True(t, ZeroAddress.IsZero())

	parsed, err := ParseAddress("0x0000")
	require.NoError(t, err)
	assert.True(t, parsed.IsZero(), "zero-padded zero must normalize to the zero handle")

	nonZero, err := ParseAddress("0x1")
	require.NoError(t, err)
	assert.False(t, nonZero.IsZero())
}

func TestParseTopic(t *testing.T) {
	topic, err := ParseTopic("event_1")
	require.NoError(t, err)
	assert.Equal(t, Topic("event_1"), topic)

	hexTopic, err := ParseTopic("0x00FF")
	require.NoError(t, err)
	assert.Equal(t, Topic("0xff"), hexTopic)

	_, err = ParseTopic("")
	assert.Error(t, err)

	_, err = ParseTopic(string(make([]byte, 200)))
	assert.Error(t, err)
}

func TestFactFromBytes_RoundTrip(t *testing.T) {
	var digest [32]byte
	digest[0] = 0xde
	digest[31] = 0xef

	fact := FactFromBytes(digest)
	parsed, err := ParseFact(fact.String())
	require.NoError(t, err)
	assert.Equal(t, fact, parsed)
}

func TestParseFact_Invalid(t *testing.T) {
	for _, input := range []string{"", "0x12", "0x" + strings64() + "ff", "0x" + "zz" + strings64()[2:]} {
		_, err := ParseFact(input)
		assert.Error(t, err, "input %q", input)
	}
}

func strings64() string {
	s := ""
	for range 16 {
		s += "1a2b"
	}
	return s
}
