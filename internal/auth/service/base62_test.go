package service

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase62_RoundTrip(t *testing.T) {
	for n := 1; n <= 80; n++ {
		input := make([]byte, n)
		_, err := rand.Read(input)
		require.NoError(t, err)

		encoded := Base62Encode(input)
		assert.Len(t, encoded, base62Width(n))

		decoded, err := Base62Decode(encoded)
		require.NoError(t, err)

		// The decoded width is the input length or one more, padded with zeros
		pad := len(decoded) - n
		require.Contains(t, []int{0, 1}, pad, "n=%d", n)
		assert.Equal(t, input, decoded[pad:])
		assert.Equal(t, make([]byte, pad), decoded[:pad])
	}
}

func TestBase62_LeadingZeros(t *testing.T) {
	input := []byte{0, 0, 0, 7, 255}
	encoded := Base62Encode(input)
	assert.True(t, strings.HasPrefix(encoded, "000"))

	decoded, err := Base62Decode(encoded)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(decoded, input))
}

func TestBase62_KnownValues(t *testing.T) {
	assert.Equal(t, "00", Base62Encode([]byte{0}))
	assert.Equal(t, "0z", Base62Encode([]byte{61}))
	assert.Equal(t, "10", Base62Encode([]byte{62}))
	assert.Equal(t, "47", Base62Encode([]byte{255}))
}

func TestBase62Decode_Errors(t *testing.T) {
	t.Run("Error_Empty", func(t *testing.T) {
		_, err := Base62Decode("")
		assert.ErrorIs(t, err, errBase62Empty)
	})

	t.Run("Error_InvalidCharacter", func(t *testing.T) {
		for _, input := range []string{"ab-c", "abc=", "ab c", "é"} {
			_, err := Base62Decode(input)
			assert.ErrorIs(t, err, errBase62Invalid)
		}
	})
}
