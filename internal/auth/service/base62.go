package service

import (
	"errors"
	"math/big"
	"strings"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
)

var (
	errBase62Empty   = errors.New("base62: empty input")
	errBase62Invalid = errors.New("base62: invalid character")

	base62Radix = big.NewInt(int64(len(authDomain.Base62Alphabet)))
)

// base62Width returns the number of base62 digits needed to represent any
// value of n bytes.
func base62Width(n int) int {
	limit := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
	power := big.NewInt(1)
	width := 0
	for power.Cmp(limit) < 0 {
		power.Mul(power, base62Radix)
		width++
	}
	return width
}

// byteWidth returns the smallest byte count able to hold any value of
// digits base62 digits. It is either the encoded length or one more.
func byteWidth(digits int) int {
	power := new(big.Int).Exp(base62Radix, big.NewInt(int64(digits)), nil)
	return (power.BitLen() + 7) / 8
}

// Base62Encode encodes b as a big-endian number, left padded with '0' to the
// fixed width of len(b) bytes.
func Base62Encode(b []byte) string {
	width := base62Width(len(b))
	out := make([]byte, width)
	for i := range out {
		out[i] = authDomain.Base62Alphabet[0]
	}

	value := new(big.Int).SetBytes(b)
	mod := new(big.Int)
	for i := width - 1; value.Sign() > 0; i-- {
		value.DivMod(value, base62Radix, mod)
		out[i] = authDomain.Base62Alphabet[mod.Int64()]
	}
	return string(out)
}

// Base62Decode decodes s into the byte width implied by its length. The
// result may carry leading zero bytes that were not part of the encoded
// input; callers must resolve that ambiguity themselves.
func Base62Decode(s string) ([]byte, error) {
	if s == "" {
		return nil, errBase62Empty
	}

	value := new(big.Int)
	for i := 0; i < len(s); i++ {
		digit := strings.IndexByte(authDomain.Base62Alphabet, s[i])
		if digit < 0 {
			return nil, errBase62Invalid
		}
		value.Mul(value, base62Radix)
		value.Add(value, big.NewInt(int64(digit)))
	}

	return value.FillBytes(make([]byte, byteWidth(len(s)))), nil
}
