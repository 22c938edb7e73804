package sourcemap

import (
	"fmt"
	"strings"
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Index = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(base64Chars); i++ {
		idx[base64Chars[i]] = int8(i)
	}
	return idx
}()

func encodeVLQ(b *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & 31
		u >>= 5
		if u > 0 {
			digit |= 32
		}
		b.WriteByte(base64Chars[digit])
		if u == 0 {
			return
		}
	}
}

func decodeVLQ(s string, pos int) (value, next int, err error) {
	shift, result := 0, 0
	for {
		if pos >= len(s) {
			return 0, pos, fmt.Errorf("truncated VLQ at %d", pos)
		}
		digit := int(base64Index[s[pos]])
		if digit < 0 {
			return 0, pos, fmt.Errorf("invalid base64 character %q at %d", s[pos], pos)
		}
		pos++
		result += (digit & 31) << shift
		if digit&32 == 0 {
			break
		}
		shift += 5
	}
	if result&1 == 1 {
		return -(result >> 1), pos, nil
	}
	return result >> 1, pos, nil
}
