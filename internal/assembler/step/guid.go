package step

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const guidChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_$"

// CompressGUID converts a canonical UUID to the 22 character IfcGloballyUniqueId form.
func CompressGUID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("compress guid %q: %w", id, err)
	}

	var b strings.Builder
	b.Grow(22)
	writeBase64(&b, uint32(u[0]), 2)
	for i := 1; i < 16; i += 3 {
		writeBase64(&b, uint32(u[i])<<16|uint32(u[i+1])<<8|uint32(u[i+2]), 4)
	}
	return b.String(), nil
}

// ExpandGUID reverses CompressGUID.
func ExpandGUID(compressed string) (string, error) {
	if len(compressed) != 22 {
		return "", fmt.Errorf("expand guid %q: want 22 characters", compressed)
	}

	var u uuid.UUID
	v, err := readBase64(compressed[:2])
	if err != nil {
		return "", err
	}
	if v > 0xff {
		return "", fmt.Errorf("expand guid %q: leading value out of range", compressed)
	}
	u[0] = byte(v)

	for i, pos := 1, 2; i < 16; i, pos = i+3, pos+4 {
		v, err := readBase64(compressed[pos : pos+4])
		if err != nil {
			return "", err
		}
		u[i] = byte(v >> 16)
		u[i+1] = byte(v >> 8)
		u[i+2] = byte(v)
	}
	return u.String(), nil
}

func writeBase64(b *strings.Builder, v uint32, digits int) {
	buf := make([]byte, digits)
	for i := digits - 1; i >= 0; i-- {
		buf[i] = guidChars[v%64]
		v /= 64
	}
	b.Write(buf)
}

func readBase64(s string) (uint32, error) {
	var v uint32
	for _, c := range []byte(s) {
		idx := strings.IndexByte(guidChars, c)
		if idx < 0 {
			return 0, fmt.Errorf("invalid guid character %q", c)
		}
		v = v*64 + uint32(idx)
	}
	return v, nil
}
