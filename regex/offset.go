// Copyright 2023 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regex

import (
	"unicode/utf8"

	"github.com/Retropikzel/STklos/internal/runes"
)

// SingleByte reports whether every character of s is encoded in a
// single byte, in which case byte offsets and character indexes agree.
func SingleByte(s string) bool { return runes.SingleByte(s) }

// CharIndex returns the index of the character that starts at
// byteOffset in the UTF-8 text buf. Each byte that is not part of a
// valid encoding counts as one character.
//
// byteOffset should fall on a character boundary, as the offsets
// reported by an engine do. An offset inside a multi-byte sequence
// yields the index of the following character.
func CharIndex(buf string, byteOffset int) int {
	n := 0
	for i := 0; i < byteOffset && i < len(buf); n++ {
		_, size := utf8.DecodeRuneInString(buf[i:])
		i += size
	}
	return n
}
