// Copyright 2023 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runes holds the UTF-8 helpers shared by the engines and the
// regex package.
package runes

import "unicode/utf8"

// SingleByte reports whether every character of s is encoded in a
// single byte, in which case byte offsets and character indexes agree.
func SingleByte(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Offsets returns the byte offset of each character of s, plus len(s).
// Ranging over a string yields one character per invalid byte, the same
// decoding []rune(s) applies.
func Offsets(s string) []int {
	offsets := make([]int, 0, utf8.RuneCountInString(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	return append(offsets, len(s))
}
