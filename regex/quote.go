// Copyright 2023 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regex

// specials are the bytes Quote escapes.
const specials = `\.?*+|[]{}()`

var isSpecial [256]bool

func init() {
	for i := 0; i < len(specials); i++ {
		isSpecial[specials[i]] = true
	}
}

// Quote returns s with a backslash before every character that could
// act as a regular expression metacharacter, so that the result matches
// s literally. The escaped set is \ . ? * + | [ ] { } ( ); the anchors
// ^ and $ are left alone.
//
// If nothing needs escaping, s itself is returned.
func Quote(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if isSpecial[s[i]] {
			n++
		}
	}
	if n == 0 {
		return s
	}

	// A byte loop is correct because all specials are ASCII.
	b := make([]byte, 0, len(s)+n)
	for i := 0; i < len(s); i++ {
		if isSpecial[s[i]] {
			b = append(b, '\\')
		}
		b = append(b, s[i])
	}
	return string(b)
}
