// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hashid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_Digest(t *testing.T) {
	tests := map[string]struct {
		alg   Algorithm
		given []byte
		want  string
	}{
		"sha1 abc": {
			alg:   SHA1,
			given: []byte("abc"),
			want:  "a9993e364706816aba3e25717850c26c9cd0d89d",
		},
		"sha1 empty": {
			alg:   SHA1,
			given: nil,
			want:  "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		},
		"Default is sha1": {
			alg:   "",
			given: []byte("abc"),
			want:  "a9993e364706816aba3e25717850c26c9cd0d89d",
		},
		"sha256 abc": {
			alg:   SHA256,
			given: []byte("abc"),
			want:  "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			h, err := New(tc.alg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, h.Digest(tc.given))
			// Hasher carries no state between digests.
			assert.Equal(t, tc.want, h.Digest(tc.given))
		})
	}
}

func TestNew_Negative(t *testing.T) {
	_, err := New("md5")
	assert.Error(t, err)
}

func TestParseAlgorithm(t *testing.T) {
	tests := map[string]struct {
		given   string
		want    Algorithm
		wantErr bool
	}{
		"sha1":       {given: "sha1", want: SHA1},
		"sha256":     {given: "sha256", want: SHA256},
		"Upper case": {given: "SHA256", want: SHA256},
		"Unknown":    {given: "crc32", wantErr: true},
		"Empty":      {given: "", wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseAlgorithm(tc.given)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
