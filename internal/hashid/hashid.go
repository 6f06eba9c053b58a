// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Content identifiers: lowercase hex digests of byte sequences.
package hashid

import (
	"crypto/sha1" //#nosec G505 -- identifier, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// Algorithm names digest algorithm used for identifiers.
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
)

// DefaultAlgorithm is used when nothing else is configured.
const DefaultAlgorithm = SHA1

var algorithms = map[Algorithm]func() hash.Hash{
	SHA1:   sha1.New,
	SHA256: sha256.New,
}

// ParseAlgorithm converts algorithm name (case insensitive) to Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(s))
	if _, ok := algorithms[a]; !ok {
		return "", fmt.Errorf("unknown id algorithm %q", s)
	}
	return a, nil
}

// Hasher computes identifiers with one algorithm.
type Hasher struct {
	alg     Algorithm
	newHash func() hash.Hash
}

// New returns Hasher for alg, empty alg means DefaultAlgorithm.
func New(alg Algorithm) (Hasher, error) {
	if alg == "" {
		alg = DefaultAlgorithm
	}
	newHash, ok := algorithms[alg]
	if !ok {
		return Hasher{}, fmt.Errorf("unknown id algorithm %q", alg)
	}
	return Hasher{alg: alg, newHash: newHash}, nil
}

// Algorithm returns algorithm of h.
func (h Hasher) Algorithm() Algorithm {
	return h.alg
}

// Digest returns lowercase hex digest of b.
func (h Hasher) Digest(b []byte) string {
	d := h.newHash()
	d.Write(b)
	return hex.EncodeToString(d.Sum(nil))
}
