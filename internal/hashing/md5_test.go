package hashing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alromeros/meteoserver/internal/hashing"
)

func TestDigestVectors(t *testing.T) {
	cases := map[string]string{
		"":                           "d41d8cd98f00b204e9800998ecf8427e",
		"a":                          "0cc175b9c0f1b6a831c399e269772661",
		"abc":                        "900150983cd24fb0d6963f7d28e17f72",
		"message digest":             "f96b697d7cb7938d525a2f31aaf161d0",
		"abcdefghijklmnopqrstuvwxyz": "c3fcd3d76192e4007dfb496cca67e13b",
		"hello":                      "5d41402abc4b2a76b9719d911017c592",
		"world":                      "7d793037a0760186574b0282f2f435e7",
	}
	for input, want := range cases {
		assert.Equal(t, want, hashing.Digest(input), "input %q", input)
	}
}

func TestDigestIsPureAndReentrant(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Equal(t, hashing.Digest("reentrant"), hashing.Digest("reentrant"))
	}
}
