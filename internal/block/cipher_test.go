package block_test

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/nicolagi/memo/internal/block"
)

func TestCipherRoundTrip(t *testing.T) {
	for _, size := range []int{16, 24, 32} {
		t.Run(fmt.Sprintf("decrypt is inverse to encrypt %d", size), func(t *testing.T) {
			key := make([]byte, size)
			rand.Read(key)
			c, err := block.NewCipher(key)
			if err != nil {
				t.Fatal(err)
			}
			f := func(cleartext []byte) bool {
				ciphertext, err := c.Encrypt(cleartext)
				if err != nil {
					t.Log(err)
					return false
				}
				cleartext2, err := c.Decrypt(ciphertext)
				if err != nil {
					t.Log(err)
					return false
				}
				return bytes.Equal(cleartext2, cleartext)
			}
			if err := quick.Check(f, nil); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestCipherRejectsTruncatedCiphertext(t *testing.T) {
	key := make([]byte, 16)
	rand.Read(key)
	c, err := block.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Decrypt([]byte{1, 2, 3}); err == nil {
		t.Error("expected error decrypting a ciphertext shorter than the IV")
	}
}
