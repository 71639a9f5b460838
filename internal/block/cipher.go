package block

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// Cipher encrypts and decrypts node blobs at rest with AES-CTR, prepending
// a random IV to each ciphertext. It is keyed from config.C's
// EncryptionKeyBytes and wired into sumtree.BlobStore, which was the only
// other place block addressing (block.RefOf) mattered to this package.
type Cipher struct {
	cipher.Block
}

func NewCipher(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("block.NewCipher: %w", err)
	}
	return &Cipher{block}, nil
}

func (c *Cipher) Encrypt(cleartext []byte) (ciphertext []byte, err error) {
	iv := make([]byte, c.BlockSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("block.Cipher.Encrypt: could not read random bytes for iv: %w", err)
	}
	return append(iv, c.xor(cleartext, iv)...), nil
}

func (c *Cipher) Decrypt(ciphertext []byte) (cleartext []byte, err error) {
	if len(ciphertext) < c.BlockSize() {
		return nil, fmt.Errorf("block.Cipher.Decrypt: ciphertext shorter than iv")
	}
	iv := ciphertext[:c.BlockSize()]
	ciphertext = ciphertext[c.BlockSize():]
	return c.xor(ciphertext, iv), nil
}

func (c *Cipher) xor(in, iv []byte) (out []byte) {
	ctr := cipher.NewCTR(c.Block, iv)
	out = make([]byte, len(in))
	ctr.XORKeyStream(out, in)
	return
}
