// Package cryptox implements the at-rest encryption used for every stored
// upload: AES-256 in CBC mode with PKCS#7 padding, one random IV per blob,
// written as the first 16 bytes of the blob.
//
// Both directions stream. Encrypt pulls plaintext from a reader and pushes
// ciphertext into a writer block by block, and NewDecryptReader returns a
// reader that decrypts lazily, so neither side ever holds a whole file in
// memory.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/sentivault/internal/common"
)

const chunkSize = 32 * 1024

// Codec encrypts and decrypts blob streams under a single key. It holds no
// per-stream state and is safe for concurrent use.
type Codec struct {
	block cipher.Block
}

// NewCodec builds a Codec for key.
func NewCodec(key Key) (*Codec, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return &Codec{block: block}, nil
}

// Encrypt writes a fresh IV followed by the encrypted contents of src to dst
// and returns the number of ciphertext bytes written, IV included.
//
// Failures writing dst wrap common.ErrStorageWrite, failures reading src wrap
// common.ErrStorageRead.
func (c *Codec) Encrypt(dst io.Writer, src io.Reader) (int64, error) {
	iv := make([]byte, common.IVSize)
	if _, err := rand.Read(iv); err != nil {
		return 0, fmt.Errorf("generate iv: %w", err)
	}

	if _, err := dst.Write(iv); err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrStorageWrite, err)
	}

	w := &encryptWriter{dst: dst, mode: cipher.NewCBCEncrypter(c.block, iv), written: int64(len(iv))}

	buf := make([]byte, chunkSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if err := w.write(buf[:n]); err != nil {
				return w.written, err
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return w.written, fmt.Errorf("%w: %v", common.ErrStorageRead, rerr)
		}
	}

	if err := w.finish(); err != nil {
		return w.written, err
	}
	return w.written, nil
}

// NewDecryptReader consumes the IV from src before returning, so the returned
// reader yields plaintext starting at the first byte after the IV.
//
// A src shorter than the IV fails with common.ErrMalformedCiphertext. Reads
// from the returned reader fail the same way when the body is truncated or
// its padding does not verify (for example under the wrong key).
func (c *Codec) NewDecryptReader(src io.Reader) (io.Reader, error) {
	iv := make([]byte, common.IVSize)
	if _, err := io.ReadFull(src, iv); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: missing iv", common.ErrMalformedCiphertext)
		}
		return nil, fmt.Errorf("%w: read iv: %v", common.ErrStorageRead, err)
	}

	return &decryptReader{src: src, mode: cipher.NewCBCDecrypter(c.block, iv)}, nil
}
