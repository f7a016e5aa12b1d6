package cryptox

import (
	"bytes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/sentivault/internal/common"
)

// encryptWriter encrypts whole blocks as soon as they are available and
// keeps the tail (< one block) until finish pads it.
type encryptWriter struct {
	dst     io.Writer
	mode    cipher.BlockMode
	pending []byte
	written int64
}

func (w *encryptWriter) write(p []byte) error {
	bs := w.mode.BlockSize()

	w.pending = append(w.pending, p...)
	n := len(w.pending) / bs * bs
	if n == 0 {
		return nil
	}

	out := make([]byte, n)
	w.mode.CryptBlocks(out, w.pending[:n])
	w.pending = append(w.pending[:0], w.pending[n:]...)

	return w.emit(out)
}

func (w *encryptWriter) finish() error {
	bs := w.mode.BlockSize()

	pad := bs - len(w.pending)
	block := append(w.pending, bytes.Repeat([]byte{byte(pad)}, pad)...)
	w.mode.CryptBlocks(block, block)
	w.pending = nil

	return w.emit(block)
}

func (w *encryptWriter) emit(b []byte) error {
	n, err := w.dst.Write(b)
	w.written += int64(n)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageWrite, err)
	}
	return nil
}

// decryptReader always holds back the last full ciphertext block until src
// is exhausted, because only the final block carries padding.
type decryptReader struct {
	src  io.Reader
	mode cipher.BlockMode
	in   []byte
	out  []byte
	done bool
	err  error
}

func (r *decryptReader) Read(p []byte) (int, error) {
	for len(r.out) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		if r.done {
			return 0, io.EOF
		}
		r.fill()
	}

	n := copy(p, r.out)
	r.out = r.out[n:]
	return n, nil
}

func (r *decryptReader) fill() {
	bs := r.mode.BlockSize()

	buf := make([]byte, chunkSize)
	n, err := io.ReadFull(r.src, buf)
	r.in = append(r.in, buf[:n]...)

	switch {
	case err == nil:
		// Keep at least one block back; it may be the padded one.
		k := len(r.in)/bs*bs - bs
		if k <= 0 {
			return
		}
		plain := make([]byte, k)
		r.mode.CryptBlocks(plain, r.in[:k])
		r.in = append(r.in[:0], r.in[k:]...)
		r.out = plain

	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		r.done = true
		if len(r.in) == 0 || len(r.in)%bs != 0 {
			r.err = fmt.Errorf("%w: body is not block aligned", common.ErrMalformedCiphertext)
			return
		}
		plain := make([]byte, len(r.in))
		r.mode.CryptBlocks(plain, r.in)
		r.in = nil

		plain, perr := unpad(plain, bs)
		if perr != nil {
			r.err = perr
			return
		}
		r.out = plain

	default:
		r.err = fmt.Errorf("%w: %v", common.ErrStorageRead, err)
	}
}

func unpad(b []byte, bs int) ([]byte, error) {
	pad := int(b[len(b)-1])
	if pad == 0 || pad > bs || pad > len(b) {
		return nil, fmt.Errorf("%w: bad padding", common.ErrMalformedCiphertext)
	}
	for _, v := range b[len(b)-pad:] {
		if int(v) != pad {
			return nil, fmt.Errorf("%w: bad padding", common.ErrMalformedCiphertext)
		}
	}
	return b[:len(b)-pad], nil
}
