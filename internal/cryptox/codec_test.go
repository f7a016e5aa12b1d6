package cryptox

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	var k Key
	_, err := rand.Read(k[:])
	require.NoError(t, err)
	c, err := NewCodec(k)
	require.NoError(t, err)
	return c
}

func randomPayload(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func encrypt(t *testing.T, c *Codec, plain []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	n, err := c.Encrypt(&out, bytes.NewReader(plain))
	require.NoError(t, err)
	require.Equal(t, int64(out.Len()), n)
	return out.Bytes()
}

func decrypt(c *Codec, cipherText []byte) ([]byte, error) {
	r, err := c.NewDecryptReader(bytes.NewReader(cipherText))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func TestCodec_RoundTrip(t *testing.T) {
	c := testCodec(t)

	sizes := []int{0, 1, 15, 16, 17, 31, 4096, chunkSize - 1, chunkSize, chunkSize + 1, 3*chunkSize + 7, 5 << 20}
	for _, size := range sizes {
		plain := randomPayload(t, size)

		ct := encrypt(t, c, plain)

		// IV + plaintext padded up to the next whole block (a full block when aligned).
		assert.Equal(t, common.IVSize+(size/16+1)*16, len(ct), "size %d", size)

		got, err := decrypt(c, ct)
		require.NoError(t, err, "size %d", size)
		assert.True(t, bytes.Equal(plain, got), "round trip mismatch for size %d", size)
	}
}

func TestCodec_FreshIVPerEncryption(t *testing.T) {
	c := testCodec(t)
	plain := []byte("identical plaintext, identical key")

	a := encrypt(t, c, plain)
	b := encrypt(t, c, plain)

	assert.NotEqual(t, a[:common.IVSize], b[:common.IVSize], "IVs must differ")
	assert.NotEqual(t, a, b, "ciphertexts must differ")
}

// oneByteReader forces the decrypt reader through many small reads.
type oneByteReader struct{ r io.Reader }

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return o.r.Read(p[:1])
}

func TestCodec_DecryptSmallReads(t *testing.T) {
	c := testCodec(t)
	plain := randomPayload(t, 1000)
	ct := encrypt(t, c, plain)

	r, err := c.NewDecryptReader(oneByteReader{bytes.NewReader(ct)})
	require.NoError(t, err)

	var got bytes.Buffer
	buf := make([]byte, 7)
	for {
		n, err := r.Read(buf)
		got.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, plain, got.Bytes())
}

func TestCodec_DecryptTruncatedIV(t *testing.T) {
	c := testCodec(t)

	for _, n := range []int{0, 1, 15} {
		_, err := c.NewDecryptReader(bytes.NewReader(make([]byte, n)))
		assert.ErrorIs(t, err, common.ErrMalformedCiphertext, "len %d", n)
	}
}

func TestCodec_DecryptBodyErrors(t *testing.T) {
	c := testCodec(t)
	ct := encrypt(t, c, []byte("some media bytes that span more than one block"))

	t.Run("iv only", func(t *testing.T) {
		_, err := decrypt(c, ct[:common.IVSize])
		assert.ErrorIs(t, err, common.ErrMalformedCiphertext)
	})

	t.Run("not block aligned", func(t *testing.T) {
		_, err := decrypt(c, ct[:len(ct)-3])
		assert.ErrorIs(t, err, common.ErrMalformedCiphertext)
	})

	t.Run("wrong key never yields the plaintext", func(t *testing.T) {
		other := testCodec(t)
		got, err := decrypt(other, ct)
		if err == nil {
			assert.NotEqual(t, []byte("some media bytes that span more than one block"), got)
		} else {
			assert.ErrorIs(t, err, common.ErrMalformedCiphertext)
		}
	})
}

type failingWriter struct{ after int }

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.after <= 0 {
		return 0, errors.New("disk full")
	}
	f.after--
	return len(p), nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestCodec_EncryptPropagatesWriteFailure(t *testing.T) {
	c := testCodec(t)

	_, err := c.Encrypt(&failingWriter{after: 0}, bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, common.ErrStorageWrite)

	_, err = c.Encrypt(&failingWriter{after: 1}, bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, common.ErrStorageWrite)
}

func TestCodec_EncryptPropagatesReadFailure(t *testing.T) {
	c := testCodec(t)

	_, err := c.Encrypt(io.Discard, failingReader{})
	assert.ErrorIs(t, err, common.ErrStorageRead)
}
