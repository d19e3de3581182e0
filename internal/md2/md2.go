// Package md2 implements the MD2 hash algorithm as defined in RFC 1319.
//
// MD2 is obsolete as a cryptographic primitive and must not be used for
// security purposes. It exists here solely because the compound table
// format authenticates its content with an MD2 digest; files written
// without a matching digest are rejected by the consuming application.
package md2

import "hash"

// Size is the length of an MD2 digest in bytes.
const Size = 16

// BlockSize is the MD2 block size in bytes.
const BlockSize = 16

// piSubst is the permutation of byte values derived from the digits of pi
// (RFC 1319 appendix).
var piSubst = [256]byte{
	41, 46, 67, 201, 162, 216, 124, 1, 61, 54, 84, 161, 236, 240, 6, 19,
	98, 167, 5, 243, 192, 199, 115, 140, 152, 147, 43, 217, 188, 76, 130, 202,
	30, 155, 87, 60, 253, 212, 224, 22, 103, 66, 111, 24, 138, 23, 229, 18,
	190, 78, 196, 214, 218, 158, 222, 73, 160, 251, 245, 142, 187, 47, 238, 122,
	169, 104, 121, 145, 21, 178, 7, 63, 148, 194, 16, 137, 11, 34, 95, 33,
	128, 127, 93, 154, 90, 144, 50, 39, 53, 62, 204, 231, 191, 247, 151, 3,
	255, 25, 48, 179, 72, 165, 181, 209, 215, 94, 146, 42, 172, 86, 170, 198,
	79, 184, 56, 210, 150, 164, 125, 182, 118, 252, 107, 226, 156, 116, 4, 241,
	69, 157, 112, 89, 100, 113, 135, 32, 134, 91, 207, 101, 230, 45, 168, 2,
	27, 96, 37, 173, 174, 176, 185, 246, 28, 70, 97, 105, 52, 64, 126, 15,
	85, 71, 163, 35, 221, 81, 175, 58, 195, 92, 249, 206, 186, 197, 234, 38,
	44, 83, 13, 110, 133, 40, 132, 9, 211, 223, 205, 244, 65, 129, 77, 82,
	106, 220, 55, 200, 108, 193, 171, 250, 36, 225, 123, 8, 12, 189, 177, 74,
	120, 136, 149, 139, 227, 99, 232, 109, 233, 203, 213, 254, 59, 0, 29, 57,
	242, 239, 183, 14, 102, 88, 208, 228, 166, 119, 114, 248, 235, 117, 75, 10,
	49, 68, 80, 180, 143, 237, 31, 26, 219, 153, 141, 51, 159, 17, 131, 20,
}

type digest struct {
	state    [48]byte // X in RFC 1319
	checksum [16]byte // C in RFC 1319
	buf      [BlockSize]byte
	n        int // bytes buffered in buf
}

// New returns a new hash.Hash computing the MD2 checksum.
func New() hash.Hash {
	d := new(digest)
	d.Reset()
	return d
}

func (d *digest) Reset() {
	d.state = [48]byte{}
	d.checksum = [16]byte{}
	d.buf = [BlockSize]byte{}
	d.n = 0
}

func (d *digest) Size() int { return Size }

func (d *digest) BlockSize() int { return BlockSize }

func (d *digest) Write(p []byte) (int, error) {
	written := len(p)
	if d.n > 0 {
		c := copy(d.buf[d.n:], p)
		d.n += c
		p = p[c:]
		if d.n == BlockSize {
			d.block(d.buf[:])
			d.n = 0
		}
	}
	for len(p) >= BlockSize {
		d.block(p[:BlockSize])
		p = p[BlockSize:]
	}
	d.n = copy(d.buf[:], p)
	return written, nil
}

func (d *digest) Sum(in []byte) []byte {
	// Run the padding and checksum blocks on a copy so the caller can keep
	// writing to the original state afterwards, matching hash.Hash semantics.
	final := *d
	pad := byte(BlockSize - final.n)
	padding := make([]byte, pad)
	for i := range padding {
		padding[i] = pad
	}
	final.Write(padding)
	checksum := final.checksum
	final.block(checksum[:])
	return append(in, final.state[:Size]...)
}

// block folds one 16-byte block into the state and updates the running
// checksum. The checksum update uses C[j] ^= S[M[j] ^ L], per the RFC 1319
// erratum (the original text omitted the XOR with the previous value).
func (d *digest) block(m []byte) {
	for j := 0; j < 16; j++ {
		d.state[16+j] = m[j]
		d.state[32+j] = d.state[16+j] ^ d.state[j]
	}
	var t byte
	for j := 0; j < 18; j++ {
		for k := 0; k < 48; k++ {
			d.state[k] ^= piSubst[t]
			t = d.state[k]
		}
		t += byte(j)
	}
	l := d.checksum[15]
	for j := 0; j < 16; j++ {
		d.checksum[j] ^= piSubst[m[j]^l]
		l = d.checksum[j]
	}
}
