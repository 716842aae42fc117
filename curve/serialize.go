package curve

import (
	"fmt"
	"io"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
)

// Wire sizes for the four point encodings this façade supports.
const (
	SizeG1Compressed   = bls12377.SizeOfG1AffineCompressed
	SizeG1Uncompressed = bls12377.SizeOfG1AffineUncompressed
	SizeG2Compressed   = bls12377.SizeOfG2AffineCompressed
	SizeG2Uncompressed = bls12377.SizeOfG2AffineUncompressed
)

// WriteG1 writes p in compressed or uncompressed form.
func WriteG1(w io.Writer, p *G1Affine, compressed bool) error {
	if compressed {
		b := p.Bytes()
		_, err := w.Write(b[:])
		return err
	}
	b := p.RawBytes()
	_, err := w.Write(b[:])
	return err
}

// ReadG1 reads a G1 point in compressed or uncompressed form.
func ReadG1(r io.Reader, compressed bool) (G1Affine, error) {
	var p G1Affine
	size := SizeG1Uncompressed
	if compressed {
		size = SizeG1Compressed
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return p, fmt.Errorf("curve: reading G1 point: %w", err)
	}
	if _, err := p.SetBytes(buf); err != nil {
		return p, fmt.Errorf("curve: decoding G1 point: %w", err)
	}
	return p, nil
}

// WriteG2 writes p in compressed or uncompressed form.
func WriteG2(w io.Writer, p *G2Affine, compressed bool) error {
	if compressed {
		b := p.Bytes()
		_, err := w.Write(b[:])
		return err
	}
	b := p.RawBytes()
	_, err := w.Write(b[:])
	return err
}

// ReadG2 reads a G2 point in compressed or uncompressed form.
func ReadG2(r io.Reader, compressed bool) (G2Affine, error) {
	var p G2Affine
	size := SizeG2Uncompressed
	if compressed {
		size = SizeG2Compressed
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return p, fmt.Errorf("curve: reading G2 point: %w", err)
	}
	if _, err := p.SetBytes(buf); err != nil {
		return p, fmt.Errorf("curve: decoding G2 point: %w", err)
	}
	return p, nil
}
