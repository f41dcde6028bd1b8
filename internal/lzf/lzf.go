// Package lzf implements the LZF block compression format used by PCD
// binary_compressed payloads. The byte stream is compatible with liblzf:
//
//	000LLLLL <L+1 literal bytes>            literal run, 1..32 bytes
//	LLLooooo oooooooo                       back reference, length L+2 (L 1..6)
//	111ooooo LLLLLLLL oooooooo              back reference, length L+9
//
// where o is the distance to the referenced byte minus one (13 bits).
package lzf

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompressible is returned by Compress when the input is empty or
	// the encoded form would not be smaller than the input.
	ErrIncompressible = errors.New("lzf: data not compressible")

	// ErrCorrupt is returned by Decompress for a malformed stream.
	ErrCorrupt = errors.New("lzf: corrupt input")

	// ErrOutputTooLarge is returned by Decompress when the stream expands
	// past the caller's size limit.
	ErrOutputTooLarge = errors.New("lzf: output exceeds expected size")
)

const (
	hashLog  = 16
	hashSize = 1 << hashLog

	maxLiteral = 1 << 5
	maxOffset  = 1 << 13
	maxRef     = (1 << 8) + (1 << 3)
	minMatch   = 3
)

func hash(b0, b1, b2 byte) uint32 {
	v := uint32(b0)<<16 | uint32(b1)<<8 | uint32(b2)
	return (v * 2654435761) >> (32 - hashLog)
}

// Compress encodes in. It returns ErrIncompressible when the result would
// be at least as long as the input.
func Compress(in []byte) ([]byte, error) {
	n := len(in)
	if n == 0 {
		return nil, ErrIncompressible
	}

	// table holds the last position+1 seen for each 3-byte hash.
	table := make([]int32, hashSize)
	out := make([]byte, 0, n)
	litStart := 0

	flushLiterals := func(end int) {
		for litStart < end {
			run := end - litStart
			if run > maxLiteral {
				run = maxLiteral
			}
			out = append(out, byte(run-1))
			out = append(out, in[litStart:litStart+run]...)
			litStart += run
		}
	}

	ip := 0
	for ip+minMatch <= n {
		h := hash(in[ip], in[ip+1], in[ip+2])
		ref := int(table[h]) - 1
		table[h] = int32(ip + 1)

		if ref >= 0 {
			off := ip - ref - 1
			if off < maxOffset && in[ref] == in[ip] && in[ref+1] == in[ip+1] && in[ref+2] == in[ip+2] {
				length := minMatch
				limit := n - ip
				if limit > maxRef {
					limit = maxRef
				}
				for length < limit && in[ref+length] == in[ip+length] {
					length++
				}

				flushLiterals(ip)
				l := length - 2
				if l < 7 {
					out = append(out, byte(l<<5|off>>8), byte(off))
				} else {
					out = append(out, byte(7<<5|off>>8), byte(l-7), byte(off))
				}

				for p := ip + 1; p < ip+length && p+minMatch <= n; p++ {
					table[hash(in[p], in[p+1], in[p+2])] = int32(p + 1)
				}
				ip += length
				litStart = ip
				if len(out) >= n {
					return nil, ErrIncompressible
				}
				continue
			}
		}
		ip++
	}
	flushLiterals(n)

	if len(out) >= n {
		return nil, ErrIncompressible
	}
	return out, nil
}

// Decompress decodes in, producing at most size bytes. The returned slice
// may be shorter than size if the stream ends early; callers that need an
// exact length must check it.
func Decompress(in []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative output size %d", ErrCorrupt, size)
	}
	// size comes from untrusted headers; the capacity tracks the input and
	// append grows it as back references expand.
	out := make([]byte, 0, min(size, 4*len(in)))
	ip := 0
	for ip < len(in) {
		ctrl := int(in[ip])
		ip++

		if ctrl < maxLiteral {
			run := ctrl + 1
			if ip+run > len(in) {
				return nil, fmt.Errorf("%w: literal run of %d at %d overruns input", ErrCorrupt, run, ip-1)
			}
			if len(out)+run > size {
				return nil, fmt.Errorf("%w: %d", ErrOutputTooLarge, size)
			}
			out = append(out, in[ip:ip+run]...)
			ip += run
			continue
		}

		length := ctrl >> 5
		if length == 7 {
			if ip >= len(in) {
				return nil, fmt.Errorf("%w: truncated back reference", ErrCorrupt)
			}
			length += int(in[ip])
			ip++
		}
		if ip >= len(in) {
			return nil, fmt.Errorf("%w: truncated back reference", ErrCorrupt)
		}
		ref := len(out) - (ctrl&0x1f)<<8 - int(in[ip]) - 1
		ip++
		if ref < 0 {
			return nil, fmt.Errorf("%w: back reference before start of output", ErrCorrupt)
		}
		length += 2
		if len(out)+length > size {
			return nil, fmt.Errorf("%w: %d", ErrOutputTooLarge, size)
		}
		// Byte-wise copy: the reference may overlap the bytes being written.
		for k := 0; k < length; k++ {
			out = append(out, out[ref+k])
		}
	}
	return out, nil
}
