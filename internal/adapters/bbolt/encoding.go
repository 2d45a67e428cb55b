// Binary encoding for the per-corpus header.
//
// Format v1 (little-endian):
//
//	version: uint8 (1)
//	modTime: int64 (Unix nanoseconds)
//	size:    int64 (content bytes)
package bbolt

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	headerVersion = 1
	headerSize    = 1 + 8 + 8
)

type header struct {
	ModTime time.Time
	Size    int64
}

func encodeHeader(h header) []byte {
	buf := make([]byte, headerSize)
	buf[0] = headerVersion
	binary.LittleEndian.PutUint64(buf[1:], uint64(h.ModTime.UnixNano()))
	binary.LittleEndian.PutUint64(buf[9:], uint64(h.Size))
	return buf
}

func decodeHeader(data []byte) (header, error) {
	if len(data) != headerSize {
		return header{}, fmt.Errorf("corpus header: want %d bytes, got %d", headerSize, len(data))
	}
	if data[0] != headerVersion {
		return header{}, fmt.Errorf("corpus header: unsupported version %d", data[0])
	}
	return header{
		ModTime: time.Unix(0, int64(binary.LittleEndian.Uint64(data[1:]))),
		Size:    int64(binary.LittleEndian.Uint64(data[9:])),
	}, nil
}
