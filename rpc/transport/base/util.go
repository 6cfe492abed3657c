package base

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

const (
	// frameHeaderSize is shard ID (8) + request ID (8) + payload length (4), big endian.
	frameHeaderSize = 20

	// MaxFrameSize bounds the payload of a single frame in both directions.
	MaxFrameSize = 64 << 20
)

// ErrFrameTooLarge is returned for frames whose payload exceeds MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// writeFrame writes one frame. Payloads above MaxFrameSize are refused before
// anything is written, so the stream stays in sync.
func writeFrame(w io.Writer, shardID, requestID uint64, data []byte) error {
	if len(data) > MaxFrameSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrFrameTooLarge, len(data), MaxFrameSize)
	}

	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint64(header[:8], shardID)
	binary.BigEndian.PutUint64(header[8:16], requestID)
	binary.BigEndian.PutUint32(header[16:20], uint32(len(data)))

	b := net.Buffers{header, data}
	_, err := b.WriteTo(w)
	return err
}

// readFrame reads one frame into buf, allocating when buf is too small.
// A length header above MaxFrameSize fails with ErrFrameTooLarge without reading
// the payload; the caller has to drop the connection since the stream is out of sync.
func readFrame(r io.Reader, buf []byte) (shardID, requestID uint64, data []byte, err error) {
	if len(buf) < frameHeaderSize {
		buf = make([]byte, frameHeaderSize)
	}

	if _, err := io.ReadFull(r, buf[:frameHeaderSize]); err != nil {
		return 0, 0, nil, err
	}

	shardID = binary.BigEndian.Uint64(buf[:8])
	requestID = binary.BigEndian.Uint64(buf[8:16])
	size := binary.BigEndian.Uint32(buf[16:20])

	if size == 0 {
		return shardID, requestID, []byte{}, nil
	}
	if size > MaxFrameSize {
		return 0, 0, nil, fmt.Errorf("%w: shard %d request %d announces %d bytes", ErrFrameTooLarge, shardID, requestID, size)
	}

	if uint32(len(buf)) < size {
		buf = make([]byte, size)
	}
	if _, err := io.ReadFull(r, buf[:size]); err != nil {
		return 0, 0, nil, err
	}

	return shardID, requestID, buf[:size], nil
}
