package checkpoint

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
)

const fixedPrefixSize = len(MagicBytes) + 4 + 4 // magic, version, header length

// Load reads and validates a checkpoint file. The checksum is verified before
// anything else is interpreted, so a corrupted file fails fast with
// ErrChecksumMismatch rather than a confusing decode error.
func Load(path string) (*Checkpoint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if len(raw) < fixedPrefixSize+ChecksumSize {
		return nil, ErrTruncated
	}

	body := raw[:len(raw)-ChecksumSize]
	stored := raw[len(raw)-ChecksumSize:]
	sum := sha256.Sum256(body)
	if !bytes.Equal(sum[:], stored) {
		return nil, ErrChecksumMismatch
	}

	if string(body[:len(MagicBytes)]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	version := binary.LittleEndian.Uint32(body[len(MagicBytes):])
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	headerLen := binary.LittleEndian.Uint32(body[len(MagicBytes)+4:])
	if headerLen > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	if fixedPrefixSize+int(headerLen) > len(body) {
		return nil, ErrTruncated
	}

	var header Header
	if err := json.Unmarshal(body[fixedPrefixSize:fixedPrefixSize+int(headerLen)], &header); err != nil {
		return nil, fmt.Errorf("failed to unmarshal header: %w", err)
	}

	data := body[fixedPrefixSize+int(headerLen):]
	cp := &Checkpoint{
		Epoch:    header.Epoch,
		Metadata: header.Metadata,
		Params:   make([][]float32, len(header.Layers)),
	}

	var expected int64
	for i, meta := range header.Layers {
		if meta.Count < 0 || meta.Offset != expected {
			return nil, fmt.Errorf("%w: layer %d at offset %d", ErrLayerBounds, i, meta.Offset)
		}
		end := meta.Offset + int64(meta.Count)*4
		if end > int64(len(data)) {
			return nil, fmt.Errorf("%w: layer %d needs %d bytes, %d available",
				ErrLayerBounds, i, end, len(data))
		}

		vec := make([]float32, meta.Count)
		r := bytes.NewReader(data[meta.Offset:end])
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("failed to read layer %d parameters: %w", i, err)
		}
		cp.Params[i] = vec
		expected = end
	}
	if expected != int64(len(data)) {
		return nil, fmt.Errorf("%w: %d trailing bytes in data section",
			ErrLayerBounds, int64(len(data))-expected)
	}

	return cp, nil
}
