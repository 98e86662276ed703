package checkpoint

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Save writes a checkpoint to path, replacing any existing file.
func Save(path string, cp *Checkpoint) error {
	header := Header{
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC(),
		Epoch:         cp.Epoch,
		Metadata:      cp.Metadata,
	}

	var offset int64
	header.Layers = make([]LayerMeta, len(cp.Params))
	for i, p := range cp.Params {
		header.Layers[i] = LayerMeta{Index: i, Count: len(p), Offset: offset}
		offset += int64(len(p)) * 4
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	var buf bytes.Buffer
	buf.WriteString(MagicBytes)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header length: %w", err)
	}
	buf.Write(headerJSON)
	for i, p := range cp.Params {
		if err := binary.Write(&buf, binary.LittleEndian, p); err != nil {
			return fmt.Errorf("failed to write layer %d parameters: %w", i, err)
		}
	}

	sum := sha256.Sum256(buf.Bytes())
	buf.Write(sum[:])

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}
