// Package checkpoint persists trained network parameters to disk and loads
// them back, so a training run can be resumed or a trained model evaluated
// without retraining.
//
// The file layout is:
//
//	magic bytes "MNCK" (4 bytes)
//	format version: uint32, little-endian
//	header length: uint32, little-endian
//	header: JSON, describing one entry per parameterized layer
//	data section: the concatenated float32 parameter vectors, little-endian
//	checksum: SHA-256 over everything above (32 bytes)
//
// The header carries only vector lengths and offsets, not layer topology: a
// checkpoint is restored into a network that was rebuilt with the same
// architecture, and a length mismatch at restore time is how topology drift
// is detected.
package checkpoint

import "time"

// Format constants.
const (
	MagicBytes    = "MNCK"
	FormatVersion = 1
	ChecksumSize  = 32 // SHA-256

	// MaxHeaderSize bounds the JSON header so a corrupted length field
	// cannot drive a huge allocation.
	MaxHeaderSize = 1 << 20
)

// Header is the JSON header of a checkpoint file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	CreatedAt     time.Time         `json:"created_at"`
	Epoch         int               `json:"epoch"`             // epochs completed when the checkpoint was taken
	Layers        []LayerMeta       `json:"layers"`            // one entry per parameterized layer, in chain order
	Metadata      map[string]string `json:"metadata,omitempty"` // free-form run information
}

// LayerMeta locates one layer's parameter vector in the data section.
type LayerMeta struct {
	Index  int   `json:"index"`  // position among the parameterized layers
	Count  int   `json:"count"`  // number of float32 values
	Offset int64 `json:"offset"` // byte offset into the data section
}

// Checkpoint is the in-memory form of a checkpoint file.
type Checkpoint struct {
	Epoch    int
	Metadata map[string]string
	Params   [][]float32 // one vector per parameterized layer, in chain order
}
