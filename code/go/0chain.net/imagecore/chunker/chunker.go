// Package chunker splits byte buffers into ordered fixed-size chunks with
// per-chunk checksums and reassembles them. All functions are pure; a given
// buffer always produces the same chunk sequence and the same digests.
package chunker

import (
	"encoding/hex"
	"sort"

	"github.com/minio/sha256-simd"
)

// Chunk is one contiguous window of an original buffer.
type Chunk struct {
	Index    int
	Data     []byte
	Checksum string
}

// Split walks buf left to right in non-overlapping windows of chunkSize
// bytes. The final chunk may be shorter. Chunk data aliases buf; callers
// that mutate buf afterwards must copy first.
func Split(buf []byte, chunkSize int) []Chunk {
	if chunkSize <= 0 || len(buf) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, Count(int64(len(buf)), chunkSize))
	for offset, index := 0, 0; offset < len(buf); offset, index = offset+chunkSize, index+1 {
		end := offset + chunkSize
		if end > len(buf) {
			end = len(buf)
		}
		window := buf[offset:end]
		chunks = append(chunks, Chunk{
			Index:    index,
			Data:     window,
			Checksum: Checksum(window),
		})
	}
	return chunks
}

// Count returns ceil(size/chunkSize), the number of chunks Split produces.
func Count(size int64, chunkSize int) int {
	if chunkSize <= 0 || size <= 0 {
		return 0
	}
	return int((size + int64(chunkSize) - 1) / int64(chunkSize))
}

// Checksum is the lowercase hex SHA-256 of b.
func Checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Reassemble sorts chunks by index ascending and concatenates their
// payloads. It does not validate completeness; missing-index detection is
// the retrieval orchestrator's job.
func Reassemble(chunks []Chunk) []byte {
	sorted := make([]Chunk, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	var total int
	for i := range sorted {
		total += len(sorted[i].Data)
	}
	buf := make([]byte, 0, total)
	for i := range sorted {
		buf = append(buf, sorted[i].Data...)
	}
	return buf
}

// VerifyIntegrity recomputes the digest of buf and compares the full hex
// string against expected. This guards against corruption, not an
// adversary, so a plain comparison is enough.
func VerifyIntegrity(expected string, buf []byte) bool {
	return Checksum(buf) == expected
}
