package publicid

import (
	"encoding/binary"
	"errors"
	"hash/fnv"

	"github.com/btcsuite/btcutil/base58"
)

// ErrInvalidID is returned for ids that do not decode to a positive internal id.
var ErrInvalidID = errors.New("invalid public id")

// Codec translates internal numeric ids to opaque public-facing strings and
// back. The mapping is obfuscation, not encryption: it keeps raw row ids out
// of URLs and payloads.
type Codec struct {
	key uint64
}

// NewCodec derives the obfuscation key from a secret.
func NewCodec(secret string) *Codec {
	h := fnv.New64a()
	_, _ = h.Write([]byte(secret))
	return &Codec{key: h.Sum64()}
}

// Encode produces the public form of an internal id.
func (c *Codec) Encode(id int64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id)^c.key)
	return base58.Encode(buf[:])
}

// EncodeAll maps a slice of internal ids.
func (c *Codec) EncodeAll(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.Encode(id))
	}
	return out
}

// Decode validates and decodes a public id back to the internal id.
func (c *Codec) Decode(public string) (int64, error) {
	raw := base58.Decode(public)
	if len(raw) != 8 {
		return 0, ErrInvalidID
	}
	id := int64(binary.BigEndian.Uint64(raw) ^ c.key)
	if id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
