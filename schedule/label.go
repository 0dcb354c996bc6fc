package schedule

import (
	"github.com/xraph/vesting/types"
)

// EncodeLabel packs label into a fixed 32-byte identifier: one length byte
// followed by the label bytes, zero padded.
func EncodeLabel(label string) ([32]byte, error) {
	var out [32]byte
	if len(label) > MaxLabelLength {
		return out, types.Invalid("label", "%d bytes exceeds %d", len(label), MaxLabelLength)
	}
	out[0] = byte(len(label))
	copy(out[1:], label)
	return out, nil
}

// DecodeLabel reverses EncodeLabel.
func DecodeLabel(b [32]byte) (string, error) {
	n := int(b[0])
	if n > MaxLabelLength {
		return "", types.Invalid("label", "length byte %#x exceeds %d", b[0], MaxLabelLength)
	}
	return string(b[1 : 1+n]), nil
}
