// Package labels computes auxiliary token-type labels for
// PaliGemma-style vision-language models: the image segment at the front
// of the sequence is labelled 0 and the text remainder 1.
package labels

import "errors"

// ErrInvalidLength is returned when the sequence or image segment length is inconsistent.
var ErrInvalidLength = errors.New("sequence length must be at least the image segment length, both non-negative")

const (
	imageTokenType = 0
	textTokenType  = 1
)

// TokenTypeIDs returns a label per token: imageSeqLen zeros for the image
// segment followed by ones for the rest of the sequence.
func TokenTypeIDs(inputLen, imageSeqLen int) ([]int, error) {
	if imageSeqLen < 0 || inputLen < imageSeqLen {
		return nil, ErrInvalidLength
	}

	ids := make([]int, inputLen)
	for i := imageSeqLen; i < inputLen; i++ {
		ids[i] = textTokenType
	}
	return ids, nil
}
