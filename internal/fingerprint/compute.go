package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoding for perceptual hashing
	_ "image/jpeg" // register JPEG decoding for perceptual hashing
	_ "image/png"  // register PNG decoding for perceptual hashing
	"math/bits"
	"strconv"

	"github.com/corona10/goimagehash"
	"github.com/glaslos/ssdeep"

	"github.com/fedcrawl/fedcrawl/internal/model"
)

func init() {
	// Messages on the remote network are routinely smaller than ssdeep's
	// minimum input size; force hashing so short text still signatures.
	ssdeep.Force = true
}

// perceptualBits is the width of the difference hash in bits.
const perceptualBits = 64

// computePerceptual decodes payload as an image and returns its 64-bit
// difference hash as a 16-digit hex string. Payloads that do not decode
// as a supported image return an empty string; the item then deduplicates
// at the exact tier only.
func computePerceptual(payload []byte) string {
	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return ""
	}

	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return ""
	}

	return fmt.Sprintf("%016x", hash.GetHash())
}

// computeFuzzy returns the ssdeep signature of payload, or an empty
// string for payloads too degenerate to signature (e.g. empty input).
func computeFuzzy(payload []byte) string {
	sig, err := ssdeep.FuzzyBytes(payload)
	if err != nil {
		return ""
	}
	return sig
}

// computeSet derives the full fingerprint set for a payload, honoring the
// media kind's tier and the enabled secondary tiers.
func computeSet(payload []byte, kind model.MediaKind, perceptualOn, fuzzyOn bool) model.FingerprintSet {
	set := model.FingerprintSet{Exact: model.ExactDigest(payload)}

	switch kind.Tier() {
	case model.TierPerceptual:
		if perceptualOn {
			set.Perceptual = computePerceptual(payload)
		}
	case model.TierFuzzy:
		if fuzzyOn {
			set.Fuzzy = computeFuzzy(payload)
		}
	case model.TierExactOnly:
		// Exact digest only.
	}

	return set
}

// hammingDistance returns the number of differing bits between two hex
// encoded 64-bit perceptual hashes, or an error if either fails to parse.
func hammingDistance(a, b string) (int, error) {
	x, err := strconv.ParseUint(a, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("bad perceptual hash %q: %w", a, err)
	}
	y, err := strconv.ParseUint(b, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("bad perceptual hash %q: %w", b, err)
	}
	return bits.OnesCount64(x ^ y), nil
}

// fuzzyScore returns the ssdeep match score (0-100) between two
// signatures. Signatures that fail to compare score zero.
func fuzzyScore(a, b string) int {
	score, err := ssdeep.Distance(a, b)
	if err != nil {
		return 0
	}
	return score
}
