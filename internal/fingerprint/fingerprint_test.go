package fingerprint

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"testing"

	"github.com/fedcrawl/fedcrawl/internal/model"
	"github.com/fedcrawl/fedcrawl/internal/store"
)

func openTestBatch(t *testing.T) (*store.ArchiveDB, *store.Batch) {
	t.Helper()

	db, err := store.Open(t.TempDir(), store.DefaultOptions())
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	batch, err := db.BeginBatch(context.Background(), "chan-1")
	if err != nil {
		t.Fatalf("BeginBatch() error = %v", err)
	}
	t.Cleanup(func() { batch.Rollback() })

	return db, batch
}

func textItem(offset int64, payload string) *model.ContentItem {
	return &model.ContentItem{
		EntityID:   "chan-1",
		Offset:     offset,
		PayloadRef: "ref",
		RawSize:    int64(len(payload)),
		Kind:       model.MediaText,
		Payload:    []byte(payload),
	}
}

// pngBytes encodes a horizontal gradient with one square painted over,
// so two calls with different square colors produce similar images.
func pngBytes(t *testing.T, squareColor color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 0, A: 255})
		}
	}
	for x := 30; x < 34; x++ {
		for y := 30; y < 34; y++ {
			img.Set(x, y, squareColor)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestComputeFingerprints(t *testing.T) {
	t.Parallel()

	t.Run("exact digest is stable and differs by payload", func(t *testing.T) {
		t.Parallel()

		a := model.ExactDigest([]byte("hello"))
		b := model.ExactDigest([]byte("hello"))
		c := model.ExactDigest([]byte("world"))

		if a != b {
			t.Error("identical payloads produced different digests")
		}
		if a == c {
			t.Error("different payloads produced identical digests")
		}
		if len(a) != 64 {
			t.Errorf("digest length = %d hex chars, want 64", len(a))
		}
	})

	t.Run("perceptual hash of non-image is empty", func(t *testing.T) {
		t.Parallel()

		if got := computePerceptual([]byte("not an image")); got != "" {
			t.Errorf("computePerceptual() = %q, want empty", got)
		}
	})

	t.Run("perceptual hash of valid png is 16 hex digits", func(t *testing.T) {
		t.Parallel()

		got := computePerceptual(pngBytes(t, color.RGBA{A: 255}))
		if len(got) != 16 {
			t.Errorf("computePerceptual() = %q, want 16 hex digits", got)
		}
	})

	t.Run("fuzzy signature covers short text", func(t *testing.T) {
		t.Parallel()

		if got := computeFuzzy([]byte("short message")); got == "" {
			t.Error("computeFuzzy() empty for short text")
		}
	})

	t.Run("audio payloads get exact digest only", func(t *testing.T) {
		t.Parallel()

		set := computeSet([]byte("audio bytes"), model.MediaAudio, true, true)
		if set.Exact == "" {
			t.Error("missing exact digest")
		}
		if set.Perceptual != "" || set.Fuzzy != "" {
			t.Errorf("audio set carries secondary fingerprints: %+v", set)
		}
	})
}

func TestHammingDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		a, b    string
		want    int
		wantErr bool
	}{
		{name: "identical", a: "00000000000000ff", b: "00000000000000ff", want: 0},
		{name: "one bit", a: "0000000000000001", b: "0000000000000000", want: 1},
		{name: "all bits", a: "ffffffffffffffff", b: "0000000000000000", want: 64},
		{name: "invalid hex", a: "zz", b: "00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := hammingDistance(tt.a, tt.b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("hammingDistance() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("hammingDistance() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSessionCheck(t *testing.T) {
	t.Parallel()

	t.Run("first sighting is new", func(t *testing.T) {
		t.Parallel()

		_, batch := openTestBatch(t)
		s, err := New(8)
		if err != nil {
			t.Fatal(err)
		}
		ses := s.Session(batch)

		res, err := ses.Check(context.Background(), textItem(1, "first sighting of this text"))
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Outcome != model.OutcomeNew {
			t.Errorf("Outcome = %q, want new", res.Outcome)
		}
		if res.Fingerprints.Exact == "" {
			t.Error("missing exact fingerprint")
		}
	})

	t.Run("identical payload in same batch is an exact duplicate", func(t *testing.T) {
		t.Parallel()

		_, batch := openTestBatch(t)
		s, err := New(8)
		if err != nil {
			t.Fatal(err)
		}
		ses := s.Session(batch)
		ctx := context.Background()

		if _, err := ses.Check(ctx, textItem(1, "same bytes")); err != nil {
			t.Fatal(err)
		}
		res, err := ses.Check(ctx, textItem(2, "same bytes"))
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Outcome != model.OutcomeExactDuplicate {
			t.Errorf("Outcome = %q, want exact_duplicate", res.Outcome)
		}
		if res.MatchedRef.Offset != 1 {
			t.Errorf("MatchedRef.Offset = %d, want first sighting at 1", res.MatchedRef.Offset)
		}
	})

	t.Run("near duplicate text matches at the fuzzy tier", func(t *testing.T) {
		t.Parallel()

		_, batch := openTestBatch(t)
		s, err := New(8, WithFuzzyThreshold(40))
		if err != nil {
			t.Fatal(err)
		}
		ses := s.Session(batch)
		ctx := context.Background()

		base := "The quick brown fox jumps over the lazy dog. " +
			"Pack my box with five dozen liquor jugs. " +
			"How vexingly quick daft zebras jump. " +
			"Sphinx of black quartz, judge my vow."
		variant := base + " Extra trailing sentence."

		if _, err := ses.Check(ctx, textItem(1, base)); err != nil {
			t.Fatal(err)
		}
		res, err := ses.Check(ctx, textItem(2, variant))
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if res.Outcome != model.OutcomeNearDuplicate {
			t.Fatalf("Outcome = %q, want near_duplicate", res.Outcome)
		}
		if res.Score <= 0 || res.Score > 100 {
			t.Errorf("Score = %v, want within (0, 100]", res.Score)
		}
		if res.MatchedRef.Offset != 1 {
			t.Errorf("MatchedRef.Offset = %d, want 1", res.MatchedRef.Offset)
		}
	})

	t.Run("near duplicate increments counter without a new row", func(t *testing.T) {
		t.Parallel()

		db, batch := openTestBatch(t)
		s, err := New(8, WithFuzzyThreshold(40))
		if err != nil {
			t.Fatal(err)
		}
		ses := s.Session(batch)
		ctx := context.Background()

		base := "Breaking: a long announcement message repeated almost verbatim " +
			"across many channels with minor edits at the end."

		if _, err := ses.Check(ctx, textItem(1, base)); err != nil {
			t.Fatal(err)
		}
		res, err := ses.Check(ctx, textItem(2, base+" [forwarded]"))
		if err != nil {
			t.Fatal(err)
		}
		if !res.Outcome.IsDuplicate() {
			t.Fatalf("Outcome = %q, want a duplicate", res.Outcome)
		}
		if err := batch.Commit(ctx, 2); err != nil {
			t.Fatal(err)
		}

		rows, dups, err := db.DuplicateStats(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if rows != 1 {
			t.Errorf("fingerprint rows = %d, want 1 (near-dup adds no row)", rows)
		}
		if dups != 1 {
			t.Errorf("duplicates = %d, want 1", dups)
		}
	})

	t.Run("fuzzy threshold boundary is inclusive", func(t *testing.T) {
		t.Parallel()

		base := "The quick brown fox jumps over the lazy dog. " +
			"Pack my box with five dozen liquor jugs. " +
			"How vexingly quick daft zebras jump. " +
			"Sphinx of black quartz, judge my vow."
		variant := base + " Extra trailing sentence."

		// Pin the threshold to this pair's actual score: exactly at the
		// threshold must match, one above must not.
		score := fuzzyScore(computeFuzzy([]byte(base)), computeFuzzy([]byte(variant)))
		if score <= 0 || score >= 100 {
			t.Fatalf("fuzzy score = %d, want a partial match for this pair", score)
		}
		ctx := context.Background()

		_, atBatch := openTestBatch(t)
		at, err := New(8, WithFuzzyThreshold(score))
		if err != nil {
			t.Fatal(err)
		}
		atSes := at.Session(atBatch)
		if _, err := atSes.Check(ctx, textItem(1, base)); err != nil {
			t.Fatal(err)
		}
		res, err := atSes.Check(ctx, textItem(2, variant))
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != model.OutcomeNearDuplicate {
			t.Errorf("Outcome at threshold = %q, want near_duplicate", res.Outcome)
		}
		if res.Score != float64(score) {
			t.Errorf("Score = %v, want %d", res.Score, score)
		}

		_, aboveBatch := openTestBatch(t)
		above, err := New(8, WithFuzzyThreshold(score+1))
		if err != nil {
			t.Fatal(err)
		}
		aboveSes := above.Session(aboveBatch)
		if _, err := aboveSes.Check(ctx, textItem(1, base)); err != nil {
			t.Fatal(err)
		}
		res, err = aboveSes.Check(ctx, textItem(2, variant))
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != model.OutcomeNew {
			t.Errorf("Outcome one above threshold = %q, want new", res.Outcome)
		}
	})

	t.Run("perceptual threshold boundary is inclusive", func(t *testing.T) {
		t.Parallel()

		img := pngBytes(t, color.RGBA{R: 255, A: 255})
		hashHex := computePerceptual(img)
		if len(hashHex) != 16 {
			t.Fatalf("computePerceptual() = %q, want 16 hex digits", hashHex)
		}
		hash, err := strconv.ParseUint(hashHex, 16, 64)
		if err != nil {
			t.Fatalf("parsing perceptual hash: %v", err)
		}

		const maxDist = 10
		// flipBits yields a hash at an exact Hamming distance from the
		// image's own hash.
		flipBits := func(n int) string {
			return fmt.Sprintf("%016x", hash^(uint64(1)<<n-1))
		}
		item := &model.ContentItem{
			EntityID: "chan-1",
			Offset:   2,
			Kind:     model.MediaPhoto,
			Payload:  img,
			RawSize:  int64(len(img)),
		}
		ctx := context.Background()

		_, atBatch := openTestBatch(t)
		if err := atBatch.Register(ctx, &store.FingerprintRow{
			ExactDigest: model.ExactDigest([]byte("candidate at the limit")),
			Kind:        model.MediaPhoto,
			Perceptual:  flipBits(maxDist),
			FirstSeen:   model.ItemRef{EntityID: "chan-9", Offset: 7},
		}); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		at, err := New(8, WithPerceptualMaxDistance(maxDist))
		if err != nil {
			t.Fatal(err)
		}
		res, err := at.Session(atBatch).Check(ctx, item)
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != model.OutcomeNearDuplicate {
			t.Errorf("Outcome at distance %d = %q, want near_duplicate", maxDist, res.Outcome)
		}
		if res.MatchedRef.EntityID != "chan-9" || res.MatchedRef.Offset != 7 {
			t.Errorf("MatchedRef = %+v, want chan-9 offset 7", res.MatchedRef)
		}

		_, beyondBatch := openTestBatch(t)
		if err := beyondBatch.Register(ctx, &store.FingerprintRow{
			ExactDigest: model.ExactDigest([]byte("candidate one bit beyond")),
			Kind:        model.MediaPhoto,
			Perceptual:  flipBits(maxDist + 1),
			FirstSeen:   model.ItemRef{EntityID: "chan-9", Offset: 8},
		}); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		beyond, err := New(8, WithPerceptualMaxDistance(maxDist))
		if err != nil {
			t.Fatal(err)
		}
		res, err = beyond.Session(beyondBatch).Check(ctx, item)
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != model.OutcomeNew {
			t.Errorf("Outcome at distance %d = %q, want new", maxDist+1, res.Outcome)
		}
	})

	t.Run("dissimilar text stays new", func(t *testing.T) {
		t.Parallel()

		_, batch := openTestBatch(t)
		s, err := New(8, WithFuzzyThreshold(80))
		if err != nil {
			t.Fatal(err)
		}
		ses := s.Session(batch)
		ctx := context.Background()

		if _, err := ses.Check(ctx, textItem(1, "completely unrelated first message about weather")); err != nil {
			t.Fatal(err)
		}
		res, err := ses.Check(ctx, textItem(2, "a different second text discussing cryptocurrency markets"))
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != model.OutcomeNew {
			t.Errorf("Outcome = %q, want new", res.Outcome)
		}
	})

	t.Run("near duplicate images match at the perceptual tier", func(t *testing.T) {
		t.Parallel()

		_, batch := openTestBatch(t)
		s, err := New(8, WithPerceptualMaxDistance(16))
		if err != nil {
			t.Fatal(err)
		}
		ses := s.Session(batch)
		ctx := context.Background()

		imgA := pngBytes(t, color.RGBA{R: 255, A: 255})
		imgB := pngBytes(t, color.RGBA{B: 255, A: 255})

		a := &model.ContentItem{EntityID: "chan-1", Offset: 1, Kind: model.MediaPhoto, Payload: imgA, RawSize: int64(len(imgA))}
		b := &model.ContentItem{EntityID: "chan-1", Offset: 2, Kind: model.MediaPhoto, Payload: imgB, RawSize: int64(len(imgB))}

		if _, err := ses.Check(ctx, a); err != nil {
			t.Fatal(err)
		}
		res, err := ses.Check(ctx, b)
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != model.OutcomeNearDuplicate {
			t.Errorf("Outcome = %q, want near_duplicate for visually similar images", res.Outcome)
		}
	})
}

func TestSessionCachePromotion(t *testing.T) {
	t.Parallel()

	t.Run("promote publishes cache entries after commit", func(t *testing.T) {
		t.Parallel()

		_, batch := openTestBatch(t)
		s, err := New(8)
		if err != nil {
			t.Fatal(err)
		}
		ses := s.Session(batch)
		ctx := context.Background()

		if _, err := ses.Check(ctx, textItem(1, "cached content")); err != nil {
			t.Fatal(err)
		}
		if s.CacheLen() != 0 {
			t.Errorf("CacheLen() = %d before commit, want 0", s.CacheLen())
		}

		if err := batch.Commit(ctx, 1); err != nil {
			t.Fatal(err)
		}
		ses.Promote()

		if s.CacheLen() != 1 {
			t.Errorf("CacheLen() = %d after promote, want 1", s.CacheLen())
		}
	})

	t.Run("rolled back batch leaves the cache untouched", func(t *testing.T) {
		t.Parallel()

		_, batch := openTestBatch(t)
		s, err := New(8)
		if err != nil {
			t.Fatal(err)
		}
		ses := s.Session(batch)

		if _, err := ses.Check(context.Background(), textItem(1, "doomed content")); err != nil {
			t.Fatal(err)
		}
		if err := batch.Rollback(); err != nil {
			t.Fatal(err)
		}
		// No Promote after rollback.

		if s.CacheLen() != 0 {
			t.Errorf("CacheLen() = %d, want 0 after rollback", s.CacheLen())
		}
	})
}
