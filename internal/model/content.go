package model

// MediaKind classifies a content item's payload for fingerprinting.
type MediaKind string

// Media kinds observed on the remote network.
const (
	// MediaText is a plain text message.
	MediaText MediaKind = "text"
	// MediaPhoto is a still image attachment.
	MediaPhoto MediaKind = "photo"
	// MediaVideo is a video attachment.
	MediaVideo MediaKind = "video"
	// MediaDocument is a generic file attachment.
	MediaDocument MediaKind = "document"
	// MediaAudio is an audio or voice-note attachment.
	MediaAudio MediaKind = "audio"
	// MediaSticker is a sticker attachment.
	MediaSticker MediaKind = "sticker"
	// MediaLink is a shared URL with preview metadata.
	MediaLink MediaKind = "link"
)

// FingerprintTier identifies which secondary fingerprint, if any, is
// computed for a media kind. Every item gets an exact digest regardless
// of tier.
type FingerprintTier int

// Secondary fingerprint tiers.
const (
	// TierExactOnly means only the exact digest is computed.
	TierExactOnly FingerprintTier = iota
	// TierPerceptual means a perceptual image hash is computed in
	// addition to the exact digest.
	TierPerceptual
	// TierFuzzy means a block-based rolling-hash signature is computed
	// in addition to the exact digest.
	TierFuzzy
)

// Tier returns the secondary fingerprint tier for the media kind.
//
// Photos and stickers are visual content, so they get perceptual hashes.
// Videos are hashed perceptually as well: the fetch layer hands us the
// remote network's poster frame as payload, which behaves like a photo.
// Text, documents, and links are byte streams where near-duplicates show
// up as block-level edits, so they get fuzzy signatures. Audio has neither
// a useful visual nor a useful block structure and stays exact-only.
func (k MediaKind) Tier() FingerprintTier {
	switch k {
	case MediaPhoto, MediaVideo, MediaSticker:
		return TierPerceptual
	case MediaText, MediaDocument, MediaLink:
		return TierFuzzy
	case MediaAudio:
		return TierExactOnly
	default:
		return TierExactOnly
	}
}

// IsValid reports whether the media kind is one of the known kinds.
func (k MediaKind) IsValid() bool {
	switch k {
	case MediaText, MediaPhoto, MediaVideo, MediaDocument, MediaAudio, MediaSticker, MediaLink:
		return true
	default:
		return false
	}
}

// String returns the string representation of the media kind.
func (k MediaKind) String() string {
	return string(k)
}

// ContentItem is one unit of archivable content (a message or an attached
// media object) belonging to an entity.
//
// Items are created by the fetch layer and immutable afterwards. The raw
// payload is transient: it exists only long enough to be fingerprinted and
// handed to the persistence collaborator, identified thereafter by
// PayloadRef.
type ContentItem struct {
	// EntityID is the entity this item belongs to. An item is owned
	// exclusively by its entity for fingerprinting purposes.
	EntityID EntityID

	// Offset is the item's monotonic per-entity sequence offset, used
	// for checkpointing and pagination.
	Offset int64

	// PayloadRef is the stable reference under which the payload is
	// stored by the persistence collaborator.
	PayloadRef string

	// RawSize is the payload size in bytes.
	RawSize int64

	// Kind classifies the payload for fingerprinting.
	Kind MediaKind

	// Payload holds the raw bytes. Transient; never persisted by this
	// engine.
	Payload []byte
}
