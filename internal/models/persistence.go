package models

// StoreFormatVersion is the current on-disk envelope version of the file store.
const StoreFormatVersion = 2

// StorageEnvelope is the file store's on-disk format: every snapshot ever written,
// in ascending timestamp order.
type StorageEnvelope struct {
	Version   int         `json:"version"`
	Snapshots []*Snapshot `json:"snapshots"`
}

// LegacyRecord is the single-object format written before the envelope existed.
// Counts stay untyped: absent fields fall back to the baseline and hand-edited
// files may carry them as strings or floats.
type LegacyRecord struct {
	Timestamp     string `json:"timestamp"`
	BeautyEnhance any    `json:"beauty_enhance"`
	JointEnhance  any    `json:"joint_enhance"`
	BoneEnhance   any    `json:"bone_enhance"`
	Error         any    `json:"Error"`
}

// Count returns the legacy value for k, or ok=false when the field was absent.
func (r *LegacyRecord) Count(k CounterKind) (value any, ok bool) {
	switch k {
	case BeautyEnhance:
		value = r.BeautyEnhance
	case JointEnhance:
		value = r.JointEnhance
	case BoneEnhance:
		value = r.BoneEnhance
	}
	return value, value != nil
}

// LegacyTimestampLayout matches str(datetime.now()) in legacy files; an optional
// fractional second is accepted when parsing.
const LegacyTimestampLayout = "2006-01-02 15:04:05"
