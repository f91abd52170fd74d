package models

// CounterKind is one of the three tracked enhancement counters.
type CounterKind int

const (
	BeautyEnhance CounterKind = iota
	JointEnhance
	BoneEnhance
)

// Kinds lists every counter in declaration order.
var Kinds = [...]CounterKind{BeautyEnhance, JointEnhance, BoneEnhance}

const (
	LabelRibbon = "Ribbon"
	LabelArrow  = "Arrow"
	LabelStar   = "Star"
)

// Label is the classifier label that decrements this counter.
func (k CounterKind) Label() string {
	switch k {
	case BeautyEnhance:
		return LabelRibbon
	case JointEnhance:
		return LabelArrow
	case BoneEnhance:
		return LabelStar
	}
	return ""
}

// Name is the persisted and externally visible column name.
func (k CounterKind) Name() string {
	switch k {
	case BeautyEnhance:
		return "beauty_enhance"
	case JointEnhance:
		return "joint_enhance"
	case BoneEnhance:
		return "bone_enhance"
	}
	return ""
}

func (k CounterKind) String() string {
	switch k {
	case BeautyEnhance:
		return "BeautyEnhance"
	case JointEnhance:
		return "JointEnhance"
	case BoneEnhance:
		return "BoneEnhance"
	}
	return "Unknown"
}

// KindByLabel resolves a classifier label to its counter.
func KindByLabel(label string) (CounterKind, bool) {
	for _, k := range Kinds {
		if k.Label() == label {
			return k, true
		}
	}
	return 0, false
}
