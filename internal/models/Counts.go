package models

// BaselineQuantity is the starting value of every counter in a detection cycle.
const BaselineQuantity = 3

// Counts holds one signed value per CounterKind. Values may go negative.
type Counts struct {
	BeautyEnhance int `json:"beauty_enhance" db:"beauty_enhance"`
	JointEnhance  int `json:"joint_enhance" db:"joint_enhance"`
	BoneEnhance   int `json:"bone_enhance" db:"bone_enhance"`
}

// Baseline returns the fixed starting counts of a detection cycle.
func Baseline() Counts {
	return Counts{
		BeautyEnhance: BaselineQuantity,
		JointEnhance:  BaselineQuantity,
		BoneEnhance:   BaselineQuantity,
	}
}

func (c Counts) Get(k CounterKind) int {
	switch k {
	case BeautyEnhance:
		return c.BeautyEnhance
	case JointEnhance:
		return c.JointEnhance
	case BoneEnhance:
		return c.BoneEnhance
	}
	return 0
}

func (c *Counts) Set(k CounterKind, v int) {
	switch k {
	case BeautyEnhance:
		c.BeautyEnhance = v
	case JointEnhance:
		c.JointEnhance = v
	case BoneEnhance:
		c.BoneEnhance = v
	}
}
