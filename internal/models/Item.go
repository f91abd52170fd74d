package models

type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type ItemList struct {
	Items []Item `json:"items"`
}

// itemOrder is the fixed order of the public item list.
var itemOrder = [...]CounterKind{BeautyEnhance, BoneEnhance, JointEnhance}

// NewItemList reshapes counts into the public list: beauty, bone, joint.
func NewItemList(c Counts) ItemList {
	items := make([]Item, 0, len(itemOrder))
	for _, k := range itemOrder {
		items = append(items, Item{Name: k.Name(), Quantity: c.Get(k)})
	}
	return ItemList{Items: items}
}
