package entity

// StringList is a JSON-serialized string slice column, used for per-user
// exclusion sets (deleted_for) and product image lists.
type StringList []string

func (l StringList) Contains(item string) bool {
	for _, s := range l {
		if s == item {
			return true
		}
	}
	return false
}

// Append adds item unless it is already present.
func (l StringList) Append(item string) StringList {
	if l.Contains(item) {
		return l
	}
	return append(l, item)
}
