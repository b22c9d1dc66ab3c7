package domain

// PermissionSet is the resolved union of a user's grants. The two lists
// are independent mechanisms: a macrogroup grant covers every practice
// under that macrogroup, a practice grant covers a single practice.
// Grants compose additively, never restrictively.
type PermissionSet struct {
	Macrogroups []int64 `json:"macrogroups"`
	Practices   []int64 `json:"practices"`
}

// IsEmpty reports whether the user has no access anywhere.
func (p PermissionSet) IsEmpty() bool {
	return len(p.Macrogroups) == 0 && len(p.Practices) == 0
}

// Covers reports whether the set makes the given practice visible:
// its macrogroup is granted or the practice itself is.
func (p PermissionSet) Covers(practice *Practice) bool {
	if practice == nil {
		return false
	}
	for _, id := range p.Macrogroups {
		if id == practice.MacrogroupID {
			return true
		}
	}
	for _, id := range p.Practices {
		if id == practice.ID {
			return true
		}
	}
	return false
}
