package conceptual

// RunID identifies one smoothing request: the same input and options give the same RunID.
type RunID string

func (r RunID) String() string {
	return string(r)
}

func (r RunID) Empty() bool {
	return r == ""
}

// Short is a prefix of r suitable for directory names.
func (r RunID) Short() string {
	if len(r) > 12 {
		return string(r[:12])
	}
	return string(r)
}
