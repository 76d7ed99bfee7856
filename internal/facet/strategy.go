package facet

// Strategy picks one provider among two or more registered for the same facet.
//
// candidates arrive in registration order. A Strategy returns the winner and
// true, or the records it could not choose between and false.
type Strategy func(candidates []Registration) (Registration, []Registration, bool)

// HighestPriority selects the unique provider with the highest priority. When
// several share the highest priority, they are reported as tied.
func HighestPriority(candidates []Registration) (Registration, []Registration, bool) {
	top := topPriority(candidates)
	if len(top) == 1 {
		return top[0], nil, true
	}
	return Registration{}, top, false
}

// HighestPriorityFirstRegistered selects the highest priority and breaks ties
// by registration order, earliest first. Replacing a slot counts as a new
// registration. It never reports a tie.
func HighestPriorityFirstRegistered(candidates []Registration) (Registration, []Registration, bool) {
	top := topPriority(candidates)
	if len(top) == 0 {
		return Registration{}, nil, false
	}
	return top[0], nil, true
}

// topPriority keeps the input order of the records sharing the maximum priority.
func topPriority(candidates []Registration) []Registration {
	var top []Registration
	for _, c := range candidates {
		switch {
		case len(top) == 0 || c.Priority > top[0].Priority:
			top = []Registration{c}
		case c.Priority == top[0].Priority:
			top = append(top, c)
		}
	}
	return top
}
