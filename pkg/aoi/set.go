package aoi

// intersection keeps the members of a that are also in b, in a's order.
func intersection[K comparable](a, b []K) []K {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	in := make(map[K]struct{}, len(b))
	for _, k := range b {
		in[k] = struct{}{}
	}
	var out []K
	for _, k := range a {
		if _, ok := in[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// difference keeps the members of a that are not in b, in a's order.
func difference[K comparable](a, b []K) []K {
	if len(a) == 0 {
		return nil
	}
	if len(b) == 0 {
		return append([]K(nil), a...)
	}
	in := make(map[K]struct{}, len(b))
	for _, k := range b {
		in[k] = struct{}{}
	}
	var out []K
	for _, k := range a {
		if _, ok := in[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
