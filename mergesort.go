package ember

// mergeSort sorts a in place using buf as scratch space and returns the
// scratch buffer, grown if needed, for reuse. Bottom-up and stable: elements
// for which lessOrEqual holds keep their relative order. No allocations once
// buf reaches the high-water mark.
func mergeSort[T any](a, buf []T, lessOrEqual func(x, y T) bool) []T {
	n := len(a)
	if n <= 1 {
		return buf
	}
	if cap(buf) < n {
		buf = make([]T, n)
	}
	buf = buf[:n]

	src, dst := a, buf
	swapped := false
	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			mid := min(i+width, n)
			hi := min(i+2*width, n)
			mergeRun(src, dst, i, mid, hi, lessOrEqual)
		}
		src, dst = dst, src
		swapped = !swapped
	}
	if swapped {
		copy(a, buf)
	}
	return buf
}

// mergeRun merges the sorted runs [lo, mid) and [mid, hi) of src into dst.
func mergeRun[T any](src, dst []T, lo, mid, hi int, lessOrEqual func(x, y T) bool) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if lessOrEqual(src[i], src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	k += copy(dst[k:], src[i:mid])
	copy(dst[k:], src[j:hi])
}
