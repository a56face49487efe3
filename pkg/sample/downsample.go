package sample

// Downsample reduces samples to at most maxPoints for display.
//
// The input is split into maxPoints equal buckets and each bucket contributes
// one sample: its first out of range record when it has one, so overflow
// markers survive decimation, otherwise its first sample. dst is reused when
// its capacity allows.
func Downsample(dst []Sample, samples []Sample, maxPoints int) []Sample {
	n := len(samples)
	if maxPoints <= 0 || n <= maxPoints {
		if cap(dst) < n {
			dst = make([]Sample, n)
		}
		dst = dst[:n]
		copy(dst, samples)
		return dst
	}

	if cap(dst) < maxPoints {
		dst = make([]Sample, 0, maxPoints)
	}
	dst = dst[:0]

	for b := range maxPoints {
		lo := b * n / maxPoints
		hi := (b + 1) * n / maxPoints
		dst = append(dst, pick(samples[lo:hi]))
	}

	return dst
}

// pick returns the representative of a non-empty bucket.
func pick(bucket []Sample) Sample {
	for _, s := range bucket {
		if s.OutOfRange {
			return s
		}
	}
	return bucket[0]
}
