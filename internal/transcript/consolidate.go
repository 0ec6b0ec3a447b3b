package transcript

// Consolidate collapses a chronological detection list into the final sign
// sequence. Adjacent identical detections within the merge window are
// merged, entries below the confidence floor are dropped, and neighbours
// that became adjacent through the drop are merged again. The result keeps
// input order and Consolidate(Consolidate(x)) == Consolidate(x).
func Consolidate(detections []SignDetection, rules Rules) []ConsolidatedSign {
	merged := mergeAdjacent(detections, rules)

	kept := merged[:0]
	for _, d := range merged {
		if d.Confidence >= rules.ConfidenceFloor {
			kept = append(kept, d)
		}
	}

	return mergeAdjacent(kept, rules)
}

func mergeAdjacent(detections []SignDetection, rules Rules) []SignDetection {
	out := make([]SignDetection, 0, len(detections))
	for _, d := range detections {
		if d.LastSeen.IsZero() {
			d.LastSeen = d.Timestamp
		}
		if n := len(out); n > 0 && mergeable(out[n-1], d, rules.MergeWindow) {
			out[n-1] = merge(out[n-1], d)
			continue
		}
		out = append(out, d)
	}
	return out
}
