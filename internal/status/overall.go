package status

import (
	"math"
	"sort"
)

// RecomputeOverall derives the overall completion from features.
//
// Without a weight table it is the plain mean. With one, features named in
// the table use their weight and the rest share 1 - Σ(known weights)
// equally; when nothing is left to share they count with weight 0. The
// weighted sum is divided by the total weight actually used. Only weights of
// features present in the map take part. Keys are visited in sorted order so
// the result is deterministic.
func RecomputeOverall(features map[string]Feature, weights map[string]float64) int {
	if len(features) == 0 {
		return 0
	}

	keys := make([]string, 0, len(features))
	for k := range features {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(weights) == 0 {
		var sum float64
		for _, k := range keys {
			sum += float64(clampPercent(features[k].Completion))
		}
		return clampPercent(int(math.Round(sum / float64(len(keys)))))
	}

	var known float64
	var unweighted int
	for _, k := range keys {
		if w, ok := weights[k]; ok {
			known += math.Max(w, 0)
		} else {
			unweighted++
		}
	}

	var share float64
	if remaining := 1 - known; unweighted > 0 && remaining > 0 {
		share = remaining / float64(unweighted)
	}

	var total, used float64
	for _, k := range keys {
		w, ok := weights[k]
		if !ok {
			w = share
		}
		w = math.Max(w, 0)
		total += float64(clampPercent(features[k].Completion)) * w
		used += w
	}
	if used <= 0 {
		return 0
	}
	return clampPercent(int(math.Round(total / used)))
}

func clampPercent(v int) int {
	return max(0, min(100, v))
}
