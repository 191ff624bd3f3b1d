package selection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat"
)

// neighbors is the k of the mutual information estimator.
const neighbors = 3

// FClassif returns the one-way ANOVA F statistic of x grouped by the class
// labels y. Fewer than two classes, or no residual degrees of freedom, give
// NaN. Zero within-class variance gives +Inf.
func FClassif(x, y []float64) float64 {
	labels, groups := groupBy(x, y)
	k := len(labels)
	n := len(x)
	if k < 2 || n-k <= 0 {
		return math.NaN()
	}

	grand := stat.Mean(x, nil)
	var ssb, ssw float64
	for _, label := range labels {
		g := groups[label]
		m := stat.Mean(g, nil)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}
	msb := ssb / float64(k-1)
	msw := ssw / float64(n-k)
	return msb / msw
}

// MutualInfo estimates the mutual information between the continuous x and
// the discrete y with the nearest-neighbour method of Ross (2014). Samples
// whose class occurs once are ignored. The estimate is clipped at zero.
func MutualInfo(x, y []float64) float64 {
	labels, groups := groupIndices(y)

	radius := make([]float64, len(x))
	kAll := make([]float64, len(x))
	counts := make([]float64, len(x))
	for _, label := range labels {
		idx := groups[label]
		count := len(idx)
		for _, i := range idx {
			counts[i] = float64(count)
		}
		if count < 2 {
			continue
		}
		k := neighbors
		if count-1 < k {
			k = count - 1
		}
		vals := make([]float64, count)
		for j, i := range idx {
			vals[j] = x[i]
		}
		dist := kthNeighborDistances(vals, k)
		for j, i := range idx {
			radius[i] = math.Nextafter(dist[j], 0)
			kAll[i] = float64(k)
		}
	}

	var all []float64
	var keep []int
	for i := range x {
		if counts[i] > 1 {
			keep = append(keep, i)
			all = append(all, x[i])
		}
	}
	n := len(keep)
	if n == 0 {
		return 0
	}
	sort.Float64s(all)

	var sumK, sumCount, sumM float64
	for _, i := range keep {
		sumK += mathext.Digamma(kAll[i])
		sumCount += mathext.Digamma(counts[i])
		sumM += mathext.Digamma(float64(countWithin(all, x[i], radius[i])))
	}
	nf := float64(n)
	mi := mathext.Digamma(nf) + sumK/nf - sumCount/nf - sumM/nf
	return math.Max(0, mi)
}

// kthNeighborDistances returns, for every value, the distance to its k-th
// nearest other value.
func kthNeighborDistances(vals []float64, k int) []float64 {
	order := make([]int, len(vals))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return vals[order[a]] < vals[order[b]] })

	n := len(vals)
	out := make([]float64, n)
	for p, idx := range order {
		v := vals[idx]
		l, r := p-1, p+1
		var d float64
		for step := 0; step < k; step++ {
			dl, dr := math.Inf(1), math.Inf(1)
			if l >= 0 {
				dl = v - vals[order[l]]
			}
			if r < n {
				dr = vals[order[r]] - v
			}
			if dl <= dr {
				d = dl
				l--
			} else {
				d = dr
				r++
			}
		}
		out[idx] = d
	}
	return out
}

// countWithin counts the values of sorted within distance r of v, v itself
// included.
func countWithin(sorted []float64, v, r float64) int {
	lo := sort.Search(len(sorted), func(j int) bool { return v-sorted[j] <= r })
	hi := sort.Search(len(sorted), func(j int) bool { return sorted[j]-v > r })
	return hi - lo
}

// groupBy splits x by class label. Labels are returned in ascending order so
// sums over classes do not depend on map iteration.
func groupBy(x, y []float64) ([]float64, map[float64][]float64) {
	groups := make(map[float64][]float64)
	for i, label := range y {
		groups[label] = append(groups[label], x[i])
	}
	return sortedLabels(groups), groups
}

func groupIndices(y []float64) ([]float64, map[float64][]int) {
	groups := make(map[float64][]int)
	for i, label := range y {
		groups[label] = append(groups[label], i)
	}
	return sortedLabels(groups), groups
}

func sortedLabels[V any](groups map[float64]V) []float64 {
	labels := make([]float64, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Float64s(labels)
	return labels
}
