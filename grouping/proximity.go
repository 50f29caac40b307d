// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package grouping

import (
	"slices"

	"github.com/rotasmart/rotasmart/spatial"
)

type located struct {
	index int
	point spatial.Point
}

// NearbyStops clusters stops whose coordinates are within threshold meters of
// some other member of the cluster and returns the clusters with more than
// one stop, as indexes into stops. Such stops have different signatures but
// may be the same building; they are reported, never merged.
func NearbyStops(stops []Stop, threshold float64) [][]int {
	points := make([]located, 0, len(stops))

	for i, s := range stops {
		if p, ok := spatial.ParsePoint(s.Latitude, s.Longitude); ok {
			points = append(points, located{index: i, point: p})
		}
	}

	var out [][]int

	for _, cluster := range clusterPoints(points, threshold) {
		if len(cluster) < 2 {
			continue
		}

		idx := make([]int, len(cluster))
		for i, c := range cluster {
			idx[i] = c.index
		}

		slices.Sort(idx)

		out = append(out, idx)
	}

	return out
}

// clusterPoints groups points into clusters based on a distance threshold.
// Membership is transitive: a point joins when it is near any member, even a
// member that joined after it was first scanned.
func clusterPoints(points []located, threshold float64) [][]located {
	clusters := make([][]located, 0, len(points))

	visited := make([]bool, len(points))

	for i, p1 := range points {
		if visited[i] {
			continue
		}

		cluster := []located{p1}
		visited[i] = true

		for k := 0; k < len(cluster); k++ {
			member := cluster[k]

			for j := range points {
				if visited[j] {
					continue
				}

				if points[j].point.HaversineDistance(&member.point) <= threshold {
					cluster = append(cluster, points[j])
					visited[j] = true
				}
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}
