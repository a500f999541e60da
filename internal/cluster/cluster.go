// Package cluster groups posts into topic clusters. Similarity is Jaccard
// overlap of each post's signal set (tags, category, top entity names), and
// grouping is single-linkage: any pair above the threshold is unioned, so a
// cluster is a connected component of the similarity graph. This is a
// deterministic union-find pass, not statistical clustering.
package cluster

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fernwehlabs/discovery/internal/corpus"
	"github.com/fernwehlabs/discovery/internal/entity"
)

// topEntityNames bounds how many entity names contribute to a post's signal
// set.
const topEntityNames = 5

// TopicCluster is one group of topically related posts.
type TopicCluster struct {
	ClusterID     string   `json:"cluster_id"`
	Label         string   `json:"label"`
	MemberPostIDs []string `json:"member_post_ids"`
	CentroidTags  []string `json:"centroid_tags"`
}

// Manager computes and stores the cluster partition for one corpus snapshot.
type Manager struct {
	threshold float64
	clusters  []TopicCluster
	byPost    map[string]int
}

// NewManager creates a Manager with the given similarity threshold.
func NewManager(threshold float64) *Manager {
	return &Manager{
		threshold: threshold,
		byPost:    make(map[string]int),
	}
}

// Generate partitions the posts into clusters. Every post lands in exactly
// one cluster; an empty corpus yields an empty cluster list.
func (m *Manager) Generate(posts []corpus.Post, entitiesByPost map[string][]entity.Entity) []TopicCluster {
	n := len(posts)
	signals := make([]map[string]struct{}, n)
	for i := range posts {
		signals[i] = signalSet(&posts[i], entitiesByPost[posts[i].ID])
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if rb < ra {
				ra, rb = rb, ra
			}
			parent[rb] = ra
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if jaccard(signals[i], signals[j]) >= m.threshold {
				union(i, j)
			}
		}
	}

	members := make(map[int][]int)
	roots := make([]int, 0)
	for i := 0; i < n; i++ {
		root := find(i)
		if _, seen := members[root]; !seen {
			roots = append(roots, root)
		}
		members[root] = append(members[root], i)
	}
	sort.Ints(roots)

	m.clusters = make([]TopicCluster, 0, len(roots))
	m.byPost = make(map[string]int, n)
	for clusterIdx, root := range roots {
		idxs := members[root]
		cluster := TopicCluster{
			ClusterID: fmt.Sprintf("cluster-%03d", clusterIdx),
		}
		tagCounts := make(map[string]int)
		for _, i := range idxs {
			post := &posts[i]
			cluster.MemberPostIDs = append(cluster.MemberPostIDs, post.ID)
			m.byPost[post.ID] = clusterIdx
			for _, tag := range post.Tags {
				tagCounts[strings.ToLower(tag)]++
			}
			if post.Category != "" {
				tagCounts[strings.ToLower(post.Category)]++
			}
		}
		sort.Strings(cluster.MemberPostIDs)
		cluster.Label = dominantTag(tagCounts)
		cluster.CentroidTags = sharedTags(tagCounts, len(idxs))
		m.clusters = append(m.clusters, cluster)
	}
	return m.clusters
}

// Clusters returns the generated partition.
func (m *Manager) Clusters() []TopicCluster {
	return m.clusters
}

// ClusterOf returns the cluster a post belongs to.
func (m *Manager) ClusterOf(postID string) (*TopicCluster, bool) {
	idx, ok := m.byPost[postID]
	if !ok {
		return nil, false
	}
	return &m.clusters[idx], true
}

// SameCluster reports whether two posts share a cluster.
func (m *Manager) SameCluster(postA, postB string) bool {
	a, okA := m.byPost[postA]
	b, okB := m.byPost[postB]
	return okA && okB && a == b
}

// signalSet is the feature set used for similarity: lowercased tags, the
// category, and the post's top entity names.
func signalSet(post *corpus.Post, entities []entity.Entity) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tag := range post.Tags {
		set[strings.ToLower(tag)] = struct{}{}
	}
	if post.Category != "" {
		set[strings.ToLower(post.Category)] = struct{}{}
	}
	for _, name := range entity.TopNames(entities, topEntityNames) {
		set[name] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	intersection := 0
	for item := range a {
		if _, ok := b[item]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// dominantTag picks the most frequent tag, tie-broken alphabetically.
func dominantTag(counts map[string]int) string {
	best := ""
	bestCount := 0
	for tag, count := range counts {
		if count > bestCount || (count == bestCount && (best == "" || tag < best)) {
			best = tag
			bestCount = count
		}
	}
	if best == "" {
		return "misc"
	}
	return best
}

// sharedTags returns the tags shared by more than half the members, sorted;
// for singletons that is simply all of the post's tags.
func sharedTags(counts map[string]int, memberCount int) []string {
	cutoff := memberCount / 2
	shared := make([]string, 0)
	for tag, count := range counts {
		if count > cutoff {
			shared = append(shared, tag)
		}
	}
	sort.Strings(shared)
	return shared
}
