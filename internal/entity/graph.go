package entity

import (
	"sort"
)

// Node is one entity in the knowledge graph. Nodes live in a flat arena and
// are addressed by index, which keeps the graph cycle-free for the garbage
// collector and makes snapshot swaps a single pointer move.
type Node struct {
	Type          Type
	Name          string
	TotalMentions int
	PostIDs       map[string]struct{}
}

// edgeKey addresses an unordered node pair; A < B always.
type edgeKey struct {
	A, B int
}

// Graph is the co-occurrence knowledge graph over one corpus snapshot:
// nodes are canonical entities, edge weights count the posts in which both
// endpoints appear. Immutable once built.
type Graph struct {
	nodes  []Node
	byKey  map[string]int
	edges  map[edgeKey]int
	keySet map[string][]string // postID -> sorted canonical keys
}

// BuildGraph aggregates per-post entity lists into the co-occurrence graph.
// Iteration is order-independent: the same extraction output always yields
// the same nodes and edge weights.
func BuildGraph(entitiesByPost map[string][]Entity) *Graph {
	g := &Graph{
		byKey:  make(map[string]int),
		edges:  make(map[edgeKey]int),
		keySet: make(map[string][]string, len(entitiesByPost)),
	}

	postIDs := make([]string, 0, len(entitiesByPost))
	for postID := range entitiesByPost {
		postIDs = append(postIDs, postID)
	}
	sort.Strings(postIDs)

	for _, postID := range postIDs {
		entities := entitiesByPost[postID]
		seen := make(map[string]struct{}, len(entities))
		indices := make([]int, 0, len(entities))
		for _, ent := range entities {
			key := ent.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			idx := g.internNode(key, ent)
			g.nodes[idx].TotalMentions += ent.Mentions
			g.nodes[idx].PostIDs[postID] = struct{}{}
			indices = append(indices, idx)
		}

		keys := make([]string, 0, len(seen))
		for key := range seen {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		g.keySet[postID] = keys

		// Every unordered pair of distinct entities in this post
		// co-occurs once.
		for i := 0; i < len(indices); i++ {
			for j := i + 1; j < len(indices); j++ {
				a, b := indices[i], indices[j]
				if a > b {
					a, b = b, a
				}
				g.edges[edgeKey{A: a, B: b}]++
			}
		}
	}
	return g
}

func (g *Graph) internNode(key string, ent Entity) int {
	if idx, ok := g.byKey[key]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, Node{
		Type:    ent.Type,
		Name:    ent.Name,
		PostIDs: make(map[string]struct{}),
	})
	g.byKey[key] = idx
	return idx
}

// EdgeWeight returns the number of posts in which both entities co-occur.
// Symmetric in its arguments; unknown keys weigh 0.
func (g *Graph) EdgeWeight(keyA, keyB string) int {
	a, okA := g.byKey[keyA]
	b, okB := g.byKey[keyB]
	if !okA || !okB || a == b {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return g.edges[edgeKey{A: a, B: b}]
}

// EntityKeys returns the sorted canonical entity keys extracted from a post.
func (g *Graph) EntityKeys(postID string) []string {
	return g.keySet[postID]
}

// NodeCount returns the number of distinct entities.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct co-occurring pairs.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// NodeView is the flat serialisable projection of a graph node.
type NodeView struct {
	Key           string   `json:"key"`
	Type          Type     `json:"type"`
	Name          string   `json:"name"`
	TotalMentions int      `json:"total_mentions"`
	PostIDs       []string `json:"post_ids"`
}

// EdgeView is the flat serialisable projection of a graph edge.
type EdgeView struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// Export is the full serialisable graph view.
type Export struct {
	Nodes []NodeView `json:"nodes"`
	Edges []EdgeView `json:"edges"`
}

// ExportView projects the graph into flat node and edge lists, sorted for
// stable output. maxNodes <= 0 exports everything; otherwise the view keeps
// the maxNodes most-mentioned entities and the edges between them.
func (g *Graph) ExportView(maxNodes int) Export {
	keyOf := make([]string, len(g.nodes))
	for key, idx := range g.byKey {
		keyOf[idx] = key
	}

	nodes := make([]NodeView, 0, len(g.nodes))
	for idx, node := range g.nodes {
		postIDs := make([]string, 0, len(node.PostIDs))
		for id := range node.PostIDs {
			postIDs = append(postIDs, id)
		}
		sort.Strings(postIDs)
		nodes = append(nodes, NodeView{
			Key:           keyOf[idx],
			Type:          node.Type,
			Name:          node.Name,
			TotalMentions: node.TotalMentions,
			PostIDs:       postIDs,
		})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].TotalMentions != nodes[j].TotalMentions {
			return nodes[i].TotalMentions > nodes[j].TotalMentions
		}
		return nodes[i].Key < nodes[j].Key
	})
	if maxNodes > 0 && len(nodes) > maxNodes {
		nodes = nodes[:maxNodes]
	}
	kept := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		kept[n.Key] = struct{}{}
	}

	edges := make([]EdgeView, 0, len(g.edges))
	for key, weight := range g.edges {
		source, target := keyOf[key.A], keyOf[key.B]
		if _, ok := kept[source]; !ok {
			continue
		}
		if _, ok := kept[target]; !ok {
			continue
		}
		edges = append(edges, EdgeView{Source: source, Target: target, Weight: weight})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Weight != edges[j].Weight {
			return edges[i].Weight > edges[j].Weight
		}
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return Export{Nodes: nodes, Edges: edges}
}
