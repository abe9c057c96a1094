package matcher

import (
	"github.com/orneryd/graphrules/pkg/graphcore"
)

// pathState is one BFS frontier entry: the path built so far, which segment
// of the pattern it is currently satisfying, how many hops it has taken
// within that segment, and the set of node ids visited along this
// particular path.
type pathState struct {
	path    *graphcore.Path
	segIdx  int
	hops    int
	visited map[graphcore.NodeID]bool
}

func cloneVisited(v map[graphcore.NodeID]bool) map[graphcore.NodeID]bool {
	out := make(map[graphcore.NodeID]bool, len(v)+1)
	for k := range v {
		out[k] = true
	}
	return out
}

func appendPath(p *graphcore.Path, edge *graphcore.Edge, node *graphcore.Node) *graphcore.Path {
	nodes := make([]*graphcore.Node, len(p.Nodes)+1)
	copy(nodes, p.Nodes)
	nodes[len(p.Nodes)] = node
	edges := make([]*graphcore.Edge, len(p.Edges)+1)
	copy(edges, p.Edges)
	edges[len(p.Edges)] = edge
	return &graphcore.Path{Nodes: nodes, Edges: edges}
}

// FindMatchingPaths enumerates every path satisfying pattern via breadth-
// first search, honoring direction, property filters, variable-length
// segments, cycle prevention, and the maxPathDepth/maxPathResults guards.
// Results are deduplicated by canonical string and ordered by BFS discovery
// order.
func (m *Matcher) FindMatchingPaths(pattern *graphcore.PathPattern) []*graphcore.Path {
	startNodes := m.FindMatchingNodes(pattern.Start)

	if len(pattern.Segments) == 0 {
		out := make([]*graphcore.Path, 0, len(startNodes))
		for _, n := range startNodes {
			out = append(out, &graphcore.Path{Nodes: []*graphcore.Node{n}})
		}
		return out
	}

	var queue []*pathState
	for _, n := range startNodes {
		queue = append(queue, &pathState{
			path:    &graphcore.Path{Nodes: []*graphcore.Node{n}},
			segIdx:  0,
			hops:    0,
			visited: map[graphcore.NodeID]bool{n.ID: true},
		})
	}

	var results []*graphcore.Path
	seen := make(map[string]bool)

	for len(queue) > 0 && len(results) < m.config.MaxPathResults {
		cur := queue[0]
		queue = queue[1:]

		if len(cur.path.Edges) >= m.config.MaxPathDepth {
			continue
		}

		seg := pattern.Segments[cur.segIdx]
		rel := seg.Rel
		minHops := rel.ResolvedMinHops()
		maxHops := rel.ResolvedMaxHops() // -1 means unbounded
		variable := rel.IsVariableLength()
		isFinalSegment := cur.segIdx == len(pattern.Segments)-1

		currentNode := cur.path.Nodes[len(cur.path.Nodes)-1]
		edges := m.FindMatchingRelationships(rel, &currentNode.ID)

		for _, edge := range edges {
			var neighborID graphcore.NodeID
			if edge.Source == currentNode.ID {
				neighborID = edge.Target
			} else {
				neighborID = edge.Source
			}

			neighbor := m.graph.GetNode(neighborID)
			if neighbor == nil {
				continue
			}

			hops := cur.hops + 1
			nextPath := appendPath(cur.path, edge, neighbor)
			if len(nextPath.Edges) > m.config.MaxPathDepth {
				continue
			}

			targetMatches := m.MatchesNodePattern(neighbor, seg.Node)

			// complete: final segment, enough hops, neighbor matches target.
			if isFinalSegment && hops >= minHops && targetMatches {
				key := nextPath.Canonical()
				if !seen[key] {
					seen[key] = true
					results = append(results, nextPath)
					if len(results) >= m.config.MaxPathResults {
						break
					}
				}
			}

			// extend: variable segment, under the hop cap, no cycle.
			if variable && (maxHops == -1 || hops < maxHops) && !cur.visited[neighborID] {
				visited := cloneVisited(cur.visited)
				visited[neighborID] = true
				queue = append(queue, &pathState{
					path:    nextPath,
					segIdx:  cur.segIdx,
					hops:    hops,
					visited: visited,
				})
			}

			// advance: enough hops, not final segment, target matches, no cycle.
			if hops >= minHops && !isFinalSegment && targetMatches && !cur.visited[neighborID] {
				visited := cloneVisited(cur.visited)
				visited[neighborID] = true
				queue = append(queue, &pathState{
					path:    nextPath,
					segIdx:  cur.segIdx + 1,
					hops:    0,
					visited: visited,
				})
			}
		}
	}

	return results
}
