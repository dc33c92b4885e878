package graph

import (
	"cmp"
	"slices"
	"strings"

	"github.com/starford/mindra/internal/models"
)

// LinkIndex maps a link label to the ascending indices of the notes that
// declare it. Every index appears at most once per label.
type LinkIndex map[string][]int

// TitleIndex maps a note title to the ascending indices of the notes that
// carry it.
type TitleIndex map[string][]int

// Edge is a resolved directed connection between two snapshot indices.
type Edge struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Label string `json:"label"`
}

// BuildLinkIndex indexes the outbound labels of every note. A note that lists
// the same label twice contributes its index once.
func BuildLinkIndex(notes []models.Note) LinkIndex {
	idx := make(LinkIndex)
	for i, n := range notes {
		seen := make(map[string]struct{}, len(n.Links))
		for _, label := range n.Links {
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}
			idx[label] = append(idx[label], i)
		}
	}
	return idx
}

// BuildTitleIndex indexes notes by their literal title.
func BuildTitleIndex(notes []models.Note) TitleIndex {
	idx := make(TitleIndex, len(notes))
	for i, n := range notes {
		idx[n.Title] = append(idx[n.Title], i)
	}
	return idx
}

// ResolveEdges joins declaring notes to titled notes. Matching is literal
// string equality; a label nobody carries as a title produces no edge.
// Self-links and indices at or beyond n are skipped. Edges are ordered by
// source index, then by the source note's label order, then by target index.
func ResolveEdges(notes []models.Note, titles TitleIndex, n int) []Edge {
	var out []Edge
	for i, note := range notes {
		if i >= n {
			break
		}
		seen := make(map[string]struct{}, len(note.Links))
		for _, label := range note.Links {
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}
			for _, j := range titles[label] {
				if j == i || j >= n {
					continue
				}
				out = append(out, Edge{From: i, To: j, Label: label})
			}
		}
	}
	return out
}

// Dangling returns the labels of links that resolve to no note, ordered by
// their first declaring index and then by label.
func Dangling(links LinkIndex, titles TitleIndex) []string {
	var out []string
	for label, idxs := range links {
		if len(idxs) == 0 || len(titles[label]) > 0 {
			continue
		}
		out = append(out, label)
	}
	slices.SortFunc(out, func(a, b string) int {
		if c := cmp.Compare(links[a][0], links[b][0]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}
