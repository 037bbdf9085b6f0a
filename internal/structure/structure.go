// Package structure flattens and queries a site's content-structure tree.
package structure

import (
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
	"git.home.luguber.info/inful/sitebuilder/internal/util/sets"
)

// Separator delimits ids in a flattened path.
const Separator = "/"

// Paths returns one root-to-node path per node ("/root/a/b"), depth-first with
// children in declaration order. Intermediate nodes get their own path.
func Paths(nodes []models.StructureNode) []string {
	return paths(nodes, "")
}

func paths(nodes []models.StructureNode, prefix string) []string {
	out := make([]string, 0, len(nodes))
	for _, node := range nodes {
		cur := prefix + Separator + node.Key
		out = append(out, cur)
		if len(node.Children) > 0 {
			out = append(out, paths(node.Children, cur)...)
		}
	}
	return out
}

// Split breaks a flattened path into its ids, dropping the empty leading
// segment that stands for the implicit site root.
func Split(path string) []string {
	trimmed := strings.Trim(path, Separator)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, Separator)
}

// IDs returns every id referenced by the given paths, each exactly once, in
// first-seen order.
func IDs(paths []string) []string {
	seen := sets.New[string]()
	var out []string
	for _, p := range paths {
		for _, id := range Split(p) {
			if id != "" && seen.AddNew(id) {
				out = append(out, id)
			}
		}
	}
	return out
}

// Contains reports whether any node in the subtree references id.
func Contains(nodes []models.StructureNode, id string) bool {
	for _, node := range nodes {
		if node.Key == id || Contains(node.Children, id) {
			return true
		}
	}
	return false
}

// RootID returns the key of the first top-level node, or "" for an empty tree.
func RootID(nodes []models.StructureNode) string {
	if len(nodes) == 0 {
		return ""
	}
	return nodes[0].Key
}

// AnnotatedNode is a structure node decorated with data derived from its item.
type AnnotatedNode struct {
	Key      string
	Data     map[string]any
	Children []AnnotatedNode
}

// Annotate walks the tree and attaches fn(item) to every node whose item is
// present in items. Nodes with unknown items keep their key and carry no data.
// fn may be nil.
func Annotate(nodes []models.StructureNode, items map[string]*models.Item, fn func(*models.Item) map[string]any) []AnnotatedNode {
	out := make([]AnnotatedNode, 0, len(nodes))
	for _, node := range nodes {
		an := AnnotatedNode{Key: node.Key, Children: Annotate(node.Children, items, fn)}
		if item, ok := items[node.Key]; ok && item != nil && fn != nil {
			an.Data = fn(item)
		}
		out = append(out, an)
	}
	return out
}
