package extract

import (
	"strings"

	"github.com/Jeffail/gabs/v2"
)

// childAt walks `path` one object key at a time, arrays are never descended into.
func childAt(c *gabs.Container, path []string) (*gabs.Container, bool) {
	current := c
	for _, segment := range path {
		children := current.ChildrenMap()
		child, ok := children[segment]
		if !ok {
			return nil, false
		}
		current = child
	}
	return current, true
}

func splitPath(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// resolveRoot returns the value at the dotted `rootPath`, false if any segment is absent.
func resolveRoot(value any, rootPath string) (any, bool) {
	segments := splitPath(rootPath)
	if len(segments) == 0 {
		return value, true
	}
	child, ok := childAt(gabs.Wrap(value), segments)
	if !ok {
		return nil, false
	}
	return child.Data(), true
}

// applyMapping projects a decoded page according to `mapping`. it never fails,
// anything it cannot make sense of is returned unchanged.
func applyMapping(value any, mapping *DataMapping) any {
	if mapping == nil {
		return value
	}

	root, ok := resolveRoot(value, mapping.RootPath)
	if !ok {
		return value
	}
	if len(mapping.Fields) == 0 {
		return root
	}

	items, ok := root.([]any)
	if !ok {
		return root
	}
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = mapRecord(item, mapping.Fields)
	}
	return out
}

// mapRecord copies the declared source keys of `item` under their output names.
// an item with none of the declared keys is returned as is.
func mapRecord(item any, fields map[string]string) any {
	record, ok := item.(map[string]any)
	if !ok {
		return item
	}

	mapped := make(map[string]any, len(fields))
	for outputKey, sourceKey := range fields {
		value, found := lookupField(record, sourceKey)
		if found {
			mapped[outputKey] = value
		}
	}
	if len(mapped) == 0 {
		return item
	}
	return mapped
}

func lookupField(record map[string]any, key string) (any, bool) {
	if value, ok := record[key]; ok {
		return value, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}
	child, ok := childAt(gabs.Wrap(record), splitPath(key))
	if !ok {
		return nil, false
	}
	return child.Data(), true
}
