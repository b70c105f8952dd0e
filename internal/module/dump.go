package module

import (
	"fmt"
	"strings"
)

// Dump renders the record for humans.
func (r *Record) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s\n", r.name)
	if r.filename != "" {
		fmt.Fprintf(&b, "  filename: %s\n", r.filename)
	}
	if r.apiFilename != "" {
		fmt.Fprintf(&b, "  api filename: %s\n", r.apiFilename)
	}
	if len(r.annotations) > 0 {
		fmt.Fprintf(&b, "  annotations: %s\n", r.annotations.Format())
	}

	fmt.Fprintf(&b, "  imports (%d):\n", len(r.imports))
	for i, tag := range r.imports {
		fmt.Fprintf(&b, "    %d: %s\n", i, tag)
	}

	fmt.Fprintf(&b, "  types (%d):\n", len(r.types))
	for _, t := range r.types {
		fmt.Fprintf(&b, "    %s %s\n", t.Kind, t.Name)
	}

	fmt.Fprintf(&b, "  constants (%d):\n", len(r.constants))
	for _, c := range r.constants {
		fmt.Fprintf(&b, "    %s = %s\n", c.Name, c.Value.Format())
	}

	fmt.Fprintf(&b, "  functions (%d):\n", len(r.functions))
	for i, f := range r.functions {
		fmt.Fprintf(&b, "    %d: %s\n", i, f)
	}

	fmt.Fprintf(&b, "  materials (%d):\n", len(r.materials))
	for i, m := range r.materials {
		fmt.Fprintf(&b, "    %d: %s\n", i, m)
	}

	fmt.Fprintf(&b, "  resources (%d):\n", len(r.resources))
	for i, slot := range r.resources {
		tags := make([]string, len(slot))
		for j, tag := range slot {
			tags[j] = tag.String()
		}
		line := strings.Join(tags, ", ")
		if path, ok := r.ResourcePath(i); ok {
			typ, _ := r.ResourceType(i)
			line = fmt.Sprintf("%s %s -> %s", typ, path, line)
		}
		fmt.Fprintf(&b, "    %d: %s\n", i, line)
	}
	return b.String()
}
