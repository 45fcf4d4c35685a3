package command

import "strings"

// Ref selects a command for execution. It is one of Name, *Command or List.
type Ref interface {
	ref()
}

// Name refers to a registered command by name.
type Name string

func (Name) ref() {}

func (*Command) ref() {}

// List is an ordered set of candidates. The dispatcher tries them from
// last to first and stops at the first one that executes successfully.
type List []Ref

func (List) ref() {}

// Names builds a List of name references.
func Names(names ...string) List {
	list := make(List, len(names))
	for i, n := range names {
		list[i] = Name(n)
	}
	return list
}

// ParseRef parses a binding target. "a|b|c" yields a List, anything else a Name.
func ParseRef(s string) Ref {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "|") {
		return Name(s)
	}
	var names []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return Names(names...)
}

// RefString renders a Ref for logs.
func RefString(r Ref) string {
	switch v := r.(type) {
	case nil:
		return "<nil>"
	case Name:
		return string(v)
	case *Command:
		return v.String()
	case List:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = RefString(item)
		}
		return strings.Join(parts, "|")
	default:
		return "<unknown>"
	}
}
