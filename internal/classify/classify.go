// Package classify assigns recording files a semantic role from their names.
package classify

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is the semantic classification of a recording file.
type Role string

const (
	RoleImaging        Role = "imaging"
	RoleBehaviorLinear Role = "behavior_linear"
	RoleBehaviorHome   Role = "behavior_home"
	RoleTimestampLog   Role = "timestamp_log"
	RoleUnclassified   Role = "unclassified"
)

// StreamRoles lists the roles that become acquisition streams, in container order.
var StreamRoles = []Role{RoleImaging, RoleBehaviorLinear, RoleBehaviorHome}

// IsStream reports whether r produces an acquisition stream.
func (r Role) IsStream() bool {
	switch r {
	case RoleImaging, RoleBehaviorLinear, RoleBehaviorHome:
		return true
	}
	return false
}

// Title renders the role for display, e.g. "Behavior Linear".
func (r Role) Title() string {
	return cases.Title(language.Und).String(strings.ReplaceAll(string(r), "_", " "))
}

type rule struct {
	role  Role
	match func(name string) bool
}

// Evaluated in order; the first match wins. "behaviorLinear" must precede the
// generic "behavior" rule.
var rules = []rule{
	{RoleImaging, func(n string) bool { return strings.Contains(n, "miniscope") }},
	{RoleBehaviorLinear, func(n string) bool { return strings.Contains(n, "behaviorLinear") }},
	{RoleBehaviorHome, func(n string) bool {
		return strings.Contains(n, "behavior") && !strings.Contains(n, "Linear")
	}},
}

// Classify returns the role for a file name or path. Matching is case-sensitive
// and only the base name is inspected.
func Classify(name string) Role {
	base := filepath.Base(name)
	for _, r := range rules {
		if r.match(base) {
			return r.role
		}
	}
	return RoleUnclassified
}

// File is a recording file with its assigned role.
type File struct {
	Path string
	Name string
	Role Role
}

// Partition is a session's files split by role, each list in input order.
type Partition map[Role][]File

// Split classifies files. isLog marks timestamp logs, which are assigned
// RoleTimestampLog ahead of the name rules.
func Split(files []string, isLog func(string) bool) Partition {
	p := make(Partition)
	for _, path := range files {
		var role Role
		if isLog != nil && isLog(path) {
			role = RoleTimestampLog
		} else {
			role = Classify(path)
		}
		p[role] = append(p[role], File{Path: path, Name: filepath.Base(path), Role: role})
	}
	return p
}

// Names returns the base names of the files with role r.
func (p Partition) Names(r Role) []string {
	files := p[r]
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}

// Count returns how many files carry role r.
func (p Partition) Count(r Role) int {
	return len(p[r])
}

// Streams returns the stream roles present, in StreamRoles order.
func (p Partition) Streams() []Role {
	var present []Role
	for _, r := range StreamRoles {
		if len(p[r]) > 0 {
			present = append(present, r)
		}
	}
	return present
}
