package simulation

import (
	"fmt"
	"strconv"
)

// Namer kinds
const (
	NamerLocalIndex  = "local_index"
	NamerGlobalIndex = "global_index"
)

var namerAliases = map[string]string{
	"appendLocalIndex":  NamerLocalIndex,
	"appendGlobalIndex": NamerGlobalIndex,
}

// NamerDeclaration renames a setting on the command line by appending an
// index, so repeated sets do not produce the same option twice.
//
// The local index counts the instances of the setting's own set, the global
// index counts every instance declaring a setting of that name. Indexes start
// at 0. With OnlyIfMultiple the name is kept when the matching total is 1.
type NamerDeclaration struct {
	Kind           string `yaml:"kind"`
	OnlyIfMultiple bool   `yaml:"only_if_multiple"`
}

// position of a setting among its occurrences
type position struct {
	index int
	total int
}

func (n NamerDeclaration) kind() string {
	if k, ok := namerAliases[n.Kind]; ok {
		return k
	}
	return n.Kind
}

func (n NamerDeclaration) validate() error {
	switch n.kind() {
	case "", NamerLocalIndex, NamerGlobalIndex:
		return nil
	}
	return fmt.Errorf("unknown namer %q", n.Kind)
}

// displayName is the name a setting is rendered with.
func (n NamerDeclaration) displayName(name string, local, global position) string {
	var p position
	switch n.kind() {
	case NamerLocalIndex:
		p = local
	case NamerGlobalIndex:
		p = global
	default:
		return name
	}
	if n.OnlyIfMultiple && p.total <= 1 {
		return name
	}
	return name + "-" + strconv.Itoa(p.index)
}
