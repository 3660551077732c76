package maker

import (
	"fmt"
	"strconv"
	"strings"
)

// ScriptCoords locates the script to launch among the generated ones.
// Negative indices count from the end, -1 being the last.
type ScriptCoords struct {
	Name     string
	Skeleton int
	Script   int
}

func (c ScriptCoords) String() string {
	return fmt.Sprintf("%s:%d:%d", c.Name, c.Skeleton, c.Script)
}

// ParseScriptCoords decodes a recipe launch option, "name[:skeleton[:script]]".
// The name may contain colons: only the last two integer pieces are indices.
func ParseScriptCoords(launch string) ScriptCoords {
	pieces := rsplit(launch, ":", 2)

	nums := make([]int, len(pieces))
	cut := 0
	for i, p := range pieces {
		n, err := strconv.Atoi(p)
		if err != nil {
			cut = i + 1
			continue
		}
		nums[i] = n
	}
	// Only integers: the first one is still the name
	if cut == 0 {
		cut = 1
	}

	indices := append([]int{}, nums[cut:]...)
	for len(indices) < 2 {
		indices = append(indices, -1)
	}

	return ScriptCoords{
		Name:     strings.Join(pieces[:cut], ":"),
		Skeleton: indices[0],
		Script:   indices[1],
	}
}

// rsplit splits s on sep from the right, at most n times.
func rsplit(s, sep string, n int) []string {
	var tail []string
	for len(tail) < n {
		i := strings.LastIndex(s, sep)
		if i < 0 {
			break
		}
		tail = append([]string{s[i+len(sep):]}, tail...)
		s = s[:i]
	}
	return append([]string{s}, tail...)
}
