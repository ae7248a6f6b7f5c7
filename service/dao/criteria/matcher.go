// Package criteria matches records against dao list parameters.
package criteria

import (
	"github.com/rbxxaxa/chipng/service/dao"
)

// StateParameter is the parameter name FilterByState understands.
const StateParameter = "State"

// FilterByState reports whether state satisfies every State parameter.
// Parameters with other names are ignored.
func FilterByState(state string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != StateParameter {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			if state != actual {
				return false
			}
		case []string:
			matched := false
			for _, s := range actual {
				if state == s {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}
	return true
}
