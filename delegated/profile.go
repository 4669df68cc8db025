package delegated

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// TypedIDSeparator separates the provider namespace from the bare id.
const TypedIDSeparator = ":"

// Profile is the identity returned by an external provider.
type Profile struct {
	// ID is the bare identifier, unique only within the provider.
	ID string
	// TypedID is the provider namespaced identifier.
	TypedID    string
	Attributes map[string][]string
}

// A blank id yields a blank typed id as well.
func NewProfile(namespace, id string, attrs map[string][]string) Profile {
	typed := id
	switch {
	case strings.TrimSpace(id) == "":
		typed = ""
	case namespace != "":
		typed = namespace + TypedIDSeparator + id
	}
	return Profile{ID: id, TypedID: typed, Attributes: attrs}
}

// IdentifierFrom formats an identifier claim or field. Strings and numbers
// are accepted; anything else yields "".
func IdentifierFrom(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32)
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprint(id)
	}
	return ""
}

// AttributesFrom normalizes provider attributes into string lists. Scalars
// become one element lists; values which cannot be decoded as strings keep
// their formatted representation.
func AttributesFrom(raw map[string]any) map[string][]string {
	out := make(map[string][]string, len(raw))
	for name, value := range raw {
		if name == "" || value == nil {
			continue
		}
		var values []string
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &values,
		})
		if err == nil {
			err = decoder.Decode(value)
		}
		if err != nil {
			values = []string{fmt.Sprint(value)}
		}
		out[name] = values
	}
	return out
}
