package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Author is structured author information. Sources that only know a display
// name fill Name; richer sources (Crossref) fill Given/Family/ORCID.
type Author struct {
	Name   string `json:"name,omitempty"`
	Given  string `json:"given,omitempty"`
	Family string `json:"family,omitempty"`
	ORCID  string `json:"orcid,omitempty"`
}

// NewAuthor returns an author with the given display name, or nil when blank.
func NewAuthor(name string) *Author {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &Author{Name: name}
}

// JoinAuthors builds one author value from several display names.
func JoinAuthors(names []string) *Author {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	return NewAuthor(strings.Join(cleaned, ", "))
}

// String returns the display name.
func (a Author) String() string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	return strings.TrimSpace(a.Given + " " + a.Family)
}

type authorAlias Author

// MarshalJSON writes a bare name string when nothing but the name is known.
func (a Author) MarshalJSON() ([]byte, error) {
	if a.Given == "" && a.Family == "" && a.ORCID == "" {
		return json.Marshal(a.Name)
	}
	alias := authorAlias(a)
	alias.Name = a.String()
	return json.Marshal(alias)
}

// UnmarshalJSON accepts a name string, an object, or an array of either.
func (a *Author) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*a = Author{Name: name}
	case '{':
		var alias authorAlias
		if err := json.Unmarshal(data, &alias); err != nil {
			return err
		}
		*a = Author(alias)
	case '[':
		var many []Author
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		switch len(many) {
		case 0:
			*a = Author{}
		case 1:
			*a = many[0]
		default:
			names := make([]string, 0, len(many))
			for _, m := range many {
				names = append(names, m.String())
			}
			*a = Author{Name: strings.Join(names, ", ")}
		}
	default:
		return fmt.Errorf("author: unsupported JSON value %s", string(data))
	}
	return nil
}
