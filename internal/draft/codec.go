package draft

import (
	"regexp"
	"strings"
)

const (
	// DefaultPrefix namespaces every key this package owns.
	DefaultPrefix = "boxsuk-assignment_"
	// DefaultID is used when a page is opened without an assignment id.
	DefaultID = "defaultAssignment"
)

var assignmentToken = regexp.MustCompile(`(?i)^assignment[_-]?`)

// Codec maps assignment ids to storage keys under one prefix.
type Codec struct {
	prefix string
}

func NewCodec(prefix string) Codec {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Codec{prefix: prefix}
}

func (c Codec) Prefix() string {
	return c.prefix
}

func (c Codec) Encode(id string) string {
	return c.prefix + id
}

// Decode returns the id for key, or false if key is not under the prefix.
func (c Codec) Decode(key string) (string, bool) {
	if !strings.HasPrefix(key, c.prefix) {
		return "", false
	}
	return key[len(c.prefix):], true
}

// DisplaySuffix strips a leading "assignment" token (any case, optional _ or -)
// for labels. It is never used to build keys.
func DisplaySuffix(id string) string {
	return assignmentToken.ReplaceAllString(id, "")
}

// Label is DisplaySuffix, or DefaultID when nothing is left.
func Label(id string) string {
	if s := DisplaySuffix(id); s != "" {
		return s
	}
	return DefaultID
}

// ResolveID returns id, or the fallback sentinel when id is blank.
func ResolveID(id, fallback string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	if fallback == "" {
		return DefaultID
	}
	return fallback
}
