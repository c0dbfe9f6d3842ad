package keywords

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var (
	// ErrInvalidKeyword indicates keyword text that is not a legal identifier.
	ErrInvalidKeyword = errors.New("keywords: invalid keyword")
	// ErrDuplicateKeyword indicates keyword text already used by another kind.
	ErrDuplicateKeyword = errors.New("keywords: keyword already in use")
	// ErrUnknownKind indicates a Kind with no keyword text.
	ErrUnknownKind = errors.New("keywords: unknown kind")
)

// identifierRegex is the shape every structural keyword must have.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Registry maps each Kind to its keyword text. The zero value is not usable;
// call NewRegistry. A Registry is safe for concurrent use.
type Registry struct {
	mu            sync.RWMutex
	text          map[Kind]string
	caseSensitive bool
}

// NewRegistry returns a case-insensitive registry holding the default
// keyword texts.
func NewRegistry() *Registry {
	r := &Registry{text: make(map[Kind]string, len(Kinds))}
	for _, k := range Kinds {
		r.text[k] = k.String()
	}
	return r
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := &Registry{text: make(map[Kind]string, len(r.text)), caseSensitive: r.caseSensitive}
	for k, v := range r.text {
		c.text[k] = v
	}
	return c
}

// Text returns the keyword text for k.
func (r *Registry) Text(k Kind) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.text[k]
}

// CaseSensitive reports whether keyword comparison respects case.
func (r *Registry) CaseSensitive() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.caseSensitive
}

// SetCaseSensitive switches keyword comparison. Turning case sensitivity off
// fails if two keywords would then collide.
func (r *Registry) SetCaseSensitive(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !on {
		seen := make(map[string]Kind, len(r.text))
		for _, k := range Kinds {
			key := strings.ToLower(r.text[k])
			if other, dup := seen[key]; dup {
				return fmt.Errorf("%w: %q used by %s and %s", ErrDuplicateKeyword, r.text[k], other, k)
			}
			seen[key] = k
		}
	}
	r.caseSensitive = on
	return nil
}

// Set changes the keyword text for k. Structural keywords must be
// identifiers; element-type tags only need to be non-empty.
func (r *Registry) Set(k Kind, text string) error {
	if _, ok := kindNames[k]; !ok || k == None {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}

	text = strings.TrimSpace(text)
	if k.IsElementType() {
		if text == "" {
			return fmt.Errorf("%w: %s tag must not be empty", ErrInvalidKeyword, k)
		}
	} else if !identifierRegex.MatchString(text) {
		return fmt.Errorf("%w: %s %q is not an identifier", ErrInvalidKeyword, k, text)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for other, existing := range r.text {
		if other != k && r.equal(existing, text) {
			return fmt.Errorf("%w: %q used by %s", ErrDuplicateKeyword, text, other)
		}
	}
	r.text[k] = text
	return nil
}

// Classify returns the Kind whose keyword matches cell, or None.
func (r *Registry) Classify(cell string) Kind {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return None
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, k := range Kinds {
		if r.equal(r.text[k], cell) {
			return k
		}
	}
	return None
}

// Is reports whether cell is the keyword for k.
func (r *Registry) Is(cell string, k Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.equal(r.text[k], strings.TrimSpace(cell))
}

// IsSingleValueKey reports whether cell is a count keyword.
func (r *Registry) IsSingleValueKey(cell string) bool {
	return r.Classify(cell).IsSingleValue()
}

// IsElementTypeKey reports whether cell is an Input or Output tag.
func (r *Registry) IsElementTypeKey(cell string) bool {
	return r.Classify(cell).IsElementType()
}

// IsDefinitionKey reports whether cell is any definition-block keyword.
func (r *Registry) IsDefinitionKey(cell string) bool {
	return r.Classify(cell).IsDefinition()
}

// IsDataKey reports whether cell is the data keyword.
func (r *Registry) IsDataKey(cell string) bool {
	return r.Classify(cell).IsData()
}

// IsDefinitionOrDataKey reports whether cell starts a definition or data row.
func (r *Registry) IsDefinitionOrDataKey(cell string) bool {
	return r.Classify(cell).IsDefinitionOrData()
}

// IsCommentKey reports whether cell is the comment keyword.
func (r *Registry) IsCommentKey(cell string) bool {
	return r.Classify(cell).IsComment()
}

// equal compares keyword text. Callers hold r.mu.
func (r *Registry) equal(a, b string) bool {
	if r.caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}
