package linear

import (
	"strings"

	"github.com/mitchellh/copystructure"
	"github.com/pkg/errors"
)

// Item is one position of linear data: an Element marker, a plain Char or an
// AnnotatedChar. Items are treated as immutable once stored.
type Item interface {
	isItem()
}

// Element opens or closes a node. A Type starting with "/" closes the element of the
// same type without the prefix.
type Element struct {
	Type       string                 `json:"type"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

func (Element) isItem() {}

// Char is a single unannotated character.
type Char string

func (Char) isItem() {}

// AnnotatedChar is a character carrying annotation hashes.
type AnnotatedChar struct {
	Char        string
	Annotations []string
}

func (AnnotatedChar) isItem() {}

// NewElement returns an opening element.
func NewElement(typ string, attributes map[string]interface{}) Element {
	return Element{Type: typ, Attributes: attributes}
}

// CloseElement returns the closing marker for typ.
func CloseElement(typ string) Element {
	return Element{Type: "/" + typ}
}

// Attribute returns the attribute value stored under key.
func (e Element) Attribute(key string) (interface{}, bool) {
	v, ok := e.Attributes[key]
	return v, ok
}

// IsElementData reports whether item is an element marker.
func IsElementData(item Item) bool {
	_, ok := item.(Element)
	return ok
}

// IsOpenElementData reports whether item opens an element.
func IsOpenElementData(item Item) bool {
	e, ok := item.(Element)
	return ok && !strings.HasPrefix(e.Type, "/")
}

// IsCloseElementData reports whether item closes an element.
func IsCloseElementData(item Item) bool {
	e, ok := item.(Element)
	return ok && strings.HasPrefix(e.Type, "/")
}

// GetType returns the element type without the closing prefix, or "" for content.
func GetType(item Item) string {
	e, ok := item.(Element)
	if !ok {
		return ""
	}
	return strings.TrimPrefix(e.Type, "/")
}

// IsContentData reports whether item is a character, annotated or not.
func IsContentData(item Item) bool {
	switch item.(type) {
	case Char, AnnotatedChar:
		return true
	}
	return false
}

// GetCharacter returns the character of a content item.
func GetCharacter(item Item) (string, bool) {
	switch v := item.(type) {
	case Char:
		return string(v), true
	case AnnotatedChar:
		return v.Char, true
	}
	return "", false
}

// GetAnnotations returns the annotation hashes of item. The result must not be modified.
func GetAnnotations(item Item) []string {
	if ac, ok := item.(AnnotatedChar); ok {
		return ac.Annotations
	}
	return nil
}

// HasAnnotation reports whether item carries hash.
func HasAnnotation(item Item, hash string) bool {
	for _, h := range GetAnnotations(item) {
		if h == hash {
			return true
		}
	}
	return false
}

// WithAnnotations returns a content item for ch carrying hashes. An empty set yields a
// bare Char.
func WithAnnotations(ch string, hashes []string) Item {
	if len(hashes) == 0 {
		return Char(ch)
	}
	return AnnotatedChar{Char: ch, Annotations: append([]string(nil), hashes...)}
}

// TextToItems splits text into one Char per rune.
func TextToItems(text string) []Item {
	items := make([]Item, 0, len(text))
	for _, r := range text {
		items = append(items, Char(string(r)))
	}
	return items
}

// CloneItem returns a deep copy of item.
func CloneItem(item Item) (Item, error) {
	switch v := item.(type) {
	case Char:
		return v, nil
	case AnnotatedChar:
		return AnnotatedChar{Char: v.Char, Annotations: append([]string(nil), v.Annotations...)}, nil
	case Element:
		copied, err := copystructure.Copy(v)
		if err != nil {
			return nil, errors.Wrap(err, "failed to copy element")
		}
		return copied.(Element), nil
	case nil:
		return nil, errors.New("nil item")
	}
	return nil, errors.Errorf("unknown item type %T", item)
}

// CloneItems deep copies every item.
func CloneItems(items []Item) ([]Item, error) {
	out := make([]Item, len(items))
	for i, item := range items {
		c, err := CloneItem(item)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// DepthChange returns +1 for an opening element, -1 for a closing one and 0 otherwise.
func DepthChange(item Item) int {
	switch {
	case IsOpenElementData(item):
		return 1
	case IsCloseElementData(item):
		return -1
	}
	return 0
}

// DepthProfile returns the net depth change over items and the lowest running depth
// reached, relative to the depth before the first item.
func DepthProfile(items []Item) (net, lowest int) {
	for _, item := range items {
		net += DepthChange(item)
		if net < lowest {
			lowest = net
		}
	}
	return net, lowest
}

// ContainsElementData reports whether any item is an element marker.
func ContainsElementData(items []Item) bool {
	for _, item := range items {
		if IsElementData(item) {
			return true
		}
	}
	return false
}
