// Package docrange provides the directional offset range used for selections and
// transaction bookkeeping over linear data.
package docrange

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"linmodel/common"
)

// Range is an immutable pair of offsets. From and To keep the direction of a selection
// (anchor and focus); Start and End are the normalized bounds, Start <= End.
type Range struct {
	From  int
	To    int
	Start int
	End   int
}

// New creates a range from an anchor and a focus offset.
func New(from, to int) Range {
	r := Range{From: from, To: to, Start: from, End: to}
	if to < from {
		r.Start, r.End = to, from
	}
	return r
}

// NewCollapsed creates a zero-length range at offset.
func NewCollapsed(offset int) Range {
	return New(offset, offset)
}

// NewCovering returns the smallest range covering all ranges. The result is backwards
// when backwards is true. It returns false when no ranges are given.
func NewCovering(ranges []Range, backwards bool) (Range, bool) {
	if len(ranges) == 0 {
		return Range{}, false
	}
	start, end := ranges[0].Start, ranges[0].End
	for _, r := range ranges[1:] {
		if r.Start < start {
			start = r.Start
		}
		if r.End > end {
			end = r.End
		}
	}
	if backwards {
		return New(end, start), true
	}
	return New(start, end), true
}

// Length returns End - Start.
func (r Range) Length() int {
	return r.End - r.Start
}

// IsCollapsed reports whether the range has zero length.
func (r Range) IsCollapsed() bool {
	return r.From == r.To
}

// IsBackwards reports whether the focus precedes the anchor.
func (r Range) IsBackwards() bool {
	return r.To < r.From
}

// ContainsOffset reports whether offset lies in [Start, End).
func (r Range) ContainsOffset(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// ContainsRange reports whether other lies entirely within r.
func (r Range) ContainsRange(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// TouchesRange reports whether other overlaps r or is adjacent to it.
func (r Range) TouchesRange(other Range) bool {
	return other.End >= r.Start && other.Start <= r.End
}

// OverlapsRange reports whether other shares at least one position with r.
// Ranges that merely touch do not overlap.
func (r Range) OverlapsRange(other Range) bool {
	return other.End > r.Start && other.Start < r.End
}

// Translate shifts both ends by distance.
func (r Range) Translate(distance int) Range {
	return New(r.From+distance, r.To+distance)
}

// Flip swaps anchor and focus.
func (r Range) Flip() Range {
	return New(r.To, r.From)
}

// Expand returns the range covering r and other, keeping r's direction.
func (r Range) Expand(other Range) Range {
	covering, _ := NewCovering([]Range{r, other}, r.IsBackwards())
	return covering
}

// Truncate keeps at most limit positions. A positive limit keeps the head of the range,
// a negative one keeps the tail. The result is always forwards.
func (r Range) Truncate(limit int) Range {
	if limit >= 0 {
		return New(r.Start, min(r.Start+limit, r.End))
	}
	return New(max(r.End+limit, r.Start), r.End)
}

// TrimCallback shrinks both ends while pred holds for the boundary position. pred is
// given the offset of the item just inside the range. Direction is preserved.
func (r Range) TrimCallback(pred func(offset int) bool) Range {
	start, end := r.Start, r.End
	for start < end && pred(start) {
		start++
	}
	for end > start && pred(end-1) {
		end--
	}
	return r.withBounds(start, end)
}

// ExpandCallback grows both ends while pred holds for the position just outside the
// range, never leaving bound. Direction is preserved.
func (r Range) ExpandCallback(pred func(offset int) bool, bound Range) Range {
	start, end := r.Start, r.End
	for start > bound.Start && pred(start-1) {
		start--
	}
	for end < bound.End && pred(end) {
		end++
	}
	return r.withBounds(start, end)
}

func (r Range) withBounds(start, end int) Range {
	if r.IsBackwards() {
		return New(end, start)
	}
	return New(start, end)
}

// Equals compares direction too.
func (r Range) Equals(other Range) bool {
	return r.From == other.From && r.To == other.To
}

// EqualsSelection compares only the normalized bounds.
func (r Range) EqualsSelection(other Range) bool {
	return r.Start == other.Start && r.End == other.End
}

// String returns a compact representation such as "[3,7)" or "[7<-3]".
func (r Range) String() string {
	if r.IsBackwards() {
		return fmt.Sprintf("[%d<-%d]", r.To, r.From)
	}
	return fmt.Sprintf("[%d,%d)", r.From, r.To)
}

type rangeJSON struct {
	Type string `json:"type,omitempty"`
	From *int   `json:"from"`
	To   *int   `json:"to"`
}

// MarshalJSON implements the json.Marshaler interface.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(rangeJSON{Type: "range", From: &r.From, To: &r.To})
}

// UnmarshalJSON implements the json.Unmarshaler interface. Both from and to must be
// present; a missing offset is an error rather than a zero.
func (r *Range) UnmarshalJSON(data []byte) error {
	var raw rangeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "failed to decode range")
	}
	if raw.Type != "" && raw.Type != "range" {
		return common.ErrInvalidRange{Message: fmt.Sprintf("unexpected type %q", raw.Type)}
	}
	if raw.From == nil || raw.To == nil {
		return common.ErrInvalidRange{Message: "from and to are required"}
	}
	*r = New(*raw.From, *raw.To)
	return nil
}
