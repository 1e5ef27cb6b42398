package processor

import (
	"fmt"

	"linmodel/common"
	"linmodel/doctree"
	"linmodel/linear"
	"linmodel/transaction"
)

// annotate opens or closes a span. Rolling back swaps set and clear.
func (r *run) annotate(op *transaction.Annotate) error {
	method := op.Method
	if !method.Valid() {
		return common.ErrAnnotation{Message: fmt.Sprintf("invalid annotation method %q", method)}
	}
	if r.reversed {
		method = method.Inverse()
	}
	hash, err := r.doc.Store().Hash(op.Annotation)
	if err != nil {
		return err
	}

	queue := &r.toSet
	if method == common.AnnotationMethodClear {
		queue = &r.toClear
	}
	switch op.Bias {
	case common.AnnotationBiasStart:
		if contains(r.toSet, hash) || contains(r.toClear, hash) {
			return common.ErrAnnotation{Message: fmt.Sprintf("annotation %s is already started", hash)}
		}
		*queue = append(*queue, hash)
		return nil
	case common.AnnotationBiasStop:
		for i, h := range *queue {
			if h == hash {
				*queue = append((*queue)[:i], (*queue)[i+1:]...)
				return nil
			}
		}
		return common.ErrInvalidTransaction{Message: fmt.Sprintf("stopping %s of %s which was not started", method, hash)}
	}
	return common.ErrAnnotation{Message: fmt.Sprintf("invalid annotation bias %q", op.Bias)}
}

// applyAnnotations sets and clears the queued annotations on every character of
// [start, end). A set hash goes before the first hash stored after it, and a cleared one
// is removed in place, so set and clear undo each other exactly.
func (r *run) applyAnnotations(start, end int) error {
	data := r.doc.Data()
	store := r.doc.Store()
	for offset := start; offset < end; offset++ {
		err := data.Modify(offset, func(item linear.Item) (linear.Item, error) {
			ch, ok := linear.GetCharacter(item)
			if !ok {
				return nil, common.ErrAnnotation{Message: fmt.Sprintf("cannot annotate element at offset %d", offset)}
			}
			hashes := append([]string(nil), linear.GetAnnotations(item)...)
			for _, hash := range r.toSet {
				if linear.HasAnnotation(item, hash) {
					return nil, common.ErrAnnotation{Message: fmt.Sprintf("annotation %s already set at offset %d", hash, offset)}
				}
				hashes = insertHash(hashes, hash, store.IndexOf)
			}
			for _, hash := range r.toClear {
				if !linear.HasAnnotation(item, hash) {
					return nil, common.ErrAnnotation{Message: fmt.Sprintf("annotation %s not set at offset %d", hash, offset)}
				}
				hashes = removeHash(hashes, hash)
			}
			return linear.WithAnnotations(ch, hashes), nil
		})
		if err != nil {
			return err
		}
	}
	r.doc.NodeFromOffset(start).Emit(doctree.EventAnnotation, start, end)
	return nil
}

func insertHash(hashes []string, hash string, indexOf func(string) int) []string {
	at := len(hashes)
	for i, h := range hashes {
		if indexOf(h) > indexOf(hash) {
			at = i
			break
		}
	}
	hashes = append(hashes, "")
	copy(hashes[at+1:], hashes[at:])
	hashes[at] = hash
	return hashes
}

func contains(hashes []string, hash string) bool {
	for _, h := range hashes {
		if h == hash {
			return true
		}
	}
	return false
}

func removeHash(hashes []string, hash string) []string {
	out := hashes[:0]
	for _, h := range hashes {
		if h != hash {
			out = append(out, h)
		}
	}
	return out
}

// attribute changes key on the element opening at the cursor. A nil to removes the key,
// and the attribute map is dropped once empty.
func (r *run) attribute(key string, from, to interface{}) error {
	data := r.doc.Data()
	offset := r.cursor
	element, ok := data.At(offset).(linear.Element)
	if !ok || !linear.IsOpenElementData(element) {
		return common.ErrNotElement{Offset: offset}
	}

	var changed linear.Element
	err := data.Modify(offset, func(item linear.Item) (linear.Item, error) {
		changed = item.(linear.Element)
		if to == nil {
			delete(changed.Attributes, key)
		} else {
			if changed.Attributes == nil {
				changed.Attributes = make(map[string]interface{})
			}
			changed.Attributes[key] = to
		}
		if len(changed.Attributes) == 0 {
			changed.Attributes = nil
		}
		return changed, nil
	})
	if err != nil {
		return err
	}

	path := r.doc.BranchPath(offset + 1)
	for i := len(path) - 1; i >= 0; i-- {
		node := path[i]
		if _, hasElement := node.Element(); hasElement && node.OuterRange().Start == offset {
			node.SetElement(changed)
			node.Emit(doctree.EventAttributeChange, key, from, to)
			return nil
		}
	}
	return common.ErrInvalidTransaction{Message: fmt.Sprintf("no node opens at offset %d", offset)}
}
