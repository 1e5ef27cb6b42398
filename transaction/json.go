package transaction

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"linmodel/common"
	"linmodel/linear"
)

type jsonOperation struct {
	Type       common.OperationType    `json:"type"`
	Length     int                     `json:"length,omitempty"`
	Index      int                     `json:"index,omitempty"`
	Remove     json.RawMessage         `json:"remove,omitempty"`
	Insert     json.RawMessage         `json:"insert,omitempty"`
	RemoveMeta []json.RawMessage       `json:"removeMetadata,omitempty"`
	InsertMeta []json.RawMessage       `json:"insertMetadata,omitempty"`
	Key        string                  `json:"key,omitempty"`
	From       interface{}             `json:"from,omitempty"`
	To         interface{}             `json:"to,omitempty"`
	Method     common.AnnotationMethod `json:"method,omitempty"`
	Bias       common.AnnotationBias   `json:"bias,omitempty"`
	Annotation interface{}             `json:"annotation,omitempty"`
}

type jsonTransaction struct {
	ID         common.TransactionID `json:"id"`
	Operations []json.RawMessage    `json:"operations"`
}

// MarshalOperation encodes op as a JSON object tagged with its type.
func MarshalOperation(op Operation) ([]byte, error) {
	out := jsonOperation{Type: op.Type()}
	var err error
	switch op := op.(type) {
	case *Retain:
		out.Length = op.Length
	case *Replace:
		if out.Remove, err = linear.MarshalItems(op.Remove); err != nil {
			return nil, err
		}
		if out.Insert, err = linear.MarshalItems(op.Insert); err != nil {
			return nil, err
		}
		if out.RemoveMeta, err = encodeSlots(op.RemoveMetadata); err != nil {
			return nil, err
		}
		if out.InsertMeta, err = encodeSlots(op.InsertMetadata); err != nil {
			return nil, err
		}
	case *ReplaceMetadata:
		out.Index = op.Index
		if out.Remove, err = linear.MarshalItems(op.Remove); err != nil {
			return nil, err
		}
		if out.Insert, err = linear.MarshalItems(op.Insert); err != nil {
			return nil, err
		}
	case *ReplaceElementAttribute:
		out.Key, out.From, out.To = op.Key, op.From, op.To
	case *Annotate:
		out.Method, out.Bias, out.Annotation = op.Method, op.Bias, op.Annotation
	default:
		return nil, common.ErrInvalidOperation{Message: fmt.Sprintf("unknown operation %T", op)}
	}
	return json.Marshal(out)
}

// UnmarshalOperation decodes an operation produced by MarshalOperation.
func UnmarshalOperation(data []byte) (Operation, error) {
	var in jsonOperation
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errors.Wrap(err, "failed to decode operation")
	}
	switch in.Type {
	case common.OperationTypeRetain:
		return &Retain{Length: in.Length}, nil
	case common.OperationTypeReplace:
		remove, insert, err := decodeItemPair(in)
		if err != nil {
			return nil, err
		}
		replace := &Replace{Remove: remove, Insert: insert}
		if replace.RemoveMetadata, err = decodeSlots(in.RemoveMeta); err != nil {
			return nil, errors.Wrap(err, "invalid remove metadata")
		}
		if replace.InsertMetadata, err = decodeSlots(in.InsertMeta); err != nil {
			return nil, errors.Wrap(err, "invalid insert metadata")
		}
		return replace, nil
	case common.OperationTypeReplaceMetadata:
		remove, insert, err := decodeItemPair(in)
		if err != nil {
			return nil, err
		}
		return &ReplaceMetadata{Index: in.Index, Remove: remove, Insert: insert}, nil
	case common.OperationTypeAttribute:
		return &ReplaceElementAttribute{Key: in.Key, From: in.From, To: in.To}, nil
	case common.OperationTypeAnnotate:
		method, err := common.ParseAnnotationMethod(string(in.Method))
		if err != nil {
			return nil, err
		}
		bias, err := common.ParseAnnotationBias(string(in.Bias))
		if err != nil {
			return nil, err
		}
		return &Annotate{Method: method, Bias: bias, Annotation: in.Annotation}, nil
	}
	return nil, common.ErrInvalidOperation{Message: fmt.Sprintf("unknown operation type %q", in.Type)}
}

func decodeItemPair(in jsonOperation) ([]linear.Item, []linear.Item, error) {
	remove, err := decodeItems(in.Remove)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid remove items")
	}
	insert, err := decodeItems(in.Insert)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid insert items")
	}
	return remove, insert, nil
}

func encodeSlots(slots [][]linear.Item) ([]json.RawMessage, error) {
	if slots == nil {
		return nil, nil
	}
	out := make([]json.RawMessage, len(slots))
	for i, slot := range slots {
		data, err := linear.MarshalItems(slot)
		if err != nil {
			return nil, errors.Wrapf(err, "slot %d", i)
		}
		out[i] = data
	}
	return out, nil
}

func decodeSlots(raw []json.RawMessage) ([][]linear.Item, error) {
	if raw == nil {
		return nil, nil
	}
	slots := make([][]linear.Item, len(raw))
	for i, r := range raw {
		items, err := decodeItems(r)
		if err != nil {
			return nil, errors.Wrapf(err, "slot %d", i)
		}
		slots[i] = items
	}
	return slots, nil
}

func decodeItems(raw json.RawMessage) ([]linear.Item, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	items, err := linear.UnmarshalItems(raw)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items, nil
}

// MarshalJSON implements the json.Marshaler interface.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	out := jsonTransaction{
		ID:         t.ID,
		Operations: make([]json.RawMessage, len(t.Operations)),
	}
	for i, op := range t.Operations {
		data, err := MarshalOperation(op)
		if err != nil {
			return nil, errors.Wrapf(err, "operation %d", i)
		}
		out.Operations[i] = data
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements the json.Unmarshaler interface. The decoded transaction is
// not applied.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var in jsonTransaction
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.Wrap(err, "failed to decode transaction")
	}
	ops := make([]Operation, len(in.Operations))
	for i, raw := range in.Operations {
		op, err := UnmarshalOperation(raw)
		if err != nil {
			return errors.Wrapf(err, "operation %d", i)
		}
		ops[i] = op
	}
	if in.ID == 0 {
		in.ID = common.NewTransactionID()
	}
	t.ID = in.ID
	t.Operations = ops
	t.applied = false
	return nil
}
