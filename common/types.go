package common

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// OperationType represents the kind of a transaction operation.
type OperationType string

const (
	// OperationTypeRetain advances the cursor.
	OperationTypeRetain OperationType = "retain"

	// OperationTypeReplace removes and inserts linear data at the cursor.
	OperationTypeReplace OperationType = "replace"

	// OperationTypeReplaceMetadata replaces items in the metadata slot at the cursor.
	OperationTypeReplaceMetadata OperationType = "replaceMetadata"

	// OperationTypeAttribute changes one attribute of the element at the cursor.
	OperationTypeAttribute OperationType = "attribute"

	// OperationTypeAnnotate starts or stops annotating.
	OperationTypeAnnotate OperationType = "annotate"
)

// AnnotationMethod tells whether an annotation is being set or cleared.
type AnnotationMethod string

const (
	// AnnotationMethodSet adds an annotation to characters.
	AnnotationMethodSet AnnotationMethod = "set"

	// AnnotationMethodClear removes an annotation from characters.
	AnnotationMethodClear AnnotationMethod = "clear"
)

// Inverse returns the opposite method.
func (m AnnotationMethod) Inverse() AnnotationMethod {
	if m == AnnotationMethodSet {
		return AnnotationMethodClear
	}
	return AnnotationMethodSet
}

// Valid reports whether m is a known method.
func (m AnnotationMethod) Valid() bool {
	return m == AnnotationMethodSet || m == AnnotationMethodClear
}

// ParseAnnotationMethod parses a method name.
func ParseAnnotationMethod(s string) (AnnotationMethod, error) {
	m := AnnotationMethod(s)
	if !m.Valid() {
		return "", ErrAnnotation{Message: fmt.Sprintf("invalid annotation method %q", s)}
	}
	return m, nil
}

// AnnotationBias tells whether an annotate operation opens or closes a span.
type AnnotationBias string

const (
	// AnnotationBiasStart opens an annotated span.
	AnnotationBiasStart AnnotationBias = "start"

	// AnnotationBiasStop closes an annotated span.
	AnnotationBiasStop AnnotationBias = "stop"
)

// ParseAnnotationBias parses a bias name.
func ParseAnnotationBias(s string) (AnnotationBias, error) {
	switch AnnotationBias(s) {
	case AnnotationBiasStart, AnnotationBiasStop:
		return AnnotationBias(s), nil
	}
	return "", ErrAnnotation{Message: fmt.Sprintf("invalid annotation bias %q", s)}
}

// DocumentID identifies a document. It is a UUID v7 so ids sort by creation time.
type DocumentID uuid.UUID

// NilDocumentID is the zero value for DocumentID.
var NilDocumentID DocumentID

// NewDocumentID creates a new DocumentID.
// It panics if the UUID cannot be created.
func NewDocumentID() DocumentID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return DocumentID(id)
}

// ParseDocumentID parses the string form of a DocumentID.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilDocumentID, fmt.Errorf("invalid document id: %w", err)
	}
	return DocumentID(u), nil
}

// String returns the string representation of the DocumentID.
func (id DocumentID) String() string {
	return uuid.UUID(id).String()
}

// MarshalText implements the encoding.TextMarshaler interface.
func (id DocumentID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (id *DocumentID) UnmarshalText(text []byte) error {
	parsed, err := ParseDocumentID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// TransactionID identifies a transaction. Ids grow monotonically within a process.
type TransactionID int64

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
)

// NewTransactionID returns the next transaction id.
// It panics if the snowflake node cannot be created.
func NewTransactionID() TransactionID {
	idNodeOnce.Do(func() {
		node, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		idNode = node
	})
	return TransactionID(idNode.Generate().Int64())
}

// String returns the base36 form of the id.
func (id TransactionID) String() string {
	return snowflake.ID(id).Base36()
}

// MarshalJSON implements the json.Marshaler interface.
func (id TransactionID) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(id))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (id *TransactionID) UnmarshalJSON(data []byte) error {
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*id = TransactionID(v)
	return nil
}
