// Package schema maps columnar physical types to the host's two value
// domains.
//
// A column is described on the file side by a closed set of physical
// encodings and on the host side by a small signed integer type code:
//
//	-1      boolean
//	-2, -3  int32-compatible integers
//	-4      float32
//	-5      float64
//	N > 0   string of at most N bytes
//
// Components that need per-type behaviour implement Visitor and call
// Dispatch instead of switching on the type themselves.
package schema

import (
	"strconv"

	"github.com/apache/arrow-go/v18/parquet"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
)

// Kind is the physical encoding of a column.
type Kind int

const (
	KindUnknown Kind = iota
	KindBoolean
	KindInt32
	KindInt64
	KindInt96
	KindFloat32
	KindFloat64
	KindByteArray
	KindFixedByteArray
)

var kindNames = map[Kind]string{
	KindUnknown:        "UNKNOWN",
	KindBoolean:        "BOOLEAN",
	KindInt32:          "INT32",
	KindInt64:          "INT64",
	KindInt96:          "INT96",
	KindFloat32:        "FLOAT",
	KindFloat64:        "DOUBLE",
	KindByteArray:      "BYTE_ARRAY",
	KindFixedByteArray: "FIXED_LEN_BYTE_ARRAY",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Physical is a physical type. Width is only meaningful for
// KindFixedByteArray, where it is the declared byte width of every value.
type Physical struct {
	Kind  Kind
	Width int
}

// Common physical types.
var (
	Boolean   = Physical{Kind: KindBoolean}
	Int32     = Physical{Kind: KindInt32}
	Int64     = Physical{Kind: KindInt64}
	Int96     = Physical{Kind: KindInt96}
	Float32   = Physical{Kind: KindFloat32}
	Float64   = Physical{Kind: KindFloat64}
	ByteArray = Physical{Kind: KindByteArray}
)

// FixedByteArray returns the fixed-length byte array type of the given width.
func FixedByteArray(width int) Physical {
	return Physical{Kind: KindFixedByteArray, Width: width}
}

func (p Physical) String() string {
	if p.Kind == KindFixedByteArray {
		return p.Kind.String() + "(" + strconv.Itoa(p.Width) + ")"
	}
	return p.Kind.String()
}

// IsBytes reports whether values of this type are byte strings.
func (p Physical) IsBytes() bool {
	return p.Kind == KindByteArray || p.Kind == KindFixedByteArray
}

// FromParquet converts a parquet physical type and its declared type length.
func FromParquet(t parquet.Type, typeLength int) Physical {
	switch t {
	case parquet.Types.Boolean:
		return Boolean
	case parquet.Types.Int32:
		return Int32
	case parquet.Types.Int64:
		return Int64
	case parquet.Types.Int96:
		return Int96
	case parquet.Types.Float:
		return Float32
	case parquet.Types.Double:
		return Float64
	case parquet.Types.ByteArray:
		return ByteArray
	case parquet.Types.FixedLenByteArray:
		return FixedByteArray(typeLength)
	default:
		return Physical{Kind: KindUnknown}
	}
}

// Parquet returns the parquet physical type.
func (p Physical) Parquet() parquet.Type {
	switch p.Kind {
	case KindBoolean:
		return parquet.Types.Boolean
	case KindInt32:
		return parquet.Types.Int32
	case KindInt64:
		return parquet.Types.Int64
	case KindInt96:
		return parquet.Types.Int96
	case KindFloat32:
		return parquet.Types.Float
	case KindFloat64:
		return parquet.Types.Double
	case KindByteArray:
		return parquet.Types.ByteArray
	case KindFixedByteArray:
		return parquet.Types.FixedLenByteArray
	default:
		return parquet.Types.Undefined
	}
}

// Visitor receives one call per physical type. Int96 and unknown types never
// reach a visitor; Dispatch rejects them.
type Visitor interface {
	Boolean() error
	Int32() error
	Int64() error
	Float32() error
	Float64() error
	ByteArray() error
	FixedByteArray(width int) error
}

// Dispatch calls the visitor method matching p.
func Dispatch(p Physical, v Visitor) error {
	switch p.Kind {
	case KindBoolean:
		return v.Boolean()
	case KindInt32:
		return v.Int32()
	case KindInt64:
		return v.Int64()
	case KindFloat32:
		return v.Float32()
	case KindFloat64:
		return v.Float64()
	case KindByteArray:
		return v.ByteArray()
	case KindFixedByteArray:
		return v.FixedByteArray(p.Width)
	case KindInt96:
		return sperrors.New(sperrors.ErrorTypeNotImplemented, "96-bit integers not implemented")
	default:
		return sperrors.Newf(sperrors.ErrorTypeUnknownType, "unknown parquet type %s", p)
	}
}
