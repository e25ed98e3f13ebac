package schema

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
)

// HostCode is the host's type code for a column.
type HostCode int64

const (
	CodeBoolean HostCode = -1
	CodeInt16   HostCode = -2
	CodeInt32   HostCode = -3
	CodeFloat32 HostCode = -4
	CodeFloat64 HostCode = -5
)

// IsString reports whether the code denotes a fixed-capacity string.
func (c HostCode) IsString() bool {
	return c > 0
}

// Width is the string capacity of the code, or 0 for numeric codes.
func (c HostCode) Width() int {
	if c > 0 {
		return int(c)
	}
	return 0
}

func (c HostCode) String() string {
	switch c {
	case CodeBoolean:
		return "boolean"
	case CodeInt16, CodeInt32:
		return "int32"
	case CodeFloat32:
		return "float32"
	case CodeFloat64:
		return "float64"
	}
	if c > 0 {
		return "str" + strconv.FormatInt(int64(c), 10)
	}
	return "invalid(" + strconv.FormatInt(int64(c), 10) + ")"
}

// ToHostCode maps a physical type to its host code. For byte arrays the
// width comes from a width scan when one ran (scanned > 0), otherwise from
// the configured fallback buffer width.
func ToHostCode(p Physical, scanned, fallback int) (HostCode, error) {
	switch p.Kind {
	case KindBoolean:
		return CodeBoolean, nil
	case KindInt32:
		return CodeInt32, nil
	case KindInt64:
		return CodeFloat64, nil
	case KindFloat32:
		return CodeFloat32, nil
	case KindFloat64:
		return CodeFloat64, nil
	case KindByteArray:
		if scanned > 0 {
			return HostCode(scanned), nil
		}
		if fallback <= 0 {
			return 0, sperrors.Newf(sperrors.ErrorTypeInvalidArgument, "string buffer width must be positive, got %d", fallback)
		}
		return HostCode(fallback), nil
	case KindFixedByteArray:
		return HostCode(p.Width), nil
	case KindInt96:
		return 0, sperrors.New(sperrors.ErrorTypeNotImplemented, "96-bit integers not implemented")
	default:
		return 0, sperrors.Newf(sperrors.ErrorTypeUnknownType, "unknown parquet type %s", p)
	}
}

// ToPhysical maps a host code to the physical type the writers emit. With
// fixedLen set, string codes become fixed-length byte arrays of width N.
func ToPhysical(code HostCode, fixedLen bool) (Physical, error) {
	switch {
	case code == CodeBoolean && fixedLen:
		return Physical{}, sperrors.New(sperrors.ErrorTypeUnsupportedType,
			"boolean columns are not supported in fixed-length mode")
	case code == CodeBoolean:
		return Boolean, nil
	case code == CodeInt16, code == CodeInt32:
		return Int32, nil
	case code == CodeFloat32:
		return Float32, nil
	case code == CodeFloat64:
		return Float64, nil
	case code > 0 && fixedLen:
		return FixedByteArray(int(code)), nil
	case code > 0:
		return ByteArray, nil
	default:
		return Physical{}, sperrors.Newf(sperrors.ErrorTypeUnsupportedType, "unsupported type code %d", int64(code))
	}
}

// ArrowType returns the arrow type the builder writer uses for p.
func (p Physical) ArrowType() (arrow.DataType, error) {
	switch p.Kind {
	case KindBoolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case KindInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case KindInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case KindFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case KindFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case KindByteArray:
		return arrow.BinaryTypes.String, nil
	case KindFixedByteArray:
		return &arrow.FixedSizeBinaryType{ByteWidth: p.Width}, nil
	default:
		return nil, sperrors.Newf(sperrors.ErrorTypeUnsupportedType, "no arrow type for %s", p)
	}
}

// ColumnDescriptor describes one file column as seen by the host.
type ColumnDescriptor struct {
	Index    int
	Name     string
	Physical Physical
	Code     HostCode
}

// Describe builds the descriptor of leaf column i. Code is left for the
// caller, since byte-array widths may need a data scan.
func Describe(i int, col *pqschema.Column) ColumnDescriptor {
	return ColumnDescriptor{
		Index:    i,
		Name:     col.Name(),
		Physical: FromParquet(col.PhysicalType(), col.TypeLength()),
	}
}
