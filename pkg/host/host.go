// Package host defines the capabilities the bridge needs from the host
// statistical package: named scalars and matrices, a row range, an optional
// row predicate, and 1-indexed (column, row) value slots.
//
// The core never looks host state up ad hoc; every component receives the
// narrow interface it needs (Sink for readers, Source for writers,
// Environment for the dispatcher).
package host

import (
	"errors"
	"math"
)

// MissingValue is the plain missing sentinel. Any double at or above it is a
// missing flavour; values strictly above it are extended missing values.
var MissingValue = math.Ldexp(1, 1023)

// ErrNotFound is returned by scalar and matrix accessors for unknown names.
var ErrNotFound = errors.New("host: name not found")

// IsMissing reports whether z encodes any missing flavour.
func IsMissing(z float64) bool {
	return z >= MissingValue
}

// IsExtendedMissing reports whether z is a missing flavour other than the
// plain sentinel.
func IsExtendedMissing(z float64) bool {
	return z > MissingValue
}

// ExtendedMissing returns the k-th extended missing value (k >= 1).
func ExtendedMissing(k int) float64 {
	z := MissingValue
	for i := 0; i < k; i++ {
		z = math.Nextafter(z, math.Inf(1))
	}
	return z
}

// Sink receives values produced by the readers. Coordinates are 1-indexed.
type Sink interface {
	StoreNumeric(col, row int64, value float64) error
	StoreString(col, row int64, value string) error
}

// Source supplies values to the writers. Coordinates are 1-indexed.
type Source interface {
	Numeric(col, row int64) (float64, error)
	String(col, row int64) (string, error)
}

// Predicate gates rows for conditional writes.
type Predicate func(row int64) bool

// Scalars gives typed access to named host scalars and matrices.
type Scalars interface {
	Int(name string) (int64, error)
	Float(name string) (float64, error)
	SetInt(name string, value int64) error
	SetFloat(name string, value float64) error
	Matrix(name string) ([]float64, error)
	SetMatrix(name string, values []float64) error
}

// Environment is everything the dispatcher consumes from the host.
type Environment interface {
	Scalars
	Sink
	Source
	// InRange is the host-inclusive observation range [in1, in2].
	InRange() (in1, in2 int64)
	// IfObs reports whether row satisfies the host's if-condition.
	IfObs(row int64) bool
}

// Names of the scalars and matrices exchanged with the host.
const (
	ScalarNRow       = "__sparquet_nrow"
	ScalarNCol       = "__sparquet_ncol"
	ScalarNGroup     = "__sparquet_ngroup"
	ScalarNBytes     = "__sparquet_nbytes"
	ScalarInFrom     = "__sparquet_infrom"
	ScalarInTo       = "__sparquet_into"
	ScalarReadRG     = "__sparquet_readrg"
	ScalarNRead      = "__sparquet_nread"
	ScalarStrScan    = "__sparquet_strscan"
	ScalarStrBuffer  = "__sparquet_strbuffer"
	ScalarChunkBytes = "__sparquet_chunkbytes"
	ScalarRGSize     = "__sparquet_rg_size"
	ScalarProgress   = "__sparquet_progress"
	ScalarCheck      = "__sparquet_check"
	ScalarFixedLen   = "__sparquet_fixedlen"
	ScalarThreads    = "__sparquet_threads"

	MatrixColIx    = "__sparquet_colix"
	MatrixRowGIx   = "__sparquet_rowgix"
	MatrixColTypes = "__sparquet_coltypes"
	MatrixRawTypes = "__sparquet_rawtypes"
)

// IntMatrix reads a matrix of integral values.
func IntMatrix(s Scalars, name string) ([]int64, error) {
	values, err := s.Matrix(name)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out, nil
}
