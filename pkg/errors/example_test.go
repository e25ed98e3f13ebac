// Package errors provides examples of structured error handling in the bridge.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/sparquet/pkg/errors"
)

// Example demonstrates basic error creation and return codes.
func Example() {
	err := errors.New(errors.ErrorTypeNoObservations, "no observations")

	fmt.Println(err.Error())
	fmt.Println(err.Code())

	// Output:
	// no_observations: no observations
	// 2000
}

// ExampleWrap shows how foreign errors are wrapped and coded.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeUnderlyingLibrary, "failed to open parquet file").
		WithDetail("file", "data.parquet")

	if errors.IsType(err, errors.ErrorTypeUnderlyingLibrary) {
		fmt.Println("library error")
	}
	fmt.Println(errors.Code(err))

	// Output:
	// library error
	// 17000
}

// ExampleNewf demonstrates formatted domain errors.
func ExampleNewf() {
	err := errors.Newf(errors.ErrorTypeRowGroupOutOfRange,
		"attempted to read row group %d but file only had %d", 4, 3)
	fmt.Println(err)

	// Output:
	// row_group_out_of_range: attempted to read row group 4 but file only had 3
}
