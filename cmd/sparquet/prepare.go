package main

import (
	"context"
	"errors"
	"slices"

	"github.com/ajitpratap0/sparquet/pkg/bridge"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/schema"
	"github.com/ajitpratap0/sparquet/pkg/table"
)

// prepare does what the host does before a read: when the state has no
// variables it runs coltypes if needed, then creates one variable per
// selected column, named after the column and sized for its type code, with
// a slot per row from __sparquet_infrom to __sparquet_into.
func prepare(ctx context.Context, b *bridge.Bridge, ds *host.Dataset, command string, args []string) error {
	if command != "read" || len(args) == 0 || len(ds.Variables()) > 0 {
		return nil
	}
	multi := slices.Contains(args[1:], "multi")
	if _, err := ds.Matrix(host.MatrixColTypes); errors.Is(err, host.ErrNotFound) {
		typeArgs := []string{args[0]}
		if multi {
			typeArgs = append(typeArgs, "multi")
		}
		if err := b.Dispatch(ctx, ds, "coltypes", typeArgs); err != nil {
			return err
		}
	}

	paths, err := table.Sources(args[0], multi || b.Config.Multi)
	if err != nil {
		return err
	}
	all, err := table.Names(paths)
	if err != nil {
		return err
	}
	codes, err := host.IntMatrix(ds, host.MatrixColTypes)
	if err != nil {
		return err
	}
	colix, err := host.IntMatrix(ds, host.MatrixColIx)
	if errors.Is(err, host.ErrNotFound) {
		colix = make([]int64, len(all))
		for j := range colix {
			colix[j] = int64(j + 1)
		}
	} else if err != nil {
		return err
	}
	if ncol, err := ds.Int(host.ScalarNCol); err == nil && ncol >= 0 && ncol < int64(len(colix)) {
		colix = colix[:ncol]
	}
	colix = colix[:min(len(colix), len(codes))]

	names := make([]string, len(colix))
	widths := make([]int, len(colix))
	for j, c := range colix {
		if c < 1 || c > int64(len(all)) {
			continue
		}
		names[j] = all[c-1]
		widths[j] = schema.HostCode(codes[j]).Width()
	}

	rows, err := rowsInRange(ds, paths)
	if err != nil {
		return err
	}
	return ds.Prepare(names, widths, rows)
}

func rowsInRange(ds *host.Dataset, paths []string) (int64, error) {
	from, err := ds.Int(host.ScalarInFrom)
	if errors.Is(err, host.ErrNotFound) {
		from = 1
	} else if err != nil {
		return 0, err
	}
	to, err := ds.Int(host.ScalarInTo)
	if err != nil && !errors.Is(err, host.ErrNotFound) {
		return 0, err
	}
	if err != nil {
		s, err := table.Shape(paths)
		if err != nil {
			return 0, err
		}
		to = s.Rows
	}
	return max(to-from+1, 0), nil
}
