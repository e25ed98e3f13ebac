// Package sparquet moves tabular data between a statistical host's in-memory
// dataset and Apache Parquet files.
//
// The host drives everything through six commands, each a word plus a few
// positional arguments. Selections, bounds and tuning knobs travel as named
// scalars and matrices (__sparquet_*) in the host environment, and results
// come back the same way.
//
//	check                                   verify the bridge loads
//	shape     <file> [multi]                rows, columns, row groups, bytes
//	colnames  <file> <namesFile> [multi]    column names, one per line
//	coltypes  <file> [multi]                host type codes per column
//	read      <file> [lowlevel] [multi]     Parquet rows into host variables
//	write     <file> <namesFile> [...]      host rows into a new Parquet file
//
// # Quick Start
//
// The sparquet CLI stands in for a live host with a JSON state document:
//
//	sparquet --state st.json shape data.parquet
//	sparquet --state st.json --json coltypes data.parquet
//	sparquet --state st.json read data.parquet
//
// Embedding the bridge directly:
//
//	ds := host.NewDataset().AddNumeric("x", 1, 2).AddString("s", 4, "a", "bb")
//	_ = ds.SetMatrix(host.MatrixColTypes, []float64{-5, 4})
//	b := bridge.New(config.Default(), logger.Get())
//	err := b.Dispatch(ctx, ds, "write", []string{"out.parquet", "names.txt"})
//	code := bridge.Code(err) // host return code, 0 on success
//
// # Key Packages
//
//	pkg/bridge             - Command dispatch and host option handling
//	pkg/table              - Multi-file shape, names, types and reads
//	pkg/formats/columnar   - Parquet readers and writers over arrow-go
//	pkg/schema             - Physical types and host type codes
//	pkg/host               - Host capabilities, in-memory dataset, sidecar files
//	pkg/config             - Defaults, YAML files and SPARQUET_* overrides
//	pkg/errors             - Typed errors carrying host return codes
//	pkg/logger             - Structured logging
//	pkg/metrics            - Prometheus counters and histograms
//	pkg/observability      - OpenTelemetry spans per command and file
//	pkg/progress           - Progress cadence and timing
//
// # Missing Values
//
// Parquet nulls read into numeric host variables become the host's plain
// missing value and into string variables become blanks. On write, any
// missing flavour becomes a Parquet null; the streaming writer declares
// required columns and so rejects missing values.
package sparquet
