// Command policyrun loads a compiled policy module and evaluates a single
// input document against it, printing the decision as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/policyvm/codec"
	"github.com/wippyai/policyvm/internal/log"
	"github.com/wippyai/policyvm/policy"
	"github.com/wippyai/policyvm/value"
)

func main() {
	var (
		wasmFile  = flag.String("wasm", "", "Path to compiled policy wasm module")
		inputFile = flag.String("input", "", "Path to a JSON input document (default: stdin)")
		dataFile  = flag.String("data", "", "Path to a JSON data document (default: empty object)")
		pages     = flag.Uint("pages", 0, "Override initial linear memory pages (0 = engine default)")
		deadline  = flag.Duration("deadline", 0, "Bound a single evaluate/set_data call (0 = no deadline)")
		verbose   = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: policyrun -wasm <policy.wasm> [-input file.json] [-data file.json]")
		os.Exit(1)
	}

	if err := run(*wasmFile, *inputFile, *dataFile, uint32(*pages), *deadline, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "policyrun: %v\n", err)
		os.Exit(1)
	}
}

func run(wasmFile, inputFile, dataFile string, pages uint32, deadline time.Duration, verbose bool) error {
	ctx := context.Background()

	logger := log.Default()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		logger = l
	}
	defer logger.Sync()

	wasmBytes, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read wasm file: %w", err)
	}

	var opts []policy.Option
	opts = append(opts, policy.WithLogger(logger))
	if pages > 0 {
		opts = append(opts, policy.WithMemoryPages(pages))
	}
	if deadline > 0 {
		opts = append(opts, policy.WithDeadline(deadline))
	}

	p, err := policy.FromWasm(ctx, wasmBytes, opts...)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}
	defer p.Close(ctx)

	if dataFile != "" {
		data, err := readJSONValue(dataFile)
		if err != nil {
			return fmt.Errorf("read data document: %w", err)
		}
		if err := p.SetData(ctx, data); err != nil {
			return fmt.Errorf("set_data: %w", err)
		}
	}

	input, err := readInputValue(inputFile)
	if err != nil {
		return fmt.Errorf("read input document: %w", err)
	}

	result, err := p.Evaluate(ctx, input)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	var native any
	if err := codec.Unmarshal(result, &native); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(native)
}

func readInputValue(path string) (value.Value, error) {
	if path == "" {
		return decodeJSONValue(os.Stdin)
	}
	return readJSONValue(path)
}

func readJSONValue(path string) (value.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeJSONValue(f)
}

func decodeJSONValue(r io.Reader) (value.Value, error) {
	var native any
	if err := json.NewDecoder(r).Decode(&native); err != nil {
		return nil, err
	}
	return codec.Marshal(native)
}
