package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/ffi-struct/layout"
	"github.com/wippyai/ffi-struct/memory"
	"github.com/wippyai/ffi-struct/region"
	"github.com/wippyai/ffi-struct/schema"
	"github.com/wippyai/ffi-struct/structs"
)

type options struct {
	layoutFile string
	dataFile   string
	get        string
	set        string
	outFile    string
	format     string
	describe   bool
	verbose    bool
}

func main() {
	var (
		opts        options
		interactive bool
	)
	flag.StringVar(&opts.layoutFile, "layout", "", "Layout definition (.toml, .yaml)")
	flag.StringVar(&opts.dataFile, "data", "", "Binary struct image (optional, zero-filled when omitted)")
	flag.StringVar(&opts.get, "get", "", "Fields to print (comma-separated, default all)")
	flag.StringVar(&opts.set, "set", "", "Fields to assign (NAME=VALUE,...)")
	flag.StringVar(&opts.outFile, "out", "", "Write the resulting struct image to this file")
	flag.StringVar(&opts.format, "format", "yaml", "Output format: yaml, toml, cbor")
	flag.BoolVar(&opts.describe, "describe", false, "Print the computed layout and exit")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.BoolVar(&interactive, "i", false, "Interactive field editor")
	flag.Parse()

	if opts.layoutFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: ffistruct -layout <defs.toml> [-data blob.bin] [-get a,b] [-set a=1,b=2] [-out file] [-format yaml|toml|cbor]")
		fmt.Fprintln(os.Stderr, "       ffistruct -layout <defs.toml> -describe")
		fmt.Fprintln(os.Stderr, "       ffistruct -layout <defs.toml> -data blob.bin -i  (interactive mode)")
		os.Exit(1)
	}

	log, err := newLogger(opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(opts, os.Stdout); err != nil {
		log.Debug("run failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	structs.SetLogger(log.Named("structs"))
	memory.SetLogger(log.Named("memory"))
	schema.SetLogger(log.Named("schema"))
	return log, nil
}

type session struct {
	layout *layout.Layout
	region *region.Region
	s      *structs.Struct
}

// open loads the layout and copies the data file, if any, into a fresh heap
// region large enough for both.
func open(layoutFile, dataFile string) (*session, error) {
	def, err := schema.LoadFile(layoutFile)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	l, err := def.Build()
	if err != nil {
		return nil, fmt.Errorf("build layout: %w", err)
	}

	var data []byte
	if dataFile != "" {
		if data, err = os.ReadFile(dataFile); err != nil {
			return nil, fmt.Errorf("read data: %w", err)
		}
	}

	size := l.Size()
	if uint64(len(data)) > uint64(size) {
		size = uint32(len(data))
	}
	heap := memory.NewHeap(memory.DefaultGuardSize + size + l.Align() + 1)
	r, err := region.Alloc(heap, heap, size, l.Align())
	if err != nil {
		return nil, fmt.Errorf("allocate region: %w", err)
	}
	if err := r.Write(0, data); err != nil {
		return nil, fmt.Errorf("copy data: %w", err)
	}

	s, err := structs.Bind(l, r)
	if err != nil {
		return nil, fmt.Errorf("bind: %w", err)
	}
	return &session{layout: l, region: r, s: s}, nil
}

func (ss *session) save(path string) error {
	data, err := ss.region.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func run(opts options, out io.Writer) error {
	format, err := schema.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	ss, err := open(opts.layoutFile, opts.dataFile)
	if err != nil {
		return err
	}

	if opts.describe {
		_, err := fmt.Fprint(out, ss.layout.String())
		return err
	}

	if opts.set != "" {
		values, err := parseAssignments(opts.set)
		if err != nil {
			return err
		}
		if err := ss.s.Assign(values); err != nil {
			return fmt.Errorf("set: %w", err)
		}
	}

	fields, err := collect(ss.s, opts.get)
	if err != nil {
		return err
	}

	if f, ok := out.(*os.File); ok && format == schema.FormatCBOR && term.IsTerminal(int(f.Fd())) {
		return fmt.Errorf("refusing to write CBOR to a terminal")
	}
	encoded, err := schema.EncodeSnapshot(format, fields)
	if err != nil {
		return err
	}
	if _, err := out.Write(encoded); err != nil {
		return err
	}

	if opts.outFile != "" {
		return ss.save(opts.outFile)
	}
	return nil
}

// collect decodes the named fields, or every field when names is empty.
func collect(s *structs.Struct, names string) ([]structs.FieldValue, error) {
	if names == "" {
		return s.Snapshot()
	}
	var fields []structs.FieldValue
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		v, err := s.Get(name)
		if err != nil {
			return nil, fmt.Errorf("get: %w", err)
		}
		f, _ := s.Layout().Lookup(name)
		fields = append(fields, structs.FieldValue{Name: name, Type: f.Type(), Value: v})
	}
	return fields, nil
}

// parseAssignments parses "a=1,b=x,xs=[1,2]" into field values.
func parseAssignments(s string) (map[string]any, error) {
	values := make(map[string]any)
	for _, kv := range splitTop(s) {
		if strings.TrimSpace(kv) == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid assignment %q, want NAME=VALUE", kv)
		}
		values[strings.TrimSpace(parts[0])] = parseValue(strings.TrimSpace(parts[1]))
	}
	return values, nil
}

// splitTop splits s on commas that are not nested in brackets, braces or
// double quotes.
func splitTop(s string) []string {
	var (
		parts []string
		depth int
		quote bool
		start int
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && quote:
			i++
		case c == '"':
			quote = !quote
		case quote:
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// parseValue converts command-line text to the most specific value:
// null, integers (decimal or 0x hex), floats, lists in brackets, field maps
// in braces, or strings. Quoted text is always a string.
func parseValue(s string) any {
	switch {
	case s == "null" || s == "nil":
		return nil
	case len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"':
		if unq, err := strconv.Unquote(s); err == nil {
			return unq
		}
	case len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']':
		var list []any
		for _, elem := range splitTop(s[1 : len(s)-1]) {
			if elem = strings.TrimSpace(elem); elem != "" {
				list = append(list, parseValue(elem))
			}
		}
		return list
	case len(s) >= 2 && s[0] == '{' && s[len(s)-1] == '}':
		if m, err := parseAssignments(s[1 : len(s)-1]); err == nil {
			return m
		}
	}
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}
