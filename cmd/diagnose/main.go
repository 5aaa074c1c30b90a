// Diagnostic tool that reads a zarr store into a builder tree and prints it
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/internal/config"
	"github.com/robert-malhotra/go-zarrio/internal/registry"
	"github.com/robert-malhotra/go-zarrio/store"
	"github.com/robert-malhotra/go-zarrio/zarrio"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		configPath     string
		noConsolidated bool
		showAttrs      bool
		raw            bool
		logLevel       string
	)
	flagSet := pflag.NewFlagSet("diagnose", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a zarrio YAML config (default: $"+config.EnvVar+")")
	flagSet.BoolVar(&noConsolidated, "no-consolidated", false, "ignore .zmetadata and read every metadata document")
	flagSet.BoolVar(&showAttrs, "attrs", false, "print attributes")
	flagSet.BoolVar(&raw, "raw", false, "list the stored groups and arrays without building")
	flagSet.StringVar(&logLevel, "log-level", "", "override the configured log level")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: diagnose [flags] <store>\n\n")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return fmt.Errorf("expected one store location, got %d", flagSet.NArg())
	}
	location := flagSet.Arg(0)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		if _, err := config.ParseLevel(logLevel); err != nil {
			return err
		}
		cfg.LogLevel = logLevel
	}

	mode := string(store.ModeRead)
	if noConsolidated {
		mode = zarrio.ModeReadNoConsolidated
	}
	z, err := zarrio.Open(location, mode, cfg.SessionOptions(cfg.Logger())...)
	if err != nil {
		return err
	}
	defer z.Close()

	if raw {
		fmt.Fprintf(out, "=== Nodes in %s ===\n\n", z.AbsPath())
		return walkNodes(z.Root(), out)
	}

	root, err := z.ReadBuilder()
	if err != nil {
		return fmt.Errorf("reading %s: %w", location, err)
	}

	fmt.Fprintf(out, "=== Analyzing %s ===\n\n", z.AbsPath())
	p := &printer{out: out, attrs: showAttrs}
	p.group(root, "")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func walkNodes(root *store.Group, out io.Writer) error {
	return store.Walk(root, func(p string, node store.Node, err error) error {
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", p, err)
			return nil
		}
		switch n := node.(type) {
		case *store.Group:
			fmt.Fprintf(out, "%s/\n", strings.TrimSuffix(p, "/"))
		case *store.Array:
			fmt.Fprintf(out, "%s shape=%v chunks=%v dtype=%s\n", p, n.Shape(), n.Chunks(), n.Dtype())
		}
		return nil
	})
}

type printer struct {
	out   io.Writer
	attrs bool
}

func (p *printer) group(g *builder.GroupBuilder, indent string) {
	fmt.Fprintf(p.out, "%sGroup %q:\n", indent, registry.PathOf(g))
	p.attributes(g, indent+"  ")

	for _, sub := range g.Groups() {
		p.group(sub, indent+"  ")
	}
	for _, d := range g.Datasets() {
		p.dataset(d, indent+"  ")
	}
	for _, l := range g.Links() {
		target := "<nil>"
		if t := l.Target(); t != nil {
			target = registry.PathOf(t)
			if t.Source() != l.Source() {
				target = t.Source() + ":" + target
			}
		}
		fmt.Fprintf(p.out, "%s  Link %q -> %s\n", indent, l.Name(), target)
	}
}

func (p *printer) dataset(d *builder.DatasetBuilder, indent string) {
	fmt.Fprintf(p.out, "%sDataset %q:\n", indent, d.Name())
	fmt.Fprintf(p.out, "%s  Shape: %v\n", indent, d.Maxshape)
	fmt.Fprintf(p.out, "%s  Type: %v\n", indent, d.Dtype)
	if d.Chunked {
		fmt.Fprintf(p.out, "%s  Chunked: true\n", indent)
	}
	switch v := d.Data.(type) {
	case *zarrio.ReferenceView:
		fmt.Fprintf(p.out, "%s  References: %d\n", indent, v.Len())
	case *zarrio.TableView:
		fmt.Fprintf(p.out, "%s  Rows: %d\n", indent, v.Len())
	case *store.Array:
	default:
		fmt.Fprintf(p.out, "%s  Value: %v\n", indent, v)
	}
	p.attributes(d, indent+"  ")
}

func (p *printer) attributes(b builder.Builder, indent string) {
	if !p.attrs {
		return
	}
	attrs := b.Attributes()
	if len(attrs) == 0 {
		return
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		v := attrs[k]
		if ref, ok := v.(builder.Builder); ok {
			v = "ref:" + registry.PathOf(ref)
		}
		parts[i] = fmt.Sprintf("%s=%v", k, v)
	}
	fmt.Fprintf(p.out, "%sAttrs: %s\n", indent, strings.Join(parts, " "))
}
