// Command xmldoc reads, checks and queries structured XML documents.
// It provides commands for formatting, verifying round trips, and selecting
// elements by selector or XPath.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/xmldoc/core/cas"
	"github.com/FocuswithJustin/xmldoc/core/model"
	"github.com/FocuswithJustin/xmldoc/core/xml"
	"github.com/FocuswithJustin/xmldoc/internal/archive"
	"github.com/FocuswithJustin/xmldoc/internal/dialects"
	"github.com/FocuswithJustin/xmldoc/internal/logging"

	// Import embedded dialects to register them
	_ "github.com/FocuswithJustin/xmldoc/internal/embedded"
)

const version = "0.1.0"

// CLI defines the command-line interface for xmldoc.
type CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log format (text, json)"`
	Dialect   string `name:"dialect" short:"d" help:"Document dialect; detected from the file when empty"`

	Fmt      FmtCmd      `cmd:"" help:"Pretty-print an XML file"`
	Verify   VerifyCmd   `cmd:"" help:"Check indices and the serialize/parse round trip"`
	Query    QueryCmd    `cmd:"" help:"Select elements by selector or XPath"`
	Stats    StatsCmd    `cmd:"" help:"Count nodes by type"`
	Convert  ConvertCmd  `cmd:"" help:"Rewrite a document in canonical form"`
	Detect   DetectCmd   `cmd:"" help:"Detect the dialect of a file"`
	Dialects DialectsCmd `cmd:"" help:"List registered dialects"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// Env is passed to every command.
type Env struct {
	Out     io.Writer
	Dialect string
}

// FmtCmd pretty-prints an XML file.
type FmtCmd struct {
	Path   string `arg:"" help:"Path to XML file (.xz and .gz accepted)" type:"existingfile"`
	Indent string `help:"Indentation string (default two spaces)"`
	Output string `short:"o" help:"Write to this file instead of stdout" type:"path"`
}

func (c *FmtCmd) Run(env *Env) error {
	data, err := archive.ReadFile(c.Path)
	if err != nil {
		return err
	}
	out, err := xml.Format(data, xml.FormatOptions{Indent: c.Indent})
	if err != nil {
		return fmt.Errorf("%s: %w", c.Path, err)
	}
	return writeOutput(env, c.Output, out)
}

// VerifyCmd checks a document's indices and round trip.
type VerifyCmd struct {
	Path string `arg:"" help:"Path to document" type:"existingfile"`
}

func (c *VerifyCmd) Run(env *Env) error {
	doc, data, err := loadDocument(env, c.Path)
	if err != nil {
		return err
	}
	if err := doc.Check(); err != nil {
		logging.IndexError(c.Path, err)
		return err
	}

	out, err := doc.ToXML()
	if err != nil {
		return err
	}
	again, err := xml.Parse(doc.Dialect(), out)
	if err != nil {
		return fmt.Errorf("reparse: %w", err)
	}
	out2, err := again.ToXML()
	if err != nil {
		return err
	}
	identical := bytes.Equal(out, out2)
	canonical := bytes.Equal(out, data)
	logging.RoundTrip(c.Path, identical, "canonical", canonical)

	digest := cas.Fingerprint(out)
	fmt.Fprintf(env.Out, "nodes:      %d\n", doc.Len())
	fmt.Fprintf(env.Out, "round trip: %s\n", okOrFailed(identical))
	fmt.Fprintf(env.Out, "canonical:  %t\n", canonical)
	fmt.Fprintf(env.Out, "sha256:     %s\n", digest.SHA256)
	fmt.Fprintf(env.Out, "blake3:     %s\n", digest.BLAKE3)

	if !identical {
		return fmt.Errorf("%s: round trip changed the document", c.Path)
	}
	return nil
}

func okOrFailed(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAILED"
}

// QueryCmd selects elements.
type QueryCmd struct {
	Path  string `arg:"" help:"Path to document" type:"existingfile"`
	Expr  string `arg:"" help:"Selector, or XPath expression with --xpath"`
	XPath bool   `name:"xpath" short:"x" help:"Treat the expression as XPath"`
}

func (c *QueryCmd) Run(env *Env) error {
	doc, _, err := loadDocument(env, c.Path)
	if err != nil {
		return err
	}

	if c.XPath {
		result, err := doc.Evaluate(c.Expr)
		if err != nil {
			return err
		}
		if ids, ok := result.([]string); ok {
			for _, id := range ids {
				fmt.Fprintln(env.Out, id)
			}
			return nil
		}
		fmt.Fprintln(env.Out, result)
		return nil
	}

	nodes, err := doc.FindAll(c.Expr)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		fmt.Fprintf(env.Out, "%s\t%s\n", n.ID, n.Type)
	}
	return nil
}

// StatsCmd counts nodes by type.
type StatsCmd struct {
	Path string `arg:"" help:"Path to document" type:"existingfile"`
}

func (c *StatsCmd) Run(env *Env) error {
	doc, _, err := loadDocument(env, c.Path)
	if err != nil {
		return err
	}

	counts := doc.TypeIndex().Counts()
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(env.Out, "%-16s %d\n", t, counts[t])
	}
	fmt.Fprintf(env.Out, "%-16s %d\n", "total", doc.Len())
	return nil
}

// ConvertCmd rewrites a document in canonical form.
type ConvertCmd struct {
	Path   string `arg:"" help:"Path to document" type:"existingfile"`
	Output string `arg:"" help:"Output path; .xz or .gz compresses" type:"path"`
}

func (c *ConvertCmd) Run(env *Env) error {
	doc, _, err := loadDocument(env, c.Path)
	if err != nil {
		return err
	}
	out, err := doc.ToXML()
	if err != nil {
		return err
	}
	if err := archive.WriteFile(c.Output, out); err != nil {
		return err
	}
	logging.Info("document_written", "path", c.Output, "bytes", len(out),
		"compression", archive.CompressionFor(c.Output).String())
	return nil
}

// DetectCmd reports the dialect of a file.
type DetectCmd struct {
	Path string `arg:"" help:"Path to file" type:"existingfile"`
}

func (c *DetectCmd) Run(env *Env) error {
	data, err := archive.ReadFile(c.Path)
	if err != nil {
		return err
	}
	r := dialects.Detect(c.Path, data)
	if r.Detected {
		fmt.Fprintf(env.Out, "[MATCH] %s: %s\n", r.Dialect, r.Reason)
	} else {
		fmt.Fprintf(env.Out, "[no]    %s\n", r.Reason)
	}
	return nil
}

// DialectsCmd lists registered dialects.
type DialectsCmd struct{}

func (c *DialectsCmd) Run(env *Env) error {
	for _, name := range dialects.Names() {
		d, err := dialects.Lookup(name)
		if err != nil {
			return err
		}
		docType, err := d.DocTypeAsString()
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "%s\t%s\n", name, docType)
	}
	return nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run(env *Env) error {
	fmt.Fprintf(env.Out, "xmldoc version %s\n", version)
	return nil
}

// Helper functions

// loadDocument reads and parses a document, resolving its dialect from the
// --dialect flag or the file itself.
func loadDocument(env *Env, path string) (*xml.Document, []byte, error) {
	data, err := archive.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	name := env.Dialect
	if name == "" {
		r := dialects.Detect(path, data)
		if !r.Detected {
			return nil, nil, fmt.Errorf("%s: cannot detect dialect (%s); use --dialect", path, r.Reason)
		}
		name = r.Dialect
	}
	dialect, err := dialects.Lookup(name)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	doc, err := xml.Parse(dialect, data, model.WithLogger(logging.GetLogger()))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.DocumentLoaded(path, doc.Len(), time.Since(start), "dialect", name)
	return doc, data, nil
}

func writeOutput(env *Env, path string, data []byte) error {
	if path == "" {
		_, err := env.Out.Write(data)
		return err
	}
	return archive.WriteFile(path, data)
}

func configureLogging(level, format string, w io.Writer) error {
	l, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	f, err := logging.ParseFormat(format)
	if err != nil {
		return err
	}
	logging.SetOutput(w)
	logging.InitLogger(l, f)
	return nil
}

func newParser(cli *CLI, stdout, stderr io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("xmldoc"),
		kong.Description("Structured XML documents: format, verify and query"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(stdout, stderr),
	)
}

// run parses args and executes the selected command.
func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := newParser(&cli, stdout, stderr)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	if err := configureLogging(cli.LogLevel, cli.LogFormat, stderr); err != nil {
		return err
	}
	return ctx.Run(&Env{Out: stdout, Dialect: cli.Dialect})
}

func main() {
	var cli CLI
	parser, err := newParser(&cli, os.Stdout, os.Stderr)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	parser.FatalIfErrorf(configureLogging(cli.LogLevel, cli.LogFormat, os.Stderr))
	err = ctx.Run(&Env{Out: os.Stdout, Dialect: cli.Dialect})
	ctx.FatalIfErrorf(err)
}
