package main

import (
	"fmt"
	"io"
	"os"

	"github.com/embermark/wire"
	"github.com/spf13/cobra"
)

var (
	inPath      string
	outPath     string
	fromDialect string
	toDialect   string
	verboseTags bool
	usePadding  bool

	rootCmd *cobra.Command
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wiredump: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "wiredump",
		Short: "Inspect and convert framed wire documents between dialects",
		Long: `wiredump reads a stream of framed wire documents in one dialect
and re-emits them in another, exercising the document framer and every
wire dialect from the command line.`,
	}

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Convert a document stream from one dialect to another",
		RunE:  runDump,
	}
	dumpCmd.Flags().StringVar(&inPath, "in", "-", "input file, or - for stdin")
	dumpCmd.Flags().StringVar(&outPath, "out", "-", "output file, or - for stdout")
	dumpCmd.Flags().StringVar(&fromDialect, "from", "binary", "input dialect: text, json, or binary")
	dumpCmd.Flags().StringVar(&toDialect, "to", "text", "output dialect: text, json, or binary")
	dumpCmd.Flags().BoolVar(&verboseTags, "verbose-types", false, "accepted but has no effect: typed-object tags are always written and no others are added")
	dumpCmd.Flags().BoolVar(&usePadding, "padding", false, "align document bodies to 4-byte boundaries")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Report the document count and total body bytes of a stream",
		RunE:  runStats,
	}
	statsCmd.Flags().StringVar(&inPath, "in", "-", "input file, or - for stdin")
	statsCmd.Flags().StringVar(&fromDialect, "from", "binary", "input dialect: text, json, or binary")

	rootCmd.AddCommand(dumpCmd, statsCmd)
}

func parseDialect(s string) (wire.Dialect, error) {
	switch s {
	case "text":
		return wire.DialectText, nil
	case "json":
		return wire.DialectJSON, nil
	case "binary":
		return wire.DialectBinary, nil
	default:
		return 0, fmt.Errorf("unknown dialect %q (want text, json, or binary)", s)
	}
}

func openInput() ([]byte, error) {
	if inPath == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(inPath)
}

func openOutput() (io.WriteCloser, error) {
	if outPath == "-" {
		return os.Stdout, nil
	}
	return os.Create(outPath)
}

func runDump(cmd *cobra.Command, args []string) error {
	from, err := parseDialect(fromDialect)
	if err != nil {
		return err
	}
	to, err := parseDialect(toDialect)
	if err != nil {
		return err
	}

	data, err := openInput()
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	out, err := openOutput()
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	if closer, ok := out.(*os.File); !ok || closer != os.Stdout {
		defer out.Close()
	}

	buf := wire.NewBufferFromBytes(data)
	framer := wire.NewFramer(buf)
	reader := wire.NewWire(from)
	writer := wire.NewWire(to)
	writer.SetVerboseTypes(verboseTags)
	writer.UsePadding(usePadding)

	outBuf := wire.NewBuffer()
	outFramer := wire.NewFramer(outBuf)

	count := 0
	for {
		rc, err := framer.ReadingDocument()
		if err != nil {
			return err
		}
		if !rc.IsPresent() {
			break
		}
		start, end := rc.BodyRange()
		raw := buf.Bytes()
		if end > int64(len(raw)) {
			return wire.ErrProtocolViolation
		}
		body, err := reader.Parse(raw[start:end])
		if err != nil {
			return err
		}
		if err := rc.Close(); err != nil {
			return err
		}

		doc, err := outFramer.AcquireWritingDocument(cmd.Context(), rc.IsMetaData())
		if err != nil {
			return err
		}
		rendered, err := writer.Dump(body)
		if err != nil {
			doc.RollbackOnClose()
			doc.Close()
			return err
		}
		if _, err := doc.Bytes().Write(rendered); err != nil {
			doc.RollbackOnClose()
			doc.Close()
			return err
		}
		if err := doc.Close(); err != nil {
			return err
		}
		count++
	}

	if _, err := out.Write(outBuf.Bytes()); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Fprintf(os.Stderr, "wiredump: converted %d document(s)\n", count)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	from, err := parseDialect(fromDialect)
	if err != nil {
		return err
	}
	_ = from

	data, err := openInput()
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	buf := wire.NewBufferFromBytes(data)
	framer := wire.NewFramer(buf)
	count := 0
	var totalBytes int64
	for {
		rc, err := framer.ReadingDocument()
		if err != nil {
			return err
		}
		if !rc.IsPresent() {
			break
		}
		start, end := rc.BodyRange()
		totalBytes += end - start
		if err := rc.Close(); err != nil {
			return err
		}
		count++
	}
	fmt.Printf("documents: %d\nbody bytes: %d\n", count, totalBytes)
	return nil
}
