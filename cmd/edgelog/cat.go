package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kolkov/edgelog/internal/edgelog/writer"
)

func newCatCmd() *cobra.Command {
	var relative bool

	cmd := &cobra.Command{
		Use:   "cat [--relative] LOG",
		Short: "Print a trace, decompressing it if needed",
		Long: `cat prints a trace as text. With --relative, the addresses of a compact
trace are printed as signed offsets from the module base, which do not
change between runs of the same binary. The zero sentinel stays 0.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCat(cmd.OutOrStdout(), args[0], relative)
		},
	}
	cmd.Flags().BoolVarP(&relative, "relative", "r", false, "print compact addresses relative to the module base")
	return cmd
}

func runCat(out io.Writer, path string, relative bool) error {
	r, c, compact, err := openTrace(path)
	if err != nil {
		return err
	}
	defer c.Close()

	if !relative || !compact {
		if relative {
			log.Warnf("%s: not a compact trace, --relative ignored", path)
		}
		_, err := io.Copy(out, r)
		return err
	}

	w := bufio.NewWriter(out)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)

	if !sc.Scan() {
		return fmt.Errorf("%s: %w", path, writer.ErrBadHeader)
	}
	header := sc.Text()
	m, err := writer.ParseHeader(header)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintln(w, header)

	base := int64(m.Base)
	rel := func(dst []byte, addr uintptr) []byte {
		if addr == 0 {
			return append(dst, '0')
		}
		return strconv.AppendInt(dst, int64(addr)-base, 10)
	}

	var buf []byte
	for lineNo := 2; sc.Scan(); lineNo++ {
		line := sc.Text()
		if line == "" {
			continue
		}
		e, err := writer.ParseEdge(line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		buf = rel(buf[:0], e.Prev)
		buf = append(buf, ',')
		buf = rel(buf, e.Cur)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return w.Flush()
}
