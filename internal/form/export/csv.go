package export

import (
	"bufio"
	"io"
	"strings"
)

// WriteCSV writes rows with every cell quoted and embedded quotes doubled.
// Rows are separated by a single newline with none after the last row.
func WriteCSV(w io.Writer, rows [][]string) error {
	bw := bufio.NewWriter(w)

	for i, row := range rows {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		for j, cell := range row {
			if j > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(quote(cell)); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

func quote(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}
