package main

import (
	"fmt"
	"strings"

	"github.com/trezcool/workbook/core/qr"
)

// payload prints the QR payload (with checksum) of a booklet.
func (cli *commandLine) payload(year int, classCode string, number int, materialCode string) error {
	id := qr.Identity{
		Year:          year,
		ClassCode:     strings.TrimSpace(classCode),
		StudentNumber: number,
		MaterialCode:  strings.ToUpper(strings.TrimSpace(materialCode)),
	}
	code := id.Encode()
	if _, err := qr.Decode(code); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, code)
	return nil
}
