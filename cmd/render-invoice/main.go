// Command render-invoice renders an invoice JSON file to its PDF without a
// server or a store.
//
//	render-invoice -invoice facture.json [-company societe.json] [-out dir]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/diewo77/go-factures/internal/models"
	"github.com/diewo77/go-factures/internal/pdf"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "render-invoice: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("render-invoice", flag.ContinueOnError)
	invoicePath := fs.String("invoice", "", `invoice JSON file, "-" for stdin`)
	companyPath := fs.String("company", "", "company info JSON file (defaults used when empty)")
	outDir := fs.String("out", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *invoicePath == "" {
		return errors.New("-invoice is required")
	}

	var inv models.Invoice
	if err := readJSON(*invoicePath, stdin, &inv); err != nil {
		return fmt.Errorf("invoice: %w", err)
	}
	company := models.DefaultCompanyInfo()
	if *companyPath != "" {
		if err := readJSON(*companyPath, stdin, &company); err != nil {
			return fmt.Errorf("company: %w", err)
		}
	}

	body, err := pdf.Generate(inv, company)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(*outDir, pdf.FileName(inv))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(stdout, path)
	return nil
}

func readJSON(path string, stdin io.Reader, dst any) error {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return json.NewDecoder(r).Decode(dst)
}
