package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"facturas/internal/config"
	"facturas/internal/domain"
	"facturas/internal/logger"
	"facturas/internal/ocr"
	"facturas/internal/parser"
)

func newExtractCmd() *cobra.Command {
	var textOnly bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Run OCR and field extraction on a local PDF or image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Setup(cfg.Log)

			path := args[0]
			ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
			fileType, ok := domain.AllowedExtensions[ext]
			if !ok {
				return fmt.Errorf("%w: .%s", domain.ErrUnsupportedFileType, ext)
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			res, err := ocr.NewExtractor(cfg.OCR, ocr.ExecRunner{}).
				Extract(cmd.Context(), content, domain.AllowedFileTypes[fileType])
			if err != nil {
				return err
			}
			if textOnly {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
				return err
			}

			gen, err := parser.NewFromConfig(&cfg.Parser)
			if err != nil {
				return err
			}
			out, err := parser.NewExtractor(gen).Extract(cmd.Context(), res.Text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out.Data)
		},
	}
	cmd.Flags().BoolVar(&textOnly, "text-only", false, "print the recognized text and skip the language model")
	return cmd
}
