package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "facturas/internal/parser/claude"
	_ "facturas/internal/parser/gemini"
	_ "facturas/internal/parser/openai"
)

func main() {
	_ = godotenv.Load(".env.local", ".env")

	rootCmd := &cobra.Command{
		Use:   "facturasctl",
		Short: "Invoice extraction and maintenance tools",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newNormalizeCmd(), newExtractCmd(), newRemindCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
