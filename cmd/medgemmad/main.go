package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "medgemmad:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &serveFlags{}
	root := &cobra.Command{
		Use:           "medgemmad",
		Short:         "HTTP façade for MedGemma clinical text analysis",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Load the model and serve /health, /analyze and /models",
		Example: "  medgemmad serve\n" +
			"  medgemmad serve --config medgemma.yaml --port 9000\n" +
			"  medgemmad serve --backend hf-inference --model google/medgemma-4b-it",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return serveHTTP(cmd.Context(), cfg)
		},
	}
	f.register(serve)
	root.AddCommand(serve)

	// Bare "medgemmad" behaves like "medgemmad serve".
	root.Args = cobra.NoArgs
	root.RunE = serve.RunE
	f.register(root)
	return root
}
