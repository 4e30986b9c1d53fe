package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	signatureengine "github.com/prathamesonar/signature-engine"
	"github.com/prathamesonar/signature-engine/config"
	"github.com/prathamesonar/signature-engine/server"
)

func StampCommand(args []string) {
	stampFlags := flag.NewFlagSet("stamp", flag.ExitOnError)

	var configPath, basePath string
	stampFlags.StringVar(&configPath, "config", "", "Path to a TOML or YAML config file")
	stampFlags.StringVar(&basePath, "base", "", "Base PDF, overrides the configured document")

	stampFlags.Usage = func() {
		fmt.Printf("Usage: %s stamp [options] <request.json> <output.pdf>\n\n", os.Args[0])
		fmt.Println("Stamp the fields of a sign request onto the base PDF")
		fmt.Println("\nOptions:")
		stampFlags.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s stamp request.json signed.pdf\n", os.Args[0])
		fmt.Printf("  %s stamp -base contract.pdf request.json signed.pdf\n", os.Args[0])
	}

	if err := stampFlags.Parse(args); err != nil {
		log.Printf("Failed to parse stamp flags: %v", err)
		osExit(1)
		return
	}

	if len(stampFlags.Args()) < 2 {
		stampFlags.Usage()
		osExit(1)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}
	if basePath != "" {
		cfg.Document.BasePath = basePath
	}

	if err := StampPDF(context.Background(), cfg, stampFlags.Arg(0), stampFlags.Arg(1), os.Stdout); err != nil {
		log.Println(err)
		osExit(1)
	}
}

// StampPDF stamps the request read from requestPath and writes the result
// to output. A summary of the run is written to w.
func StampPDF(ctx context.Context, cfg config.Config, requestPath, output string, w io.Writer) error {
	data, err := os.ReadFile(requestPath)
	if err != nil {
		return err
	}
	var req server.SignRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("failed to parse %s: %w", requestPath, err)
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	stamper, err := NewStamper(cfg, logger, nil)
	if err != nil {
		return err
	}

	res, err := stamper.Stamp(ctx, signatureengine.Request{Signature: req.Signature, Fields: req.Fields})
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, res.Bytes, 0o644); err != nil {
		return err
	}

	for _, o := range res.Outcomes {
		line := fmt.Sprintf("field %d (%s): %s", o.Index, o.Type, o.Status)
		if o.Reason != "" {
			line += " - " + o.Reason
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "original hash: %s\n", res.OriginalHash)
	fmt.Fprintf(w, "final hash:    %s\n", res.FinalHash)
	fmt.Fprintf(w, "written to %s\n", output)
	return nil
}
