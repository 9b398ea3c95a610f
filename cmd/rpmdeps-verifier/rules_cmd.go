package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/rpmdeps-verifier/internal/build"
)

// createRulesCommand creates the rules subcommand
func createRulesCommand() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules [flags] RPM_FILE",
		Short: "Dump the dependency rules of one rpm file",
		Long: `Rules extracts and prints the dependency declarations of a single
rpm file, in the same structured form the verify subcommand consumes.
Useful for building manifests and for debugging verification findings.`,
		Args: cobra.ExactArgs(1),
		RunE: executeRules,
	}

	addOutputFlags(rulesCmd.Flags())
	return rulesCmd
}

// executeRules handles the rules command execution logic
func executeRules(cmd *cobra.Command, args []string) error {
	sub, err := build.LoadRPMFile(args[0])
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}

	var renderErr error
	switch strings.ToLower(outFormat) {
	case "json":
		payload := struct {
			Name    string   `json:"name"`
			Arch    string   `json:"arch"`
			Epoch   uint64   `json:"epoch,omitempty"`
			Version string   `json:"version"`
			Release string   `json:"release"`
			Rules   []string `json:"rules"`
		}{
			Name:    sub.Name,
			Arch:    sub.Arch,
			Epoch:   sub.Epoch,
			Version: sub.Version,
			Release: sub.Release,
		}
		for _, r := range sub.AfterRules {
			payload.Rules = append(payload.Rules, fmt.Sprintf("%s: %s", r.Kind, r.String()))
		}
		renderErr = writeJSON(out, payload, prettyJSON)

	case "text":
		fmt.Fprintf(out, "%s-%s.%s\n", sub.Name, sub.DepVersion(), sub.Arch)
		for _, r := range sub.AfterRules {
			fmt.Fprintf(out, "%s: %s\n", r.Kind, r.String())
		}

	default:
		renderErr = fmt.Errorf("invalid --format %q (expected text|json)", outFormat)
	}

	if cerr := closeOut(); renderErr == nil {
		renderErr = cerr
	}
	return renderErr
}
