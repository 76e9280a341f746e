package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"weft/internal/driver"
	"weft/internal/version"
	"weft/internal/wire"
)

const versionTagline = "server markup, client threads"

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	Tagline   string `json:"tagline"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	Manifest  string `json:"manifest,omitempty"`
	ScopeAttr string `json:"scope_attr,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show weft build fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := readOutputOptions(cmd)
		if err != nil {
			return err
		}
		full, _ := cmd.Flags().GetBool("full")
		hash, _ := cmd.Flags().GetBool("hash")
		date, _ := cmd.Flags().GetBool("date")

		payload := describeVersion(version.Read(), hash || full, date || full, full)
		if opts.format == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		}
		printVersion(cmd.OutOrStdout(), payload)
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("hash", false, "include git commit hash")
	versionCmd.Flags().Bool("date", false, "include build timestamp")
	versionCmd.Flags().Bool("full", false, "show every recorded bit of build metadata")
}

func describeVersion(info version.Info, hash, date, full bool) versionPayload {
	p := versionPayload{Tool: "weft", Version: info.Version, Tagline: versionTagline}
	if hash {
		p.GitCommit = orUnknown(info.GitCommit)
	}
	if date {
		p.BuildDate = orUnknown(info.BuildDate)
	}
	if full {
		p.GoVersion = orUnknown(info.GoVersion)
		p.Manifest = driver.ManifestName
		p.ScopeAttr = wire.AttrScope
	}
	return p
}

func printVersion(out io.Writer, p versionPayload) {
	fmt.Fprintf(out, "weft %s: %s\n", version.Pretty(), p.Tagline)
	for _, row := range [][2]string{
		{"commit", p.GitCommit},
		{"built", p.BuildDate},
		{"go", p.GoVersion},
		{"manifest", p.Manifest},
		{"scope", p.ScopeAttr},
	} {
		if row[1] != "" {
			fmt.Fprintf(out, "%-9s %s\n", row[0]+":", row[1])
		}
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
