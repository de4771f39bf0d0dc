package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/oneconcern/bandage/pkg/core"
	"github.com/oneconcern/bandage/pkg/model"
)

var supplyCmd = &cobra.Command{
	Use:   "supply",
	Short: "Check a remote for a patch to the current version",
	Long: `Check a remote catalog for a patch that progresses the current version toward the latest release.

The remote publishes a lineage of versions (BANDAGE_LINEAGE, newest first) and a catalog of patches (BANDAGE_PATCHES).
A GitHub release tag page (https://github.com/{owner}/{repo}/releases/tag/{tag}) publishes them as release assets;
any other http(s) address is the base they are published under.

The current version is given with --version, or read from a VERSION file with --version-file.`,
	Example: `bandage supply --remote https://example.com/app/patches --version 1.0
bandage supply --remote https://github.com/acme/app/releases/tag/catalog --version-file /opt/app/VERSION --output yaml`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := getLogger()

		if bandageFlags.supply.remote == "" {
			wrapFatalln("a remote is required, with --remote or in the config", nil)
			return
		}
		current, err := currentVersion()
		if err != nil {
			wrapFatalln("current version", err)
			return
		}

		opts := append(coreOptions(logger), core.Chained(bandageFlags.supply.chained))
		result, err := core.Supply(ctx, bandageFlags.supply.remote, current, opts...)
		if err != nil {
			wrapFatalln("resolve patch", err)
			return
		}
		if err = render(cmd.OutOrStdout(), supplyFormatter, result); err != nil {
			wrapFatalln("print result", err)
			return
		}
	},
}

func currentVersion() (string, error) {
	switch {
	case bandageFlags.supply.version != "" && bandageFlags.supply.versionFile != "":
		return "", fmt.Errorf("--version and --version-file are mutually exclusive")
	case bandageFlags.supply.version != "":
		return bandageFlags.supply.version, nil
	case bandageFlags.supply.versionFile != "":
		dir, file := filepath.Split(bandageFlags.supply.versionFile)
		version, found, err := model.ReadToken(afero.NewOsFs(), dir, file)
		if err != nil {
			return "", err
		}
		if !found {
			return "", fmt.Errorf("%s not found", bandageFlags.supply.versionFile)
		}
		return version, nil
	default:
		return "", fmt.Errorf("one of --version or --version-file is required")
	}
}

var supplyFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
	result := data.(core.SupplyResult)
	var err error
	switch result.Status {
	case core.UpToDate:
		_, err = fmt.Fprintf(w, "%s: %s is the latest version\n", color.GreenString(result.Status.String()), result.Current)
	case core.PatchAvailable:
		_, err = fmt.Fprintf(w, "%s: %s -> %s (latest %s, %d behind)\n%s\n",
			color.YellowString(result.Status.String()), result.Entry.From, result.Entry.To, result.Latest, result.Gap, result.Locator)
		if err != nil || len(result.Chain) == 0 {
			break
		}
		table := uitable.New()
		table.AddRow("HOP", "FROM", "TO", "LOCATOR")
		for i, hop := range result.Chain {
			table.AddRow(i+1, hop.From, hop.To, hop.Locator)
		}
		_, err = fmt.Fprintln(w, table)
	default:
		_, err = fmt.Fprintf(w, "%s: no published patch progresses %s toward %s\n",
			color.RedString(result.Status.String()), result.Current, result.Latest)
	}
	return err
})

func init() {
	addRemoteFlag(supplyCmd)
	addVersionFlag(supplyCmd)
	addVersionFileFlag(supplyCmd)
	addChainedFlag(supplyCmd)
	addOutputFlag(supplyCmd)

	rootCmd.AddCommand(supplyCmd)
}
