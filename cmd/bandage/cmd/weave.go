package cmd

import (
	"context"
	"fmt"
	"io"

	units "github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oneconcern/bandage/pkg/core"
)

var weaveCmd = &cobra.Command{
	Use:   "weave <old release> <new release> <output>",
	Short: "Create a patch between two releases",
	Long: `Create a patch archive holding the difference between an old and a new release.

Releases are directories, or release archives designated by a local path, an http(s) URL, a gs:// or an s3:// locator.
The output is a local path, a gs:// or an s3:// locator.

Both releases must carry the same NAME, unless a name is provided with --name.
Both releases must carry a VERSION, unless --suppress-missing-versions is set.`,
	Example: `bandage weave ./app-1.0 ./app-2.0 ./patches/app-1.0-2.0.zip
bandage weave --dry-run gs://releases/app-1.0.zip gs://releases/app-2.0.zip ignored.zip`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := getLogger()
		opts := append(coreOptions(logger),
			core.NameOverride(bandageFlags.weave.name),
			core.SuppressMissingVersions(bandageFlags.weave.suppressMissingVersions),
			core.Overwrite(bandageFlags.weave.overwrite),
			core.DryRun(bandageFlags.weave.dryRun),
		)
		result, err := core.Weave(ctx, args[0], args[1], args[2], opts...)
		if err != nil {
			wrapFatalln("weave patch", err)
			return
		}
		if err = render(cmd.OutOrStdout(), weaveFormatter, result); err != nil {
			wrapFatalln("print result", err)
			return
		}
	},
}

var weaveFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
	result := data.(core.WeaveResult)
	printDiff(w, result.Diff)
	if result.Output == "" {
		_, err := fmt.Fprintf(w, "%s (%s): dry run, no patch written\n", nameOrUnnamed(result.Name), result.Versions)
		return err
	}
	_, err := fmt.Fprintf(w, "%s (%s): patch written to %s [%s]\n",
		nameOrUnnamed(result.Name), result.Versions, result.Output, units.HumanSize(float64(result.Size)))
	return err
})

func printDiff(w io.Writer, diff core.DiffResult) {
	sets := []struct {
		mark  string
		c     *color.Color
		paths []string
	}{
		{mark: "-", c: color.New(color.FgRed), paths: diff.Removed},
		{mark: "+", c: color.New(color.FgGreen), paths: diff.Added},
		{mark: "~", c: color.New(color.FgYellow), paths: diff.Changed},
	}
	for _, set := range sets {
		for _, pth := range set.paths {
			_, _ = set.c.Fprintf(w, "%s %s\n", set.mark, pth)
		}
	}
	_, _ = fmt.Fprintf(w, "%s\n", color.HiBlackString("%d removed, %d added, %d changed, %d unchanged",
		len(diff.Removed), len(diff.Added), len(diff.Changed), len(diff.Unchanged)))
}

func nameOrUnnamed(name string) string {
	if name == "" {
		return "<unnamed>"
	}
	return name
}

func init() {
	addNameOverrideFlag(weaveCmd)
	addSuppressMissingVersionsFlag(weaveCmd)
	addOverwriteFlag(weaveCmd)
	addDryRunFlag(weaveCmd)
	addOutputFlag(weaveCmd)

	rootCmd.AddCommand(weaveCmd)
}
