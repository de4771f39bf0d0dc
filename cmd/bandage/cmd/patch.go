package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oneconcern/bandage/pkg/core"
)

var patchCmd = &cobra.Command{
	Use:   "patch <patch> <target>",
	Short: "Apply a patch to an installed release",
	Long: `Apply a patch archive to the release installed in the target directory.

The patch is designated by a local path, an http(s) URL, a gs:// or an s3:// locator.

All checks run before the target is modified: the patch NAME must match the target NAME,
the patch must apply from the target VERSION, kept paths must exist in the target and
the patch payload must be complete and intact.

Once checks have passed, a failure leaves the target partially patched: there is no rollback.`,
	Example: `bandage patch https://example.com/app/patches/app-1.0-2.0.zip /opt/app`,
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := getLogger()
		opts := append(coreOptions(logger),
			core.SkipNameCheck(bandageFlags.patch.skipNameCheck),
			core.SkipVersionCheck(bandageFlags.patch.skipVersionCheck),
			core.SkipKeepCheck(bandageFlags.patch.skipKeepCheck),
		)
		result, err := core.Apply(ctx, args[0], args[1], opts...)
		if err != nil {
			wrapFatalln("apply patch", err)
			return
		}
		if err = render(cmd.OutOrStdout(), patchFormatter, result); err != nil {
			wrapFatalln("print result", err)
			return
		}
	},
}

var patchFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
	result := data.(core.ApplyResult)
	_, err := fmt.Fprintf(w, "%s %s (%s): %d added, %d replaced, %d removed, %d kept\n",
		color.GreenString("patched"), nameOrUnnamed(result.Name), result.Versions,
		result.Added, result.Replaced, result.Removed, result.Kept)
	if err != nil {
		return err
	}
	if !result.VersionWritten {
		_, err = fmt.Fprintln(w, color.YellowString("VERSION left untouched"))
	}
	return err
})

func init() {
	addSkipNameCheckFlag(patchCmd)
	addSkipVersionCheckFlag(patchCmd)
	addSkipKeepCheckFlag(patchCmd)
	addOutputFlag(patchCmd)

	rootCmd.AddCommand(patchCmd)
}
