// Copyright © 2018 One Concern

package cmd

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/oneconcern/bandage/pkg/core"
	"github.com/oneconcern/bandage/pkg/dlogger"
	"github.com/oneconcern/bandage/pkg/fetch"
	"github.com/oneconcern/bandage/pkg/storage/locator"
)

type flagsT struct {
	root struct {
		credFile  string
		awsRegion string
		logLevel  string
		workDir   string
		cpuProf   bool
		output    string
	}
	weave struct {
		name                    string
		suppressMissingVersions bool
		overwrite               bool
		dryRun                  bool
	}
	patch struct {
		skipNameCheck    bool
		skipVersionCheck bool
		skipKeepCheck    bool
	}
	supply struct {
		remote      string
		version     string
		versionFile string
		chained     bool
	}
	doc struct {
		docTarget string
	}
}

var bandageFlags = flagsT{}

// wordSepNormalizeFunc accepts flag names with underscores, e.g. --dry_run
func wordSepNormalizeFunc(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func addLogLevel(cmd *cobra.Command) string {
	loglevel := "loglevel"
	cmd.PersistentFlags().StringVar(&bandageFlags.root.logLevel, loglevel, "", "The logging level. Levels by increasing order of verbosity: none, error, warn, info, debug")
	return loglevel
}

func addCPUProfFlag(cmd *cobra.Command) string {
	c := "cpuprof"
	cmd.PersistentFlags().BoolVar(&bandageFlags.root.cpuProf, c, false, "Toggle runtime profiling")
	return c
}

func addWorkDirFlag(cmd *cobra.Command) string {
	workDir := "workdir"
	cmd.PersistentFlags().StringVar(&bandageFlags.root.workDir, workDir, "", "Parent directory of session workspaces. Defaults to the system temporary directory")
	return workDir
}

func addCredentialFile(cmd *cobra.Command) string {
	credential := "credential"
	cmd.PersistentFlags().StringVar(&bandageFlags.root.credFile, credential, "", "The path to the credential file for gs:// locators")
	return credential
}

func addAWSRegionFlag(cmd *cobra.Command) string {
	region := "aws-region"
	cmd.PersistentFlags().StringVar(&bandageFlags.root.awsRegion, region, "", "The AWS region for s3:// locators")
	return region
}

func addOutputFlag(cmd *cobra.Command) string {
	output := "output"
	cmd.Flags().StringVarP(&bandageFlags.root.output, output, "o", outputText, "Output format: text, json or yaml")
	return output
}

func addNameOverrideFlag(cmd *cobra.Command) string {
	name := "name"
	cmd.Flags().StringVar(&bandageFlags.weave.name, name, "", "The NAME of the patch, regardless of the NAME of the releases")
	return name
}

func addSuppressMissingVersionsFlag(cmd *cobra.Command) string {
	suppress := "suppress-missing-versions"
	cmd.Flags().BoolVar(&bandageFlags.weave.suppressMissingVersions, suppress, false,
		"Weave releases without VERSION. The patch carries unknown versions and cannot be resolved from a lineage")
	return suppress
}

func addOverwriteFlag(cmd *cobra.Command) string {
	overwrite := "overwrite"
	cmd.Flags().BoolVar(&bandageFlags.weave.overwrite, overwrite, false, "Replace an existing patch at the output location")
	return overwrite
}

func addDryRunFlag(cmd *cobra.Command) string {
	dryRun := "dry-run"
	cmd.Flags().BoolVar(&bandageFlags.weave.dryRun, dryRun, false, "Compare the releases without writing a patch")
	return dryRun
}

func addSkipNameCheckFlag(cmd *cobra.Command) string {
	skip := "skip-name-check"
	cmd.Flags().BoolVar(&bandageFlags.patch.skipNameCheck, skip, false, "Do not check that the patch NAME matches the target NAME (unsafe)")
	return skip
}

func addSkipVersionCheckFlag(cmd *cobra.Command) string {
	skip := "skip-version-check"
	cmd.Flags().BoolVar(&bandageFlags.patch.skipVersionCheck, skip, false, "Do not check that the patch applies to the target VERSION (unsafe)")
	return skip
}

func addSkipKeepCheckFlag(cmd *cobra.Command) string {
	skip := "skip-keep-check"
	cmd.Flags().BoolVar(&bandageFlags.patch.skipKeepCheck, skip, false, "Do not check that kept paths exist in the target (unsafe)")
	return skip
}

func addRemoteFlag(cmd *cobra.Command) string {
	remote := "remote"
	cmd.Flags().StringVar(&bandageFlags.supply.remote, remote, "", "The base address of the remote patch catalog")
	return remote
}

func addVersionFlag(cmd *cobra.Command) string {
	version := "version"
	cmd.Flags().StringVar(&bandageFlags.supply.version, version, "", "The current version")
	return version
}

func addVersionFileFlag(cmd *cobra.Command) string {
	versionFile := "version-file"
	cmd.Flags().StringVar(&bandageFlags.supply.versionFile, versionFile, "", "A VERSION file holding the current version, e.g. at the root of the installed release")
	return versionFile
}

func addChainedFlag(cmd *cobra.Command) string {
	chained := "chained"
	cmd.Flags().BoolVar(&bandageFlags.supply.chained, chained, false, "Search chains of patches rather than a single patch")
	return chained
}

func addTargetFlag(cmd *cobra.Command) string {
	target := "target-dir"
	cmd.Flags().StringVar(&bandageFlags.doc.docTarget, target, "./docs/usage", "The path to the directory where the usage documentation is generated")
	return target
}

// coreOptions builds the options shared by core operations
func coreOptions(logger *zap.Logger) []core.Option {
	locatorOpts := []locator.Option{locator.GCSCredentials(bandageFlags.root.credFile)}
	if bandageFlags.root.awsRegion != "" {
		locatorOpts = append(locatorOpts, locator.AWSConfig(aws.NewConfig().WithRegion(bandageFlags.root.awsRegion)))
	}
	return []core.Option{
		core.WithFs(afero.NewOsFs()),
		core.WithLogger(logger),
		core.WithFetchClient(fetch.New(fetch.Logger(logger))),
		core.WithLocatorOptions(locatorOpts...),
		core.WorkDir(bandageFlags.root.workDir),
	}
}

func getLogger() *zap.Logger {
	logger, err := dlogger.GetLogger(bandageFlags.root.logLevel)
	if err != nil {
		wrapFatalln("failed to set log level", err)
		return zap.NewNop()
	}
	return logger
}
