package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CLIConfig describes the CLI configuration.
type CLIConfig struct {
	// keep the names of fields the same as the serialized names, for viper
	LogLevel   string `json:"loglevel" yaml:"loglevel"`                         // Logging level
	Remote     string `json:"remote,omitempty" yaml:"remote,omitempty"`         // Default remote catalog for supply
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`             // Default NAME override for weave
	Credential string `json:"credential,omitempty" yaml:"credential,omitempty"` // Credentials to use for GCS
	Region     string `json:"region,omitempty" yaml:"region,omitempty"`         // AWS region to use for S3
	WorkDir    string `json:"workdir,omitempty" yaml:"workdir,omitempty"`       // Parent directory of session workspaces
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// setBandageParams fills in flags that were not set on the command line
func (c *CLIConfig) setBandageParams(flags *flagsT) {
	if flags.root.logLevel == "" {
		flags.root.logLevel = c.LogLevel
	}
	if flags.root.credFile == "" {
		flags.root.credFile = c.Credential
	}
	if flags.root.awsRegion == "" {
		flags.root.awsRegion = c.Region
	}
	if flags.root.workDir == "" {
		flags.root.workDir = c.WorkDir
	}
	if flags.supply.remote == "" {
		flags.supply.remote = c.Remote
	}
	if flags.weave.name == "" {
		flags.weave.name = c.Name
	}
}

// configCmd represents the config related commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage a config",
	Long: `Commands to manage bandage CLI config.

Configuration for bandage is the common set of flags that are needed for most commands and do not change across runs,
analogous to "git config ...". `,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
