package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var configCreate = &cobra.Command{
	Use:   "create",
	Short: "Create a config",
	Long:  "Create a config to use for bandage. Config file will be placed in $HOME/.bandage/bandage.yaml",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		home, err := os.UserHomeDir()
		if err != nil {
			wrapFatalln("could not get home directory for user", err)
			return
		}
		cfg := CLIConfig{
			LogLevel:   bandageFlags.root.logLevel,
			Remote:     bandageFlags.supply.remote,
			Name:       bandageFlags.weave.name,
			Credential: bandageFlags.root.credFile,
			Region:     bandageFlags.root.awsRegion,
			WorkDir:    bandageFlags.root.workDir,
		}
		o, err := yaml.Marshal(cfg)
		if err != nil {
			wrapFatalln("serialize config to yaml", err)
			return
		}
		dir := filepath.Join(home, ".bandage")
		if err = os.MkdirAll(dir, 0700); err != nil {
			wrapFatalln("create config directory", err)
			return
		}
		target := filepath.Join(dir, "bandage.yaml")
		if err = ioutil.WriteFile(target, o, 0600); err != nil {
			wrapFatalln("write config file", err)
			return
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", target)
	},
}

func init() {
	addRemoteFlag(configCreate)
	addNameOverrideFlag(configCreate)

	configCmd.AddCommand(configCreate)
}
