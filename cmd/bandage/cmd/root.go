// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bandage",
	Short: "Bandage weaves and applies patches between releases",
	Long: `Bandage weaves and applies patches between releases of a product.

A patch is a self-describing archive holding the difference between two release trees.
Releases are identified by the NAME and VERSION files at their root.

Bandage also resolves which patch to apply next, from the lineage of versions
and the catalog of patches published on a remote.
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if bandageFlags.root.cpuProf {
			f, err := os.Create("cpu.prof")
			if err != nil {
				logFatalln(err)
				return
			}
			_ = pprof.StartCPUProfile(f)
		}
	},
	// upstream api note:  *PostRun functions aren't called in case of a panic() in Run
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if bandageFlags.root.cpuProf {
			pprof.StopCPUProfile()
		}
	},
}

var config *CLIConfig

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)
	rootCmd.SetGlobalNormalizationFunc(wordSepNormalizeFunc)

	addLogLevel(rootCmd)
	addCPUProfFlag(rootCmd)
	addWorkDirFlag(rootCmd)
	addCredentialFile(rootCmd)
	addAWSRegionFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault("loglevel", "info")
	viper.SetDefault("remote", "")
	viper.SetDefault("name", "")
	viper.SetDefault("credential", "")
	viper.SetDefault("region", "")
	viper.SetDefault("workdir", "")
	if os.Getenv("BANDAGE_CONFIG") != "" {
		// Use config file from the flag.
		viper.SetConfigFile(os.Getenv("BANDAGE_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.bandage")
		viper.AddConfigPath("/etc/bandage")
		viper.SetConfigName("bandage")
	}

	viper.SetEnvPrefix("bandage")
	viper.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
	var err error
	config, err = newConfig()
	if err != nil {
		logFatalln(err)
		return
	}
	config.setBandageParams(&bandageFlags)
}
