package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serverURL    string
	outputFormat string
	cfgFile      string
	userID       string
	sessionID    string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "expensectl",
	Short: "CLI for the expense assistant backend",
	Long:  `expensectl is a command line interface for chatting with the expense assistant backend and managing stored receipts.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.expensectl/config)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "backend URL (default from config or http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "default_user", "user identifier")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "default_session", "session identifier")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(filepath.Join(home, ".expensectl"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	viper.BindEnv("server_url", "EXPENSE_SERVER_URL")

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetString("server_url") != "" && serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
	}

	if serverURL == "" {
		serverURL = os.Getenv("EXPENSE_SERVER_URL")
	}
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
}
