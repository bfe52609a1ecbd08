package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nikhilbhutani/langcoach/internal/client"
)

var logger *log.Logger

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("api-url", "http://localhost:8080", "langcoach API base URL")
	rootCmd.PersistentFlags().String("token", "", "Supabase access token for the signed-in user")
	rootCmd.PersistentFlags().String("apikey", "", "Supabase anon key sent as the apikey header")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	viper.BindPFlag("apikey", rootCmd.PersistentFlags().Lookup("apikey"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(addLanguageCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error reading .env: %s\n", err)
	}

	viper.SetEnvPrefix("LANGCOACH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("langcoach")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(home + "/langcoach")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
		}
	}

	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "langcoach"})
	if viper.GetBool("verbose") {
		logger.SetLevel(log.DebugLevel)
	}
	// Library packages log through slog; route them to the same terminal logger.
	slog.SetDefault(slog.New(logger))
}

var rootCmd = &cobra.Command{
	Use:   "langcoach",
	Short: "Practice speaking a language from the terminal",
	Long: `langcoach records speech from an audio file, sends it to the langcoach
transcription proxy and stores the transcript as a practice session.`,
	SilenceUsage: true,
}

func newClient() *client.Client {
	return client.New(client.Config{
		BaseURL: viper.GetString("api_url"),
		Token:   viper.GetString("token"),
		APIKey:  viper.GetString("apikey"),
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", "error", err)
		}
		os.Exit(1)
	}
}
