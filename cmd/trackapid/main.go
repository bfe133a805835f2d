package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tourist-tracker/internal/trackapiserver"
)

func main() {
	var err error
	var configFile string
	var config trackapiserver.Config

	rootCmd := &cobra.Command{
		Use:   "trackapid",
		Short: "API server for tourist safety tracking, zones and alerts",
		// Main Entry Point
		Run: func(c *cobra.Command, args []string) {
			// Init
			e, err := trackapiserver.New(config)
			if err != nil {
				log.Fatalf("Failed on init: %v", err)
			}

			err = e.Run()
			if err != nil {
				log.Fatalf("Failed on start: %v", err)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.json", "Path to configuration")

	// Defaults
	viper.SetDefault("http.listen", ":8080")
	viper.SetDefault("sweep.workers", 4)
	viper.SetDefault("sweep.op_timeout", 5)
	viper.SetDefault("rate_limit.per_minute", 60)

	// Read Configuration File Before Start
	cobra.OnInitialize(func() {
		_ = godotenv.Load()

		_, err := os.Stat(configFile)
		if os.IsNotExist(err) {
			envConfFile := os.Getenv("CONFIG_FILE")
			if envConfFile != "" {
				_, err := os.Stat(envConfFile)
				if os.IsNotExist(err) {
					log.Fatalf("Config file %s does not exist!", envConfFile)
				}

				configFile = envConfFile
			} else {
				log.Fatalf("Config file %s does not exist!", configFile)
			}
		}

		viper.SetConfigFile(configFile)
		viper.SetConfigType("json")
		err = viper.ReadInConfig()
		if err != nil {
			log.Fatalf("Failed to read config: %v", err)
		}

		err = viper.Unmarshal(&config)
		if err != nil {
			log.Fatalf("Failed to parse config: %v", err)
		}

		log.Printf("Loaded config file: %s", configFile)
	})

	// Launch (cobra.OnInitialize -> rootCmd.Run)
	err = rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}

}
