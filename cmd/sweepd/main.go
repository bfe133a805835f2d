package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tourist-tracker/internal/sweepagent"
)

func main() {
	var err error
	var configFile string
	var config sweepagent.Config

	rootCmd := &cobra.Command{
		Use:   "sweepd",
		Short: "Run periodic geofence breach detection sweeps against the tracker database",
		// Main Entry Point
		Run: func(c *cobra.Command, args []string) {
			// Init
			rcvr, err := sweepagent.New(config)
			if err != nil {
				log.Fatalf("Failed on init: %v", err)
			}

			err = rcvr.Run()
			if err != nil {
				log.Fatalf("Failed on start: %v", err)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.json", "Path to configuration")

	// Default Values
	viper.SetDefault("sweep.interval", 10)
	viper.SetDefault("sweep.workers", 4)
	viper.SetDefault("sweep.op_timeout", 5)

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
