package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/hardwaylabs/partnerbot/core/cmd"
	"github.com/hardwaylabs/partnerbot/internal/app"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config (CONFIG_PATH overrides)")
	flag.Parse()

	// A missing .env is fine: containers pass real environment variables.
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}

	err := cmd.Run(cmd.Options{
		DefaultConfigPath: *configPath,
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(cfg cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			return app.Bootstrap(cfg.(*app.Config))
		},
	})
	if err != nil {
		log.Fatalf("partnerbot: %v", err)
	}
}
