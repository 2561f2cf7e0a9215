package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/nur1slam20/tg-profession-bot/core/cmd"
	"github.com/nur1slam20/tg-profession-bot/internal/bot"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}

	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg, ok := carrier.(*bot.Config)
			if !ok {
				log.Fatal("unexpected config type")
			}
			return bot.New(cfg)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
