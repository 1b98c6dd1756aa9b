package main

import (
	"context"
	"fmt"
	"log"

	corecmd "github.com/m3rciful/pixabot/core/cmd"
	"github.com/m3rciful/pixabot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "PIXABOT_CONFIG",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			appCfg, ok := cfg.(*app.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", cfg)
			}
			return app.Bootstrap(ctx, appCfg)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
