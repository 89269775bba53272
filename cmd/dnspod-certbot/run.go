package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dnspod-certbot/internal/core"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "检查所有域名，需要时申请或续期证书",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, log, closer, err := a.setup(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			dns, err := a.newProvider(cfg, log)
			if err != nil {
				return err
			}

			log.Info("开始运行", "provider", dns.Name(), "domains", len(cfg.Domains))

			c := core.Build(ctx, cfg, a.fs, dns, log)
			if err := c.Manager.Run(ctx); err != nil {
				return fmt.Errorf("运行出错: %w", err)
			}
			return nil
		},
	}
}
