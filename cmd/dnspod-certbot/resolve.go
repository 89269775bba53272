package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dnspod-certbot/internal/core"
	"dnspod-certbot/internal/domain"
)

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <hostname>",
		Short: "显示域名对应的主域名、主机记录和解析线路，不创建记录",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, closer, err := a.setup(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			dns, err := a.newProvider(cfg, log)
			if err != nil {
				return err
			}

			host := strings.TrimPrefix(domain.Normalize(args[0]), "*.")
			validationName := "_acme-challenge." + host

			res, err := core.NewRecordManager(dns, log).Resolve(cmd.Context(), host, validationName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "验证记录: %s\n", validationName)
			fmt.Fprintf(out, "主域名:   %s\n", res.BaseDomain)
			fmt.Fprintf(out, "主机记录: %s\n", res.SubDomain)
			fmt.Fprintf(out, "解析线路: %s (%s)\n", res.Line.Name, res.Line.ID)
			return nil
		},
	}
}
