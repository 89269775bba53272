package main

import (
	"errors"
	"io"
	"io/fs"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"dnspod-certbot/internal/config"
	"dnspod-certbot/internal/core"
	"dnspod-certbot/internal/logging"
	"dnspod-certbot/internal/provider"
)

// app 命令共享的参数和依赖
type app struct {
	configPath string
	debug      bool

	fs          afero.Fs
	newProvider func(*config.Config, logr.Logger) (provider.DNSProvider, error)
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&app{
		fs:          afero.NewOsFs(),
		newProvider: core.NewDNSProvider,
	})
}

func newRootCmdWith(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dnspod-certbot",
		Short: "通过 DNSPod 完成 DNS-01 验证并申请证书",
		Long: `通过 DNSPod（腾讯云DNS）创建和清理 _acme-challenge TXT 记录，完成 ACME DNS-01 验证。

凭证优先读取配置文件 providers.tencent，未配置时读取环境变量
TENCENTCLOUD_SECRET_ID / TENCENTCLOUD_SECRET_KEY。`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config.yaml", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "输出调试信息")

	rootCmd.AddCommand(newRunCmd(a), newResolveCmd(a))
	return rootCmd
}

// setup 加载配置并创建日志
func (a *app) setup(cmd *cobra.Command) (*config.Config, logr.Logger, io.Closer, error) {
	cfg, err := config.Load(a.configPath)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		// 没有配置文件时只使用环境变量
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return nil, logr.Discard(), nil, err
	}

	log, closer, err := logging.New(a.fs, cmd.OutOrStdout(), logging.Options{
		Debug:   a.debug || cfg.Debug,
		LogFile: cfg.LogFile,
	})
	if err != nil {
		return nil, logr.Discard(), nil, err
	}
	return cfg, log, closer, nil
}
