package core

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/go-logr/logr"
)

// Executor 后置命令执行器
type Executor struct {
	log logr.Logger
}

// NewExecutor 创建执行器
func NewExecutor(log logr.Logger) *Executor {
	return &Executor{log: log.WithName("executor")}
}

// RunPostCommand 执行后置命令，${KEY} 会被替换，同时以环境变量传入
func (e *Executor) RunPostCommand(ctx context.Context, command string, vars map[string]string) error {
	if command == "" {
		return nil
	}

	env := os.Environ()
	for key, value := range vars {
		command = strings.ReplaceAll(command, "${"+key+"}", value)
		env = append(env, key+"="+value)
	}

	e.log.Info("执行后置命令", "command", command)

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		e.log.Info("后置命令输出", "output", strings.TrimSpace(string(out)))
	}
	if err != nil {
		return fmt.Errorf("执行命令失败: %w", err)
	}

	e.log.Info("后置命令执行成功")
	return nil
}

// BuildVars 构建变量映射
func (e *Executor) BuildVars(domain string, names []string, certDir, certFile, keyFile, fullchainFile string) map[string]string {
	return map[string]string{
		"DOMAIN":         domain,
		"DOMAINS":        strings.Join(names, ","),
		"CERT_DIR":       certDir,
		"CERT_FILE":      certFile,
		"KEY_FILE":       keyFile,
		"FULLCHAIN_FILE": fullchainFile,
	}
}
