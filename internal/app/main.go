package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mateusmacedo/bus-reservation/internal/config"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
	zapAdapter "github.com/mateusmacedo/bus-reservation/pkg/infrastructure/zaplogger/adapter"
)

// Main carrega a configuração, aplica override e executa o serviço até
// SIGINT ou SIGTERM. Retorna o código de saída do processo.
func Main(override func(*config.Config)) int {
	cfg, cfgErr := config.Load()
	if override != nil {
		override(&cfg)
	}

	appLogger, err := zapAdapter.NewZapAppLogger(cfg.AppName, cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		return 1
	}
	if cfgErr != nil {
		pkgApp.LogWarn(context.Background(), appLogger, "configuration has invalid values, defaults applied", map[string]interface{}{
			"error": cfgErr.Error(),
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, cfg, appLogger); err != nil {
		pkgApp.LogError(context.Background(), appLogger, "service stopped with error", err, nil)
		return 1
	}
	pkgApp.LogInfo(context.Background(), appLogger, "service stopped", nil)
	return 0
}
