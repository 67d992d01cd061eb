// Команда embedctl генерирует embed-код из командной строки: для одного URL
// или для списка URL с выгрузкой в CSV/TSV. Кэш и хранилище общие с сервисом.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	Execute(ctx)
}

// Execute выполняет корневую команду и завершает процесс с кодом 1 при ошибке.
func Execute(ctx context.Context) {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
