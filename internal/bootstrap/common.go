package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

type operation func(ctx context.Context) error

// gracefulShutdown waits for a termination signal or for ctx to end, then runs
// the clean up operations under a shared timeout.
func gracefulShutdown(ctx context.Context, timeout time.Duration, ops map[string]operation) <-chan struct{} {
	wait := make(chan struct{})
	go func() {
		s := make(chan os.Signal, 1)

		signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(s)

		select {
		case sig := <-s:
			logrus.WithField("signal", sig.String()).Info("shutting down")
		case <-ctx.Done():
			logrus.Info("shutting down")
		}

		// set timeout for the ops to be done to prevent system hang
		timeoutFunc := time.AfterFunc(timeout, func() {
			logrus.Error(fmt.Sprintf("timeout %d ms has been elapsed, force exit", timeout.Milliseconds()))
			os.Exit(0)
		})

		defer timeoutFunc.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var wg sync.WaitGroup

		for key, op := range ops {
			wg.Add(1)
			go func() {
				defer wg.Done()

				logrus.Info(fmt.Sprintf("cleaning up: %s", key))
				if err := op(shutdownCtx); err != nil {
					logrus.Error(fmt.Sprintf("%s: clean up failed: %s", key, err.Error()))
					return
				}

				logrus.Info(fmt.Sprintf("%s was shutdown gracefully", key))
			}()
		}

		wg.Wait()

		close(wait)
	}()

	return wait
}
