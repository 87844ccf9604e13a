// Package signals 把进程信号转换成停止通道
package signals

import (
	"os"
	"os/signal"
	"syscall"
)

// RegisterSignalHandlers 返回的通道在收到SIGINT或SIGTERM时关闭，
// 再次收到信号直接退出进程
func RegisterSignalHandlers() <-chan struct{} {
	stopCh := make(chan struct{})
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		close(stopCh)
		<-sigCh
		os.Exit(1)
	}()

	return stopCh
}
