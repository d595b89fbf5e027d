package main

import (
	"go.uber.org/zap"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		zap.L().Fatal("command failed", zap.Error(err))
	}
}
