// Package main provides the tiler CLI, which plans operator tilings and
// inspects encoded records.
package main

import (
	"os"

	"k8s.io/klog/v2"
)

const version = "v0.0.1-dev"

func main() {
	defer klog.Flush()
	if err := newRootCmd().Execute(); err != nil {
		klog.ErrorS(err, "command failed")
		klog.Flush()
		os.Exit(1)
	}
}
