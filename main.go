// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/LeeDigitalWorks/zapfs/cmd"
)

func main() {
	if err := sentry.Init(sentry.ClientOptions{
		SampleRate:       0.1,
		EnableTracing:    true,
		TracesSampleRate: 0.1,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "sentry.Init: %v\n", err)
	}
	defer sentry.Flush(2 * time.Second)

	cmd.Execute()
}
