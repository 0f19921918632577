// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package cmd provides the CLI entry points for the zapfs gateway.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/LeeDigitalWorks/zapfs/pkg/utils"
)

var rootCmd = &cobra.Command{
	Use:   "zapfs",
	Short: "zapfs - an S3-compatible multipart upload gateway",
	Long: `zapfs accepts S3 multipart upload part PUTs, streams each part's
bytes to a storage backend under backpressure, verifies SigV4 and
SigV4-streaming signatures, and tracks bucket, upload, and part metadata
in an ordered-set-backed key/value store.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&utils.ConfigurationFileDirectory, "config_dir", ".", "Directory for configuration files")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
