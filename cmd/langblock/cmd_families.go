/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/castmetrics/langblock/internal/language"
)

var familiesFile string

var familiesCmd = &cobra.Command{
	Use:   "families",
	Short: "Language family table utilities",
}

var familiesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a language family table",
	Long: `Parses a family table and reports problems (empty families, a language
claimed by more than one family). With no --file, checks the built-in
table.`,
	RunE: runFamiliesCheck,
}

func init() {
	familiesCheckCmd.Flags().StringVar(&familiesFile, "file", "", "Path to a YAML family table")
	familiesCmd.AddCommand(familiesCheckCmd)
	rootCmd.AddCommand(familiesCmd)
}

func runFamiliesCheck(cmd *cobra.Command, args []string) error {
	if familiesFile == "" {
		f := language.Default()
		fmt.Printf("built-in table ok: version %d, %d families\n", f.Version(), f.FamilyCount())
		return nil
	}

	f, err := language.LoadFile(familiesFile)
	if err != nil {
		return err
	}

	fmt.Printf("%s ok: version %d, %d families\n", familiesFile, f.Version(), f.FamilyCount())
	return nil
}
