package main

import (
	"github.com/spf13/cobra"

	"careerpilot/internal/validate"
)

var (
	validateStateFile string
	validateNowFlag   string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a user state snapshot and grade its staleness",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadState(validateStateFile)
		if err != nil {
			return err
		}
		now, err := referenceTime(validateNowFlag)
		if err != nil {
			return err
		}
		cfg, err := cfgStore.Get()
		if err != nil {
			return err
		}
		return printJSON(validate.State(st, cfg, now))
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateStateFile, "state", "s", "", "user state JSON file (required)")
	validateCmd.Flags().StringVar(&validateNowFlag, "now", "", "reference time, RFC3339 (default: wall clock)")
	_ = validateCmd.MarkFlagRequired("state")
}
