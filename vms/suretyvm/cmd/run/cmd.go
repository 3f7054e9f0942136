// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"github.com/spf13/cobra"

	"github.com/luxfi/log"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "suretyd",
		Short: "Runs the flight surety daemon",
		RunE:  runFunc,
	}
	flags := c.Flags()
	AddFlags(flags)
	return c
}

func runFunc(c *cobra.Command, args []string) error {
	config, err := ParseFlags(c.Flags(), args)
	if err != nil {
		return err
	}
	return Run(c.Context(), log.NewLogger("suretyd"), config)
}
