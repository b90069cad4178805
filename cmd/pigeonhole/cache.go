package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the result cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show entry count and total size",
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, err := buildServices()
			if err != nil {
				return err
			}

			stats, err := svc.cache.Stats()
			if err != nil {
				return err
			}

			fmt.Printf("Entries: %d\nTotal bytes: %d\n", stats.EntryCount, stats.TotalBytes)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear-expired",
		Short: "Delete expired and unreadable entries",
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, err := buildServices()
			if err != nil {
				return err
			}

			removed, err := svc.cache.ClearExpired()
			if err != nil {
				return err
			}

			fmt.Printf("Removed %d entries\n", removed)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached result",
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, err := buildServices()
			if err != nil {
				return err
			}

			removed, err := svc.cache.ClearAll()
			if err != nil {
				return err
			}

			fmt.Printf("Removed %d entries\n", removed)
			return nil
		},
	})

	return cmd
}
