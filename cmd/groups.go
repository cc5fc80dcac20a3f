// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pvmetrics/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// groupsCmd represents the groups command
var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List company groups",
	Long: `Company groups collect the companies of an industry bucket. The
unlevered beta of a company is the average industry beta of the groups it
belongs to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		groups, err := myLibrary.Groups(ctx)
		if err != nil {
			return fmt.Errorf("could not list groups: %w", err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Name", "Members"})
		for _, group := range groups {
			members, err := myLibrary.GroupMembers(ctx, group.ID)
			if err != nil {
				return fmt.Errorf("could not list members of group %s: %w", group.Name, err)
			}
			table.Append([]string{fmt.Sprintf("%d", group.ID), group.Name, fmt.Sprintf("%d", len(members))})
		}
		table.Render()

		return nil
	},
}

var groupsAddCmd = &cobra.Command{
	Use:   "add <group> <ticker>...",
	Short: "Add companies to a group, creating it if needed",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		groupID, err := myLibrary.GroupID(ctx, args[0], true)
		if err != nil {
			return fmt.Errorf("could not create group %s: %w", args[0], err)
		}

		ids, err := tickerIDs(ctx, myLibrary, args[1:])
		if err != nil {
			return err
		}

		n, err := myLibrary.AddGroupMembers(ctx, groupID, ids)
		if err != nil {
			return fmt.Errorf("could not add members to group %s: %w", args[0], err)
		}

		log.Info().Str("Group", args[0]).Int("NumCompanies", n).Msg("companies added to group")
		return nil
	},
}

var groupsRemoveCmd = &cobra.Command{
	Use:   "remove <group> <ticker>...",
	Short: "Remove companies from a group",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		groupID, err := myLibrary.GroupID(ctx, args[0], false)
		if err != nil {
			return fmt.Errorf("could not find group %s: %w", args[0], err)
		}

		ids, err := tickerIDs(ctx, myLibrary, args[1:])
		if err != nil {
			return err
		}

		n, err := myLibrary.RemoveGroupMembers(ctx, groupID, ids)
		if err != nil {
			return fmt.Errorf("could not remove members from group %s: %w", args[0], err)
		}

		log.Info().Str("Group", args[0]).Int("NumCompanies", n).Msg("companies removed from group")
		return nil
	},
}

var groupsDeleteCmd = &cobra.Command{
	Use:   "delete <group>",
	Short: "Delete a group and its memberships",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		groupID, err := myLibrary.GroupID(ctx, args[0], false)
		if err != nil {
			return fmt.Errorf("could not find group %s: %w", args[0], err)
		}

		if err := myLibrary.DeleteGroup(ctx, groupID); err != nil {
			return fmt.Errorf("could not delete group %s: %w", args[0], err)
		}

		log.Info().Str("Group", args[0]).Msg("group deleted")
		return nil
	},
}

// tickerIDs resolves each ticker to a company id
func tickerIDs(ctx context.Context, myLibrary *library.Library, tickers []string) ([]int64, error) {
	ids := make([]int64, 0, len(tickers))
	for _, ticker := range tickers {
		company, err := myLibrary.CompanyByTicker(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("could not find company %s: %w", ticker, err)
		}
		ids = append(ids, company.ID)
	}
	return ids, nil
}

func init() {
	rootCmd.AddCommand(groupsCmd)
	groupsCmd.AddCommand(groupsAddCmd)
	groupsCmd.AddCommand(groupsRemoveCmd)
	groupsCmd.AddCommand(groupsDeleteCmd)
}
