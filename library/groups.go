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

package library

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/rs/zerolog/log"
)

var (
	ErrGroupNotFound = errors.New("company group not found")
	ErrEmptyName     = errors.New("group name is empty")
)

// GroupID returns the id of the named group, creating it when create is set
func (myLibrary *Library) GroupID(ctx context.Context, name string, create bool) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyName
	}

	var id int64
	err := myLibrary.Pool.QueryRow(ctx, `SELECT id FROM company_groups WHERE name=$1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	if !create {
		return 0, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}

	sql := `INSERT INTO company_groups (name) VALUES ($1)
	ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
	RETURNING id`
	if err := myLibrary.Pool.QueryRow(ctx, sql, name).Scan(&id); err != nil {
		log.Error().Err(err).Str("SQL", sql).Str("Group", name).Msg("could not create company group")
		return 0, err
	}

	return id, nil
}

// Groups returns every company group ordered by name
func (myLibrary *Library) Groups(ctx context.Context) ([]*data.Group, error) {
	var groups []*data.Group
	err := pgxscan.Select(ctx, myLibrary.Pool, &groups, `SELECT id, name FROM company_groups ORDER BY name`)
	return groups, err
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AddGroupMembers adds companies to the group. Companies already in the group
// are left alone. Returns the number of distinct companies requested.
func (myLibrary *Library) AddGroupMembers(ctx context.Context, groupID int64, companyIDs []int64) (int, error) {
	ids := uniqueIDs(companyIDs)
	if len(ids) == 0 {
		return 0, nil
	}

	sql := `INSERT INTO company_group_members (group_id, company_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	args := make([][]interface{}, len(ids))
	for idx, id := range ids {
		args[idx] = []interface{}{groupID, id}
	}

	if err := myLibrary.execBatch(ctx, "error adding company group members", "", sql, args); err != nil {
		return 0, err
	}

	return len(ids), nil
}

// RemoveGroupMembers removes companies from the group. Returns the number of
// distinct companies requested.
func (myLibrary *Library) RemoveGroupMembers(ctx context.Context, groupID int64, companyIDs []int64) (int, error) {
	ids := uniqueIDs(companyIDs)
	if len(ids) == 0 {
		return 0, nil
	}

	sql := `DELETE FROM company_group_members WHERE group_id=$1 AND company_id = ANY($2)`
	if _, err := myLibrary.Pool.Exec(ctx, sql, groupID, ids); err != nil {
		log.Error().Err(err).Str("SQL", sql).Int64("GroupID", groupID).Msg("error removing company group members")
		return 0, err
	}

	return len(ids), nil
}

// DeleteGroup deletes the group along with its memberships
func (myLibrary *Library) DeleteGroup(ctx context.Context, groupID int64) error {
	_, err := myLibrary.Pool.Exec(ctx, `DELETE FROM company_groups WHERE id=$1`, groupID)
	return err
}

// GroupMembers returns the companies of the group ordered by id
func (myLibrary *Library) GroupMembers(ctx context.Context, groupID int64) ([]*data.Company, error) {
	var companies []*data.Company
	err := pgxscan.Select(ctx, myLibrary.Pool, &companies, `SELECT c.id, c.name, c.ticker, c.country
	FROM companies c JOIN company_group_members m ON m.company_id = c.id
	WHERE m.group_id=$1 ORDER BY c.id`, groupID)
	return companies, err
}
