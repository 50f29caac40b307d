// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package grouping

import (
	"fmt"
	"strings"

	"github.com/rotasmart/rotasmart/reconcile"
	"github.com/rotasmart/rotasmart/utils/textutils"
)

// Summary describes the outcome of a run.
type Summary struct {
	Rows     int                      `json:"rows"`
	Packages int                      `json:"packages"`
	Stops    int                      `json:"stops"`
	Dropped  int                      `json:"dropped"`
	Learned  int                      `json:"learned"`
	ByStatus map[reconcile.Status]int `json:"by_status"`
}

// Summarize counts rows, packages and stops per status.
func Summarize(rows []reconcile.ReconciledAddress, stops []Stop) Summary {
	sum := Summary{
		Rows:     len(rows),
		Packages: Packages(rows),
		Stops:    len(stops),
		ByStatus: make(map[reconcile.Status]int),
	}

	grouped := 0

	for _, s := range stops {
		sum.ByStatus[s.Status]++
		grouped += len(s.Rows)

		if s.Learned {
			sum.Learned++
		}
	}

	sum.Dropped = len(rows) - grouped

	return sum
}

func (s Summary) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s rows, %s packages, %s stops",
		textutils.FormatInt(int64(s.Rows)), textutils.FormatInt(int64(s.Packages)), textutils.FormatInt(int64(s.Stops)))

	for _, st := range []reconcile.Status{
		reconcile.StatusValid, reconcile.StatusCorrected, reconcile.StatusMismatch, reconcile.StatusPending,
	} {
		if n := s.ByStatus[st]; n > 0 {
			fmt.Fprintf(&b, ", %d %s", n, st)
		}
	}

	if s.Learned > 0 {
		fmt.Fprintf(&b, ", %d learned", s.Learned)
	}

	if s.Dropped > 0 {
		fmt.Fprintf(&b, ", %d dropped", s.Dropped)
	}

	return b.String()
}
