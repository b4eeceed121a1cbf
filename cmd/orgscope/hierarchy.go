package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
)

func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <registration> [national-id]",
		Short: "Resolve and sanitize an employee's hierarchy path",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect()
			if err != nil {
				return err
			}
			defer e.Close()

			nationalID := ""
			if len(args) == 2 {
				nationalID = args[1]
			}

			info, err := e.svc.Resolver.Resolve(cmd.Context(), args[0], nationalID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}

// LevelReport compares both classifiers for one position
type LevelReport struct {
	Path        string `json:"path"`
	Department  string `json:"department"`
	Responsible bool   `json:"responsible"`
	Level       int    `json:"level"`
	Role        string `json:"role"`
	Heuristic   int    `json:"heuristic_level"`
	Discrepancy bool   `json:"discrepancy"`
}

func newLevelCmd() *cobra.Command {
	var responsible bool

	cmd := &cobra.Command{
		Use:   "level <path> <department>",
		Short: "Classify a hierarchy position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			confirmed, heuristic, differ := domain.Discrepancy(args[0], args[1], responsible)
			return printJSON(cmd.OutOrStdout(), LevelReport{
				Path:        args[0],
				Department:  args[1],
				Responsible: responsible,
				Level:       confirmed,
				Role:        domain.RoleForLevel(confirmed),
				Heuristic:   heuristic,
				Discrepancy: differ,
			})
		},
	}
	cmd.Flags().BoolVar(&responsible, "responsible", false, "the employee is responsible for the department")
	return cmd
}

// ScopeReport describes a resolved access scope
type ScopeReport struct {
	UserID      int64   `json:"user_id"`
	Privileged  bool    `json:"privileged"`
	Users       []int64 `json:"users,omitempty"`
	Count       int     `json:"count"`
	Fingerprint string  `json:"fingerprint"`
}

func newScopeCmd() *cobra.Command {
	var userID int64
	var direct bool

	cmd := &cobra.Command{
		Use:   "scope",
		Short: "Resolve the access scope of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user-id is required")
			}
			e, err := connect()
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.svc.Directory.Identify(cmd.Context(), domain.Subject{UserID: userID})
			if err != nil {
				return err
			}
			scope := e.svc.Scopes.Resolve(cmd.Context(), s, domain.ScopeOptions{DirectReportsOnly: direct})
			return printJSON(cmd.OutOrStdout(), scopeReport(userID, scope))
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "account id")
	cmd.Flags().BoolVar(&direct, "direct", false, "direct reports only")
	return cmd
}

func scopeReport(userID int64, scope domain.AccessScope) ScopeReport {
	r := ScopeReport{
		UserID:      userID,
		Privileged:  scope.Privileged,
		Fingerprint: scope.Fingerprint(),
	}
	if !scope.Privileged {
		r.Users = scope.IDs()
		r.Count = scope.Len()
	}
	return r
}

func newSyncAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-all",
		Short: "Recompute the cached hierarchy path of every active account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect()
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := e.svc.Directory.SyncAll(cmd.Context())
			if err != nil {
				return err
			}
			e.log.Info().
				Int64("total", report.Total).
				Int64("changed", report.Changed).
				Int64("failed", report.Failed).
				Msg("hierarchy paths synced")
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}
