package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/and161185/policy-keeper/internal/state"
)

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Load both collections and print a per-client summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()

			store := state.NewStore(c, a.log)
			store.Dispatch(ctx, state.LoadClients{})
			store.Dispatch(ctx, state.LoadPolicies{})
			store.Wait()

			s := store.State()
			if s.Error != "" {
				return fmt.Errorf("dashboard: %s", s.Error)
			}
			fmt.Fprintf(a.out, "clients: %d  policies: %d  active: %d\n", len(s.Clients), len(s.Policies), state.ActivePolicyCount(s))

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPOLICIES\tACTIVE")
			for _, cl := range s.Clients {
				ps := state.PoliciesForClient(s, cl.ID)
				active := state.ActivePolicyCount(state.State{Policies: ps})
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", cl.ID, cl.FullName, len(ps), active)
			}
			return tw.Flush()
		},
	}
}
