package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/policy-keeper/internal/api"
	"github.com/and161185/policy-keeper/internal/convert"
	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
)

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---- clients ----

func newClientsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "clients", Short: "Client records"}

	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List clients, optionally filtered by --search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			cs, err := c.ListClients(ctx, search)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tIDENTIFICATION\tNAME\tEMAIL\tPHONE")
			for _, x := range cs {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", x.ID, x.IdentificationNumber, x.FullName, x.Email, x.Phone)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&search, "search", "", "substring of identification number, name or email")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			x, err := c.GetClient(ctx, id)
			if err != nil {
				return err
			}
			return a.printJSON(convert.ToAPIClient(*x))
		},
	}

	var (
		req  api.ClientRequest
		file string
	)
	bind := func(c *cobra.Command) {
		c.Flags().StringVar(&req.IdentificationNumber, "id-number", "", "10-digit identification number")
		c.Flags().StringVar(&req.FullName, "name", "", "full name")
		c.Flags().StringVar(&req.Email, "email", "", "email address")
		c.Flags().StringVar(&req.Phone, "phone", "", "phone number")
		c.Flags().StringVarP(&file, "file", "f", "", "read the JSON body from a file (- for stdin)")
	}
	load := func() error {
		if file == "" {
			return nil
		}
		b, err := a.readAll(file)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, &req)
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := load(); err != nil {
				return err
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			x, err := c.CreateClient(ctx, req)
			if err != nil {
				return err
			}
			a.log.Debug("client created", zap.Int64("id", x.ID))
			return a.printJSON(convert.ToAPIClient(*x))
		},
	}
	bind(create)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Overwrite all fields of a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := load(); err != nil {
				return err
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := c.UpdateClient(ctx, id, req); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "client %d updated\n", id)
			return err
		},
	}
	bind(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client and all of its policies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := c.DeleteClient(ctx, id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "client %d deleted\n", id)
			return err
		},
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}

// ---- policies ----

func printPolicies(a *app, ps []model.Policy) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCLIENT\tTYPE\tSTATUS\tSTART\tEND\tAMOUNT")
	for _, p := range ps {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%.2f\n", p.ID, p.ClientID, p.Type, p.Status,
			p.StartDate.Format(api.DateLayout), p.EndDate.Format(api.DateLayout), p.InsuredAmount)
	}
	return tw.Flush()
}

// optDate parses a non-empty flag value into *time.Time.
func optDate(name, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := api.ParseDate(v)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}

func newPoliciesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "policies", Short: "Insurance policies"}

	var f struct{ typ, status, startFrom, startTo, endFrom, endTo string }
	list := &cobra.Command{
		Use:   "list",
		Short: "List policies matching every given filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var q query.Policies
			if f.typ != "" {
				t, err := model.ParsePolicyType(f.typ)
				if err != nil {
					return err
				}
				q.Type = &t
			}
			if f.status != "" {
				s, err := model.ParsePolicyStatus(f.status)
				if err != nil {
					return err
				}
				q.Status = &s
			}
			var err error
			if q.StartDateFrom, err = optDate("start-from", f.startFrom); err != nil {
				return err
			}
			if q.StartDateTo, err = optDate("start-to", f.startTo); err != nil {
				return err
			}
			if q.EndDateFrom, err = optDate("end-from", f.endFrom); err != nil {
				return err
			}
			if q.EndDateTo, err = optDate("end-to", f.endTo); err != nil {
				return err
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			ps, err := c.ListPolicies(ctx, q)
			if err != nil {
				return err
			}
			return printPolicies(a, ps)
		},
	}
	list.Flags().StringVar(&f.typ, "type", "", "Life|Automobile|Health|Home")
	list.Flags().StringVar(&f.status, "status", "", "Active|Cancelled")
	list.Flags().StringVar(&f.startFrom, "start-from", "", "start date lower bound (YYYY-MM-DD)")
	list.Flags().StringVar(&f.startTo, "start-to", "", "start date upper bound")
	list.Flags().StringVar(&f.endFrom, "end-from", "", "end date lower bound")
	list.Flags().StringVar(&f.endTo, "end-to", "", "end date upper bound")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			p, err := c.GetPolicy(ctx, id)
			if err != nil {
				return err
			}
			return a.printJSON(convert.ToAPIPolicy(*p))
		},
	}

	var cr struct {
		typ, start, end string
		amount          float64
		clientID        int64
	}
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an Active policy for an existing client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			typ, err := model.ParsePolicyType(cr.typ)
			if err != nil {
				return err
			}
			start, err := api.ParseDate(cr.start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			end, err := api.ParseDate(cr.end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			p, err := c.CreatePolicy(ctx, api.PolicyRequest{
				Type: typ, StartDate: api.NewDate(start), EndDate: api.NewDate(end),
				InsuredAmount: cr.amount, ClientID: cr.clientID,
			})
			if err != nil {
				return err
			}
			return a.printJSON(convert.ToAPIPolicy(*p))
		},
	}
	create.Flags().StringVar(&cr.typ, "type", "", "Life|Automobile|Health|Home")
	create.Flags().StringVar(&cr.start, "start", "", "start date (YYYY-MM-DD)")
	create.Flags().StringVar(&cr.end, "end", "", "end date (YYYY-MM-DD)")
	create.Flags().Float64Var(&cr.amount, "amount", 0, "insured amount")
	create.Flags().Int64Var(&cr.clientID, "client", 0, "owning client id")

	var st struct {
		status, typ, start, end string
		amount                  float64
		clientID                int64
	}
	status := &cobra.Command{
		Use:   "status <id>",
		Short: "Set a policy's status and optionally other fields (no transition checks)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := model.ParsePolicyStatus(st.status)
			if err != nil {
				return err
			}
			req := api.PolicyStatusRequest{Status: s}
			if cmd.Flags().Changed("type") {
				t, err := model.ParsePolicyType(st.typ)
				if err != nil {
					return err
				}
				req.Type = &t
			}
			for _, d := range []struct {
				name, v string
				dst     **api.Date
			}{{"start", st.start, &req.StartDate}, {"end", st.end, &req.EndDate}} {
				t, err := optDate(d.name, d.v)
				if err != nil {
					return err
				}
				if t != nil {
					v := api.NewDate(*t)
					*d.dst = &v
				}
			}
			if cmd.Flags().Changed("amount") {
				req.InsuredAmount = &st.amount
			}
			if cmd.Flags().Changed("client") {
				req.ClientID = &st.clientID
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := c.UpdatePolicyStatus(ctx, id, req); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "policy %d updated\n", id)
			return err
		},
	}
	status.Flags().StringVar(&st.status, "status", "", "Active|Cancelled (required)")
	status.Flags().StringVar(&st.typ, "type", "", "new type")
	status.Flags().StringVar(&st.start, "start", "", "new start date")
	status.Flags().StringVar(&st.end, "end", "", "new end date")
	status.Flags().Float64Var(&st.amount, "amount", 0, "new insured amount")
	status.Flags().Int64Var(&st.clientID, "client", 0, "new owning client id")
	_ = status.MarkFlagRequired("status")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := c.DeletePolicy(ctx, id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "policy %d deleted\n", id)
			return err
		},
	}

	cmd.AddCommand(list, get, create, status, del)
	return cmd
}

// ---- customer ----

func newCustomerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "customer", Short: "Customer-scoped actions"}

	var status string
	policies := &cobra.Command{
		Use:   "policies <client-id>",
		Short: "List a customer's policies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var st *model.PolicyStatus
			if status != "" {
				s, err := model.ParsePolicyStatus(status)
				if err != nil {
					return err
				}
				st = &s
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			ps, err := c.ListCustomerPolicies(ctx, id, st)
			if err != nil {
				return err
			}
			return printPolicies(a, ps)
		},
	}
	policies.Flags().StringVar(&status, "status", "", "Active|Cancelled")

	cancelCmd := &cobra.Command{
		Use:   "cancel <client-id> <policy-id>",
		Short: "Cancel an Active policy owned by the customer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := parseID(args[0])
			if err != nil {
				return err
			}
			policyID, err := parseID(args[1])
			if err != nil {
				return err
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := c.CancelPolicy(ctx, clientID, policyID); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "policy %d cancelled\n", policyID)
			return err
		},
	}

	var email, phone string
	profile := &cobra.Command{
		Use:   "profile <client-id>",
		Short: "Update a customer's email and/or phone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var req api.ProfileRequest
			if cmd.Flags().Changed("email") {
				req.Email = &email
			}
			if cmd.Flags().Changed("phone") {
				req.Phone = &phone
			}
			if req.Email == nil && req.Phone == nil {
				return fmt.Errorf("nothing to update: pass --email and/or --phone")
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := c.UpdateProfile(ctx, id, req); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "profile of client %d updated\n", id)
			return err
		},
	}
	profile.Flags().StringVar(&email, "email", "", "new email")
	profile.Flags().StringVar(&phone, "phone", "", "new phone")

	cmd.AddCommand(policies, cancelCmd, profile)
	return cmd
}
