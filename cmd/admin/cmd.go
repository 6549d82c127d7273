package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"printshop-scheduler/internal/auth"
	"printshop-scheduler/internal/model"
	"printshop-scheduler/internal/ranking"
)

var errHelp = errors.New("help provided")

// adminStore is satisfied by *store.Store and *memstore.Store.
type adminStore interface {
	AddToRoster(ctx context.Context, ids ...string) (int, error)
	RemoveFromRoster(ctx context.Context, id string) (bool, error)
	SetPaid(ctx context.Context, studentID string, paid bool) (bool, error)
	SetAdmin(ctx context.Context, email string, admin bool) (bool, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	ListAppointments(ctx context.Context, email string) ([]model.Appointment, error)
}

type commandLine struct {
	store   adminStore
	migrate func(ctx context.Context) error
	secret  string
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate                                 - apply the schema")
	fmt.Fprintln(cli.out, "  roster -add ID[,ID...] | -remove ID     - edit the paid-student roster")
	fmt.Fprintln(cli.out, "  setpaid -sid ID [-paid=false]           - set or revoke a student's paid flag")
	fmt.Fprintln(cli.out, "  setadmin -email EMAIL [-admin=false]    - grant or revoke admin")
	fmt.Fprintln(cli.out, "  accounts                                - list accounts")
	fmt.Fprintln(cli.out, "  appointments [-status Pending|Done|Cancelled|All] - list the print queue")
	fmt.Fprintln(cli.out, "  token -email EMAIL -name NAME -role ROLE [-sid ID] [-ttl 1h] - mint a dev token")
}

func (cli *commandLine) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	rosterCmd := cli.flags("roster")
	rosterAdd := rosterCmd.String("add", "", "Comma-separated student ids to add.")
	rosterRemove := rosterCmd.String("remove", "", "Student id to remove.")

	setPaidCmd := cli.flags("setpaid")
	setPaidSID := setPaidCmd.String("sid", "", "The student's id.")
	setPaidValue := setPaidCmd.Bool("paid", true, "New value of the paid flag.")

	setAdminCmd := cli.flags("setadmin")
	setAdminEmail := setAdminCmd.String("email", "", "The account's email.")
	setAdminValue := setAdminCmd.Bool("admin", true, "New value of the admin flag.")

	apptCmd := cli.flags("appointments")
	apptStatus := apptCmd.String("status", model.DefaultFilter, "Status filter.")

	tokenCmd := cli.flags("token")
	tokenEmail := tokenCmd.String("email", "", "Principal email.")
	tokenName := tokenCmd.String("name", "", "Display name.")
	tokenRole := tokenCmd.String("role", "Student", "Student or Faculty.")
	tokenSID := tokenCmd.String("sid", "", "Student id.")
	tokenTTL := tokenCmd.Duration("ttl", time.Hour, "Token lifetime.")

	switch args[1] {
	case "migrate":
		if cli.migrate == nil {
			return errors.New("migrate: not supported by this store")
		}
		if err := cli.migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "migration applied")
		return nil
	case "roster":
		if err := rosterCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if (*rosterAdd == "") == (*rosterRemove == "") {
			rosterCmd.Usage()
			return errHelp
		}
		return cli.roster(ctx, *rosterAdd, *rosterRemove)
	case "setpaid":
		if err := setPaidCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *setPaidSID == "" {
			setPaidCmd.Usage()
			return errHelp
		}
		return cli.setPaid(ctx, *setPaidSID, *setPaidValue)
	case "setadmin":
		if err := setAdminCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *setAdminEmail == "" {
			setAdminCmd.Usage()
			return errHelp
		}
		return cli.setAdmin(ctx, *setAdminEmail, *setAdminValue)
	case "accounts":
		return cli.accounts(ctx)
	case "appointments":
		if err := apptCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.appointments(ctx, *apptStatus)
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *tokenEmail == "" || *tokenName == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(auth.Principal{Email: *tokenEmail, Name: *tokenName, Role: *tokenRole, StudentID: *tokenSID}, *tokenTTL)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) roster(ctx context.Context, add, remove string) error {
	if remove != "" {
		ok, err := cli.store.RemoveFromRoster(ctx, remove)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("student %s is not on the roster", remove)
		}
		fmt.Fprintf(cli.out, "removed %s\n", remove)
		return nil
	}
	var ids []string
	for _, id := range strings.Split(add, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	n, err := cli.store.AddToRoster(ctx, ids...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "added %d of %d\n", n, len(ids))
	return nil
}

func (cli *commandLine) setPaid(ctx context.Context, sid string, paid bool) error {
	existed, err := cli.store.SetPaid(ctx, sid, paid)
	if err != nil {
		return err
	}
	if !existed {
		fmt.Fprintf(cli.out, "no account with student id %s yet\n", sid)
		return nil
	}
	fmt.Fprintf(cli.out, "paid=%t for %s\n", paid, sid)
	return nil
}

func (cli *commandLine) setAdmin(ctx context.Context, email string, admin bool) error {
	email = strings.ToLower(email)
	existed, err := cli.store.SetAdmin(ctx, email, admin)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%s: %w", email, model.ErrNotFound)
	}
	fmt.Fprintf(cli.out, "admin=%t for %s\n", admin, email)
	return nil
}

func (cli *commandLine) accounts(ctx context.Context) error {
	list, err := cli.store.ListAccounts(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tNAME\tROLE\tSTUDENT ID\tPAID\tADMIN")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\n", a.Email, a.Name, a.Role, a.StudentID, a.IsPaid, a.IsAdmin)
	}
	return tw.Flush()
}

// appointments prints the queue in the same order the admin view uses.
func (cli *commandLine) appointments(ctx context.Context, status string) error {
	f, err := model.ParseStatusFilter(status)
	if err != nil {
		return err
	}
	list, err := cli.store.ListAppointments(ctx, "")
	if err != nil {
		return err
	}
	list = ranking.Rank(ranking.Filter(list, f), ranking.Global)

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tURGENCY\tDATE\tTIME\tNAME\tFILE\tCOPIES\tPAPER")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			a.RequestID, a.Status, a.Urgency, a.Date, a.Time, a.Name, a.File, a.Copies, a.PaperSize)
	}
	return tw.Flush()
}

func (cli *commandLine) token(p auth.Principal, ttl time.Duration) error {
	if _, err := model.ParseRole(p.Role); err != nil {
		return err
	}
	tok, err := auth.MakeToken(p, cli.secret, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, tok)
	return nil
}
