package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/brutaldon/internal/auth"
	"github.com/desertthunder/brutaldon/internal/formatter"
	"github.com/desertthunder/brutaldon/internal/models"
	"github.com/desertthunder/brutaldon/internal/repositories"
	"github.com/urfave/cli/v3"
)

// ClientsList prints every stored client registration.
func (r *Runner) ClientsList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	clients, err := repositories.NewClientRepository(db).List(nil)
	if err != nil {
		return err
	}

	return r.writeRows(cmd, "Clients", formatter.ClientHeaders, formatter.ClientRows(clients, cmd.Bool("reveal")))
}

// AccountsList prints stored accounts, optionally only those of one instance.
func (r *Runner) AccountsList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	clientRepo := repositories.NewClientRepository(db)
	clients, err := clientRepo.List(nil)
	if err != nil {
		return err
	}

	instances := make(map[string]string, len(clients))
	for _, c := range clients {
		instances[c.ID()] = c.Instance()
	}

	criteria := map[string]any{}
	if raw := cmd.String("instance"); raw != "" {
		instance, err := auth.NormalizeInstanceURL(raw)
		if err != nil {
			return err
		}

		lookup, err := clientRepo.FindByInstance(instance)
		if err != nil {
			return err
		}
		if lookup.Outcome != models.Found {
			return fmt.Errorf("no single client registration for %s (%s)", instance, lookup.Outcome)
		}
		criteria["client_ref"] = lookup.Record.ID()
	}

	accounts, err := repositories.NewAccountRepository(db).List(criteria)
	if err != nil {
		return err
	}

	return r.writeRows(cmd, "Accounts", formatter.AccountHeaders, formatter.AccountRows(accounts, instances, cmd.Bool("reveal")))
}

func (r *Runner) writeRows(cmd *cli.Command, title string, headers []string, rows [][]string) error {
	if cmd.Bool("csv") {
		data, err := formatter.ToCSV(headers, rows)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	if len(rows) == 0 {
		return r.writePlain("%s\n", formatter.Warn("No "+title+" stored"))
	}

	r.writePlain("%s\n", formatter.Title(fmt.Sprintf("%s (%d)", title, len(rows))))
	return r.writePlain("%s\n", formatter.ToTable(headers, rows))
}
