package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"order-assistant/assistant"
	"order-assistant/database"
	"order-assistant/store"
)

var statusCmd = &cobra.Command{
	Use:     "status <session-id>",
	Short:   "Print the order status of a session as JSON",
	Args:    cobra.ExactArgs(1),
	Example: "  order-assistant status 3f1c2a9e-7d4b-4c1e-9a55-0b6f1e2d8c70",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}

		db, err := database.Connect(cfg.Database, log)
		if err != nil {
			return err
		}
		defer database.Close(db, log)

		svc := assistant.NewService(assistant.Options{Store: store.NewGormStore(db), Logger: log})

		var out any
		report, err := svc.Status(cmd.Context(), args[0])
		switch {
		case errors.Is(err, store.ErrNotFound):
			out = map[string]string{"status": "not_found"}
		case err != nil:
			return err
		default:
			out = report
		}

		raw, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return err
	},
}
