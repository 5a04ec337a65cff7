package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-api-client/internal/app"
	"github.com/samvad-hq/samvad-api-client/internal/logger"
	"github.com/samvad-hq/samvad-api-client/internal/tokenstore"
	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

type runtimeLoader func(ctx context.Context) (*app.Runtime, error)

type requestFlags struct {
	session string
	retries int
	data    string
}

func newRootCommand(load runtimeLoader, out io.Writer) *cobra.Command {
	flags := &requestFlags{}

	root := &cobra.Command{
		Use:           "apicheck",
		Short:         "Issue requests against the configured backend API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&flags.session, "session", "", "session id whose stored token is sent as a bearer token")
	root.PersistentFlags().IntVar(&flags.retries, "retries", 0, "retry budget for 5xx responses (overrides API_RETRIES)")

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		root.AddCommand(newRequestCommand(load, flags, method, false))
	}
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch} {
		root.AddCommand(newRequestCommand(load, flags, method, true))
	}
	root.AddCommand(newSessionCommand(load))

	return root
}

func newRequestCommand(load runtimeLoader, flags *requestFlags, method string, withBody bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " <path>",
		Short: "Send a " + method + " request and print the parsed response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body any
			if withBody && flags.data != "" {
				if err := json.Unmarshal([]byte(flags.data), &body); err != nil {
					return fmt.Errorf("parse --data: %w", err)
				}
			}

			opts := &httpclient.Options{}
			if cmd.Flags().Changed("retries") {
				opts.Retries = httpclient.Retries(flags.retries)
			}

			ctx := httpclient.WithRequestIDContext(cmd.Context(), uuid.NewString())
			if flags.session != "" {
				ctx = tokenstore.WithSession(ctx, flags.session)
			}

			rt, err := load(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			data, err := rt.Client().Do(ctx, method, args[0], body, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	if withBody {
		cmd.Flags().StringVar(&flags.data, "data", "", "JSON request body")
	}
	return cmd
}

func newSessionCommand(load runtimeLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage stored session tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <session-id> <token>",
		Short: "Store an access token for a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Store().SaveToken(args[0], args[1]); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			logger.InfoObj("session token stored", "session_id", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <session-id>",
		Short: "Remove the stored token for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Store().DeleteToken(args[0]); err != nil {
				return fmt.Errorf("delete token: %w", err)
			}
			logger.InfoObj("session token deleted", "session_id", args[0])
			return nil
		},
	})

	return cmd
}

func printJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}
