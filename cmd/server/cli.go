package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grzegorczykanna/UBSWebAPI/internal/config"
	"github.com/grzegorczykanna/UBSWebAPI/internal/domain"
	"github.com/grzegorczykanna/UBSWebAPI/internal/logging"
	"github.com/grzegorczykanna/UBSWebAPI/internal/render"
	"github.com/grzegorczykanna/UBSWebAPI/internal/service"
	"github.com/grzegorczykanna/UBSWebAPI/internal/view"
)

type rootFlags struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "server",
		Short:        "HTTP facade over the REST Countries API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "path to a YAML, JSON or TOML config file")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newServeCmd(flags), newFetchCmd(flags))
	return root
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, flags)
		},
	}
}

func serve(cmd *cobra.Command, flags *rootFlags) error {
	cfg, log, err := setup(flags)
	if err != nil {
		return err
	}
	return run(cmd.Context(), cfg, log)
}

func newFetchCmd(flags *rootFlags) *cobra.Command {
	var (
		viewName   string
		formatName string
	)

	cmd := &cobra.Command{
		Use:   "fetch <region|subregion> <name>",
		Short: "Run one query against the upstream API and print the result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := domain.PartitionKind(args[0])
			if !kind.Valid() {
				return fmt.Errorf("unknown partition kind %q", args[0])
			}
			v, err := view.ParseKind(viewName)
			if err != nil {
				return err
			}
			format, err := render.ParseFormat(formatName)
			if err != nil {
				return err
			}

			cfg, log, err := setup(flags)
			if err != nil {
				return err
			}
			svc, closer, err := newService(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closer.Close()

			rs, err := svc.Query(cmd.Context(), service.Query{Kind: kind, Key: args[1], View: v})
			if err != nil {
				return err
			}
			payload, err := render.Render(rs, format, render.Options{})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(payload.Body)
			return err
		},
	}
	cmd.Flags().StringVar(&viewName, "view", string(view.All), "biggest, borders, population or all")
	cmd.Flags().StringVar(&formatName, "format", string(render.JSON), "json or csv")
	return cmd
}

func setup(flags *rootFlags) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(flags.configFile, flags.envFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
