package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"book-search/internal/client"
	"book-search/internal/logging"
)

const (
	serverEnv     = "BOOKSEARCH_SERVER"
	defaultServer = "http://localhost:8080"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	server   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "booksearch",
		Short:         "Upload books to and search a book-search server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv(serverEnv)
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server, "backend base URL (env "+serverEnv+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newUploadCmd(opts), newSearchCmd(opts))
	return root
}

// newClient builds the backend client with a logger writing to stderr.
func (o *options) newClient() (*client.Client, *zap.Logger, error) {
	logger, err := logging.New(o.logLevel, "text")
	if err != nil {
		return nil, nil, err
	}
	logger = logging.Service(logger, "booksearch")

	c, err := client.New(o.server, client.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return c, logger, nil
}
