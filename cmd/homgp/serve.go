package main

import (
	"github.com/spf13/cobra"

	"github.com/llm-d-incubation/homgp/pkg/rest"
)

func newServeCmd() *cobra.Command {
	var stateful bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST server",
		Long:  `Run the REST server on HOMGP_HOST:HOMGP_PORT, stateless by default.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var server rest.RESTServer
			if stateful {
				server = rest.NewStateFullServer()
			} else {
				server = rest.NewStateLessServer()
			}
			return server.Run()
		},
	}
	cmd.Flags().BoolVarP(&stateful, "stateful", "F", false, "keep fitted models between calls")
	return cmd
}
