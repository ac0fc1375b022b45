package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	root := &cobra.Command{
		Use:           "movieclub",
		Short:         "Movie club catalog REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(logger), newSeedCmd(logger))

	// bare invocation serves
	if len(os.Args) == 1 {
		root.SetArgs([]string{"serve"})
	}

	if err := root.ExecuteContext(context.Background()); err != nil {
		logger.Fatalf("%v", err)
	}
}
