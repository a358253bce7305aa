// Command vmime is a thin sample CLI over the protocol clients; the
// engine itself has no CLI surface (sample/CLI code is not part of the
// core).
package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vmime",
	Short: "sample mail protocol client",
	Long:  "vmime dials IMAP, POP3, or SMTP servers using the vmime.dev/vmime protocol clients and prints what it finds.",
}

var verbose bool

func init() {
	cobra.OnInitialize()
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print protocol traces")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.InfoLevel)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("vmime: command failed")
	}
}
