package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vmime.dev/vmime/pop3"
)

var (
	pop3User     string
	pop3Password string

	pop3Cmd = &cobra.Command{
		Use:   "pop3 [addr]",
		Short: "log in and report mailbox stats over POP3",
		Args:  cobra.ExactArgs(1),
		Run:   runPOP3,
	}
)

func init() {
	pop3Cmd.Flags().StringVarP(&pop3User, "user", "u", "", "login username")
	pop3Cmd.Flags().StringVarP(&pop3Password, "password", "p", "", "login password")
	rootCmd.AddCommand(pop3Cmd)
}

func runPOP3(cmd *cobra.Command, args []string) {
	log := logrus.StandardLogger()
	client, err := pop3.Dial(args[0], pop3.Config{Log: log})
	if err != nil {
		log.WithError(err).Fatal("vmime pop3: dial failed")
	}
	defer client.Quit()

	if pop3User != "" {
		if err := client.User(pop3User); err != nil {
			log.WithError(err).Fatal("vmime pop3: USER failed")
		}
		if err := client.Pass(pop3Password); err != nil {
			log.WithError(err).Fatal("vmime pop3: PASS failed")
		}
	}

	count, octets, err := client.Stat()
	if err != nil {
		log.WithError(err).Fatal("vmime pop3: STAT failed")
	}
	fmt.Printf("%d messages, %d octets\n", count, octets)
}
