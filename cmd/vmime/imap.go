package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vmime.dev/vmime/imapclient"
)

var (
	imapUser     string
	imapPassword string
	imapMailbox  string

	imapCmd = &cobra.Command{
		Use:   "imap [addr]",
		Short: "log in and list a mailbox over IMAP",
		Args:  cobra.ExactArgs(1),
		Run:   runIMAP,
	}
)

func init() {
	imapCmd.Flags().StringVarP(&imapUser, "user", "u", "", "login username")
	imapCmd.Flags().StringVarP(&imapPassword, "password", "p", "", "login password")
	imapCmd.Flags().StringVarP(&imapMailbox, "mailbox", "m", "INBOX", "mailbox to select")
	rootCmd.AddCommand(imapCmd)
}

func runIMAP(cmd *cobra.Command, args []string) {
	log := logrus.StandardLogger()
	conn, err := imapclient.Dial(args[0], imapclient.Config{Log: log})
	if err != nil {
		log.WithError(err).Fatal("vmime imap: dial failed")
	}
	defer conn.Logout()

	if imapUser != "" {
		if err := conn.Login(imapUser, imapPassword); err != nil {
			log.WithError(err).Fatal("vmime imap: login failed")
		}
	}

	folder, err := conn.Select(imapMailbox)
	if err != nil {
		log.WithError(err).Fatal("vmime imap: select failed")
	}
	fmt.Printf("%s: %d messages, %d recent, uidvalidity=%d, read-write=%v\n",
		folder.Name, folder.MessageCount, folder.Recent, folder.UIDValidity, folder.ReadWrite)
}
