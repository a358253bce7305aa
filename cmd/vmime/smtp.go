package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vmime.dev/vmime/smtpclient"
)

var (
	smtpFrom string
	smtpTo   []string

	smtpCmd = &cobra.Command{
		Use:   "smtp [addr]",
		Short: "send a one-line test message over SMTP",
		Args:  cobra.ExactArgs(1),
		Run:   runSMTP,
	}
)

func init() {
	smtpCmd.Flags().StringVar(&smtpFrom, "from", "", "envelope sender")
	smtpCmd.Flags().StringSliceVar(&smtpTo, "to", nil, "envelope recipient(s)")
	rootCmd.AddCommand(smtpCmd)
}

func runSMTP(cmd *cobra.Command, args []string) {
	log := logrus.StandardLogger()
	client, err := smtpclient.Dial(args[0], smtpclient.Config{Log: log})
	if err != nil {
		log.WithError(err).Fatal("vmime smtp: dial failed")
	}
	defer client.Quit()

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: vmime test\r\n\r\nsent by vmime smtp\r\n", smtpFrom, strings.Join(smtpTo, ", "))
	results, err := client.Send(smtpFrom, smtpTo, int64(len(body)), strings.NewReader(body))
	if err != nil {
		log.WithError(err).Fatal("vmime smtp: send failed")
	}
	for _, r := range results {
		if r.Err != nil {
			log.WithError(r.Err).WithField("recipient", r.Address).Warn("vmime smtp: recipient rejected")
			continue
		}
		fmt.Printf("%s: accepted\n", r.Address)
	}
}
