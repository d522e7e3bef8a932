package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibbank/guarantee-messaging/pkg/tlsutil"
)

func newGenCertsCommand() *cobra.Command {
	var (
		outDir string
		hosts  []string
	)
	cmd := &cobra.Command{
		Use:   "gen-certs",
		Short: "write a development CA and server certificate for the gRPC listener",
		RunE: func(cmd *cobra.Command, _ []string) error {
			certs, err := tlsutil.GenerateDevCertificates(hosts, outDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "TLS_CA_FILE=%s\n", certs.CAFile)
			fmt.Fprintf(out, "TLS_CERT_FILE=%s\n", certs.CertFile)
			fmt.Fprintf(out, "TLS_KEY_FILE=%s\n", certs.KeyFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "certs", "output directory")
	cmd.Flags().StringSliceVar(&hosts, "host", []string{"localhost", "127.0.0.1"}, "DNS names or IPs the certificate is valid for")
	return cmd
}
