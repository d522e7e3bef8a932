package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	grpcPresentation "github.com/bibbank/guarantee-messaging/internal/presentation/grpc"
	"github.com/bibbank/guarantee-messaging/pkg/tlsutil"
)

type remoteFlags struct {
	addr       string
	caFile     string
	serverName string
}

func (f *remoteFlags) dial() (*grpcPresentation.Client, error) {
	var creds credentials.TransportCredentials
	if f.caFile != "" {
		c, err := tlsutil.ClientCredentials(f.caFile, f.serverName)
		if err != nil {
			return nil, err
		}
		creds = c
	} else {
		creds = insecure.NewCredentials()
	}
	return grpcPresentation.Dial(f.addr, creds)
}

// withClient runs fn against a freshly dialled client.
func (f *remoteFlags) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *grpcPresentation.Client) error) error {
	client, err := f.dial()
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(cmd.Context(), client)
}

func newRemoteCommand() *cobra.Command {
	flags := &remoteFlags{}
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "call a running messagingd",
	}
	cmd.PersistentFlags().StringVar(&flags.addr, "addr", "localhost:9090", "messagingd gRPC address")
	cmd.PersistentFlags().StringVar(&flags.caFile, "ca", "", "CA bundle; enables TLS")
	cmd.PersistentFlags().StringVar(&flags.serverName, "server-name", "", "expected server name for TLS")

	cmd.AddCommand(
		newSubmitCommand(flags),
		newReceiveCommand(flags),
		newThreadCommand(flags),
		newStatsCommand(flags),
		newScenarioCommand(flags),
		newWatchCommand(flags),
	)
	return cmd
}

func newSubmitCommand(remote *remoteFlags) *cobra.Command {
	flags := &messageFlags{}
	cmd := &cobra.Command{
		Use:   "submit [content.json]",
		Short: "submit an outgoing message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, inputArg(args))
			if err != nil {
				return err
			}
			fields := make([]*grpcPresentation.Field, 0, content.Len())
			for _, f := range content.Fields() {
				fields = append(fields, &grpcPresentation.Field{Name: f.Name, Value: f.Value})
			}
			return remote.withClient(cmd, func(ctx context.Context, c *grpcPresentation.Client) error {
				resp, err := c.SubmitMessage(ctx, &grpcPresentation.SubmitMessageRequest{
					Type:       flags.msgType,
					SenderID:   flags.senderID,
					ReceiverID: flags.receiverID,
					Content:    fields,
				})
				if err != nil {
					return err
				}
				if err := printJSON(cmd, resp); err != nil {
					return err
				}
				if !resp.Validation.IsValid {
					return ErrInvalid
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newReceiveCommand(remote *remoteFlags) *cobra.Command {
	var sender string
	cmd := &cobra.Command{
		Use:   "receive [file]",
		Short: "deliver a FIN message as if it arrived from the network",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, inputArg(args))
			if err != nil {
				return err
			}
			return remote.withClient(cmd, func(ctx context.Context, c *grpcPresentation.Client) error {
				resp, err := c.ReceiveMessage(ctx, &grpcPresentation.ReceiveMessageRequest{
					RawMessage: strings.TrimSpace(string(raw)),
					SenderID:   sender,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, resp)
			})
		},
	}
	cmd.Flags().StringVar(&sender, "sender", "", "override the sender BIC of the basic header")
	return cmd
}

func newThreadCommand(remote *remoteFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "thread <message-id>",
		Short: "show the conversation a message belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote.withClient(cmd, func(ctx context.Context, c *grpcPresentation.Client) error {
				resp, err := c.GetThread(ctx, &grpcPresentation.GetThreadRequest{ID: args[0]})
				if err != nil {
					return err
				}
				return printJSON(cmd, resp)
			})
		},
	}
}

func newStatsCommand(remote *remoteFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "print store statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return remote.withClient(cmd, func(ctx context.Context, c *grpcPresentation.Client) error {
				resp, err := c.GetStatistics(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, resp)
			})
		},
	}
}

func newScenarioCommand(remote *remoteFlags) *cobra.Command {
	params := &grpcPresentation.ScenarioParams{}
	var list bool
	cmd := &cobra.Command{
		Use:   "scenario [name]",
		Short: "run a guarantee lifecycle scenario, or list them with --list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote.withClient(cmd, func(ctx context.Context, c *grpcPresentation.Client) error {
				if list || len(args) == 0 {
					resp, err := c.ListScenarios(ctx)
					if err != nil {
						return err
					}
					for _, name := range resp.Scenarios {
						fmt.Fprintln(cmd.OutOrStdout(), name)
					}
					return nil
				}
				resp, err := c.RunScenario(ctx, &grpcPresentation.RunScenarioRequest{Scenario: args[0], Params: params})
				if err != nil {
					return err
				}
				return printJSON(cmd, resp)
			})
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list scenario names")
	cmd.Flags().StringVar(&params.Amount, "amount", "", "guarantee amount")
	cmd.Flags().StringVar(&params.Currency, "currency", "", "guarantee currency")
	cmd.Flags().StringVar(&params.Applicant, "applicant", "", "applicant name")
	cmd.Flags().StringVar(&params.Beneficiary, "beneficiary", "", "beneficiary name")
	cmd.Flags().StringVar(&params.SenderID, "sender", "", "issuing bank BIC")
	cmd.Flags().StringVar(&params.ReceiverID, "receiver", "", "advising bank BIC")
	cmd.Flags().Int32Var(&params.ValidityDays, "validity-days", 0, "days until expiry")
	cmd.Flags().StringVar(&params.AmendmentAmount, "amendment-amount", "", "amended amount")
	cmd.Flags().StringVar(&params.ClaimAmount, "claim-amount", "", "claimed amount")
	cmd.Flags().StringVar(&params.ClaimReason, "claim-reason", "", "claim reason")
	return cmd
}

func newWatchCommand(remote *remoteFlags) *cobra.Command {
	var types []string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "stream store events until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return remote.withClient(cmd, func(ctx context.Context, c *grpcPresentation.Client) error {
				err := c.SubscribeEvents(ctx, &grpcPresentation.SubscribeEventsRequest{EventTypes: types},
					func(e *grpcPresentation.Event) error {
						_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n", e.OccurredAt.AsTime().Format(time.RFC3339Nano), e.EventType, e.AggregateID, e.Payload)
						return err
					})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "event types to show; all when empty")
	return cmd
}
