package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bibbank/guarantee-messaging/internal/domain/service"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// ErrInvalid is returned by validate when the message has errors.
var ErrInvalid = errors.New("message is invalid")

type decodedOutput struct {
	Type       string            `json:"type"`
	TypeName   string            `json:"type_name"`
	SenderID   string            `json:"sender_id"`
	ReceiverID string            `json:"receiver_id"`
	Content    swift.Content     `json:"content"`
	Unmapped   map[string]string `json:"unmapped_tags,omitempty"`
	Checksum   string            `json:"checksum,omitempty"`
}

type validationOutput struct {
	IsValid       bool     `json:"is_valid"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	FieldsChecked int      `json:"fields_checked"`
}

func newDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "decode a FIN message into named fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, inputArg(args))
			if err != nil {
				return err
			}
			decoded, err := swift.Decode(strings.TrimSpace(string(raw)))
			if err != nil {
				return err
			}
			return printJSON(cmd, decodedOutput{
				Type:       decoded.Type.String(),
				TypeName:   decoded.Type.Name(),
				SenderID:   decoded.SenderID,
				ReceiverID: decoded.ReceiverID,
				Content:    decoded.Content,
				Unmapped:   unmappedTags(decoded),
				Checksum:   decoded.Checksum,
			})
		},
	}
}

// unmappedTags returns the tags of the text block that no field name covers.
func unmappedTags(d swift.Decoded) map[string]string {
	mapped := make(map[string]bool)
	for _, spec := range swift.Layout(d.Type) {
		mapped[spec.Tag] = true
	}
	out := make(map[string]string)
	for tag, value := range d.Tags {
		if !mapped[tag] {
			out[tag] = value
		}
	}
	return out
}

type messageFlags struct {
	msgType    string
	senderID   string
	receiverID string
}

func (f *messageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.msgType, "type", "", "message type, e.g. MT760 or 760")
	cmd.Flags().StringVar(&f.senderID, "sender", "", "sender BIC")
	cmd.Flags().StringVar(&f.receiverID, "receiver", "", "receiver BIC")
}

// readContent parses a JSON object of field names to values, keeping the
// order in which the fields appear.
func readContent(cmd *cobra.Command, path string) (swift.Content, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return swift.Content{}, err
	}
	var content swift.Content
	if err := json.Unmarshal(data, &content); err != nil {
		return swift.Content{}, fmt.Errorf("parse content: %w", err)
	}
	return content, nil
}

func newEncodeCommand() *cobra.Command {
	flags := &messageFlags{}
	cmd := &cobra.Command{
		Use:   "encode [content.json]",
		Short: "encode named fields as a FIN message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgType, err := swift.ParseMessageType(flags.msgType)
			if err != nil {
				return err
			}
			content, err := readContent(cmd, inputArg(args))
			if err != nil {
				return err
			}
			wire, err := swift.Encode(content, msgType, flags.senderID, flags.receiverID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), wire)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newValidateCommand() *cobra.Command {
	flags := &messageFlags{}
	var wire bool
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "validate a message given as JSON fields or, with --wire, as FIN text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				msgType  swift.MessageType
				sender   = flags.senderID
				receiver = flags.receiverID
				content  swift.Content
			)
			if wire {
				raw, err := readInput(cmd, inputArg(args))
				if err != nil {
					return err
				}
				decoded, err := swift.Decode(strings.TrimSpace(string(raw)))
				if err != nil {
					return err
				}
				msgType, content = decoded.Type, decoded.Content
				if sender == "" {
					sender = decoded.SenderID
				}
				if receiver == "" {
					receiver = decoded.ReceiverID
				}
			} else {
				var err error
				if msgType, err = swift.ParseMessageType(flags.msgType); err != nil {
					return err
				}
				if content, err = readContent(cmd, inputArg(args)); err != nil {
					return err
				}
			}

			result := service.NewValidator().Validate(msgType, sender, receiver, content)
			if err := printJSON(cmd, validationOutput{
				IsValid:       result.IsValid,
				Errors:        result.Errors,
				Warnings:      result.Warnings,
				FieldsChecked: result.FieldsChecked,
			}); err != nil {
				return err
			}
			if !result.IsValid {
				return ErrInvalid
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&wire, "wire", false, "input is FIN text rather than JSON fields")
	return cmd
}
