package command

import (
	"encoding/hex"
	"fmt"

	"github.com/ValentinKolb/cmdclient/cmd/util"
	"github.com/ValentinKolb/cmdclient/rpc/common"
	"github.com/ValentinKolb/cmdclient/rpc/transport/base"
	"github.com/spf13/cobra"
)

var (
	// SendCmd dials the configured endpoint and sends a single command
	SendCmd = &cobra.Command{
		Use:   "send [kind]",
		Short: "Sends a single command to the peer",
		Long:  "Sends a single command to the peer.\n\nKinds: " + kindNames(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := buildCommand(cmd, args)
			if err != nil {
				return err
			}

			config := util.GetClientConfig()
			c, err := util.NewConnectedClient(config)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Send(command); err != nil {
				return err
			}
			fmt.Printf("sent %s to %s\n", command, config.Endpoint)
			return nil
		},
	}

	// EncodeCmd prints the frame of a command without touching the network
	EncodeCmd = &cobra.Command{
		Use:   "encode [kind]",
		Short: "Prints the wire frame of a command",
		Long:  "Prints the wire frame of a command as hex dump, nothing is sent.\n\nKinds: " + kindNames(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := buildCommand(cmd, args)
			if err != nil {
				return err
			}

			s, err := util.GetSerializer(util.GetClientConfig())
			if err != nil {
				return err
			}

			frame, err := base.EncodeFrame(command, s)
			if err != nil {
				return err
			}

			fmt.Printf("%s, %d bytes (%s serializer)\n\n", command, frame.Len(), s.Name())
			for i, field := range frame.Fields() {
				fmt.Printf("%-16s%s\n", common.FrameField(i).String()+":", hex.EncodeToString(field))
			}
			fmt.Println()
			fmt.Print(hex.Dump(frame.Bytes()))
			return nil
		},
	}
)
