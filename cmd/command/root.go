package command

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"strings"

	"github.com/ValentinKolb/cmdclient/cmd/util"
	"github.com/ValentinKolb/cmdclient/rpc/common"
	"github.com/ValentinKolb/cmdclient/rpc/serializer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	for _, cmd := range []*cobra.Command{SendCmd, EncodeCmd} {
		key := "target"
		cmd.Flags().String(key, "127.0.0.1", util.WrapString("Address descriptor the command refers to (IPv4 or IPv6)"))
		key = "payload"
		cmd.Flags().String(key, "", util.WrapString("Text payload, sent as string"))
		key = "payload-json"
		cmd.Flags().String(key, "", util.WrapString("JSON payload, decoded before serialization. Takes precedence over --payload. Objects and arrays need --serializer json or cbor, the binary serializer only takes scalars"))
		key = "payload-list"
		cmd.Flags().String(key, "", util.WrapString("Comma separated list payload, sent as list of strings (e.g. for SendClientList)"))
	}
}

// kindNames lists all command kinds for help texts
func kindNames() string {
	names := make([]string, 0, len(common.AllCommandKinds()))
	for _, k := range common.AllCommandKinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ", ")
}

// buildCommand creates the command described by the positional kind and the payload flags
func buildCommand(cmd *cobra.Command, args []string) (common.Command, error) {
	if err := util.BindCommandFlags(cmd); err != nil {
		return common.Command{}, err
	}

	kind, err := common.ParseCommandKind(args[0])
	if err != nil {
		return common.Command{}, fmt.Errorf("%w (expected one of: %s)", err, kindNames())
	}

	target, err := netip.ParseAddr(viper.GetString("target"))
	if err != nil {
		return common.Command{}, fmt.Errorf("%w: %v", common.ErrInvalidAddress, err)
	}

	payload, err := parsePayload(
		viper.GetString("payload"),
		viper.GetString("payload-json"),
		viper.GetString("payload-list"),
	)
	if err != nil {
		return common.Command{}, err
	}

	s, err := util.GetSerializer(util.GetClientConfig())
	if err != nil {
		return common.Command{}, err
	}
	if err := checkPayload(payload, s); err != nil {
		return common.Command{}, err
	}

	return common.NewCommand(kind, target, payload), nil
}

// checkPayload fails early when the serializer cannot encode the payload
func checkPayload(payload any, s serializer.IPayloadSerializer) error {
	if _, err := s.Serialize(payload); err != nil {
		return fmt.Errorf("the %s serializer cannot encode a %T payload (try --serializer json or cbor): %w", s.Name(), payload, err)
	}
	return nil
}

// parsePayload picks the payload from the flags: json before list before text.
// No flag set means no payload.
func parsePayload(text, jsonText, list string) (any, error) {
	switch {
	case jsonText != "":
		var v any
		if err := json.Unmarshal([]byte(jsonText), &v); err != nil {
			return nil, fmt.Errorf("invalid json payload: %w", err)
		}
		return v, nil
	case list != "":
		return strings.Split(list, ","), nil
	case text != "":
		return text, nil
	default:
		return nil, nil
	}
}
