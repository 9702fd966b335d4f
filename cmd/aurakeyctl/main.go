// aurakeyctl is the CLI client for aurakeyd: it speaks the framed profile
// management protocol over the daemon's unix socket.
package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/aurakey-ble/protocol"
	"github.com/user/aurakey-ble/transport"
	"github.com/user/aurakey-ble/util"
)

var flagSocket string

func main() {
	rootCmd := &cobra.Command{
		Use:   "aurakeyctl",
		Short: "Manage a wireless keyboard's BLE profiles",
		Long: `aurakeyctl talks to aurakeyd over its unix socket to list profile
slots, name the devices paired to them, switch the active profile, unpair
slots, and inspect or reset a split keyboard's inter-half bond.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagSocket, "socket", util.GetSocketPath(), "daemon socket path")

	rootCmd.AddCommand(
		profilesCmd(),
		renameCmd(),
		switchCmd(),
		unpairCmd(),
		splitInfoCmd(),
		forgetSplitBondCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// call sends one request and decodes the response union, surfacing the
// protocol's error variant as a Go error.
func call(req *protocol.Request) (*protocol.Response, error) {
	client, err := transport.Dial(flagSocket)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	respBytes, err := client.Call(req.Marshal())
	if err != nil {
		return nil, err
	}

	var resp protocol.Response
	if err := resp.Unmarshal(respBytes); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("device error: %s", resp.Error.Message)
	}
	return &resp, nil
}

func parseIndex(arg string) (uint32, error) {
	n, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid profile index %q", arg)
	}
	return uint32(n), nil
}

func reportSuccess(op string, success bool) error {
	if !success {
		return fmt.Errorf("%s failed", op)
	}
	fmt.Printf("%s: ok\n", op)
	return nil
}

func profilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List profile slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := call(&protocol.Request{GetProfiles: &protocol.GetProfilesRequest{}})
			if err != nil {
				return err
			}
			table := resp.GetProfiles
			if table == nil {
				return fmt.Errorf("unexpected response variant")
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "IDX\tSTATE\tACTIVE\tADDRESS\tNAME")
			for _, p := range table.Profiles {
				state := "paired"
				if p.IsOpen {
					state = "open"
				} else if p.IsConnected {
					state = "connected"
				}
				active := ""
				if p.IsActive {
					active = "*"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.Index, state, active, p.Address, p.Name)
			}
			w.Flush()
			fmt.Printf("(%d slots)\n", table.MaxProfiles)
			return nil
		},
	}
}

func renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <index> <name>",
		Short: "Name the device paired to a slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			resp, err := call(&protocol.Request{SetProfileName: &protocol.SetProfileNameRequest{
				Index: index,
				Name:  args[1],
			}})
			if err != nil {
				return err
			}
			if resp.SetProfileName == nil {
				return fmt.Errorf("unexpected response variant")
			}
			return reportSuccess("rename", resp.SetProfileName.Success)
		},
	}
}

func switchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <index>",
		Short: "Switch the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			resp, err := call(&protocol.Request{SwitchProfile: &protocol.SwitchProfileRequest{Index: index}})
			if err != nil {
				return err
			}
			if resp.SwitchProfile == nil {
				return fmt.Errorf("unexpected response variant")
			}
			return reportSuccess("switch", resp.SwitchProfile.Success)
		},
	}
}

func unpairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpair <index>",
		Short: "Disconnect and unpair a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			resp, err := call(&protocol.Request{UnpairProfile: &protocol.UnpairProfileRequest{Index: index}})
			if err != nil {
				return err
			}
			if resp.UnpairProfile == nil {
				return fmt.Errorf("unexpected response variant")
			}
			return reportSuccess("unpair", resp.UnpairProfile.Success)
		},
	}
}

func splitInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split-info",
		Short: "Show split keyboard state",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := call(&protocol.Request{GetSplitInfo: &protocol.GetSplitInfoRequest{}})
			if err != nil {
				return err
			}
			if resp.GetSplitInfo == nil || resp.GetSplitInfo.Info == nil {
				return fmt.Errorf("unexpected response variant")
			}
			info := resp.GetSplitInfo.Info
			fmt.Printf("split:                %v\n", info.IsSplit)
			fmt.Printf("central:              %v\n", info.IsCentral)
			fmt.Printf("peripheral:           %v\n", info.IsPeripheral)
			fmt.Printf("peripheral connected: %v\n", info.PeripheralConnected)
			fmt.Printf("central bonded:       %v\n", info.CentralBonded)
			return nil
		},
	}
}

func forgetSplitBondCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget-split-bond",
		Short: "Clear all bonds to reset the split connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := call(&protocol.Request{ForgetSplitBond: &protocol.ForgetSplitBondRequest{}})
			if err != nil {
				return err
			}
			if resp.ForgetSplitBond == nil {
				return fmt.Errorf("unexpected response variant")
			}
			return reportSuccess("forget-split-bond", resp.ForgetSplitBond.Success)
		},
	}
}
