package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configSet  []string
	configShow bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or persist configuration values",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(configSet) == 0 && !configShow {
			configShow = true
		}

		for _, pair := range configSet {
			key, value, ok := strings.Cut(pair, "=")
			if !ok || key == "" {
				return errors.New("--set expects key=value, e.g. --set api.key=XXXX")
			}
			if err := getApp().SetConfig(cfgFile, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
				return err
			}
		}

		if configShow {
			return getApp().ShowConfig()
		}
		return nil
	},
}

func init() {
	configCmd.Flags().StringArrayVar(&configSet, "set", nil, "Persist key=value into the config file (repeatable)")
	configCmd.Flags().BoolVar(&configShow, "show", false, "Print the effective configuration with secrets masked")
}
