package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/uday-t-s/car-brand-sales/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set cardash configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "listen_addr: %s\n", c.ListenAddr)
		fmt.Fprintf(out, "max_upload_mb: %d\n", c.MaxUploadMB)
		fmt.Fprintf(out, "max_sessions: %d\n", c.MaxSessions)
		fmt.Fprintf(out, "chart_width: %d\n", c.ChartWidth)
		fmt.Fprintf(out, "chart_height: %d\n", c.ChartHeight)
		fmt.Fprintf(out, "display_rows: %d\n", c.DisplayRows)
		fmt.Fprintf(out, "model_path: %s\n", c.ModelPath)
		fmt.Fprintf(out, "label_column: %s\n", c.LabelColumn)
		fmt.Fprintf(out, "categorical_features: %s\n", strings.Join(c.CategoricalFeatures, ","))
		fmt.Fprintf(out, "n_estimators: %d\n", c.NEstimators)
		fmt.Fprintf(out, "test_size: %.3f\n", c.TestSize)
		fmt.Fprintf(out, "random_state: %d\n", c.RandomState)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := settings()
		if err != nil {
			return err
		}
		if err := setKey(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cmd.Println("Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	positive := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return 0, fmt.Errorf("invalid positive int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "listen_addr":
		c.ListenAddr = val
	case "max_upload_mb":
		c.MaxUploadMB, err = positive()
	case "max_sessions":
		c.MaxSessions, err = positive()
	case "chart_width":
		c.ChartWidth, err = positive()
	case "chart_height":
		c.ChartHeight, err = positive()
	case "display_rows":
		c.DisplayRows, err = positive()
	case "n_estimators":
		c.NEstimators, err = positive()
	case "model_path":
		c.ModelPath = val
	case "label_column":
		c.LabelColumn = val
	case "categorical_features":
		var cols []string
		for _, s := range strings.Split(val, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cols = append(cols, s)
			}
		}
		c.CategoricalFeatures = cols
	case "test_size":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f <= 0 || f >= 1 {
			return fmt.Errorf("invalid float for test_size (0 < x < 1): %v", val)
		}
		c.TestSize = f
	case "random_state":
		i, perr := strconv.ParseInt(val, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid int for random_state: %w", perr)
		}
		c.RandomState = i
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
