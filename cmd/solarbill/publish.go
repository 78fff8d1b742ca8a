package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/solarbill/internal/log"
	"github.com/jgoulah/solarbill/internal/pipeline"
	"github.com/jgoulah/solarbill/internal/publisher"
)

var publishInputs inputFlags

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish monthly bills to MQTT",
	Long: `Runs the same billing as report and publishes one retained JSON message per month to
<topic_prefix>/<yyyy-mm> on the broker configured under mqtt.`,
	RunE: runPublish,
}

func init() {
	publishInputs.register(publishCmd, true)
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.MQTT.Enabled {
		return fmt.Errorf("MQTT is not enabled in config")
	}

	opts, err := publishInputs.options(cmd, cfg)
	if err != nil {
		return err
	}
	result, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}
	if len(result.Months) == 0 {
		log.Ctx(ctx).Warn("nothing to publish, no usage in range")
		return nil
	}

	pub, err := publisher.New(cfg.MQTT, cfg.GetTopicPrefix())
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	published, err := pub.PublishMonths(ctx, result.Months)
	if err != nil {
		return fmt.Errorf("published %d/%d months: %w", published, len(result.Months), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Published %d months to %s\n", published, cfg.GetTopicPrefix())
	return nil
}
