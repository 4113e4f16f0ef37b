package main

import (
	"context"
	"time"

	"github.com/andyle182810/hyperion-go/hyperion"
	"github.com/andyle182810/hyperion-go/poller"
	"github.com/spf13/cobra"
)

func (a *app) newMonitorCmd() *cobra.Command {
	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Inspect monitoring data",
	}

	var watch time.Duration

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current metrics and recent logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watch <= 0 {
				result, err := a.client.GetMonitoringSnapshot(cmd.Context())
				if err != nil {
					return err
				}

				return a.print(result)
			}

			return a.watchMonitoring(cmd, watch)
		},
	}
	statusCmd.Flags().DurationVar(&watch, "watch", 0, "Refresh the snapshot at this interval until interrupted")

	monitorCmd.AddCommand(statusCmd)

	return monitorCmd
}

// watchMonitoring prints a snapshot every interval until the command context
// is cancelled. Failed refreshes are logged and retried on the next tick.
func (a *app) watchMonitoring(cmd *cobra.Command, interval time.Duration) error {
	refresh := poller.ExecutorFunc(func(ctx context.Context) error {
		result, err := a.client.GetMonitoringSnapshot(ctx)
		if err != nil {
			return err
		}

		return a.print(result)
	})

	return poller.New(refresh,
		poller.WithName("monitor-status"),
		poller.WithInterval(interval),
		poller.WithLogger(a.logger),
	).Run(cmd.Context())
}

func (a *app) newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show deployment health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.client.GetHealth(cmd.Context())
			if err != nil {
				return err
			}

			return a.print(result)
		},
	}
}

func (a *app) newAutoscaleCmd() *cobra.Command {
	autoscaleCmd := &cobra.Command{
		Use:   "autoscale",
		Short: "Request autoscaling decisions",
	}

	var replicas int

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Ask the server whether to scale",
		Long: `Ask the server for a scaling decision. Without --replicas the server
decides from its current replica count.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var current *int
			if cmd.Flags().Changed("replicas") {
				current = hyperion.Replicas(replicas)
			}

			result, err := a.client.AutoscalePlan(cmd.Context(), current)
			if err != nil {
				return err
			}

			return a.print(result)
		},
	}
	planCmd.Flags().IntVar(&replicas, "replicas", 0, "Current replica count")

	autoscaleCmd.AddCommand(planCmd)

	return autoscaleCmd
}

func (a *app) newDeployCmd() *cobra.Command {
	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Plan, apply and inspect deployments",
	}

	deployCmd.AddCommand(
		a.newDeployPlanCmd(),
		a.newDeployApplyCmd(),
		&cobra.Command{
			Use:   "status",
			Short: "Show the state of the last deployment",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				result, err := a.client.DeploymentStatus(cmd.Context())
				if err != nil {
					return err
				}

				return a.print(result)
			},
		},
	)

	return deployCmd
}

func (a *app) newDeployPlanCmd() *cobra.Command {
	var file string

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a deployment plan without applying it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deployment, err := loadDeploymentConfig(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			result, err := a.client.DeploymentPlan(cmd.Context(), deployment)
			if err != nil {
				return err
			}

			return a.print(result)
		},
	}
	planCmd.Flags().StringVarP(&file, "file", "f", "", "Deployment config file (.json, .yaml, .yml or - for stdin)")
	_ = planCmd.MarkFlagRequired("file")

	return planCmd
}

func (a *app) newDeployApplyCmd() *cobra.Command {
	var (
		file  string
		notes string
	)

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a deployment config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deployment, err := loadDeploymentConfig(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			if notes != "" {
				if deployment == nil {
					deployment = make(map[string]any)
				}

				deployment["notes"] = notes
			}

			a.logger.Info().Str("file", file).Msg("Applying deployment config")

			result, err := a.client.DeploymentApply(cmd.Context(), deployment)
			if err != nil {
				return err
			}

			return a.print(result)
		},
	}
	applyCmd.Flags().StringVarP(&file, "file", "f", "", "Deployment config file (.json, .yaml, .yml or - for stdin)")
	applyCmd.Flags().StringVar(&notes, "notes", "", "Free-form notes recorded with the deployment")
	_ = applyCmd.MarkFlagRequired("file")

	return applyCmd
}
