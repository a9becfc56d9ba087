package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/conference-central/internal/queue"
)

// NewWorkerCommand creates the worker command.
func NewWorkerCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume background tasks from RabbitMQ",
		Long: `Consume confirmation e-mail and featured-speaker tasks from
RABBITMQ_QUEUE. Failed tasks are rejected without requeue.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if opts.cfg.Queue.URL == "" {
				return errNoQueue
			}
			a, err := newApp(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer a.close()

			w := queue.NewWorker(a.cfg.Queue.URL, a.cfg.Queue.Name, a.cfg.Queue.Prefetch, a.taskHandlers(), a.log)
			a.log.Info("worker started", "queue", a.cfg.Queue.Name)
			return w.Run(ctx)
		},
	}
}
