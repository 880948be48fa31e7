// Package servecmder provides the serve command for hosting story sessions
// over HTTP and MCP.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kataru/api"
	"github.com/papercomputeco/kataru/cmd/kataru/settings"
	"github.com/papercomputeco/kataru/cmd/kataru/sqlitepath"
	"github.com/papercomputeco/kataru/pkg/config"
	"github.com/papercomputeco/kataru/pkg/eventstream"
	"github.com/papercomputeco/kataru/pkg/eventstream/kafka"
	"github.com/papercomputeco/kataru/pkg/eventstream/nop"
	"github.com/papercomputeco/kataru/pkg/host"
	"github.com/papercomputeco/kataru/pkg/session"
	"github.com/papercomputeco/kataru/pkg/storage"
	"github.com/papercomputeco/kataru/pkg/storage/postgres"
	"github.com/papercomputeco/kataru/pkg/storage/sqlite"
	"github.com/papercomputeco/kataru/pkg/story"
)

type serveCommander struct {
	storyPath    string
	validate     bool
	sqlitePath   string
	postgresDSN  string
	listen       string
	mcp          bool
	kafkaBrokers string
	kafkaTopic   string
	maxSteps     uint
	configDir    string

	logger *slog.Logger
}

const serveLongDesc string = `Serve a story over HTTP.

Each client opens its own session and drives it through the /v1/sessions
endpoints. With --mcp the same sessions are exposed as MCP tools at /mcp.

Snapshots exported by sessions are archived in PostgreSQL when --postgres is
set, otherwise in the SQLite archive. With --kafka-brokers every session
change is published as an event to --kafka-topic.

Examples:
  kataru serve
  kataru serve --story tales/ --listen :9000
  kataru serve --postgres postgres://localhost/kataru --kafka-brokers localhost:9092`

const serveShortDesc string = "Serve story sessions over HTTP and MCP"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := settings.Load(cmd,
				config.FlagStory,
				config.FlagValidate,
				config.FlagSQLite,
				config.FlagPostgres,
				config.FlagListen,
				config.FlagMCP,
				config.FlagBrokers,
				config.FlagTopic,
				config.FlagMaxSteps,
			)
			if err != nil {
				return err
			}

			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.storyPath = v.GetString("story.path")
			cmder.validate = v.GetBool("story.validate")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.postgresDSN = v.GetString("storage.postgres_dsn")
			cmder.listen = v.GetString("serve.listen")
			cmder.mcp = v.GetBool("serve.mcp")
			cmder.kafkaBrokers = v.GetString("events.kafka_brokers")
			cmder.kafkaTopic = v.GetString("events.kafka_topic")
			cmder.maxSteps = v.GetUint("run.max_steps")
			cmder.logger = settings.Logger(v, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx)
		},
	}

	config.AddStringFlag(cmd, config.KataruFlags, config.FlagStory, &cmder.storyPath)
	config.AddBoolFlag(cmd, config.KataruFlags, config.FlagValidate, &cmder.validate)
	config.AddStringFlag(cmd, config.KataruFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.KataruFlags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.KataruFlags, config.FlagListen, &cmder.listen)
	config.AddBoolFlag(cmd, config.KataruFlags, config.FlagMCP, &cmder.mcp)
	config.AddStringFlag(cmd, config.KataruFlags, config.FlagBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, config.KataruFlags, config.FlagTopic, &cmder.kafkaTopic)
	config.AddUintFlag(cmd, config.KataruFlags, config.FlagMaxSteps, &cmder.maxSteps)

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	st, err := story.Load(c.storyPath)
	if err != nil {
		return fmt.Errorf("loading story: %w", err)
	}

	archive, err := c.newStorageDriver(ctx)
	if err != nil {
		return err
	}
	defer archive.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}

	h := host.New(st,
		host.WithValidate(c.validate),
		host.WithName(c.storyPath),
		host.WithArchive(archive),
		host.WithPublisher(publisher),
		host.WithLogger(c.logger),
		host.WithSessionOptions(session.WithMaxSteps(int(c.maxSteps))),
	)
	defer func() {
		if err := h.CloseAll(context.WithoutCancel(ctx)); err != nil {
			c.logger.Error("closing sessions", "error", err)
		}
	}()

	server, err := api.NewServer(api.Config{
		ListenAddr: c.listen,
		EnableMCP:  c.mcp,
	}, h, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		c.logger.Info("shutting down API server")
		if err := server.Shutdown(); err != nil {
			return fmt.Errorf("shutting down API server: %w", err)
		}
		return nil
	}
}

func (c *serveCommander) newStorageDriver(ctx context.Context) (storage.Driver, error) {
	if c.postgresDSN != "" {
		driver, err := postgres.NewDriver(ctx, c.postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening PostgreSQL archive: %w", err)
		}
		c.logger.Info("using PostgreSQL snapshot archive")
		return driver, nil
	}

	path, err := sqlitepath.ResolveOrDefault(c.sqlitePath, c.configDir)
	if err != nil {
		return nil, err
	}
	driver, err := sqlite.NewSQLiteDriver(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot archive: %w", err)
	}
	c.logger.Info("using SQLite snapshot archive", "path", path)
	return driver, nil
}

func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	if c.kafkaBrokers == "" {
		return nop.NewPublisher(), nil
	}

	var brokers []string
	for _, b := range strings.Split(c.kafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("no usable Kafka brokers in --kafka-brokers")
	}

	publisher, err := kafka.NewPublisher(kafka.Config{
		Brokers: brokers,
		Topic:   c.kafkaTopic,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Kafka publisher: %w", err)
	}
	c.logger.Info("publishing session events to Kafka",
		"brokers", brokers,
		"topic", c.kafkaTopic,
	)
	return publisher, nil
}
