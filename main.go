package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medtext/textanalysis-go/client"
	"github.com/medtext/textanalysis-go/config"
	"github.com/medtext/textanalysis-go/pipeline"
)

const envFile = "ta.env"

var (
	// populated at build time via -ldflags
	version   = "unset"
	timestamp = "unset"
)

func main() {
	// Load environment
	env, err := config.Load(envFile)
	if err != nil {
		log.Fatal(err)
	}

	// Setup logging
	var logger *zap.Logger
	switch env.Mode {
	case "dev":
		logger, err = zap.NewDevelopment()
	case "prod":
		logger, err = zap.NewProduction()

	default:
		err = fmt.Errorf("Invalid 'mode' flag: %s", env.Mode)
	}
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		_ = logger.Sync()
	}()
	sugar := logger.Sugar()

	cfg := config.Config{
		Logger:      sugar,
		Environment: env,
	}

	// Log version
	sugar.Infof("Version: %s Timestamp: %s", version, timestamp)

	// Log config
	sugar.Info(env)

	if env.Project == "" || env.Pipeline == "" {
		sugar.Fatal("TA_PROJECT and TA_PIPELINE must be set")
	}
	if len(os.Args) < 2 {
		sugar.Fatalf("usage: %s start|stop|status|analyse [path|pattern ...]", os.Args[0])
	}

	// Setup the platform client and the pipeline handle
	rest := client.New(env.URL, env.APIToken, time.Duration(env.RequestTimeoutSec)*time.Second)
	project := rest.GetProject(env.Project)
	pipe := pipeline.New(&cfg, project, env.Pipeline)

	timeout := time.Duration(env.StateChangeTimeoutSec) * time.Second
	pollInterval := time.Duration(env.StatePollIntervalSec) * time.Second
	ctx := context.Background()

	switch os.Args[1] {
	case "start":
		if err := pipe.EnsureStarted(ctx, timeout, pollInterval); err != nil {
			sugar.Fatal(err)
		}
		sugar.Infof("Pipeline %s/%s started", env.Project, env.Pipeline)

	case "stop":
		if err := pipe.EnsureStopped(ctx, timeout, pollInterval); err != nil {
			sugar.Fatal(err)
		}
		sugar.Infof("Pipeline %s/%s stopped", env.Project, env.Pipeline)

	case "status":
		started, err := pipe.IsStarted(ctx)
		if err != nil {
			sugar.Fatal(err)
		}
		if started {
			fmt.Println("started")
		} else {
			fmt.Println("stopped")
		}

	case "analyse":
		if len(os.Args) < 3 {
			sugar.Fatal("analyse requires at least one path or pattern")
		}
		results, err := pipe.AnalyseTexts(ctx, analysisInputs(os.Args[2:])...)
		if err != nil {
			sugar.Fatal(err)
		}
		encoded, err := json.MarshalIndent(results, "", "    ")
		if err != nil {
			sugar.Fatal(err)
		}
		fmt.Println(string(encoded))

	default:
		sugar.Fatalf("unknown command: %s", os.Args[1])
	}
}

// analysisInputs maps command line arguments onto input adapters, treating
// arguments with glob metacharacters as patterns and the rest as plain paths.
func analysisInputs(args []string) []pipeline.Input {
	inputs := make([]pipeline.Input, 0, len(args))
	for _, arg := range args {
		if strings.ContainsAny(arg, "*?[") {
			inputs = append(inputs, pipeline.Glob(arg))
		} else {
			inputs = append(inputs, pipeline.Path(arg))
		}
	}
	return inputs
}
